// Package store is the durable key-value surface behind the history cache and the notes buffer.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("store: key not found")

// KV holds whole records under string keys. Put replaces the previous value.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

const (
	KeyHistory = "ic_scan_history"
	KeyNotes   = "ic_research_notes"
)

type prefixed struct {
	kv     KV
	prefix string
}

// WithPrefix namespaces every key of kv, e.g. one namespace per chat.
func WithPrefix(kv KV, prefix string) KV {
	return prefixed{kv: kv, prefix: prefix}
}

func (p prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.kv.Get(ctx, p.prefix+key)
}

func (p prefixed) Put(ctx context.Context, key string, value []byte) error {
	return p.kv.Put(ctx, p.prefix+key, value)
}

// LoadNotes returns the research notes, or "" when none were saved.
func LoadNotes(ctx context.Context, kv KV) (string, error) {
	b, err := kv.Get(ctx, KeyNotes)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func SaveNotes(ctx context.Context, kv KV, notes string) error {
	return kv.Put(ctx, KeyNotes, []byte(notes))
}

// Options selects and configures a backend for Open.
type Options struct {
	Kind string // file | sqlite | postgres | minio

	Dir         string // file
	SQLitePath  string // sqlite
	DatabaseURL string // postgres
	Minio       MinioOptions
}

// Open builds the backend named by opt.Kind. The returned close func is never nil.
func Open(ctx context.Context, opt Options) (KV, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(opt.Kind)) {
	case "", "file":
		kv, err := NewFile(opt.Dir)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	case "sqlite":
		kv, err := NewSQLite(ctx, opt.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return kv, kv.Close, nil
	case "postgres", "pg":
		kv, err := NewPostgres(ctx, opt.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return kv, kv.Close, nil
	case "minio", "s3":
		kv, err := NewMinio(ctx, opt.Minio)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store %q; use file | sqlite | postgres | minio", opt.Kind)
	}
}
