package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

const postgresSchema = `
create table if not exists kv_store (
  key        text primary key,
  value      bytea not null,
  updated_at timestamptz not null default now()
)`

type Postgres struct{ DB *sql.DB }

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is empty: set DATABASE_URL")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv_store: %w", err)
	}
	return &Postgres{DB: db}, nil
}

func (r *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.DB.QueryRowContext(ctx, `select value from kv_store where key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put upserts the record; the whole value is replaced.
func (r *Postgres) Put(ctx context.Context, key string, value []byte) error {
	const q = `
insert into kv_store (key, value) values ($1, $2)
on conflict (key) do update
set value = excluded.value, updated_at = now()`
	_, err := r.DB.ExecContext(ctx, q, key, value)
	return err
}

func (r *Postgres) Close() error { return r.DB.Close() }
