package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"chip-scanner/api/internal/app"
	"chip-scanner/api/internal/report"
	"chip-scanner/api/internal/session"
	"chip-scanner/api/internal/store"
	"chip-scanner/api/internal/util"
)

// keyActive remembers the scan that ask/reset act on between invocations.
const keyActive = "cli_active_scan"

type appOpener func(ctx context.Context, engine string) (*app.App, error)

func newRootCmd(open appOpener) *cobra.Command {
	var engine string
	root := &cobra.Command{
		Use:           "scanner-cli",
		Short:         "Identify electronic components from photos",
		Long:          `Command line client for the component scanner. Scans are kept in the local history shared with the API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&engine, "engine", "", "inference engine: gemini | genai | openai (default from ENGINE)")

	// withSession opens the app for one command and closes it afterwards.
	withSession := func(run func(ctx context.Context, a *app.App, sess *session.Controller, out io.Writer, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := open(ctx, engine)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(ctx, a, a.Session(ctx, ""), cmd.OutOrStdout(), args)
		}
	}

	var asJSON bool
	scan := &cobra.Command{
		Use:   "scan <image>",
		Short: "Analyze a component photo and print its dossier",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, a *app.App, sess *session.Controller, out io.Writer, args []string) error {
			img, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, 180*time.Second)
			defer cancel()
			st, err := sess.Submit(ctx, img, util.PickMIME("", "", img))
			if err != nil {
				return err
			}
			if err := a.KV.Put(ctx, keyActive, []byte(st.HistoryID)); err != nil {
				return err
			}
			return printReport(out, *st.Report, asJSON)
		}),
	}
	scan.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	ask := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask about the active scan",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSession(func(ctx context.Context, a *app.App, sess *session.Controller, out io.Writer, args []string) error {
			if err := restoreActive(ctx, a.KV, sess); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, 70*time.Second)
			defer cancel()
			answer, err := sess.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, answer)
			return err
		}),
	}

	hist := &cobra.Command{
		Use:   "history",
		Short: "List recent scans, newest first",
		Args:  cobra.NoArgs,
		RunE: withSession(func(_ context.Context, _ *app.App, sess *session.Controller, out io.Writer, _ []string) error {
			items := sess.History()
			if len(items) == 0 {
				_, err := fmt.Fprintln(out, "no scans yet")
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tID\tNAME\tPART\tWHEN")
			for i, it := range items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, it.ID, report.Display(it.Name),
					report.Display(it.Report.Identification.PartNumber), it.Time().Format(time.DateTime))
			}
			return tw.Flush()
		}),
	}

	openCmd := &cobra.Command{
		Use:   "open <id|n>",
		Short: "Make a past scan active and print its dossier",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, a *app.App, sess *session.Controller, out io.Writer, args []string) error {
			id := resolveID(sess, args[0])
			st, err := sess.SelectHistory(id)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := a.KV.Put(ctx, keyActive, []byte(id)); err != nil {
				return err
			}
			return printReport(out, *st.Report, false)
		}),
	}

	notes := &cobra.Command{
		Use:   "notes [text]",
		Short: "Show or replace the research notes",
		RunE: withSession(func(ctx context.Context, _ *app.App, sess *session.Controller, out io.Writer, args []string) error {
			if len(args) > 0 {
				return sess.SaveNotes(ctx, strings.Join(args, " "))
			}
			text, err := sess.Notes(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, text)
			return err
		}),
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Forget the active scan",
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, a *app.App, _ *session.Controller, _ io.Writer, _ []string) error {
			return a.KV.Put(ctx, keyActive, []byte{})
		}),
	}

	root.AddCommand(scan, ask, hist, openCmd, notes, reset)
	return root
}

// restoreActive reselects the scan remembered by the last scan/open.
func restoreActive(ctx context.Context, kv store.KV, sess *session.Controller) error {
	b, err := kv.Get(ctx, keyActive)
	if errors.Is(err, store.ErrNotFound) || (err == nil && len(b) == 0) {
		return session.ErrNoReport
	}
	if err != nil {
		return err
	}
	if _, err := sess.SelectHistory(string(b)); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return session.ErrNoReport
		}
		return err
	}
	return nil
}

// resolveID accepts a history id or a 1-based position from `history`.
func resolveID(sess *session.Controller, arg string) string {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return arg
	}
	items := sess.History()
	if n < 1 || n > len(items) {
		return arg
	}
	return items[n-1].ID
}

func printReport(out io.Writer, rep report.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return rep.Dossier(out)
}
