package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stillpoint/internal/core/handoff"
	"stillpoint/internal/core/model"
	"stillpoint/internal/storage"
)

func openStore(ctx context.Context, opts *rootOptions) (*storage.SessionStore, error) {
	path := opts.dbPath
	if path == "" {
		resolved, err := storage.ResolveSessionsPath(appName)
		if err != nil {
			return nil, err
		}
		path = resolved
	}
	return storage.OpenSessionStore(ctx, path)
}

func newLogCmd(opts *rootOptions) *cobra.Command {
	var fields handoff.Fields

	cmd := &cobra.Command{
		Use:   "log --minutes <n>",
		Short: "Log a meditation session manually",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := withContext(cmd)
			store, err := openStore(ctx, opts)
			if err != nil {
				return err
			}
			defer store.Close()

			if fields.Date == "" {
				fields.Date = time.Now().Format(model.DateLayout)
			}
			if err := fields.ValidateManual(); err != nil {
				return err
			}
			id, err := handoff.NewRecorder(store).Record(ctx, fields)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged %s on %s (%s)\n", handoff.FormatMinutes(fields.DurationMinutes), fields.Date, id)
			return nil
		},
	}
	cmd.Flags().IntVar(&fields.DurationMinutes, "minutes", 0, "session length in minutes")
	cmd.Flags().StringVar(&fields.Date, "date", "", "session date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&fields.Location, "location", "", "where you meditated")
	cmd.Flags().StringVar(&fields.Notes, "notes", "", "free-form notes")
	return cmd
}

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List logged sessions for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := model.YearMonthOf(time.Now())
			if month != "" {
				parsed, err := model.ParseYearMonth(month)
				if err != nil {
					return err
				}
				target = parsed
			}

			ctx := withContext(cmd)
			store, err := openStore(ctx, opts)
			if err != nil {
				return err
			}
			defer store.Close()

			total, sessions, err := handoff.NewRecorder(store).MonthTotal(ctx, target)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				_, _ = fmt.Fprintf(out, "no sessions in %s\n", target)
				return nil
			}
			for _, session := range sessions {
				_, _ = fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", session.Date, handoff.FormatMinutes(session.DurationMinutes), session.Location, session.Notes)
			}
			_, _ = fmt.Fprintf(out, "total %s of %s in %s\n", handoff.FormatMinutes(total), handoff.FormatMinutes(handoff.MonthlyQuotaMinutes), target)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month YYYY-MM (default: current)")
	return cmd
}
