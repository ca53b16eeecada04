package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	appName = "stillpoint"
	appID   = "com.stillpoint.app"
)

type rootOptions struct {
	configPath string
	dbPath     string
	audioDir   string
	logLevel   string
	feedAddr   string
	daily      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Meditation timer with ambient feedback and a session log",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(opts.logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runApp(ctx, opts, logger)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "settings file (default: user config dir)")
	flags.StringVar(&opts.dbPath, "db", "", "session database (default: user config dir)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: error|warn|info|debug")
	root.Flags().StringVar(&opts.audioDir, "audio-dir", "", "directory with ambient.mp3, nature.mp3, sea.mp3 and chime.wav")
	root.Flags().StringVar(&opts.feedAddr, "feed-addr", "", "serve lifecycle events over websocket on this address")
	root.Flags().BoolVar(&opts.daily, "daily", false, "start with the fixed 10 minute daily preset")

	root.AddCommand(newLogCmd(opts))
	root.AddCommand(newSessionsCmd(opts))
	root.AddCommand(newAutostartCmd(opts))
	return root
}

func withContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
