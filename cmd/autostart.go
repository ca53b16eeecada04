package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stillpoint/internal/platform"
)

func newAutostartCmd(opts *rootOptions) *cobra.Command {
	var home string

	cmd := &cobra.Command{
		Use:       "autostart on|off|status",
		Short:     "Open the daily preset when you log in",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			launcher := platform.NewLoginLauncher(appName, home)
			out := cmd.OutOrStdout()
			switch args[0] {
			case "on":
				command, err := dailyCommand(opts)
				if err != nil {
					return err
				}
				if err := launcher.Enable(command); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, "autostart enabled")
			case "off":
				if err := launcher.Disable(); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, "autostart disabled")
			default:
				if launcher.Enabled() {
					_, _ = fmt.Fprintln(out, "autostart is on")
				} else {
					_, _ = fmt.Fprintln(out, "autostart is off")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&home, "home", "", "home directory to install into")
	_ = cmd.Flags().MarkHidden("home")
	return cmd
}

// dailyCommand is the command line the login entry runs.
func dailyCommand(opts *rootOptions) ([]string, error) {
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	command := []string{executable, "--daily"}
	if opts.configPath != "" {
		command = append(command, "--config", opts.configPath)
	}
	if opts.dbPath != "" {
		command = append(command, "--db", opts.dbPath)
	}
	return command, nil
}
