package platform

import (
	"errors"
	"fmt"
	"strings"
)

var errEmptyCommand = errors.New("launch command is empty")

// LoginLauncher registers the app to open when the user logs in.
type LoginLauncher struct {
	appName string
	homeDir string
}

// NewLoginLauncher creates a launcher rooted at the given home directory.
// An empty homeDir resolves to the current user's home.
func NewLoginLauncher(appName, homeDir string) *LoginLauncher {
	return &LoginLauncher{appName: appName, homeDir: homeDir}
}

// Enable writes the OS login entry running command (binary followed by args).
func (launcher *LoginLauncher) Enable(command []string) error {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return fmt.Errorf("enable login launch: %w", errEmptyCommand)
	}
	if err := launcher.enable(command); err != nil {
		return fmt.Errorf("enable login launch: %w", err)
	}
	return nil
}

// Disable removes the login entry. A missing entry is not an error.
func (launcher *LoginLauncher) Disable() error {
	if err := launcher.disable(); err != nil {
		return fmt.Errorf("disable login launch: %w", err)
	}
	return nil
}

// Enabled reports whether a login entry is present.
func (launcher *LoginLauncher) Enabled() bool {
	return launcher.enabled()
}

func (launcher *LoginLauncher) slug() string {
	name := strings.ToLower(strings.TrimSpace(launcher.appName))
	if name == "" {
		name = "stillpoint"
	}
	return strings.ReplaceAll(name, " ", "-")
}

func quoteArg(arg string) string {
	if strings.ContainsAny(arg, " \t\"") {
		return `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
	}
	return arg
}

func joinCommand(command []string) string {
	quoted := make([]string, len(command))
	for i, arg := range command {
		quoted[i] = quoteArg(arg)
	}
	return strings.Join(quoted, " ")
}
