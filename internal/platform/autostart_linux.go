//go:build linux

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

func (launcher *LoginLauncher) entryPath() (string, error) {
	if launcher.homeDir != "" {
		return filepath.Join(launcher.homeDir, ".config", "autostart", launcher.slug()+".desktop"), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "autostart", launcher.slug()+".desktop"), nil
}

func (launcher *LoginLauncher) enable(command []string) error {
	path, err := launcher.entryPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	return os.WriteFile(path, []byte(desktopEntry(launcher.appName, command)), 0o644)
}

func (launcher *LoginLauncher) disable() error {
	path, err := launcher.entryPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (launcher *LoginLauncher) enabled() bool {
	path, err := launcher.entryPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func desktopEntry(appName string, command []string) string {
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Comment=Daily meditation timer
Exec=%s
X-GNOME-Autostart-enabled=true
Terminal=false
`, appName, joinCommand(command))
}
