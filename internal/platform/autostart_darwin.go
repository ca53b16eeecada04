//go:build darwin

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (launcher *LoginLauncher) plistPath() (string, error) {
	home := launcher.homeDir
	if home == "" {
		resolved, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		home = resolved
	}
	return filepath.Join(home, "Library", "LaunchAgents", launcher.label()+".plist"), nil
}

func (launcher *LoginLauncher) label() string {
	return "com." + launcher.slug() + ".daily"
}

func (launcher *LoginLauncher) enable(command []string) error {
	path, err := launcher.plistPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create LaunchAgents dir: %w", err)
	}
	return os.WriteFile(path, []byte(launchAgentPlist(launcher.label(), command)), 0o644)
}

func (launcher *LoginLauncher) disable() error {
	path, err := launcher.plistPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (launcher *LoginLauncher) enabled() bool {
	path, err := launcher.plistPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

var plistEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

func launchAgentPlist(label string, command []string) string {
	var args strings.Builder
	for _, arg := range command {
		fmt.Fprintf(&args, "\t\t<string>%s</string>\n", plistEscaper.Replace(arg))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
%s	</array>
	<key>RunAtLoad</key>
	<true/>
</dict>
</plist>
`, plistEscaper.Replace(label), args.String())
}
