//go:build linux

package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginLauncherWritesDesktopEntry(t *testing.T) {
	home := t.TempDir()
	launcher := NewLoginLauncher("Stillpoint", home)
	assert.False(t, launcher.Enabled())

	require.NoError(t, launcher.Enable([]string{"/opt/still point/stillpoint", "--daily"}))
	assert.True(t, launcher.Enabled())

	data, err := os.ReadFile(filepath.Join(home, ".config", "autostart", "stillpoint.desktop"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `Exec="/opt/still point/stillpoint" --daily`)
	assert.Contains(t, string(data), "Name=Stillpoint")

	require.NoError(t, launcher.Disable())
	assert.False(t, launcher.Enabled())
	require.NoError(t, launcher.Disable())
}

func TestLoginLauncherRejectsEmptyCommand(t *testing.T) {
	launcher := NewLoginLauncher("stillpoint", t.TempDir())
	assert.ErrorIs(t, launcher.Enable(nil), errEmptyCommand)
	assert.ErrorIs(t, launcher.Enable([]string{" "}), errEmptyCommand)
}
