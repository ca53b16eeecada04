//go:build linux

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutostartToggle(t *testing.T) {
	home := t.TempDir()

	out, err := runCLI(t, "autostart", "status", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, out, "autostart is off")

	out, err = runCLI(t, "autostart", "on", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, out, "autostart enabled")

	out, err = runCLI(t, "autostart", "status", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, out, "autostart is on")

	_, err = runCLI(t, "autostart", "off", "--home", home)
	require.NoError(t, err)

	_, err = runCLI(t, "autostart", "sometimes", "--home", home)
	assert.Error(t, err)
}
