//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
	"sync"
)

type caffeinateInhibitor struct {
	path string
}

// NewInhibitor returns the platform wake lock implementation.
func NewInhibitor(string) Inhibitor {
	path, err := exec.LookPath("caffeinate")
	if err != nil {
		return unsupportedInhibitor{}
	}
	return &caffeinateInhibitor{path: path}
}

func (inhibitor *caffeinateInhibitor) Inhibit(_ string, onLost func()) (func() error, error) {
	cmd := exec.Command(inhibitor.path, "-d")
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start caffeinate: %w", err)
	}

	var (
		mu       sync.Mutex
		released bool
	)
	go func() {
		_ = cmd.Wait()
		mu.Lock()
		lost := !released
		mu.Unlock()
		if lost && onLost != nil {
			onLost()
		}
	}()

	return func() error {
		mu.Lock()
		released = true
		mu.Unlock()
		if err := cmd.Process.Kill(); err != nil {
			return fmt.Errorf("stop caffeinate: %w", err)
		}
		return nil
	}, nil
}
