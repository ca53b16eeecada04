//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows"
)

const (
	esContinuous      = 0x80000000
	esDisplayRequired = 0x00000002
)

var (
	kernel32DLL                 = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadExecutionState = kernel32DLL.NewProc("SetThreadExecutionState")
)

type executionStateInhibitor struct{}

// NewInhibitor returns the platform wake lock implementation.
func NewInhibitor(string) Inhibitor {
	if err := procSetThreadExecutionState.Find(); err != nil {
		return unsupportedInhibitor{}
	}
	return executionStateInhibitor{}
}

func (executionStateInhibitor) Inhibit(string, func()) (func() error, error) {
	previous, _, callErr := procSetThreadExecutionState.Call(uintptr(esContinuous | esDisplayRequired))
	if previous == 0 {
		return nil, fmt.Errorf("set execution state: %w", callErr)
	}
	return func() error {
		result, _, callErr := procSetThreadExecutionState.Call(uintptr(esContinuous))
		if result == 0 {
			return fmt.Errorf("reset execution state: %w", callErr)
		}
		return nil
	}, nil
}
