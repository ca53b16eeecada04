//go:build !linux && !darwin && !windows

package platform

// NewInhibitor returns the platform wake lock implementation.
func NewInhibitor(string) Inhibitor {
	return unsupportedInhibitor{}
}
