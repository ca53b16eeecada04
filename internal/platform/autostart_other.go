//go:build !linux && !darwin && !windows

package platform

func (launcher *LoginLauncher) enable([]string) error { return ErrUnsupported }
func (launcher *LoginLauncher) disable() error        { return ErrUnsupported }
func (launcher *LoginLauncher) enabled() bool         { return false }
