//go:build !windows

package overlay

// Other platforms fade through the background rectangle only.
func (overlay *Window) applyNativeOpacity(uint8) {}
