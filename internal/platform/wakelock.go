package platform

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrUnsupported indicates the capability is not available on this system.
var ErrUnsupported = errors.New("capability unsupported")

// Inhibitor keeps the display awake until the returned release func is called.
// onLost is invoked if the platform drops the inhibition on its own.
type Inhibitor interface {
	Inhibit(reason string, onLost func()) (release func() error, err error)
}

// WakeLockGuard wraps an Inhibitor with idempotent, best-effort acquire/release.
type WakeLockGuard struct {
	mu        sync.Mutex
	inhibitor Inhibitor
	logger    *slog.Logger
	reason    string
	wanted    bool
	release   func() error
	epoch     int
}

// NewWakeLockGuard creates a guard around the platform inhibitor.
func NewWakeLockGuard(inhibitor Inhibitor, logger *slog.Logger) *WakeLockGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &WakeLockGuard{
		inhibitor: inhibitor,
		logger:    logger,
		reason:    "meditation session in progress",
	}
}

// Acquire requests the wake lock. Failures are logged, never returned.
func (guard *WakeLockGuard) Acquire() {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	guard.wanted = true
	guard.acquireLocked()
}

// Release drops the wake lock if held. Calling it again is a no-op.
func (guard *WakeLockGuard) Release() {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	guard.wanted = false
	guard.epoch++
	if guard.release == nil {
		return
	}
	release := guard.release
	guard.release = nil
	if err := release(); err != nil {
		guard.logger.Warn("wake lock release failed", "error", err)
		return
	}
	guard.logger.Debug("wake lock released")
}

// Reacquire restores a lock the platform dropped while it was still wanted.
func (guard *WakeLockGuard) Reacquire() {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	if !guard.wanted || guard.release != nil {
		return
	}
	guard.acquireLocked()
}

// Held reports whether the lock is currently held.
func (guard *WakeLockGuard) Held() bool {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	return guard.release != nil
}

func (guard *WakeLockGuard) acquireLocked() {
	if guard.release != nil || guard.inhibitor == nil {
		return
	}
	guard.epoch++
	epoch := guard.epoch
	release, err := guard.inhibitor.Inhibit(guard.reason, func() {
		guard.markLost(epoch)
	})
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			guard.logger.Debug("wake lock unsupported")
			return
		}
		guard.logger.Warn("wake lock request failed", "error", err)
		return
	}
	guard.release = release
	guard.logger.Debug("wake lock acquired")
}

func (guard *WakeLockGuard) markLost(epoch int) {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	if epoch != guard.epoch {
		return
	}
	guard.release = nil
	guard.logger.Info("wake lock released by platform")
}

type unsupportedInhibitor struct{}

func (unsupportedInhibitor) Inhibit(string, func()) (func() error, error) {
	return nil, ErrUnsupported
}
