package platform

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// CompletionPattern alternates vibration and pause durations.
var CompletionPattern = []time.Duration{
	300 * time.Millisecond,
	100 * time.Millisecond,
	300 * time.Millisecond,
	100 * time.Millisecond,
	300 * time.Millisecond,
}

// Vibrator drives a haptic motor.
type Vibrator interface {
	Vibrate(pattern []time.Duration) error
}

// NewVibrator returns the platform vibration implementation. Desktop
// targets have no motor, so the result always reports ErrUnsupported.
func NewVibrator() Vibrator {
	return unsupportedVibrator{}
}

type unsupportedVibrator struct{}

func (unsupportedVibrator) Vibrate([]time.Duration) error {
	return ErrUnsupported
}

// Buzzer gates a Vibrator behind the user's vibration setting.
type Buzzer struct {
	mu       sync.Mutex
	vibrator Vibrator
	enabled  bool
	logger   *slog.Logger
}

// NewBuzzer creates a buzzer; a nil vibrator behaves as unsupported.
func NewBuzzer(vibrator Vibrator, enabled bool, logger *slog.Logger) *Buzzer {
	if vibrator == nil {
		vibrator = unsupportedVibrator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Buzzer{vibrator: vibrator, enabled: enabled, logger: logger}
}

// SetEnabled toggles vibration.
func (buzzer *Buzzer) SetEnabled(enabled bool) {
	buzzer.mu.Lock()
	buzzer.enabled = enabled
	buzzer.mu.Unlock()
}

// Enabled reports the current setting.
func (buzzer *Buzzer) Enabled() bool {
	buzzer.mu.Lock()
	defer buzzer.mu.Unlock()
	return buzzer.enabled
}

// Vibrate plays the pattern when enabled and supported.
func (buzzer *Buzzer) Vibrate(pattern []time.Duration) {
	buzzer.mu.Lock()
	enabled := buzzer.enabled
	buzzer.mu.Unlock()
	if !enabled || len(pattern) == 0 {
		return
	}
	if err := buzzer.vibrator.Vibrate(pattern); err != nil {
		if errors.Is(err, ErrUnsupported) {
			buzzer.logger.Debug("vibration unsupported")
			return
		}
		buzzer.logger.Warn("vibration failed", "error", err)
	}
}
