package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pendingTimers struct {
	delays []time.Duration
	fns    []func()
}

func (timers *pendingTimers) after(delay time.Duration, fn func()) {
	timers.delays = append(timers.delays, delay)
	timers.fns = append(timers.fns, fn)
}

func (timers *pendingTimers) fireAll() {
	fns := timers.fns
	timers.fns = nil
	for _, fn := range fns {
		fn()
	}
}

func TestHideGateHidesAfterDelay(t *testing.T) {
	timers := &pendingTimers{}
	gate := newHideGate(timers.after)
	hides := 0

	gate.enter()
	_, ok := gate.exit(func(uint64) { hides++ })
	require.True(t, ok)
	require.Equal(t, []time.Duration{HideDelay}, timers.delays)
	assert.False(t, gate.shown())

	timers.fireAll()
	assert.Equal(t, 1, hides)
}

func TestHideGateReentryCancelsPendingHide(t *testing.T) {
	timers := &pendingTimers{}
	gate := newHideGate(timers.after)
	hides := 0

	gate.enter()
	gate.exit(func(uint64) { hides++ })
	gate.enter()

	timers.fireAll()
	assert.Zero(t, hides)
	assert.True(t, gate.shown())
}

func TestHideGateExitWithoutEnterIsNoop(t *testing.T) {
	timers := &pendingTimers{}
	gate := newHideGate(timers.after)

	_, ok := gate.exit(func(uint64) { t.Fatal("hide must not run") })
	assert.False(t, ok)
	assert.Empty(t, timers.fns)
}

func TestHideGateDoubleExitHidesOnce(t *testing.T) {
	timers := &pendingTimers{}
	gate := newHideGate(timers.after)
	hides := 0

	gate.enter()
	gate.exit(func(uint64) { hides++ })
	_, ok := gate.exit(func(uint64) { hides++ })
	assert.False(t, ok)

	timers.fireAll()
	assert.Equal(t, 1, hides)
}

func TestOpacityToAlpha(t *testing.T) {
	assert.Equal(t, uint8(0), OpacityToAlpha(-1))
	assert.Equal(t, uint8(255), OpacityToAlpha(2))
	assert.Equal(t, uint8(127), OpacityToAlpha(0.5))
}
