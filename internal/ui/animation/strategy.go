// Package animation drives the background visuals of a running session.
package animation

import (
	"image"
	"log/slog"
	"sync"
	"time"

	"stillpoint/internal/core/model"
)

// Strategy renders one animation style.
type Strategy interface {
	Start()
	Stop()
	UpdateProgress(fraction float64, remaining int)
}

// LoopHandle cancels a recurring callback.
type LoopHandle interface {
	Stop()
}

// Scheduler runs recurring callbacks on the UI goroutine.
type Scheduler interface {
	// EveryFrame calls fn once per display frame with the time since the previous frame.
	EveryFrame(fn func(delta time.Duration)) LoopHandle
	// Every calls fn on a fixed interval.
	Every(interval time.Duration, fn func()) LoopHandle
}

// RingSurface is the progress ring on the timer window.
type RingSurface interface {
	SetBreathing(enabled bool)
	SetHue(degrees float64)
}

// Frame is one rendered immersive frame with the timer state to mirror.
type Frame struct {
	Image     *image.RGBA
	Progress  float64
	Remaining int
}

// Presenter shows immersive scenes full screen.
type Presenter interface {
	Enter()
	Exit()
	Mirror(frame Frame)
	// SetPhrase shows text over the scene, fading it out when fading is set.
	SetPhrase(text string, fading bool)
}

// Director keeps exactly one strategy active.
type Director struct {
	mu        sync.Mutex
	scheduler Scheduler
	ring      RingSurface
	presenter Presenter
	logger    *slog.Logger
	active    Strategy
	style     model.AnimationStyle
	running   bool
	phrase    string
}

// NewDirector creates a director. ring and presenter may be nil.
func NewDirector(scheduler Scheduler, ring RingSurface, presenter Presenter, logger *slog.Logger) *Director {
	if logger == nil {
		logger = slog.Default()
	}
	return &Director{
		scheduler: scheduler,
		ring:      ring,
		presenter: presenter,
		logger:    logger,
		style:     model.AnimationNone,
	}
}

// Start tears down any active strategy and starts style.
func (director *Director) Start(style model.AnimationStyle) {
	director.mu.Lock()
	defer director.mu.Unlock()
	director.stopLocked()

	strategy := director.newStrategy(style)
	director.active = strategy
	director.style = style
	director.running = true
	director.logger.Debug("animation started", "style", string(style))
	strategy.Start()
	if _, immersive := strategy.(*immersiveStrategy); immersive && director.presenter != nil && director.phrase != "" {
		director.presenter.SetPhrase(director.phrase, false)
	}
}

// Switch replaces the running strategy. When nothing runs it only records the style.
func (director *Director) Switch(style model.AnimationStyle) {
	director.mu.Lock()
	running := director.running
	if !running {
		director.style = style
	}
	director.mu.Unlock()
	if running {
		director.Start(style)
	}
}

// Stop ends the active strategy and leaves full screen.
func (director *Director) Stop() {
	director.mu.Lock()
	defer director.mu.Unlock()
	director.stopLocked()
	director.phrase = ""
	if director.presenter != nil {
		director.presenter.Exit()
	}
}

// UpdateProgress forwards timer progress to the active strategy.
func (director *Director) UpdateProgress(fraction float64, remaining int) {
	director.mu.Lock()
	active := director.active
	director.mu.Unlock()
	if active != nil {
		active.UpdateProgress(fraction, remaining)
	}
}

// ShowPhrase mirrors the rotating phrase while an immersive style covers the
// timer window. The latest phrase is replayed when switching into one.
func (director *Director) ShowPhrase(text string, fading bool) {
	director.mu.Lock()
	if !fading {
		director.phrase = text
	}
	_, immersive := director.active.(*immersiveStrategy)
	presenter := director.presenter
	director.mu.Unlock()
	if immersive && presenter != nil {
		presenter.SetPhrase(text, fading)
	}
}

// Style returns the selected style.
func (director *Director) Style() model.AnimationStyle {
	director.mu.Lock()
	defer director.mu.Unlock()
	return director.style
}

// Running reports whether a strategy is active.
func (director *Director) Running() bool {
	director.mu.Lock()
	defer director.mu.Unlock()
	return director.running
}

func (director *Director) stopLocked() {
	if director.active != nil {
		director.active.Stop()
		director.active = nil
	}
	director.running = false
}

func (director *Director) newStrategy(style model.AnimationStyle) Strategy {
	switch style {
	case model.AnimationBreathing:
		return newBreathingStrategy(director.ring)
	case model.AnimationHue:
		return newHueStrategy(director.scheduler, director.ring)
	case model.AnimationRipple:
		return newImmersiveStrategy(director.scheduler, director.presenter, NewRippleScene(sceneSeed()))
	case model.AnimationCandle:
		return newImmersiveStrategy(director.scheduler, director.presenter, NewCandleScene(sceneSeed()))
	case model.AnimationCosmos:
		return newImmersiveStrategy(director.scheduler, director.presenter, NewCosmosScene(sceneSeed()))
	default:
		return noneStrategy{}
	}
}

func sceneSeed() int64 {
	return time.Now().UnixNano()
}
