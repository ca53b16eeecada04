package animation

import (
	"sync"
	"time"
)

const (
	hueInterval = 50 * time.Millisecond
	hueStep     = 1.0
)

type noneStrategy struct{}

func (noneStrategy) Start()                      {}
func (noneStrategy) Stop()                       {}
func (noneStrategy) UpdateProgress(float64, int) {}

type breathingStrategy struct {
	ring RingSurface
}

func newBreathingStrategy(ring RingSurface) *breathingStrategy {
	return &breathingStrategy{ring: ring}
}

func (strategy *breathingStrategy) Start() {
	if strategy.ring != nil {
		strategy.ring.SetBreathing(true)
	}
}

func (strategy *breathingStrategy) Stop() {
	if strategy.ring != nil {
		strategy.ring.SetBreathing(false)
	}
}

func (strategy *breathingStrategy) UpdateProgress(float64, int) {}

// hueStrategy rotates the ring hue one degree per tick.
type hueStrategy struct {
	mu        sync.Mutex
	scheduler Scheduler
	ring      RingSurface
	loop      LoopHandle
	hue       float64
}

func newHueStrategy(scheduler Scheduler, ring RingSurface) *hueStrategy {
	return &hueStrategy{scheduler: scheduler, ring: ring}
}

func (strategy *hueStrategy) Start() {
	strategy.mu.Lock()
	defer strategy.mu.Unlock()
	if strategy.loop != nil || strategy.scheduler == nil {
		return
	}
	strategy.hue = 0
	var handle LoopHandle
	handle = strategy.scheduler.Every(hueInterval, func() {
		strategy.step(handle)
	})
	strategy.loop = handle
}

func (strategy *hueStrategy) step(handle LoopHandle) {
	strategy.mu.Lock()
	if strategy.loop == nil || strategy.loop != handle {
		strategy.mu.Unlock()
		return
	}
	strategy.hue += hueStep
	if strategy.hue >= 360 {
		strategy.hue -= 360
	}
	hue := strategy.hue
	strategy.mu.Unlock()

	if strategy.ring != nil {
		strategy.ring.SetHue(hue)
	}
}

func (strategy *hueStrategy) Stop() {
	strategy.mu.Lock()
	loop := strategy.loop
	strategy.loop = nil
	strategy.hue = 0
	strategy.mu.Unlock()

	if loop != nil {
		loop.Stop()
	}
	if strategy.ring != nil {
		strategy.ring.SetHue(0)
	}
}

func (strategy *hueStrategy) UpdateProgress(float64, int) {}

// Hue returns the current rotation in degrees.
func (strategy *hueStrategy) Hue() float64 {
	strategy.mu.Lock()
	defer strategy.mu.Unlock()
	return strategy.hue
}
