package animation

import (
	"image"
	"sync"
	"time"
)

const (
	sceneWidth  = 480
	sceneHeight = 270
)

// Scene is a procedural full-screen background.
type Scene interface {
	// Step advances the particle state by delta at the given session progress.
	Step(elapsed, delta time.Duration, progress float64)
	// Draw renders the current state into dst.
	Draw(dst *image.RGBA)
}

// immersiveStrategy owns a frame loop that renders its scene into the presenter.
type immersiveStrategy struct {
	mu        sync.Mutex
	scheduler Scheduler
	presenter Presenter
	scene     Scene
	buffers   [2]*image.RGBA
	next      int
	loop      LoopHandle
	elapsed   time.Duration
	progress  float64
	remaining int
}

func newImmersiveStrategy(scheduler Scheduler, presenter Presenter, scene Scene) *immersiveStrategy {
	return &immersiveStrategy{scheduler: scheduler, presenter: presenter, scene: scene}
}

func (strategy *immersiveStrategy) Start() {
	strategy.mu.Lock()
	defer strategy.mu.Unlock()
	if strategy.loop != nil {
		return
	}
	strategy.elapsed = 0
	if strategy.presenter != nil {
		strategy.presenter.Enter()
	}
	if strategy.scheduler == nil {
		return
	}
	var handle LoopHandle
	handle = strategy.scheduler.EveryFrame(func(delta time.Duration) {
		strategy.frame(handle, delta)
	})
	strategy.loop = handle
}

func (strategy *immersiveStrategy) frame(handle LoopHandle, delta time.Duration) {
	strategy.mu.Lock()
	if strategy.loop == nil || strategy.loop != handle {
		strategy.mu.Unlock()
		return
	}
	strategy.elapsed += delta
	strategy.scene.Step(strategy.elapsed, delta, strategy.progress)
	// Alternate buffers so the presenter can still be drawing the previous frame.
	dst := strategy.buffers[strategy.next]
	if dst == nil {
		dst = image.NewRGBA(image.Rect(0, 0, sceneWidth, sceneHeight))
		strategy.buffers[strategy.next] = dst
	}
	strategy.next = 1 - strategy.next
	strategy.scene.Draw(dst)
	frame := Frame{Image: dst, Progress: strategy.progress, Remaining: strategy.remaining}
	strategy.mu.Unlock()

	if strategy.presenter != nil {
		strategy.presenter.Mirror(frame)
	}
}

func (strategy *immersiveStrategy) Stop() {
	strategy.mu.Lock()
	loop := strategy.loop
	strategy.loop = nil
	strategy.mu.Unlock()

	if loop != nil {
		loop.Stop()
	}
	if strategy.presenter != nil {
		strategy.presenter.Exit()
	}
}

func (strategy *immersiveStrategy) UpdateProgress(fraction float64, remaining int) {
	strategy.mu.Lock()
	strategy.progress = clamp01(fraction)
	strategy.remaining = remaining
	strategy.mu.Unlock()
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
