package animation

import (
	"context"
	"sync"
	"time"

	"fyne.io/fyne/v2"
)

// FyneScheduler runs callbacks through the fyne driver.
type FyneScheduler struct{}

// NewFyneScheduler returns the scheduler used by the desktop app.
func NewFyneScheduler() FyneScheduler {
	return FyneScheduler{}
}

type frameLoop struct {
	once      sync.Once
	animation *fyne.Animation
}

func (loop *frameLoop) Stop() {
	loop.once.Do(func() {
		fyne.Do(loop.animation.Stop)
	})
}

// EveryFrame ticks fn from a repeating fyne animation, which the driver
// advances once per painted frame.
func (FyneScheduler) EveryFrame(fn func(delta time.Duration)) LoopHandle {
	var last time.Time
	animation := fyne.NewAnimation(time.Second, func(float32) {
		now := time.Now()
		if last.IsZero() {
			last = now
		}
		delta := now.Sub(last)
		last = now
		fn(delta)
	})
	animation.Curve = fyne.AnimationLinear
	animation.RepeatCount = fyne.AnimationRepeatForever
	fyne.Do(animation.Start)
	return &frameLoop{animation: animation}
}

type tickerLoop struct {
	cancel context.CancelFunc
}

func (loop *tickerLoop) Stop() {
	loop.cancel()
}

// Every calls fn on the UI goroutine each interval until stopped.
func (FyneScheduler) Every(interval time.Duration, fn func()) LoopHandle {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fyne.Do(func() {
					if ctx.Err() == nil {
						fn()
					}
				})
			}
		}
	}()
	return &tickerLoop{cancel: cancel}
}
