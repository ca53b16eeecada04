package animation

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stillpoint/internal/core/model"
)

type fakeLoop struct {
	scheduler *fakeScheduler
	frame     func(time.Duration)
	tick      func()
	stopped   bool
}

func (loop *fakeLoop) Stop() {
	loop.stopped = true
}

type fakeScheduler struct {
	loops []*fakeLoop
}

func (scheduler *fakeScheduler) EveryFrame(fn func(time.Duration)) LoopHandle {
	loop := &fakeLoop{scheduler: scheduler, frame: fn}
	scheduler.loops = append(scheduler.loops, loop)
	return loop
}

func (scheduler *fakeScheduler) Every(_ time.Duration, fn func()) LoopHandle {
	loop := &fakeLoop{scheduler: scheduler, tick: fn}
	scheduler.loops = append(scheduler.loops, loop)
	return loop
}

func (scheduler *fakeScheduler) active() []*fakeLoop {
	var live []*fakeLoop
	for _, loop := range scheduler.loops {
		if !loop.stopped {
			live = append(live, loop)
		}
	}
	return live
}

type fakeRing struct {
	breathing bool
	hues      []float64
}

func (ring *fakeRing) SetBreathing(enabled bool) { ring.breathing = enabled }
func (ring *fakeRing) SetHue(degrees float64)    { ring.hues = append(ring.hues, degrees) }

type fakePresenter struct {
	entered int
	exited  int
	frames  []Frame
	phrases []string
}

func (presenter *fakePresenter) Enter()             { presenter.entered++ }
func (presenter *fakePresenter) Exit()              { presenter.exited++ }
func (presenter *fakePresenter) Mirror(frame Frame) { presenter.frames = append(presenter.frames, frame) }

func (presenter *fakePresenter) SetPhrase(text string, fading bool) {
	if fading {
		text = "~" + text
	}
	presenter.phrases = append(presenter.phrases, text)
}

func newTestDirector() (*Director, *fakeScheduler, *fakeRing, *fakePresenter) {
	scheduler := &fakeScheduler{}
	ring := &fakeRing{}
	presenter := &fakePresenter{}
	return NewDirector(scheduler, ring, presenter, nil), scheduler, ring, presenter
}

func TestDirectorSwitchingLeavesOneActiveLoop(t *testing.T) {
	director, scheduler, _, _ := newTestDirector()
	director.Start(model.AnimationRipple)

	styles := []model.AnimationStyle{
		model.AnimationHue, model.AnimationCosmos, model.AnimationCandle,
		model.AnimationHue, model.AnimationRipple, model.AnimationCosmos,
	}
	for _, style := range styles {
		director.Switch(style)
	}

	assert.Len(t, scheduler.active(), 1)
	assert.Equal(t, model.AnimationCosmos, director.Style())

	director.Stop()
	assert.Empty(t, scheduler.active())
	assert.False(t, director.Running())
}

func TestDirectorSwitchWhileIdleOnlyRecordsStyle(t *testing.T) {
	director, scheduler, _, _ := newTestDirector()
	director.Switch(model.AnimationHue)

	assert.Empty(t, scheduler.loops)
	assert.False(t, director.Running())
	assert.Equal(t, model.AnimationHue, director.Style())
}

func TestBreathingTogglesRing(t *testing.T) {
	director, _, ring, _ := newTestDirector()

	director.Start(model.AnimationBreathing)
	assert.True(t, ring.breathing)

	director.Switch(model.AnimationNone)
	assert.False(t, ring.breathing)
}

func TestHueRotatesAndResets(t *testing.T) {
	scheduler := &fakeScheduler{}
	ring := &fakeRing{}
	strategy := newHueStrategy(scheduler, ring)
	strategy.Start()
	require.Len(t, scheduler.loops, 1)

	for n := 0; n < 365; n++ {
		scheduler.loops[0].tick()
	}
	assert.InDelta(t, 5, strategy.Hue(), 1e-9)

	strategy.Stop()
	assert.Equal(t, 0.0, strategy.Hue())
	assert.Equal(t, 0.0, ring.hues[len(ring.hues)-1])
}

func TestStaleHueCallbackIsIgnored(t *testing.T) {
	scheduler := &fakeScheduler{}
	ring := &fakeRing{}
	strategy := newHueStrategy(scheduler, ring)
	strategy.Start()
	stale := scheduler.loops[0].tick
	strategy.Stop()
	strategy.Start()

	stale()
	assert.Equal(t, 0.0, strategy.Hue())
}

func TestImmersiveEntersMirrorsAndExits(t *testing.T) {
	director, scheduler, _, presenter := newTestDirector()
	director.Start(model.AnimationCandle)
	require.Equal(t, 1, presenter.entered)

	director.UpdateProgress(0.25, 450)
	scheduler.loops[0].frame(16 * time.Millisecond)

	require.Len(t, presenter.frames, 1)
	frame := presenter.frames[0]
	assert.Equal(t, 450, frame.Remaining)
	assert.InDelta(t, 0.25, frame.Progress, 1e-9)
	assert.Equal(t, image.Rect(0, 0, sceneWidth, sceneHeight), frame.Image.Bounds())

	director.Stop()
	assert.GreaterOrEqual(t, presenter.exited, 1)
}

func TestImmersiveReusesTwoBuffers(t *testing.T) {
	director, scheduler, _, presenter := newTestDirector()
	director.Start(model.AnimationRipple)
	for n := 0; n < 4; n++ {
		scheduler.loops[0].frame(16 * time.Millisecond)
	}

	require.Len(t, presenter.frames, 4)
	assert.Same(t, presenter.frames[0].Image, presenter.frames[2].Image)
	assert.Same(t, presenter.frames[1].Image, presenter.frames[3].Image)
	assert.NotSame(t, presenter.frames[0].Image, presenter.frames[1].Image)
}

func TestPhrasesShowOnlyOverImmersiveStyles(t *testing.T) {
	director, _, _, presenter := newTestDirector()
	director.Start(model.AnimationHue)
	director.ShowPhrase("Breathe in", false)
	assert.Empty(t, presenter.phrases)

	director.Switch(model.AnimationCandle)
	assert.Equal(t, []string{"Breathe in"}, presenter.phrases)

	director.ShowPhrase("Breathe in", true)
	director.ShowPhrase("Let go", false)
	assert.Equal(t, []string{"Breathe in", "~Breathe in", "Let go"}, presenter.phrases)

	director.Stop()
	director.Start(model.AnimationCosmos)
	assert.Len(t, presenter.phrases, 3)
}

func TestStaleFrameAfterStopIsIgnored(t *testing.T) {
	director, scheduler, _, presenter := newTestDirector()
	director.Start(model.AnimationCosmos)
	frame := scheduler.loops[0].frame
	director.Stop()

	frame(16 * time.Millisecond)
	assert.Empty(t, presenter.frames)
}

func TestDirectorStopExitsPresenterForEveryStyle(t *testing.T) {
	for _, style := range model.AnimationStyles {
		t.Run(string(style), func(t *testing.T) {
			director, _, _, presenter := newTestDirector()
			director.Start(style)
			director.Stop()
			assert.GreaterOrEqual(t, presenter.exited, 1)
		})
	}
}

func hasPixelOtherThan(img *image.RGBA, background color.RGBA) bool {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.RGBAAt(x, y) != background {
				return true
			}
		}
	}
	return false
}

func TestScenesDrawSomething(t *testing.T) {
	tests := []struct {
		name       string
		scene      Scene
		background color.RGBA
	}{
		{name: "ripple", scene: NewRippleScene(1), background: color.RGBA{R: 8, G: 24, B: 48, A: 255}},
		{name: "candle", scene: NewCandleScene(1), background: color.RGBA{R: 10, G: 6, B: 4, A: 255}},
		{name: "cosmos", scene: NewCosmosScene(1), background: color.RGBA{R: 2, G: 2, B: 12, A: 255}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			elapsed := time.Duration(0)
			for n := 0; n < 30; n++ {
				elapsed += 33 * time.Millisecond
				test.scene.Step(elapsed, 33*time.Millisecond, 0)
			}
			dst := image.NewRGBA(image.Rect(0, 0, sceneWidth, sceneHeight))
			test.scene.Draw(dst)
			assert.True(t, hasPixelOtherThan(dst, test.background))
		})
	}
}

func TestRippleSceneRetiresOldRipples(t *testing.T) {
	scene := NewRippleScene(7)
	for n := 0; n < 100; n++ {
		scene.Step(0, 100*time.Millisecond, 0)
	}
	// Ten seconds at one ripple every 1.2s with a four second life.
	assert.LessOrEqual(t, scene.Len(), 4)
	assert.Positive(t, scene.Len())
}

func TestCosmosStarsStayInDepthRange(t *testing.T) {
	scene := NewCosmosScene(3)
	for n := 0; n < 200; n++ {
		scene.Step(0, 50*time.Millisecond, 1)
	}
	for _, depth := range scene.Depths() {
		assert.Greater(t, depth, 0.0)
		assert.LessOrEqual(t, depth, 1.0)
	}
}
