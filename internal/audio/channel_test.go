package audio

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stillpoint/internal/core/model"
)

type fakeBackend struct {
	loadErr    error
	loaded     []model.MusicTrack
	playing    bool
	rewinds    int
	volumes    []float64
	supported  map[ChimeMode]bool
	failing    map[ChimeMode]bool
	chimes     []ChimeMode
	chimeVols  []float64
	stopChimes int
	previews   int
	stopped    int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		supported: map[ChimeMode]bool{ChimeBuffered: true, ChimeFresh: true, ChimeReused: true, ChimeTone: true},
		failing:   map[ChimeMode]bool{},
	}
}

func (backend *fakeBackend) LoadTrack(track model.MusicTrack) error {
	if backend.loadErr != nil {
		return backend.loadErr
	}
	backend.loaded = append(backend.loaded, track)
	return nil
}

func (backend *fakeBackend) PlayLoop() error { backend.playing = true; return nil }
func (backend *fakeBackend) PauseLoop()      { backend.playing = false }
func (backend *fakeBackend) RewindLoop()     { backend.rewinds++ }
func (backend *fakeBackend) SetLoopVolume(volume float64) {
	backend.volumes = append(backend.volumes, volume)
}

func (backend *fakeBackend) SupportsChime(mode ChimeMode) bool { return backend.supported[mode] }

func (backend *fakeBackend) PlayChime(mode ChimeMode, volume float64) error {
	backend.chimes = append(backend.chimes, mode)
	backend.chimeVols = append(backend.chimeVols, volume)
	if backend.failing[mode] {
		return errors.New("blocked")
	}
	return nil
}

func (backend *fakeBackend) StopChimes() { backend.stopChimes++ }

func (backend *fakeBackend) PlayPreview(model.MusicTrack, float64) (func(), error) {
	backend.previews++
	return func() { backend.stopped++ }, nil
}

type pendingCall struct {
	delay time.Duration
	fn    func()
}

func newTestChannel(backend Backend) (*Channel, *[]pendingCall) {
	channel := NewChannel(backend, slog.New(slog.NewTextHandler(io.Discard, nil)))
	pending := &[]pendingCall{}
	channel.SetAfterFunc(func(delay time.Duration, fn func()) func() {
		*pending = append(*pending, pendingCall{delay: delay, fn: fn})
		return func() {}
	})
	return channel, pending
}

func TestFadeVolume(t *testing.T) {
	tests := []struct {
		name    string
		from    float64
		to      float64
		elapsed time.Duration
		want    float64
	}{
		{name: "fade in start", from: 0, to: 1, elapsed: 0, want: 0},
		{name: "fade in first step", from: 0, to: 1, elapsed: 200 * time.Millisecond, want: 0.05},
		{name: "fade in between steps", from: 0, to: 1, elapsed: 390 * time.Millisecond, want: 0.05},
		{name: "fade in half", from: 0, to: 1, elapsed: 2 * time.Second, want: 0.5},
		{name: "fade in done", from: 0, to: 1, elapsed: 5 * time.Second, want: 1},
		{name: "fade out half", from: 1, to: 0, elapsed: 2 * time.Second, want: 0.5},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := FadeVolume(test.from, test.to, test.elapsed, 4*time.Second, 20)
			assert.InDelta(t, test.want, got, 1e-9)
		})
	}
}

func TestStartLoopFadesInToFullVolume(t *testing.T) {
	backend := newFakeBackend()
	channel, _ := newTestChannel(backend)
	start := time.Unix(1000, 0)

	channel.StartLoop(model.MusicAmbient, DefaultFadeIn, start)
	require.True(t, channel.Looping())
	assert.Equal(t, 0.0, channel.Volume())
	assert.True(t, backend.playing)

	channel.Advance(start.Add(2 * time.Second))
	assert.InDelta(t, 0.5, channel.Volume(), 1e-9)

	channel.Advance(start.Add(4 * time.Second))
	assert.Equal(t, 1.0, channel.Volume())
	assert.False(t, channel.Fading())
}

func TestStartLoopWithMissingAssetDoesNotPlay(t *testing.T) {
	backend := newFakeBackend()
	backend.loadErr = errors.New("no such file")
	channel, _ := newTestChannel(backend)

	channel.StartLoop(model.MusicSea, DefaultFadeIn, time.Now())
	assert.False(t, channel.Looping())
	assert.False(t, backend.playing)
}

func TestStartLoopSkipsSilenceTrack(t *testing.T) {
	backend := newFakeBackend()
	channel, _ := newTestChannel(backend)

	channel.StartLoop(model.MusicSilence, DefaultFadeIn, time.Now())
	assert.False(t, channel.Looping())
	assert.Empty(t, backend.loaded)
}

func TestFadeOutStopsAndRewinds(t *testing.T) {
	backend := newFakeBackend()
	channel, _ := newTestChannel(backend)
	start := time.Unix(1000, 0)

	channel.PlayFull(model.MusicNature)
	rewinds := backend.rewinds
	channel.FadeOutAndStop(DefaultFadeOut, start)

	channel.Advance(start.Add(2500 * time.Millisecond))
	assert.InDelta(t, 0.52, channel.Volume(), 1e-9)
	assert.True(t, channel.Looping())

	channel.Advance(start.Add(5 * time.Second))
	assert.False(t, channel.Looping())
	assert.False(t, backend.playing)
	assert.Greater(t, backend.rewinds, rewinds)
}

func TestHardStopCancelsFade(t *testing.T) {
	backend := newFakeBackend()
	channel, _ := newTestChannel(backend)
	start := time.Unix(1000, 0)

	channel.StartLoop(model.MusicAmbient, DefaultFadeIn, start)
	channel.HardStop()

	assert.False(t, channel.Looping())
	assert.False(t, channel.Fading())
	assert.Equal(t, 1, backend.stopChimes)

	channel.Advance(start.Add(time.Second))
	assert.Equal(t, 1.0, channel.Volume())
}

func TestSwapTrackRestartsPlayingLoopAtFullVolume(t *testing.T) {
	backend := newFakeBackend()
	channel, _ := newTestChannel(backend)
	start := time.Unix(1000, 0)

	channel.StartLoop(model.MusicAmbient, DefaultFadeIn, start)
	channel.SwapTrack(model.MusicSea)

	assert.Equal(t, []model.MusicTrack{model.MusicAmbient, model.MusicSea}, backend.loaded)
	assert.True(t, channel.Looping())
	assert.False(t, channel.Fading())
	assert.Equal(t, 1.0, channel.Volume())
}

func TestSwapTrackWhileIdleOnlyRemembersTrack(t *testing.T) {
	backend := newFakeBackend()
	channel, _ := newTestChannel(backend)

	channel.SwapTrack(model.MusicSea)
	assert.Equal(t, model.MusicSea, channel.Track())
	assert.Empty(t, backend.loaded)
}

func TestCompletionChimeFallsThroughStrategies(t *testing.T) {
	backend := newFakeBackend()
	backend.failing[ChimeBuffered] = true
	channel, pending := newTestChannel(backend)

	channel.PlayCompletionChime()
	assert.Equal(t, []ChimeMode{ChimeBuffered, ChimeFresh}, backend.chimes)
	assert.Empty(t, *pending)
}

func TestCompletionChimeSkipsUnsupportedModes(t *testing.T) {
	backend := newFakeBackend()
	backend.supported[ChimeBuffered] = false
	channel, _ := newTestChannel(backend)

	channel.PlayCompletionChime()
	assert.Equal(t, []ChimeMode{ChimeFresh}, backend.chimes)
}

func TestCompletionChimeRetriesWithToneAfterDelay(t *testing.T) {
	backend := newFakeBackend()
	for _, mode := range completionChain {
		backend.failing[mode] = true
	}
	channel, pending := newTestChannel(backend)

	channel.PlayCompletionChime()
	require.Len(t, *pending, 1)
	assert.Equal(t, chimeRetryDelay, (*pending)[0].delay)

	(*pending)[0].fn()
	assert.Equal(t, ChimeTone, backend.chimes[len(backend.chimes)-1])
}

func TestUnlockPlaysQuietlyOnce(t *testing.T) {
	backend := newFakeBackend()
	channel, _ := newTestChannel(backend)

	channel.Unlock()
	channel.Unlock()
	require.Len(t, backend.chimeVols, 1)
	assert.Equal(t, unlockVolume, backend.chimeVols[0])
}

func TestUnlockRetriesAfterFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.failing[ChimeReused] = true
	channel, _ := newTestChannel(backend)

	channel.Unlock()
	backend.failing[ChimeReused] = false
	channel.Unlock()
	channel.Unlock()
	assert.Len(t, backend.chimes, 2)
}

func TestPreviewStopsAfterTimeout(t *testing.T) {
	backend := newFakeBackend()
	channel, pending := newTestChannel(backend)

	channel.Preview(model.MusicNature)
	require.Len(t, *pending, 1)
	assert.Equal(t, previewDuration, (*pending)[0].delay)

	(*pending)[0].fn()
	assert.Equal(t, 1, backend.stopped)
}

func TestPreviewTimeoutIgnoresReplacedPreview(t *testing.T) {
	backend := newFakeBackend()
	channel, pending := newTestChannel(backend)

	channel.Preview(model.MusicNature)
	channel.Preview(model.MusicSea)
	assert.Equal(t, 1, backend.stopped)

	(*pending)[0].fn()
	assert.Equal(t, 1, backend.stopped)

	(*pending)[1].fn()
	assert.Equal(t, 2, backend.stopped)
}

func TestSilentBackendNeverPanics(t *testing.T) {
	channel, _ := newTestChannel(nil)
	assert.NotPanics(t, func() {
		channel.Unlock()
		channel.PlayChimeOnce()
		channel.StartLoop(model.MusicAmbient, 0, time.Now())
		channel.PlayCompletionChime()
		channel.HardStop()
		channel.Preview(model.MusicSea)
	})
}
