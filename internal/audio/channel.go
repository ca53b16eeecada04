package audio

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"stillpoint/internal/core/model"
)

const (
	DefaultFadeIn   = 4 * time.Second
	DefaultFadeOut  = 5 * time.Second
	fadeInSteps     = 20
	fadeOutSteps    = 25
	unlockVolume    = 0.05
	previewVolume   = 0.5
	previewDuration = 20 * time.Second
	chimeRetryDelay = 200 * time.Millisecond
)

// completionChain is tried in order until one mode plays.
var completionChain = []ChimeMode{ChimeBuffered, ChimeFresh, ChimeReused}

type fade struct {
	from      float64
	to        float64
	start     time.Time
	duration  time.Duration
	steps     int
	stopAfter bool
}

// Channel owns the chime and the ambient loop for the running timer.
type Channel struct {
	mu          sync.Mutex
	backend     Backend
	logger      *slog.Logger
	afterFunc   func(time.Duration, func()) func()
	volume      float64
	looping     bool
	track       model.MusicTrack
	loaded      model.MusicTrack
	fade        *fade
	unlocked    bool
	stopPreview func()
	previewGen  int
}

// NewChannel creates a channel on top of backend.
func NewChannel(backend Backend, logger *slog.Logger) *Channel {
	if backend == nil {
		backend = SilentBackend{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		backend: backend,
		logger:  logger,
		volume:  1,
		afterFunc: func(delay time.Duration, fn func()) func() {
			timer := time.AfterFunc(delay, fn)
			return func() { timer.Stop() }
		},
	}
}

// SetAfterFunc replaces the delayed-call scheduler; used by tests.
func (channel *Channel) SetAfterFunc(afterFunc func(time.Duration, func()) func()) {
	channel.mu.Lock()
	channel.afterFunc = afterFunc
	channel.mu.Unlock()
}

// FadeVolume returns the stepped linear volume elapsed into a fade.
func FadeVolume(from, to float64, elapsed, duration time.Duration, steps int) float64 {
	if duration <= 0 || steps <= 0 || elapsed >= duration {
		return to
	}
	if elapsed <= 0 {
		return from
	}
	stepLength := duration / time.Duration(steps)
	if stepLength <= 0 {
		return to
	}
	step := int(elapsed / stepLength)
	value := from + (to-from)*float64(step)/float64(steps)
	return math.Max(0, math.Min(1, value))
}

// Unlock plays a near-silent chime once so later playback is not blocked.
func (channel *Channel) Unlock() {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if channel.unlocked {
		return
	}
	if err := channel.backend.PlayChime(ChimeReused, unlockVolume); err != nil {
		channel.logger.Debug("audio unlock pending", "error", err)
		return
	}
	channel.unlocked = true
}

// MarkUnlocked records that a user gesture already started playback.
func (channel *Channel) MarkUnlocked() {
	channel.mu.Lock()
	channel.unlocked = true
	channel.mu.Unlock()
}

// PlayChimeOnce starts the chime best-effort.
func (channel *Channel) PlayChimeOnce() {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if err := channel.backend.PlayChime(ChimeReused, 1); err != nil {
		channel.logger.Info("chime play failed", "error", err)
	}
}

// PlayCompletionChime walks the playback fallbacks until one succeeds.
func (channel *Channel) PlayCompletionChime() {
	channel.mu.Lock()
	defer channel.mu.Unlock()

	for _, mode := range completionChain {
		if !channel.backend.SupportsChime(mode) {
			continue
		}
		err := channel.backend.PlayChime(mode, 1)
		if err == nil {
			channel.logger.Debug("completion chime playing", "mode", mode.String())
			return
		}
		channel.logger.Info("completion chime failed, trying next", "mode", mode.String(), "error", err)
	}

	channel.logger.Warn("all chime strategies failed, retrying with tone")
	backend := channel.backend
	logger := channel.logger
	channel.afterFunc(chimeRetryDelay, func() {
		if err := backend.PlayChime(ChimeTone, 1); err != nil {
			logger.Warn("final chime attempt failed", "error", err)
		}
	})
}

// StartLoop plays track from silence, ramping to full volume over fadeIn.
func (channel *Channel) StartLoop(track model.MusicTrack, fadeIn time.Duration, now time.Time) {
	if fadeIn <= 0 {
		fadeIn = DefaultFadeIn
	}
	channel.mu.Lock()
	defer channel.mu.Unlock()

	if !channel.loadLocked(track) {
		return
	}
	channel.setVolumeLocked(0)
	channel.backend.RewindLoop()
	if err := channel.backend.PlayLoop(); err != nil {
		channel.logger.Info("music play failed", "track", string(track), "error", err)
		channel.setVolumeLocked(1)
		return
	}
	channel.looping = true
	channel.fade = &fade{from: 0, to: 1, start: now, duration: fadeIn, steps: fadeInSteps}
}

// FadeOutAndStop ramps the loop to silence, then pauses and rewinds it.
func (channel *Channel) FadeOutAndStop(fadeOut time.Duration, now time.Time) {
	if fadeOut <= 0 {
		fadeOut = DefaultFadeOut
	}
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if !channel.looping {
		return
	}
	channel.fade = &fade{
		from:      channel.volume,
		to:        0,
		start:     now,
		duration:  fadeOut,
		steps:     fadeOutSteps,
		stopAfter: true,
	}
}

// HardStop silences everything immediately.
func (channel *Channel) HardStop() {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	channel.fade = nil
	channel.backend.StopChimes()
	channel.stopLoopLocked()
}

// SwapTrack changes the ambient source. A playing loop restarts at full volume.
func (channel *Channel) SwapTrack(track model.MusicTrack) {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	channel.track = track
	if !channel.looping {
		return
	}
	channel.fade = nil
	channel.stopLoopLocked()
	channel.playFullLocked(track)
}

// PlayFull starts track at full volume without a fade.
func (channel *Channel) PlayFull(track model.MusicTrack) {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	channel.fade = nil
	channel.playFullLocked(track)
}

// StopLoop pauses the loop without a fade.
func (channel *Channel) StopLoop() {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	channel.fade = nil
	channel.stopLoopLocked()
}

// Advance applies the active fade for time now.
func (channel *Channel) Advance(now time.Time) {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	current := channel.fade
	if current == nil {
		return
	}
	elapsed := now.Sub(current.start)
	channel.setVolumeLocked(FadeVolume(current.from, current.to, elapsed, current.duration, current.steps))
	if elapsed < current.duration {
		return
	}
	channel.fade = nil
	if current.stopAfter {
		channel.stopLoopLocked()
	}
}

// Preview plays track at half volume for a short while.
func (channel *Channel) Preview(track model.MusicTrack) {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	channel.stopPreviewLocked()
	if track.FileName() == "" {
		return
	}
	stop, err := channel.backend.PlayPreview(track, previewVolume)
	if err != nil {
		channel.logger.Info("preview failed", "track", string(track), "error", err)
		return
	}
	channel.stopPreview = stop
	channel.previewGen++
	generation := channel.previewGen
	channel.afterFunc(previewDuration, func() {
		channel.mu.Lock()
		defer channel.mu.Unlock()
		if channel.previewGen == generation {
			channel.stopPreviewLocked()
		}
	})
}

// StopPreview ends a running preview.
func (channel *Channel) StopPreview() {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	channel.stopPreviewLocked()
}

// Volume returns the current ambient volume.
func (channel *Channel) Volume() float64 {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	return channel.volume
}

// Looping reports whether the ambient loop is playing.
func (channel *Channel) Looping() bool {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	return channel.looping
}

// Fading reports whether a fade is in flight.
func (channel *Channel) Fading() bool {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	return channel.fade != nil
}

// Track returns the selected ambient track.
func (channel *Channel) Track() model.MusicTrack {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	return channel.track
}

func (channel *Channel) loadLocked(track model.MusicTrack) bool {
	channel.track = track
	if track.FileName() == "" {
		return false
	}
	if channel.loaded == track {
		return true
	}
	if err := channel.backend.LoadTrack(track); err != nil {
		channel.logger.Info("music load failed", "track", string(track), "error", err)
		channel.loaded = ""
		return false
	}
	channel.loaded = track
	return true
}

func (channel *Channel) playFullLocked(track model.MusicTrack) {
	if !channel.loadLocked(track) {
		return
	}
	channel.backend.RewindLoop()
	channel.setVolumeLocked(1)
	if err := channel.backend.PlayLoop(); err != nil {
		channel.logger.Info("music play failed", "track", string(track), "error", err)
		return
	}
	channel.looping = true
}

func (channel *Channel) stopLoopLocked() {
	channel.backend.PauseLoop()
	channel.backend.RewindLoop()
	channel.setVolumeLocked(1)
	channel.looping = false
}

func (channel *Channel) setVolumeLocked(volume float64) {
	channel.volume = volume
	channel.backend.SetLoopVolume(volume)
}

func (channel *Channel) stopPreviewLocked() {
	if channel.stopPreview == nil {
		return
	}
	channel.stopPreview()
	channel.stopPreview = nil
	channel.previewGen++
}
