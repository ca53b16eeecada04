package timekeeper

import (
	"context"
	"time"

	"stillpoint/internal/core/handoff"
	"stillpoint/internal/core/model"
)

// Audio is the chime and ambient loop.
type Audio interface {
	PlayChimeOnce()
	PlayCompletionChime()
	StartLoop(track model.MusicTrack, fadeIn time.Duration, now time.Time)
	FadeOutAndStop(fadeOut time.Duration, now time.Time)
	HardStop()
	SwapTrack(track model.MusicTrack)
	PlayFull(track model.MusicTrack)
	StopLoop()
	Advance(now time.Time)
}

// Animator runs the background animation.
type Animator interface {
	Start(style model.AnimationStyle)
	Switch(style model.AnimationStyle)
	Stop()
	UpdateProgress(fraction float64, remaining int)
	// ShowPhrase mirrors the rotating phrase into a full-screen presentation.
	ShowPhrase(text string, fading bool)
}

// WakeLock keeps the display on.
type WakeLock interface {
	Acquire()
	Release()
	Reacquire()
}

// Vibrator plays haptic patterns when enabled.
type Vibrator interface {
	SetEnabled(enabled bool)
	Vibrate(pattern []time.Duration)
}

// Recorder persists a submitted log form.
type Recorder interface {
	Record(ctx context.Context, fields handoff.Fields) (string, error)
}

type nopAudio struct{}

func (nopAudio) PlayChimeOnce()                                       {}
func (nopAudio) PlayCompletionChime()                                 {}
func (nopAudio) StartLoop(model.MusicTrack, time.Duration, time.Time) {}
func (nopAudio) FadeOutAndStop(time.Duration, time.Time)              {}
func (nopAudio) HardStop()                                            {}
func (nopAudio) SwapTrack(model.MusicTrack)                           {}
func (nopAudio) PlayFull(model.MusicTrack)                            {}
func (nopAudio) StopLoop()                                            {}
func (nopAudio) Advance(time.Time)                                    {}

type nopAnimator struct{}

func (nopAnimator) Start(model.AnimationStyle)  {}
func (nopAnimator) Switch(model.AnimationStyle) {}
func (nopAnimator) Stop()                       {}
func (nopAnimator) UpdateProgress(float64, int) {}
func (nopAnimator) ShowPhrase(string, bool)     {}

type nopWakeLock struct{}

func (nopWakeLock) Acquire()   {}
func (nopWakeLock) Release()   {}
func (nopWakeLock) Reacquire() {}

type nopVibrator struct{}

func (nopVibrator) SetEnabled(bool)         {}
func (nopVibrator) Vibrate([]time.Duration) {}

type discardRecorder struct{}

func (discardRecorder) Record(context.Context, handoff.Fields) (string, error) {
	return "", nil
}
