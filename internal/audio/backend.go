// Package audio plays the session chime and the looped ambient track.
package audio

import (
	"errors"

	"stillpoint/internal/core/model"
)

// ErrUnavailable indicates the audio device or asset is not usable.
var ErrUnavailable = errors.New("audio unavailable")

// ChimeMode is one way of getting the chime out of the speaker.
type ChimeMode int

const (
	// ChimeBuffered plays the chime from a fully decoded in-memory buffer.
	ChimeBuffered ChimeMode = iota
	// ChimeFresh decodes the chime file again into a new stream.
	ChimeFresh
	// ChimeReused rewinds and replays the preloaded chime stream.
	ChimeReused
	// ChimeTone synthesizes a bell tone without any asset.
	ChimeTone
)

func (mode ChimeMode) String() string {
	switch mode {
	case ChimeBuffered:
		return "buffered"
	case ChimeFresh:
		return "fresh"
	case ChimeReused:
		return "reused"
	case ChimeTone:
		return "tone"
	default:
		return "unknown"
	}
}

// Backend is the device-facing half of the audio channel.
type Backend interface {
	LoadTrack(track model.MusicTrack) error
	PlayLoop() error
	PauseLoop()
	RewindLoop()
	SetLoopVolume(volume float64)

	SupportsChime(mode ChimeMode) bool
	PlayChime(mode ChimeMode, volume float64) error
	StopChimes()

	PlayPreview(track model.MusicTrack, volume float64) (stop func(), err error)
}

// SilentBackend is used when no audio device could be opened.
type SilentBackend struct{}

func (SilentBackend) LoadTrack(model.MusicTrack) error { return ErrUnavailable }
func (SilentBackend) PlayLoop() error                  { return ErrUnavailable }
func (SilentBackend) PauseLoop()                       {}
func (SilentBackend) RewindLoop()                      {}
func (SilentBackend) SetLoopVolume(float64)            {}
func (SilentBackend) SupportsChime(ChimeMode) bool     { return false }
func (SilentBackend) PlayChime(ChimeMode, float64) error {
	return ErrUnavailable
}
func (SilentBackend) StopChimes() {}
func (SilentBackend) PlayPreview(model.MusicTrack, float64) (func(), error) {
	return nil, ErrUnavailable
}
