package model

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDuration is used when no valid duration was entered.
const DefaultDuration = 10 * time.Minute

// AnimationStyle selects the background animation for a running session.
type AnimationStyle string

const (
	AnimationNone      AnimationStyle = "none"
	AnimationBreathing AnimationStyle = "breathing"
	AnimationHue       AnimationStyle = "hue"
	AnimationRipple    AnimationStyle = "ripple"
	AnimationCandle    AnimationStyle = "candle"
	AnimationCosmos    AnimationStyle = "cosmos"
)

// AnimationStyles lists every selectable style in display order.
var AnimationStyles = []AnimationStyle{
	AnimationNone,
	AnimationBreathing,
	AnimationHue,
	AnimationRipple,
	AnimationCandle,
	AnimationCosmos,
}

// Immersive reports whether the style takes over the screen with its own overlay.
func (style AnimationStyle) Immersive() bool {
	switch style {
	case AnimationRipple, AnimationCandle, AnimationCosmos:
		return true
	default:
		return false
	}
}

// ParseAnimationStyle converts a stored or user supplied name.
func ParseAnimationStyle(value string) (AnimationStyle, error) {
	candidate := AnimationStyle(strings.ToLower(strings.TrimSpace(value)))
	for _, style := range AnimationStyles {
		if style == candidate {
			return style, nil
		}
	}
	return AnimationNone, fmt.Errorf("unknown animation style %q", value)
}

// MusicTrack selects the ambient loop.
type MusicTrack string

const (
	MusicAmbient MusicTrack = "ambient"
	MusicNature  MusicTrack = "nature"
	MusicSea     MusicTrack = "sea"
	MusicSilence MusicTrack = "silence"
)

// MusicTracks lists every selectable track in display order.
var MusicTracks = []MusicTrack{MusicAmbient, MusicNature, MusicSea, MusicSilence}

// FileName returns the audio file backing the track, or "" for silence.
func (track MusicTrack) FileName() string {
	switch track {
	case MusicAmbient, MusicNature, MusicSea:
		return string(track) + ".mp3"
	default:
		return ""
	}
}

// ParseMusicTrack converts a stored or user supplied name.
func ParseMusicTrack(value string) (MusicTrack, error) {
	candidate := MusicTrack(strings.ToLower(strings.TrimSpace(value)))
	for _, track := range MusicTracks {
		if track == candidate {
			return track, nil
		}
	}
	return MusicSilence, fmt.Errorf("unknown music track %q", value)
}

// TimerConfig contains the settings for one timer lifecycle.
type TimerConfig struct {
	TotalDuration    time.Duration
	AnimationStyle   AnimationStyle
	MusicTrack       MusicTrack
	MusicEnabled     bool
	VibrationEnabled bool
}

// DefaultTimerConfig returns the daily session preset.
func DefaultTimerConfig() TimerConfig {
	return TimerConfig{
		TotalDuration:    DefaultDuration,
		AnimationStyle:   AnimationNone,
		MusicTrack:       MusicAmbient,
		MusicEnabled:     true,
		VibrationEnabled: true,
	}
}

// TotalSeconds returns the duration in whole seconds, never less than one.
func (config TimerConfig) TotalSeconds() int {
	seconds := int(config.TotalDuration / time.Second)
	if seconds <= 0 {
		return int(DefaultDuration / time.Second)
	}
	return seconds
}

// WantsMusic reports whether the ambient loop should play.
func (config TimerConfig) WantsMusic() bool {
	return config.MusicEnabled && config.MusicTrack != MusicSilence && config.MusicTrack != ""
}

// ConfigPatch carries a partial TimerConfig update; nil fields are left unchanged.
type ConfigPatch struct {
	TotalDuration    *time.Duration
	AnimationStyle   *AnimationStyle
	MusicTrack       *MusicTrack
	MusicEnabled     *bool
	VibrationEnabled *bool
}

// Apply returns config with the patch applied.
func (patch ConfigPatch) Apply(config TimerConfig) TimerConfig {
	if patch.TotalDuration != nil && *patch.TotalDuration > 0 {
		config.TotalDuration = *patch.TotalDuration
	}
	if patch.AnimationStyle != nil {
		config.AnimationStyle = *patch.AnimationStyle
	}
	if patch.MusicTrack != nil {
		config.MusicTrack = *patch.MusicTrack
	}
	if patch.MusicEnabled != nil {
		config.MusicEnabled = *patch.MusicEnabled
	}
	if patch.VibrationEnabled != nil {
		config.VibrationEnabled = *patch.VibrationEnabled
	}
	return config
}
