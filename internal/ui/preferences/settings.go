package preferences

import (
	"time"

	"stillpoint/internal/core/model"
)

// Settings defines editable user preferences.
type Settings struct {
	Duration         time.Duration
	AnimationStyle   model.AnimationStyle
	MusicTrack       model.MusicTrack
	MusicEnabled     bool
	VibrationEnabled bool

	OverlayOpacity float64
	Fullscreen     bool
}

// DefaultSettings returns default settings for stillpoint.
func DefaultSettings() Settings {
	config := model.DefaultTimerConfig()
	return Settings{
		Duration:         config.TotalDuration,
		AnimationStyle:   config.AnimationStyle,
		MusicTrack:       config.MusicTrack,
		MusicEnabled:     config.MusicEnabled,
		VibrationEnabled: config.VibrationEnabled,
		OverlayOpacity:   0.92,
		Fullscreen:       true,
	}
}

// TimerConfig converts settings to the timer configuration.
func (settings Settings) TimerConfig() model.TimerConfig {
	return model.TimerConfig{
		TotalDuration:    settings.Duration,
		AnimationStyle:   settings.AnimationStyle,
		MusicTrack:       settings.MusicTrack,
		MusicEnabled:     settings.MusicEnabled,
		VibrationEnabled: settings.VibrationEnabled,
	}
}

// Patch returns the live-changeable fields that differ from previous.
func (settings Settings) Patch(previous Settings) model.ConfigPatch {
	var patch model.ConfigPatch
	if settings.AnimationStyle != previous.AnimationStyle {
		style := settings.AnimationStyle
		patch.AnimationStyle = &style
	}
	if settings.MusicTrack != previous.MusicTrack {
		track := settings.MusicTrack
		patch.MusicTrack = &track
	}
	if settings.MusicEnabled != previous.MusicEnabled {
		enabled := settings.MusicEnabled
		patch.MusicEnabled = &enabled
	}
	if settings.VibrationEnabled != previous.VibrationEnabled {
		enabled := settings.VibrationEnabled
		patch.VibrationEnabled = &enabled
	}
	if settings.Duration != previous.Duration {
		duration := settings.Duration
		patch.TotalDuration = &duration
	}
	return patch
}
