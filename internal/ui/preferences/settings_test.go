package preferences

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stillpoint/internal/core/model"
)

func TestDefaultSettingsMatchTimerDefaults(t *testing.T) {
	settings := DefaultSettings()
	assert.Equal(t, model.DefaultTimerConfig(), settings.TimerConfig())
}

func TestPatchOnlyCarriesChangedFields(t *testing.T) {
	previous := DefaultSettings()
	next := previous
	next.MusicTrack = model.MusicSea
	next.OverlayOpacity = 0.6

	patch := next.Patch(previous)
	require.NotNil(t, patch.MusicTrack)
	assert.Equal(t, model.MusicSea, *patch.MusicTrack)
	assert.Nil(t, patch.AnimationStyle)
	assert.Nil(t, patch.MusicEnabled)
	assert.Nil(t, patch.VibrationEnabled)
	assert.Nil(t, patch.TotalDuration)

	assert.Equal(t, next.TimerConfig(), patch.Apply(previous.TimerConfig()))
}

func TestCollectPanelValues(t *testing.T) {
	current := DefaultSettings()
	settings := collect(current, formValues{
		Duration:   "20:30",
		Style:      "ripple",
		Track:      "nature",
		Music:      false,
		Vibration:  true,
		Opacity:    0.75,
		Fullscreen: false,
	})

	assert.Equal(t, 20*time.Minute+30*time.Second, settings.Duration)
	assert.Equal(t, model.AnimationRipple, settings.AnimationStyle)
	assert.Equal(t, model.MusicNature, settings.MusicTrack)
	assert.False(t, settings.MusicEnabled)
	assert.True(t, settings.VibrationEnabled)
	assert.Equal(t, 0.75, settings.OverlayOpacity)
	assert.False(t, settings.Fullscreen)
}

func TestCollectKeepsCurrentOnUnparseableValues(t *testing.T) {
	current := DefaultSettings()
	settings := collect(current, formValues{
		Style:      "lava",
		Track:      "",
		Music:      current.MusicEnabled,
		Vibration:  current.VibrationEnabled,
		Opacity:    0.1,
		Fullscreen: current.Fullscreen,
	})
	assert.Equal(t, current, settings)
}
