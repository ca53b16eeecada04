package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnimationStyle(t *testing.T) {
	style, err := ParseAnimationStyle(" Ripple ")
	require.NoError(t, err)
	assert.Equal(t, AnimationRipple, style)
	assert.True(t, style.Immersive())

	_, err = ParseAnimationStyle("lava")
	assert.Error(t, err)
	assert.False(t, AnimationHue.Immersive())
}

func TestMusicTrackFileName(t *testing.T) {
	assert.Equal(t, "sea.mp3", MusicSea.FileName())
	assert.Empty(t, MusicSilence.FileName())

	track, err := ParseMusicTrack("NATURE")
	require.NoError(t, err)
	assert.Equal(t, MusicNature, track)
}

func TestTimerConfigDefaults(t *testing.T) {
	config := DefaultTimerConfig()
	assert.Equal(t, 600, config.TotalSeconds())
	assert.True(t, config.WantsMusic())

	config.TotalDuration = 0
	assert.Equal(t, 600, config.TotalSeconds())

	config.MusicTrack = MusicSilence
	assert.False(t, config.WantsMusic())
}

func TestConfigPatchApply(t *testing.T) {
	duration := 90 * time.Second
	style := AnimationCosmos
	disabled := false

	config := ConfigPatch{
		TotalDuration:  &duration,
		AnimationStyle: &style,
		MusicEnabled:   &disabled,
	}.Apply(DefaultTimerConfig())

	assert.Equal(t, 90, config.TotalSeconds())
	assert.Equal(t, AnimationCosmos, config.AnimationStyle)
	assert.False(t, config.MusicEnabled)
	assert.Equal(t, MusicAmbient, config.MusicTrack)
	assert.True(t, config.VibrationEnabled)
}

func TestConfigPatchIgnoresNonPositiveDuration(t *testing.T) {
	zero := time.Duration(0)
	config := ConfigPatch{TotalDuration: &zero}.Apply(DefaultTimerConfig())
	assert.Equal(t, DefaultDuration, config.TotalDuration)
}

func TestYearMonth(t *testing.T) {
	month, err := ParseYearMonth("2026-03")
	require.NoError(t, err)
	assert.Equal(t, "2026-03", month.String())

	session := LoggedSession{Date: "2026-03-14"}
	sessionMonth, err := session.Month()
	require.NoError(t, err)
	assert.Equal(t, month, sessionMonth)

	_, err = LoggedSession{Date: "14/03/2026"}.Month()
	assert.Error(t, err)
}
