package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stillpoint/internal/core/handoff"
	"stillpoint/internal/core/model"
	"stillpoint/internal/ui/preferences"
)

func TestLoadSettingsFileMissingReturnsDefaults(t *testing.T) {
	file, err := LoadSettingsFile(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	assert.Equal(t, preferences.DefaultSettings(), file.Settings)
	assert.Empty(t, file.Phrases)
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	settings := preferences.DefaultSettings()
	settings.Duration = 25 * time.Minute
	settings.AnimationStyle = model.AnimationCosmos
	settings.MusicTrack = model.MusicSea
	settings.MusicEnabled = false
	settings.VibrationEnabled = false
	settings.OverlayOpacity = 0.7
	settings.Fullscreen = false

	require.NoError(t, SaveSettingsFile(path, File{Settings: settings, Phrases: []string{"Breathe."}}))

	loaded, err := LoadSettingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, settings, loaded.Settings)
	assert.Equal(t, []string{"Breathe."}, loaded.Phrases)
}

func TestInvalidSettingsValuesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	raw := "duration_seconds: -5\nanimation_style: lava\nmusic_track: jazz\noverlay_opacity: 3\nphrases: ['', 'Stay.']\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	loaded, err := LoadSettingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, preferences.DefaultSettings(), loaded.Settings)
	assert.Equal(t, []string{"Stay."}, loaded.Phrases)
}

func TestMalformedSettingsReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("duration_seconds: [\n"), 0o644))

	loaded, err := LoadSettingsFile(path)
	require.Error(t, err)
	assert.Equal(t, preferences.DefaultSettings(), loaded.Settings)
}

func openTestSessions(t *testing.T) *SessionStore {
	t.Helper()
	store, err := OpenSessionStore(context.Background(), filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionStorePersistAndListByMonth(t *testing.T) {
	ctx := context.Background()
	store := openTestSessions(t)

	entries := []model.LoggedSession{
		{DurationMinutes: 20, Date: "2026-03-31", Location: "home"},
		{DurationMinutes: 10, Date: "2026-04-01", Notes: "calm"},
		{DurationMinutes: 15, Date: "2026-04-15"},
	}
	ids := map[string]bool{}
	for _, entry := range entries {
		id, err := store.PersistSession(ctx, entry)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		ids[id] = true
	}
	assert.Len(t, ids, 3)

	april, err := store.ListSessionsForMonth(ctx, model.YearMonth{Year: 2026, Month: time.April})
	require.NoError(t, err)
	require.Len(t, april, 2)
	assert.Equal(t, "2026-04-01", april[0].Date)
	assert.Equal(t, "calm", april[0].Notes)
	assert.False(t, april[0].CreatedAt.IsZero())

	march, err := store.ListSessionsForMonth(ctx, model.YearMonth{Year: 2026, Month: time.March})
	require.NoError(t, err)
	require.Len(t, march, 1)
	assert.Equal(t, "home", march[0].Location)
}

func TestSessionStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	store, err := OpenSessionStore(ctx, path)
	require.NoError(t, err)
	id, err := store.PersistSession(ctx, model.LoggedSession{ID: "fixed", DurationMinutes: 5, Date: "2026-01-02"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)
	require.NoError(t, store.Close())

	reopened, err := OpenSessionStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	sessions, err := reopened.ListSessionsForMonth(ctx, model.YearMonth{Year: 2026, Month: time.January})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 5, sessions[0].DurationMinutes)
}

func TestRecorderEnforcesQuotaAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	store := openTestSessions(t)
	recorder := handoff.NewRecorder(store)

	_, err := recorder.Record(ctx, handoff.Fields{DurationMinutes: 1750, Date: "2026-05-03"})
	require.NoError(t, err)

	_, err = recorder.Record(ctx, handoff.Fields{DurationMinutes: 100, Date: "2026-05-20"})
	var quotaErr *handoff.QuotaError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, 50, quotaErr.Remaining)

	_, err = recorder.Record(ctx, handoff.Fields{DurationMinutes: 100, Date: "2026-06-01"})
	require.NoError(t, err)

	total, sessions, err := recorder.MonthTotal(ctx, model.YearMonth{Year: 2026, Month: time.May})
	require.NoError(t, err)
	assert.Equal(t, 1750, total)
	assert.Len(t, sessions, 1)
}
