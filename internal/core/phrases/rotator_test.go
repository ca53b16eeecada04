package phrases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartShowsFirstPhraseImmediately(t *testing.T) {
	var updates []Update
	rotator := New(func(update Update) { updates = append(updates, update) })

	rotator.Start(Default, DefaultInterval, time.Unix(0, 0))

	require.Len(t, updates, 1)
	assert.Equal(t, Default[0], updates[0].Text)
	assert.False(t, updates[0].Fading)
	assert.True(t, rotator.Active())
}

func TestAdvanceFadesThenSwaps(t *testing.T) {
	var updates []Update
	rotator := New(func(update Update) { updates = append(updates, update) })
	start := time.Unix(0, 0)
	rotator.Start([]string{"a", "b"}, 30*time.Second, start)

	rotator.Advance(start.Add(30 * time.Second))
	require.Len(t, updates, 2)
	assert.True(t, updates[1].Fading)
	assert.Equal(t, 0, rotator.Index())

	rotator.Advance(start.Add(30*time.Second + FadeDuration))
	require.Len(t, updates, 3)
	assert.Equal(t, "b", updates[2].Text)
	assert.Equal(t, 1, rotator.Index())
}

func TestAdvanceWrapsAround(t *testing.T) {
	rotator := New(nil)
	start := time.Unix(0, 0)
	rotator.Start([]string{"a", "b", "c"}, time.Second, start)

	rotator.Advance(start.Add(3*time.Second + FadeDuration))
	assert.Equal(t, 0, rotator.Index())
	assert.Equal(t, 3, rotator.Rotations())
}

func TestTenMinuteSessionRotatesNineteenTimes(t *testing.T) {
	rotator := New(nil)
	start := time.Unix(0, 0)
	rotator.Start(Default, DefaultInterval, start)

	for at := time.Duration(0); at <= 600*time.Second; at += 50 * time.Millisecond {
		rotator.Advance(start.Add(at))
	}
	rotator.Advance(start.Add(600*time.Second + 300*time.Millisecond))
	rotator.Stop()
	rotator.Advance(start.Add(601 * time.Second))

	assert.Equal(t, 19, rotator.Rotations())
	assert.Equal(t, 19, rotator.Index())
}

func TestLateAdvanceCatchesUpInOrder(t *testing.T) {
	var texts []string
	rotator := New(func(update Update) {
		if !update.Fading {
			texts = append(texts, update.Text)
		}
	})
	start := time.Unix(0, 0)
	rotator.Start([]string{"a", "b", "c", "d"}, 10*time.Second, start)

	rotator.Advance(start.Add(31 * time.Second))
	assert.Equal(t, []string{"a", "b", "c", "d"}, texts)
}

func TestStopKeepsTextAndHaltsRotation(t *testing.T) {
	rotator := New(nil)
	start := time.Unix(0, 0)
	rotator.Start([]string{"a", "b"}, time.Second, start)
	rotator.Stop()

	rotator.Advance(start.Add(10 * time.Second))
	assert.Equal(t, 0, rotator.Rotations())
	assert.False(t, rotator.Active())
}

func TestStartWithoutPhrasesUsesDefaults(t *testing.T) {
	var first Update
	rotator := New(func(update Update) { first = update })
	rotator.Start(nil, 0, time.Unix(0, 0))
	assert.Equal(t, Default[0], first.Text)
}
