// Package phrases cycles affirmation text on a fixed interval.
package phrases

import (
	"sync"
	"time"
)

const (
	// DefaultInterval is the time each phrase stays on screen.
	DefaultInterval = 30 * time.Second
	// FadeDuration is the fade-out time before the next phrase is shown.
	FadeDuration = 500 * time.Millisecond
)

// Default is the built-in affirmation list.
var Default = []string{
	"Breathe deeply...",
	"Let your thoughts go...",
	"You are at peace...",
	"Feel your breath...",
	"This moment is everything...",
	"Relax your body...",
	"Observe without judging...",
	"Accept what you feel...",
	"Connect with yourself...",
	"Calm lives within you...",
	"Release the tension...",
	"Simply breathe...",
	"You are here and now...",
	"Find your center...",
	"Let the energy flow...",
	"Trust the process...",
	"You are enough...",
	"Embrace the stillness...",
	"Feel the serenity...",
	"Gratitude for this moment...",
}

// Update is a display instruction for the phrase label.
type Update struct {
	Text   string
	Index  int
	Fading bool
}

// Rotator advances through phrases when driven by Advance.
type Rotator struct {
	mu       sync.Mutex
	display  func(Update)
	phrases  []string
	interval time.Duration
	index    int
	active   bool
	nextAt   time.Time
	swapAt   time.Time
	rotated  int
}

// New creates a rotator that reports display changes to display.
func New(display func(Update)) *Rotator {
	if display == nil {
		display = func(Update) {}
	}
	return &Rotator{display: display}
}

// Start shows the first phrase immediately and schedules rotation from now.
func (rotator *Rotator) Start(phrases []string, interval time.Duration, now time.Time) {
	if len(phrases) == 0 {
		phrases = Default
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	rotator.mu.Lock()
	rotator.phrases = append([]string(nil), phrases...)
	rotator.interval = interval
	rotator.index = 0
	rotator.rotated = 0
	rotator.active = true
	rotator.nextAt = now.Add(interval)
	rotator.swapAt = time.Time{}
	update := Update{Text: rotator.phrases[0], Index: 0}
	rotator.mu.Unlock()

	rotator.display(update)
}

// Stop cancels rotation. The current text stays as is.
func (rotator *Rotator) Stop() {
	rotator.mu.Lock()
	rotator.active = false
	rotator.nextAt = time.Time{}
	rotator.swapAt = time.Time{}
	rotator.mu.Unlock()
}

// Advance processes every fade and swap due up to now, in order.
func (rotator *Rotator) Advance(now time.Time) {
	var updates []Update

	rotator.mu.Lock()
	for rotator.active {
		if !rotator.swapAt.IsZero() && !now.Before(rotator.swapAt) && !rotator.swapAt.After(rotator.nextAt) {
			rotator.index = (rotator.index + 1) % len(rotator.phrases)
			rotator.rotated++
			rotator.swapAt = time.Time{}
			updates = append(updates, Update{Text: rotator.phrases[rotator.index], Index: rotator.index})
			continue
		}
		if now.Before(rotator.nextAt) {
			break
		}
		updates = append(updates, Update{Text: rotator.phrases[rotator.index], Index: rotator.index, Fading: true})
		rotator.swapAt = rotator.nextAt.Add(FadeDuration)
		rotator.nextAt = rotator.nextAt.Add(rotator.interval)
	}
	rotator.mu.Unlock()

	for _, update := range updates {
		rotator.display(update)
	}
}

// Index returns the phrase currently displayed.
func (rotator *Rotator) Index() int {
	rotator.mu.Lock()
	defer rotator.mu.Unlock()
	return rotator.index
}

// Rotations returns how many times the index advanced since Start.
func (rotator *Rotator) Rotations() int {
	rotator.mu.Lock()
	defer rotator.mu.Unlock()
	return rotator.rotated
}

// Active reports whether rotation is scheduled.
func (rotator *Rotator) Active() bool {
	rotator.mu.Lock()
	defer rotator.mu.Unlock()
	return rotator.active
}
