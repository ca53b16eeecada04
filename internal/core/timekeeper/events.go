package timekeeper

import (
	"time"

	"stillpoint/internal/core/handoff"
	"stillpoint/internal/core/model"
)

// Phase represents the current TimeKeeper mode.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseCountdown     Phase = "countdown"
	PhaseRunning       Phase = "running"
	PhaseCompleting    Phase = "completing"
	PhaseLoggingResult Phase = "logging_result"
)

// Active reports whether a session is counting down or running.
func (phase Phase) Active() bool {
	return phase == PhaseCountdown || phase == PhaseRunning
}

// EventType defines the type of TimeKeeper event.
type EventType string

const (
	EventPhaseChange   EventType = "phase_change"
	EventCountdownTick EventType = "countdown_tick"
	EventTick          EventType = "tick"
	EventCompleted     EventType = "completed"
	EventCancelled     EventType = "cancelled"
	EventPhrase        EventType = "phrase"
	EventLogged        EventType = "logged"
)

// Lifecycle reports whether observers must not miss the event.
func (eventType EventType) Lifecycle() bool {
	switch eventType {
	case EventPhaseChange, EventCompleted, EventCancelled, EventLogged:
		return true
	}
	return false
}

// Event represents a TimeKeeper update for observers.
type Event struct {
	Type      EventType
	Phase     Phase
	Remaining int
	Progress  float64
	Countdown int
	Elapsed   int
	Phrase    string
	Fading    bool
	SessionID string
	Form      *handoff.Form
	At        time.Time
}

// Snapshot is a copy of the machine state.
type Snapshot struct {
	Phase     Phase
	Total     int
	Remaining int
	Countdown int
	Progress  float64
	Elapsed   int
	Config    model.TimerConfig
	Form      *handoff.Form
}
