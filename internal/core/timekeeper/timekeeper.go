package timekeeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stillpoint/internal/core/handoff"
	"stillpoint/internal/core/model"
	"stillpoint/internal/core/phrases"
	"stillpoint/internal/platform"
)

// ErrNotLogging indicates there is no completed session waiting for a log entry.
var ErrNotLogging = errors.New("no completed session to log")

const (
	defaultResolution = 50 * time.Millisecond
	defaultCountdown  = 10
	defaultGrace      = 300 * time.Millisecond
	tickInterval      = time.Second
)

// Options contains runtime options for TimeKeeper.
type Options struct {
	// Resolution is how often Run samples the clock.
	Resolution       time.Duration
	CountdownSeconds int
	// Grace is the pause between reaching zero and tearing the session down.
	Grace          time.Duration
	Phrases        []string
	PhraseInterval time.Duration
	FadeIn         time.Duration
	FadeOut        time.Duration
	Now            func() time.Time
}

// Dependencies are the collaborators driven by a session. Nil fields are no-ops.
type Dependencies struct {
	Audio    Audio
	Animator Animator
	WakeLock WakeLock
	Vibrator Vibrator
	Recorder Recorder
	Logger   *slog.Logger
}

type session struct {
	phase         Phase
	total         int
	remaining     int
	countdown     int
	elapsedForLog int
	nextTickAt    time.Time
	graceUntil    time.Time
	form          *handoff.Form
}

// TimeKeeper is the meditation timer state machine.
type TimeKeeper struct {
	mu         sync.Mutex
	config     model.TimerConfig
	options    Options
	deps       Dependencies
	logger     *slog.Logger
	rotator    *phrases.Rotator
	session    *session
	completing bool
	events     []chan Event
	closed     bool

	// catchingUp coalesces the ticks of one Advance into the latest.
	catchingUp  bool
	pendingTick *Event
}

// New creates a TimeKeeper with the provided configuration.
func New(config model.TimerConfig, options Options, deps Dependencies) *TimeKeeper {
	if options.Resolution <= 0 {
		options.Resolution = defaultResolution
	}
	if options.CountdownSeconds <= 0 {
		options.CountdownSeconds = defaultCountdown
	}
	if options.Grace <= 0 {
		options.Grace = defaultGrace
	}
	if len(options.Phrases) == 0 {
		options.Phrases = phrases.Default
	}
	if options.PhraseInterval <= 0 {
		options.PhraseInterval = phrases.DefaultInterval
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if deps.Audio == nil {
		deps.Audio = nopAudio{}
	}
	if deps.Animator == nil {
		deps.Animator = nopAnimator{}
	}
	if deps.WakeLock == nil {
		deps.WakeLock = nopWakeLock{}
	}
	if deps.Vibrator == nil {
		deps.Vibrator = nopVibrator{}
	}
	if deps.Recorder == nil {
		deps.Recorder = discardRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	keeper := &TimeKeeper{
		config:  config,
		options: options,
		deps:    deps,
		logger:  deps.Logger,
	}
	// The rotator is only driven under keeper.mu, so its display callback runs locked.
	keeper.rotator = phrases.New(keeper.phraseLocked)
	deps.Vibrator.SetEnabled(config.VibrationEnabled)
	return keeper
}

// Subscribe registers a new observer channel.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	if keeper.closed {
		close(ch)
	} else {
		keeper.events = append(keeper.events, ch)
	}
	keeper.mu.Unlock()
	return ch
}

// Close cancels any active session and closes observers.
func (keeper *TimeKeeper) Close() {
	keeper.Stop()
	keeper.mu.Lock()
	if keeper.closed {
		keeper.mu.Unlock()
		return
	}
	keeper.closed = true
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// Run samples the clock until ctx is cancelled.
func (keeper *TimeKeeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(keeper.options.Resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			keeper.Advance(keeper.options.Now())
		}
	}
}

// Start begins the countdown. It is a no-op unless the machine is idle.
func (keeper *TimeKeeper) Start() bool {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.session != nil || keeper.closed {
		return false
	}

	now := keeper.options.Now()
	current := &session{
		phase:     PhaseCountdown,
		total:     keeper.config.TotalSeconds(),
		countdown: keeper.options.CountdownSeconds,
	}
	current.remaining = current.total
	current.nextTickAt = now.Add(tickInterval)
	keeper.session = current
	keeper.completing = false

	keeper.deps.WakeLock.Acquire()
	keeper.deps.Audio.PlayChimeOnce()
	keeper.logger.Info("session started", "total_seconds", current.total)

	keeper.emitLocked(Event{Type: EventPhaseChange, Phase: PhaseCountdown, Remaining: current.total, Countdown: current.countdown, At: now})
	keeper.emitLocked(Event{Type: EventCountdownTick, Phase: PhaseCountdown, Countdown: current.countdown, At: now})
	return true
}

// Stop cancels a session in countdown or running. Other phases are left alone.
func (keeper *TimeKeeper) Stop() bool {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	current := keeper.session
	if current == nil || !current.phase.Active() {
		return false
	}

	now := keeper.options.Now()
	current.nextTickAt = time.Time{}
	current.graceUntil = time.Time{}
	keeper.rotator.Stop()
	keeper.deps.Animator.Stop()
	keeper.deps.Audio.HardStop()
	keeper.deps.WakeLock.Release()
	keeper.session = nil
	keeper.completing = false
	keeper.logger.Info("session cancelled", "phase", string(current.phase), "remaining", current.remaining)

	keeper.emitLocked(Event{Type: EventCancelled, Phase: PhaseIdle, Remaining: current.remaining, At: now})
	keeper.emitLocked(Event{Type: EventPhaseChange, Phase: PhaseIdle, Remaining: keeper.config.TotalSeconds(), At: now})
	return true
}

// Advance processes every tick, deadline, phrase change and fade step due by now.
func (keeper *TimeKeeper) Advance(now time.Time) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.catchingUp = true
	defer func() {
		keeper.catchingUp = false
		keeper.flushTickLocked()
	}()

	for {
		current := keeper.session
		if current == nil {
			break
		}
		at, due := current.nextDueLocked(now)
		if !due {
			break
		}
		keeper.rotator.Advance(at)
		keeper.deps.Audio.Advance(at)
		if !current.graceUntil.IsZero() && !current.graceUntil.After(at) {
			keeper.completeLocked(current, at)
			continue
		}
		keeper.tickLocked(current, at)
	}
	if keeper.session != nil {
		keeper.rotator.Advance(now)
	}
	keeper.deps.Audio.Advance(now)
}

func (current *session) nextDueLocked(now time.Time) (time.Time, bool) {
	var at time.Time
	if !current.nextTickAt.IsZero() {
		at = current.nextTickAt
	}
	// The grace deadline wins a tie so teardown is never delayed by a tick.
	if !current.graceUntil.IsZero() && (at.IsZero() || !current.graceUntil.After(at)) {
		at = current.graceUntil
	}
	if at.IsZero() || at.After(now) {
		return time.Time{}, false
	}
	return at, true
}

func (keeper *TimeKeeper) tickLocked(current *session, at time.Time) {
	current.nextTickAt = current.nextTickAt.Add(tickInterval)

	switch current.phase {
	case PhaseCountdown:
		current.countdown--
		if current.countdown < 0 {
			current.countdown = 0
		}
		keeper.emitLocked(Event{Type: EventCountdownTick, Phase: PhaseCountdown, Countdown: current.countdown, At: at})
		if current.countdown == 0 {
			keeper.enterRunningLocked(current, at)
		}

	case PhaseRunning:
		if keeper.completing || current.remaining <= 0 {
			return
		}
		current.remaining--
		progress := current.progress()
		keeper.deps.Animator.UpdateProgress(progress, current.remaining)
		keeper.emitLocked(Event{Type: EventTick, Phase: PhaseRunning, Remaining: current.remaining, Progress: progress, At: at})
		if current.remaining == 0 {
			keeper.completing = true
			keeper.deps.Audio.PlayCompletionChime()
			current.graceUntil = at.Add(keeper.options.Grace)
		}

	default:
		current.nextTickAt = time.Time{}
	}
}

func (keeper *TimeKeeper) enterRunningLocked(current *session, at time.Time) {
	current.phase = PhaseRunning
	current.remaining = current.total
	if keeper.config.WantsMusic() {
		keeper.deps.Audio.StartLoop(keeper.config.MusicTrack, keeper.options.FadeIn, at)
	}
	keeper.deps.Animator.Start(keeper.config.AnimationStyle)
	keeper.deps.Animator.UpdateProgress(0, current.remaining)
	keeper.rotator.Start(keeper.options.Phrases, keeper.options.PhraseInterval, at)
	keeper.emitLocked(Event{Type: EventPhaseChange, Phase: PhaseRunning, Remaining: current.remaining, At: at})
}

func (keeper *TimeKeeper) completeLocked(current *session, at time.Time) {
	current.graceUntil = time.Time{}
	current.nextTickAt = time.Time{}
	keeper.rotator.Stop()
	keeper.deps.WakeLock.Release()
	keeper.deps.Vibrator.Vibrate(platform.CompletionPattern)
	keeper.deps.Animator.Stop()
	keeper.deps.Audio.FadeOutAndStop(keeper.options.FadeOut, at)
	current.elapsedForLog = current.total

	current.phase = PhaseCompleting
	keeper.emitLocked(Event{Type: EventPhaseChange, Phase: PhaseCompleting, Progress: 1, At: at})
	keeper.emitLocked(Event{Type: EventCompleted, Phase: PhaseCompleting, Elapsed: current.elapsedForLog, Progress: 1, At: at})
	keeper.logger.Info("session completed", "elapsed_seconds", current.elapsedForLog)

	form := handoff.NewForm(current.elapsedForLog, at)
	current.form = &form
	current.phase = PhaseLoggingResult
	formCopy := form
	keeper.emitLocked(Event{Type: EventPhaseChange, Phase: PhaseLoggingResult, Elapsed: current.elapsedForLog, Form: &formCopy, At: at})
	keeper.completing = false
}

// Submit logs the completed session. A rejected entry keeps the form open;
// any other outcome returns the machine to idle.
func (keeper *TimeKeeper) Submit(ctx context.Context, fields handoff.Fields) (string, error) {
	keeper.mu.Lock()
	current := keeper.session
	if current == nil || current.phase != PhaseLoggingResult {
		keeper.mu.Unlock()
		return "", ErrNotLogging
	}
	recorder := keeper.deps.Recorder
	keeper.mu.Unlock()

	id, err := recorder.Record(ctx, fields)

	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.session != current {
		if err != nil {
			return "", fmt.Errorf("log session: %w", err)
		}
		return id, nil
	}
	if errors.Is(err, handoff.ErrQuotaExceeded) || errors.Is(err, handoff.ErrInvalidEntry) {
		current.form.Fields = fields
		keeper.logger.Info("log entry rejected", "error", err)
		return "", err
	}

	now := keeper.options.Now()
	keeper.resetLocked(now)
	if err != nil {
		keeper.logger.Warn("log entry not saved", "error", err)
		return "", fmt.Errorf("log session: %w", err)
	}
	keeper.emitLocked(Event{Type: EventLogged, Phase: PhaseIdle, SessionID: id, At: now})
	return id, nil
}

// Skip discards the completed session.
func (keeper *TimeKeeper) Skip() bool {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	current := keeper.session
	if current == nil || current.phase != PhaseLoggingResult {
		return false
	}
	keeper.resetLocked(keeper.options.Now())
	return true
}

func (keeper *TimeKeeper) resetLocked(now time.Time) {
	keeper.session = nil
	keeper.completing = false
	keeper.emitLocked(Event{Type: EventPhaseChange, Phase: PhaseIdle, Remaining: keeper.config.TotalSeconds(), At: now})
}

// Reconfigure applies patch. Animation and music changes take effect live
// while running; a new duration applies to the next session.
func (keeper *TimeKeeper) Reconfigure(patch model.ConfigPatch) model.TimerConfig {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	previous := keeper.config
	keeper.config = patch.Apply(previous)
	next := keeper.config
	keeper.deps.Vibrator.SetEnabled(next.VibrationEnabled)

	current := keeper.session
	if current == nil {
		keeper.deps.Animator.Switch(next.AnimationStyle)
		if previous.TotalDuration != next.TotalDuration {
			keeper.emitLocked(Event{Type: EventPhaseChange, Phase: PhaseIdle, Remaining: next.TotalSeconds(), At: keeper.options.Now()})
		}
		return next
	}
	if current.phase != PhaseRunning || keeper.completing {
		return next
	}

	if next.AnimationStyle != previous.AnimationStyle {
		keeper.deps.Animator.Switch(next.AnimationStyle)
		keeper.deps.Animator.UpdateProgress(current.progress(), current.remaining)
	}
	switch {
	case !next.WantsMusic() && previous.WantsMusic():
		keeper.deps.Audio.StopLoop()
	case next.WantsMusic() && !previous.WantsMusic():
		keeper.deps.Audio.PlayFull(next.MusicTrack)
	case next.WantsMusic() && next.MusicTrack != previous.MusicTrack:
		keeper.deps.Audio.SwapTrack(next.MusicTrack)
	}
	return next
}

// SetDurationText parses a manual entry. It is ignored while a session exists.
func (keeper *TimeKeeper) SetDurationText(text string) (time.Duration, bool) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.session != nil {
		return keeper.config.TotalDuration, false
	}
	keeper.config.TotalDuration = ParseDuration(text)
	keeper.emitLocked(Event{Type: EventPhaseChange, Phase: PhaseIdle, Remaining: keeper.config.TotalSeconds(), At: keeper.options.Now()})
	return keeper.config.TotalDuration, true
}

// HandleVisibility re-acquires the wake lock when the app is visible again
// during an active session.
func (keeper *TimeKeeper) HandleVisibility(visible bool) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	current := keeper.session
	if !visible || current == nil || !current.phase.Active() {
		return
	}
	keeper.deps.WakeLock.Reacquire()
}

// Config returns the current configuration.
func (keeper *TimeKeeper) Config() model.TimerConfig {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.config
}

// Snapshot returns a copy of the current state.
func (keeper *TimeKeeper) Snapshot() Snapshot {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	current := keeper.session
	if current == nil {
		return Snapshot{
			Phase:     PhaseIdle,
			Total:     keeper.config.TotalSeconds(),
			Remaining: keeper.config.TotalSeconds(),
			Config:    keeper.config,
		}
	}
	snapshot := Snapshot{
		Phase:     current.phase,
		Total:     current.total,
		Remaining: current.remaining,
		Countdown: current.countdown,
		Progress:  current.progress(),
		Elapsed:   current.elapsedForLog,
		Config:    keeper.config,
	}
	if current.form != nil {
		form := *current.form
		snapshot.Form = &form
	}
	return snapshot
}

func (current *session) progress() float64 {
	switch current.phase {
	case PhaseCompleting, PhaseLoggingResult:
		return 1
	case PhaseRunning:
		if current.total <= 0 {
			return 1
		}
		return float64(current.total-current.remaining) / float64(current.total)
	}
	return 0
}

func (keeper *TimeKeeper) phraseLocked(update phrases.Update) {
	keeper.deps.Animator.ShowPhrase(update.Text, update.Fading)
	keeper.emitLocked(Event{
		Type:   EventPhrase,
		Phase:  PhaseRunning,
		Phrase: update.Text,
		Fading: update.Fading,
		At:     keeper.options.Now(),
	})
}

func (keeper *TimeKeeper) emitLocked(event Event) {
	if keeper.catchingUp && (event.Type == EventTick || event.Type == EventCountdownTick) {
		keeper.pendingTick = &event
		return
	}
	if event.Type.Lifecycle() {
		keeper.flushTickLocked()
	}
	keeper.sendLocked(event)
}

func (keeper *TimeKeeper) flushTickLocked() {
	if keeper.pendingTick == nil {
		return
	}
	event := *keeper.pendingTick
	keeper.pendingTick = nil
	keeper.sendLocked(event)
}

// sendLocked never blocks. A full subscriber misses display updates, but a
// lifecycle event evicts the oldest buffered event to make room.
func (keeper *TimeKeeper) sendLocked(event Event) {
	for _, ch := range keeper.events {
		select {
		case ch <- event:
			continue
		default:
		}
		if !event.Type.Lifecycle() {
			continue
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
			keeper.logger.Warn("subscriber dropped event", "type", string(event.Type))
		}
	}
}
