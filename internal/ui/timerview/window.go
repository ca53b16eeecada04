// Package timerview is the main timer window: duration entry, progress ring,
// phrase label, controls and the post-session log form.
package timerview

import (
	"context"
	"image/color"
	"strconv"
	"time"

	"stillpoint/internal/core/handoff"
	"stillpoint/internal/core/phrases"
	"stillpoint/internal/core/timekeeper"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Controller is the timer surface driven by the window.
type Controller interface {
	Start() bool
	Stop() bool
	SetDurationText(text string) (time.Duration, bool)
	Submit(ctx context.Context, fields handoff.Fields) (string, error)
	Skip() bool
	Snapshot() timekeeper.Snapshot
	HandleVisibility(visible bool)
}

// Unlocker primes audio playback on the first user gesture.
type Unlocker interface {
	Unlock()
}

var phraseColor = color.NRGBA{R: 214, G: 210, B: 200, A: 255}

// Window is the timer window.
type Window struct {
	window     fyne.Window
	controller Controller
	unlocker   Unlocker

	ring        *Ring
	clock       *canvas.Text
	phrase      *canvas.Text
	phraseFade  *fyne.Animation
	duration    *widget.Entry
	startButton *widget.Button
	stopButton  *widget.Button

	logForm  *fyne.Container
	stats    *widget.Label
	minutes  *widget.Entry
	date     *widget.Entry
	location *widget.Entry
	notes    *widget.Entry
	feedback *widget.Label
	submit   *widget.Button
	skip     *widget.Button

	phase       timekeeper.Phase
	onCustomize func()
}

// New creates the timer window around ring, which is shared with the animation director.
func New(app fyne.App, controller Controller, unlocker Unlocker, ring *Ring, onCustomize func()) *Window {
	window := app.NewWindow("Stillpoint")
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	view := &Window{
		window:      window,
		controller:  controller,
		unlocker:    unlocker,
		ring:        ring,
		onCustomize: onCustomize,
		phase:       timekeeper.PhaseIdle,
	}

	view.clock = canvas.NewText("10:00", phraseTint(255))
	view.clock.Alignment = fyne.TextAlignCenter
	view.clock.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	view.clock.TextSize = 48

	view.phrase = canvas.NewText("", phraseColor)
	view.phrase.Alignment = fyne.TextAlignCenter
	view.phrase.TextStyle = fyne.TextStyle{Italic: true}
	view.phrase.TextSize = 16

	view.duration = widget.NewEntry()
	view.duration.SetPlaceHolder("MM:SS")
	view.duration.OnSubmitted = view.handleDuration

	view.startButton = widget.NewButton("Start", view.handleStart)
	view.startButton.Importance = widget.HighImportance
	view.stopButton = widget.NewButton("Stop", func() { controller.Stop() })
	customize := widget.NewButton("Customize", func() {
		if view.onCustomize != nil {
			view.onCustomize()
		}
	})

	timerPane := container.NewVBox(
		container.NewStack(view.ring, container.NewCenter(view.clock)),
		view.phrase,
		container.NewBorder(nil, nil, widget.NewLabel("Duration"), nil, view.duration),
		container.NewHBox(view.startButton, view.stopButton, layout.NewSpacer(), customize),
	)

	view.buildLogForm()
	window.SetContent(container.NewPadded(container.NewVBox(timerPane, view.logForm)))
	window.Resize(fyne.NewSize(420, 560))

	view.applySnapshot(controller.Snapshot())
	view.bindLifecycle(app)
	return view
}

func (view *Window) buildLogForm() {
	view.stats = widget.NewLabel("")
	view.minutes = widget.NewEntry()
	view.date = widget.NewEntry()
	view.location = widget.NewEntry()
	view.location.SetPlaceHolder("Optional")
	view.notes = widget.NewMultiLineEntry()
	view.notes.SetPlaceHolder("Optional")
	view.feedback = widget.NewLabel("")
	view.feedback.Wrapping = fyne.TextWrapWord
	view.submit = widget.NewButton("Log session", view.handleSubmit)
	view.submit.Importance = widget.HighImportance
	view.skip = widget.NewButton("Skip", func() { view.controller.Skip() })

	form := widget.NewForm(
		widget.NewFormItem("Minutes", view.minutes),
		widget.NewFormItem("Date", view.date),
		widget.NewFormItem("Location", view.location),
		widget.NewFormItem("Notes", view.notes),
	)
	view.logForm = container.NewVBox(
		widget.NewLabelWithStyle("Log this session", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		view.stats,
		form,
		view.feedback,
		container.NewHBox(view.submit, layout.NewSpacer(), view.skip),
	)
	view.logForm.Hide()
}

// bindLifecycle reports foreground changes so the wake lock can be re-acquired.
func (view *Window) bindLifecycle(app fyne.App) {
	lifecycle := app.Lifecycle()
	lifecycle.SetOnEnteredForeground(func() { view.controller.HandleVisibility(true) })
	lifecycle.SetOnExitedForeground(func() { view.controller.HandleVisibility(false) })
}

// Show displays the window.
func (view *Window) Show() {
	view.window.Show()
	view.window.RequestFocus()
}

// Hide hides the window.
func (view *Window) Hide() {
	view.window.Hide()
}

// SetCloseIntercept replaces the default close behaviour.
func (view *Window) SetCloseIntercept(handler func()) {
	view.window.SetCloseIntercept(handler)
}

// Watch applies events on the UI goroutine until ctx is done or events closes.
func (view *Window) Watch(ctx context.Context, events <-chan timekeeper.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fyne.Do(func() { view.apply(event) })
		}
	}
}

func (view *Window) apply(event timekeeper.Event) {
	switch event.Type {
	case timekeeper.EventPhaseChange:
		view.setPhase(event.Phase)
		switch event.Phase {
		case timekeeper.PhaseIdle:
			view.setClock(timekeeper.FormatClock(event.Remaining))
			view.duration.SetText(timekeeper.FormatClock(event.Remaining))
			view.ring.SetProgress(0)
			view.setPhrase("")
		case timekeeper.PhaseLoggingResult:
			if event.Form != nil {
				view.showForm(*event.Form)
			}
		}
		view.resync()
	case timekeeper.EventCountdownTick:
		view.setClock(strconv.Itoa(event.Countdown))
	case timekeeper.EventTick:
		view.setClock(timekeeper.FormatClock(event.Remaining))
		view.ring.SetProgress(event.Progress)
	case timekeeper.EventCompleted:
		view.setClock(timekeeper.FormatClock(0))
		view.ring.SetProgress(1)
	case timekeeper.EventPhrase:
		if event.Fading {
			view.fadePhrase(255, 0)
			return
		}
		view.setPhrase(event.Phrase)
		view.fadePhrase(0, 255)
	}
}

// resync catches up with the machine when the event stream lagged behind it.
func (view *Window) resync() {
	snapshot := view.controller.Snapshot()
	if snapshot.Phase != view.phase {
		view.applySnapshot(snapshot)
	}
}

func (view *Window) applySnapshot(snapshot timekeeper.Snapshot) {
	view.setPhase(snapshot.Phase)
	view.setClock(timekeeper.FormatClock(snapshot.Remaining))
	view.duration.SetText(timekeeper.FormatClock(snapshot.Total))
	view.ring.SetProgress(snapshot.Progress)
	if snapshot.Form != nil {
		view.showForm(*snapshot.Form)
	}
}

func (view *Window) setPhase(phase timekeeper.Phase) {
	view.phase = phase
	idle := phase == timekeeper.PhaseIdle
	setEnabled(view.startButton, idle)
	setEnabled(view.stopButton, phase.Active())
	if idle {
		view.duration.Enable()
	} else {
		view.duration.Disable()
	}
	if phase != timekeeper.PhaseLoggingResult {
		view.logForm.Hide()
	}
}

func (view *Window) showForm(form handoff.Form) {
	view.stats.SetText(form.Stats())
	view.minutes.SetText(strconv.Itoa(form.Fields.DurationMinutes))
	view.date.SetText(form.Fields.Date)
	view.location.SetText(form.Fields.Location)
	view.notes.SetText(form.Fields.Notes)
	view.feedback.SetText("")
	setEnabled(view.submit, true)
	view.logForm.Show()
}

func (view *Window) setClock(text string) {
	if view.clock.Text == text {
		return
	}
	view.clock.Text = text
	view.clock.Refresh()
}

func (view *Window) setPhrase(text string) {
	view.phrase.Text = text
	view.phrase.Refresh()
}

func (view *Window) fadePhrase(from, to uint8) {
	if view.phraseFade != nil {
		view.phraseFade.Stop()
	}
	view.phraseFade = canvas.NewColorRGBAAnimation(phraseTint(from), phraseTint(to), phrases.FadeDuration, func(c color.Color) {
		view.phrase.Color = c
		view.phrase.Refresh()
	})
	view.phraseFade.Start()
}

func phraseTint(alpha uint8) color.Color {
	c := phraseColor
	c.A = alpha
	return c
}

func (view *Window) handleDuration(text string) {
	if view.phase != timekeeper.PhaseIdle {
		return
	}
	view.controller.SetDurationText(text)
}

func (view *Window) handleStart() {
	startFromEntry(view.controller, view.unlocker, view.duration.Text)
}

// startFromEntry applies the duration entry, where an empty entry means the
// default duration, and starts the session.
func startFromEntry(controller Controller, unlocker Unlocker, text string) bool {
	if unlocker != nil {
		unlocker.Unlock()
	}
	controller.SetDurationText(text)
	return controller.Start()
}

func (view *Window) handleSubmit() {
	fields, err := parseFields(view.minutes.Text, view.date.Text, view.location.Text, view.notes.Text)
	if err != nil {
		view.feedback.SetText(describeSubmitError(err))
		return
	}
	setEnabled(view.submit, false)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := view.controller.Submit(ctx, fields)
		fyne.Do(func() {
			setEnabled(view.submit, true)
			view.feedback.SetText(describeSubmitError(err))
		})
	}()
}

func setEnabled(button *widget.Button, enabled bool) {
	if enabled {
		button.Enable()
		return
	}
	button.Disable()
}
