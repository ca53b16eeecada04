package overlay

import (
	"image/color"
	"sync"
	"time"

	"stillpoint/internal/core/phrases"
	"stillpoint/internal/core/timekeeper"
	"stillpoint/internal/ui/animation"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

const (
	fadeDuration = 600 * time.Millisecond
	// HideDelay is how long the overlay stays mapped after an exit fade starts.
	HideDelay = 3 * time.Second
)

// Config defines overlay visuals.
type Config struct {
	Opacity    uint8
	Fullscreen bool
}

// Window is the full-screen presenter for immersive animation styles.
type Window struct {
	window     fyne.Window
	config     Config
	scene      *canvas.Image
	timerLabel *canvas.Text
	phrase     *canvas.Text
	phraseFade *fyne.Animation
	progress   *widget.ProgressBar
	background *canvas.Rectangle
	exitButton *widget.Button
	fade       *fyne.Animation
	gate       *hideGate
	onExit     func()
}

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates the overlay window. It stays hidden until Enter.
func New(app fyne.App, config Config) *Window {
	window := app.NewWindow("Stillpoint")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	background := canvas.NewRectangle(color.NRGBA{A: config.Opacity})

	scene := canvas.NewImageFromImage(nil)
	scene.FillMode = canvas.ImageFillStretch
	scene.ScaleMode = canvas.ImageScaleFastest

	timerLabel := canvas.NewText("--:--", color.NRGBA{R: 240, G: 236, B: 226, A: 255})
	timerLabel.Alignment = fyne.TextAlignCenter
	timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerLabel.TextSize = 42

	phrase := canvas.NewText("", phraseTint(0))
	phrase.Alignment = fyne.TextAlignCenter
	phrase.TextStyle = fyne.TextStyle{Italic: true}
	phrase.TextSize = 22

	progress := widget.NewProgressBar()
	progress.TextFormatter = func() string { return "" }

	exitButton := widget.NewButton("Exit", nil)

	footer := container.NewVBox(
		container.NewCenter(timerLabel),
		progress,
		container.NewHBox(layout.NewSpacer(), exitButton, layout.NewSpacer()),
	)
	content := container.NewBorder(nil, container.NewPadded(footer), nil, nil, container.NewCenter(phrase))
	window.SetContent(container.NewStack(background, scene, content))

	overlay := &Window{
		window:     window,
		config:     config,
		scene:      scene,
		timerLabel: timerLabel,
		phrase:     phrase,
		progress:   progress,
		background: background,
		exitButton: exitButton,
	}
	overlay.gate = newHideGate(func(delay time.Duration, fn func()) {
		time.AfterFunc(delay, fn)
	})
	exitButton.OnTapped = overlay.handleExit
	window.SetCloseIntercept(overlay.handleExit)
	return overlay
}

// SetOnExit sets the handler for the exit button.
func (overlay *Window) SetOnExit(handler func()) {
	overlay.onExit = handler
}

func (overlay *Window) handleExit() {
	if overlay.onExit != nil {
		overlay.onExit()
	}
}

// Enter shows the overlay and fades it in, cancelling any pending hide.
func (overlay *Window) Enter() {
	overlay.gate.enter()
	fyne.Do(func() {
		overlay.scene.Image = nil
		overlay.scene.Refresh()
		overlay.applyWindowMode()
		overlay.window.Show()
		overlay.window.RequestFocus()
		overlay.fadeUnsafe(0, 1)
	})
}

// Exit reverses the fade and hides the window after HideDelay unless
// Enter is called again first.
func (overlay *Window) Exit() {
	generation, ok := overlay.gate.exit(func(generation uint64) {
		fyne.Do(func() {
			if overlay.gate.current(generation) {
				overlay.hideUnsafe()
			}
		})
	})
	if !ok {
		return
	}
	fyne.Do(func() {
		if overlay.gate.current(generation) {
			overlay.fadeUnsafe(1, 0)
		}
	})
}

// Mirror shows the latest scene frame with the remaining time and ring progress.
func (overlay *Window) Mirror(frame animation.Frame) {
	fyne.Do(func() {
		if frame.Image != nil {
			overlay.scene.Image = frame.Image
			overlay.scene.Refresh()
		}
		text := timekeeper.FormatClock(frame.Remaining)
		if overlay.timerLabel.Text != text {
			overlay.timerLabel.Text = text
			overlay.timerLabel.Refresh()
		}
		overlay.progress.SetValue(frame.Progress)
	})
}

// SetPhrase fades text in over the scene, or fades the current phrase out.
func (overlay *Window) SetPhrase(text string, fading bool) {
	fyne.Do(func() {
		if fading {
			overlay.fadePhraseUnsafe(255, 0)
			return
		}
		overlay.phrase.Text = text
		overlay.fadePhraseUnsafe(0, 255)
	})
}

func (overlay *Window) fadePhraseUnsafe(from, to uint8) {
	if overlay.phraseFade != nil {
		overlay.phraseFade.Stop()
	}
	overlay.phraseFade = canvas.NewColorRGBAAnimation(phraseTint(from), phraseTint(to), phrases.FadeDuration, func(c color.Color) {
		overlay.phrase.Color = c
		overlay.phrase.Refresh()
	})
	overlay.phraseFade.Start()
}

func phraseTint(alpha uint8) color.Color {
	return color.NRGBA{R: 226, G: 220, B: 206, A: alpha}
}

// UpdateConfig updates overlay visuals.
func (overlay *Window) UpdateConfig(config Config) {
	fyne.Do(func() {
		overlay.config = config
		overlay.background.FillColor = color.NRGBA{A: config.Opacity}
		canvas.Refresh(overlay.background)
		if overlay.gate.shown() {
			overlay.applyWindowMode()
		}
	})
}

func (overlay *Window) fadeUnsafe(from, to float32) {
	if overlay.fade != nil {
		overlay.fade.Stop()
	}
	overlay.fade = fyne.NewAnimation(fadeDuration, func(position float32) {
		level := from + (to-from)*position
		overlay.background.FillColor = color.NRGBA{A: uint8(float32(overlay.config.Opacity) * level)}
		canvas.Refresh(overlay.background)
		overlay.scene.Translucency = float64(1 - level)
		overlay.scene.Refresh()
		overlay.applyNativeOpacity(uint8(255 * level))
	})
	overlay.fade.Curve = fyne.AnimationEaseInOut
	overlay.fade.Start()
}

func (overlay *Window) hideUnsafe() {
	if overlay.fade != nil {
		overlay.fade.Stop()
		overlay.fade = nil
	}
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(false)
	}
	overlay.window.Hide()
	overlay.scene.Image = nil
	overlay.scene.Refresh()
	overlay.phrase.Text = ""
	overlay.phrase.Refresh()
}

func (overlay *Window) applyWindowMode() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(true)
		return
	}
	overlay.window.SetFullScreen(false)
	overlay.window.Resize(fyne.NewSize(960, 540))
	overlay.window.CenterOnScreen()
}

// OpacityToAlpha converts a 0..1 opacity setting to a channel value.
func OpacityToAlpha(opacity float64) uint8 {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return uint8(opacity * 255)
}

// hideGate tracks whether the overlay is entered and invalidates pending
// hides when it is re-entered.
type hideGate struct {
	mu         sync.Mutex
	generation uint64
	entered    bool
	afterFunc  func(time.Duration, func())
}

func newHideGate(afterFunc func(time.Duration, func())) *hideGate {
	return &hideGate{afterFunc: afterFunc}
}

func (gate *hideGate) enter() uint64 {
	gate.mu.Lock()
	defer gate.mu.Unlock()
	gate.generation++
	gate.entered = true
	return gate.generation
}

// exit schedules hide after HideDelay. It reports false when not entered.
func (gate *hideGate) exit(hide func(generation uint64)) (uint64, bool) {
	gate.mu.Lock()
	if !gate.entered {
		gate.mu.Unlock()
		return 0, false
	}
	gate.entered = false
	gate.generation++
	generation := gate.generation
	gate.mu.Unlock()

	gate.afterFunc(HideDelay, func() {
		if gate.current(generation) {
			hide(generation)
		}
	})
	return generation, true
}

func (gate *hideGate) current(generation uint64) bool {
	gate.mu.Lock()
	defer gate.mu.Unlock()
	return gate.generation == generation
}

func (gate *hideGate) shown() bool {
	gate.mu.Lock()
	defer gate.mu.Unlock()
	return gate.entered
}
