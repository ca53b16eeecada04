package preferences

import (
	"stillpoint/internal/core/model"
	"stillpoint/internal/core/timekeeper"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Previewer plays a short sample of a music track.
type Previewer interface {
	Preview(track model.MusicTrack)
	StopPreview()
}

// Window handles the customization panel.
type Window struct {
	window     fyne.Window
	settings   Settings
	onSave     func(Settings)
	previewer  Previewer
	duration   *widget.Entry
	style      *widget.Select
	track      *widget.Select
	music      *widget.Check
	vibration  *widget.Check
	opacity    *widget.Slider
	fullscreen *widget.Check
}

// New creates the customization panel.
func New(app fyne.App, settings Settings, previewer Previewer, onSave func(Settings)) *Window {
	window := app.NewWindow("Customize")

	duration := widget.NewEntry()
	duration.SetPlaceHolder("MM:SS")

	style := widget.NewSelect(styleOptions(), nil)
	track := widget.NewSelect(trackOptions(), nil)

	music := widget.NewCheck("Play music", nil)
	vibration := widget.NewCheck("Vibrate on completion", nil)

	opacity := widget.NewSlider(0.5, 1)
	opacity.Step = 0.01

	fullscreen := widget.NewCheck("Fullscreen scenes", nil)

	prefs := &Window{
		window:     window,
		settings:   settings,
		onSave:     onSave,
		previewer:  previewer,
		duration:   duration,
		style:      style,
		track:      track,
		music:      music,
		vibration:  vibration,
		opacity:    opacity,
		fullscreen: fullscreen,
	}
	prefs.UpdateSettings(settings)

	previewButton := widget.NewButton("Preview", prefs.handlePreview)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Session", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, widget.NewLabel("Duration"), nil, duration),
		container.NewBorder(nil, nil, widget.NewLabel("Animation"), nil, style),
		widget.NewLabelWithStyle("Sound", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, widget.NewLabel("Music"), previewButton, track),
		music,
		vibration,
		widget.NewLabelWithStyle("Scenes", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Overlay opacity"),
		opacity,
		fullscreen,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", prefs.hide)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.SetCloseIntercept(prefs.hide)
	window.Resize(fyne.NewSize(420, 460))

	return prefs
}

// Show displays the panel.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.duration.SetText(timekeeper.FormatClock(int(settings.Duration.Seconds())))
	prefs.style.SetSelected(string(settings.AnimationStyle))
	prefs.track.SetSelected(string(settings.MusicTrack))
	prefs.music.SetChecked(settings.MusicEnabled)
	prefs.vibration.SetChecked(settings.VibrationEnabled)
	prefs.opacity.Value = settings.OverlayOpacity
	prefs.opacity.Refresh()
	prefs.fullscreen.SetChecked(settings.Fullscreen)
}

func (prefs *Window) handlePreview() {
	if prefs.previewer == nil {
		return
	}
	if track, err := model.ParseMusicTrack(prefs.track.Selected); err == nil {
		prefs.previewer.Preview(track)
	}
}

func (prefs *Window) hide() {
	if prefs.previewer != nil {
		prefs.previewer.StopPreview()
	}
	prefs.window.Hide()
}

func (prefs *Window) handleSave() {
	settings := collect(prefs.settings, formValues{
		Duration:   prefs.duration.Text,
		Style:      prefs.style.Selected,
		Track:      prefs.track.Selected,
		Music:      prefs.music.Checked,
		Vibration:  prefs.vibration.Checked,
		Opacity:    prefs.opacity.Value,
		Fullscreen: prefs.fullscreen.Checked,
	})

	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.hide()
}

type formValues struct {
	Duration   string
	Style      string
	Track      string
	Music      bool
	Vibration  bool
	Opacity    float64
	Fullscreen bool
}

// collect merges panel values over current, keeping current fields that do not parse.
func collect(current Settings, values formValues) Settings {
	settings := current
	if values.Duration != "" {
		settings.Duration = timekeeper.ParseDuration(values.Duration)
	}
	if style, err := model.ParseAnimationStyle(values.Style); err == nil {
		settings.AnimationStyle = style
	}
	if track, err := model.ParseMusicTrack(values.Track); err == nil {
		settings.MusicTrack = track
	}
	settings.MusicEnabled = values.Music
	settings.VibrationEnabled = values.Vibration
	if values.Opacity >= 0.5 && values.Opacity <= 1 {
		settings.OverlayOpacity = values.Opacity
	}
	settings.Fullscreen = values.Fullscreen
	return settings
}

func styleOptions() []string {
	options := make([]string, 0, len(model.AnimationStyles))
	for _, style := range model.AnimationStyles {
		options = append(options, string(style))
	}
	return options
}

func trackOptions() []string {
	options := make([]string, 0, len(model.MusicTracks))
	for _, track := range model.MusicTracks {
		options = append(options, string(track))
	}
	return options
}
