package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"stillpoint/internal/audio"
	"stillpoint/internal/core/handoff"
	"stillpoint/internal/core/model"
	"stillpoint/internal/core/timekeeper"
	"stillpoint/internal/feed"
	"stillpoint/internal/platform"
	"stillpoint/internal/storage"
	"stillpoint/internal/ui/animation"
	"stillpoint/internal/ui/overlay"
	"stillpoint/internal/ui/preferences"
	"stillpoint/internal/ui/timerview"
	"stillpoint/internal/ui/tray"
	"stillpoint/resources"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
)

func runApp(ctx context.Context, opts *rootOptions, logger *slog.Logger) error {
	guard, err := platform.AcquireInstanceLock(appName)
	if err != nil {
		return err
	}
	defer func() {
		_ = guard.Release()
	}()

	interrupted := ctx.Done()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	settingsFile, err := loadSettings(opts.configPath)
	if err != nil {
		logger.Warn("settings not loaded, using defaults", "error", err)
	}
	settings := settingsFile.Settings
	timerConfig := settings.TimerConfig()
	if opts.daily {
		timerConfig.TotalDuration = model.DefaultDuration
	}

	store, err := openStore(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	backend := openAudio(opts.audioDir, logger)
	channel := audio.NewChannel(backend, logger)

	fyneApp := app.NewWithID(appID)
	idleIcon := resources.MustLogo(resources.IdleLogo)
	activeIcon := resources.MustLogo(resources.ActiveLogo)
	fyneApp.SetIcon(idleIcon)

	overlayWindow := overlay.New(fyneApp, overlay.Config{
		Opacity:    overlay.OpacityToAlpha(settings.OverlayOpacity),
		Fullscreen: settings.Fullscreen,
	})
	ring := timerview.NewRing()
	director := animation.NewDirector(animation.NewFyneScheduler(), ring, overlayWindow, logger)

	keeper := timekeeper.New(timerConfig, timekeeper.Options{
		Phrases: settingsFile.Phrases,
		FadeIn:  audio.DefaultFadeIn,
		FadeOut: audio.DefaultFadeOut,
	}, timekeeper.Dependencies{
		Audio:    channel,
		Animator: director,
		WakeLock: platform.NewWakeLockGuard(platform.NewInhibitor(appName), logger),
		Vibrator: platform.NewBuzzer(platform.NewVibrator(), timerConfig.VibrationEnabled, logger),
		Recorder: handoff.NewRecorder(store),
		Logger:   logger,
	})
	overlayWindow.SetOnExit(func() { keeper.Stop() })

	prefsWindow := preferences.New(fyneApp, settings, channel, func(updated preferences.Settings) {
		keeper.Reconfigure(updated.Patch(settings))
		settings = updated
		overlayWindow.UpdateConfig(overlay.Config{
			Opacity:    overlay.OpacityToAlpha(settings.OverlayOpacity),
			Fullscreen: settings.Fullscreen,
		})
		settingsFile.Settings = settings
		if err := saveSettings(opts.configPath, settingsFile); err != nil {
			logger.Warn("settings not saved", "error", err)
		}
	})

	view := timerview.New(fyneApp, keeper, channel, ring, prefsWindow.Show)
	go view.Watch(ctx, keeper.Subscribe(64))

	if desktopApp, ok := fyneApp.(desktop.App); ok {
		trayManager := tray.New(desktopApp, tray.Callbacks{
			OnShow: view.Show,
			OnStart: func() {
				channel.Unlock()
				keeper.Start()
			},
			OnStop:      func() { keeper.Stop() },
			OnCustomize: prefsWindow.Show,
			OnQuit:      fyneApp.Quit,
		})
		desktopApp.SetSystemTrayIcon(idleIcon)
		view.SetCloseIntercept(view.Hide)
		go watchTray(ctx, keeper.Subscribe(64), trayManager, desktopApp, idleIcon, activeIcon)
	}

	if opts.feedAddr != "" {
		server := feed.NewServer(logger, keeper)
		events := keeper.Subscribe(256)
		go func() {
			if err := server.ListenAndServe(ctx, opts.feedAddr, events); err != nil {
				logger.Error("feed stopped", "error", err)
			}
		}()
	}

	go func() {
		if err := keeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("timer loop stopped", "error", err)
		}
	}()
	finished := make(chan struct{})
	go func() {
		select {
		case <-interrupted:
			fyne.Do(fyneApp.Quit)
		case <-finished:
		}
	}()

	view.Show()
	fyneApp.Run()
	close(finished)

	cancel()
	keeper.Close()
	channel.HardStop()
	if closer, ok := backend.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	return nil
}

func watchTray(ctx context.Context, events <-chan timekeeper.Event, manager *tray.Manager, desktopApp desktop.App, idleIcon, activeIcon fyne.Resource) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fyne.Do(func() {
				switch event.Type {
				case timekeeper.EventPhaseChange:
					manager.SetActive(event.Phase.Active())
					if event.Phase.Active() {
						desktopApp.SetSystemTrayIcon(activeIcon)
					} else {
						desktopApp.SetSystemTrayIcon(idleIcon)
					}
					manager.SetStatus(string(event.Phase))
				case timekeeper.EventTick:
					manager.SetStatus(timekeeper.FormatClock(event.Remaining) + " left")
				}
			})
		}
	}
}

func loadSettings(configPath string) (storage.File, error) {
	if configPath != "" {
		return storage.LoadSettingsFile(configPath)
	}
	return storage.LoadSettings(appName)
}

func saveSettings(configPath string, file storage.File) error {
	if configPath != "" {
		return storage.SaveSettingsFile(configPath, file)
	}
	return storage.SaveSettings(appName, file)
}

// openAudio falls back to a silent backend so the timer still runs without sound.
func openAudio(dir string, logger *slog.Logger) audio.Backend {
	if dir == "" {
		dir = defaultAudioDir()
	}
	backend, err := audio.NewBeepBackend(dir, logger)
	if err != nil {
		logger.Warn("audio unavailable, running silent", "dir", dir, "error", err)
		return audio.SilentBackend{}
	}
	return backend
}

func defaultAudioDir() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, appName, "audio")
	}
	return "audio"
}
