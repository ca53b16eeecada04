package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"stillpoint/internal/core/model"
	"stillpoint/internal/ui/preferences"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	DurationSeconds  int      `yaml:"duration_seconds"`
	AnimationStyle   string   `yaml:"animation_style"`
	MusicTrack       string   `yaml:"music_track"`
	MusicEnabled     *bool    `yaml:"music_enabled"`
	VibrationEnabled *bool    `yaml:"vibration_enabled"`
	OverlayOpacity   float64  `yaml:"overlay_opacity"`
	Fullscreen       *bool    `yaml:"fullscreen"`
	Phrases          []string `yaml:"phrases,omitempty"`
}

// File is a settings file plus any custom phrase list stored next to it.
type File struct {
	Settings preferences.Settings
	Phrases  []string
}

// LoadSettings reads user preferences from YAML in the user config directory.
// If the config file does not exist, default settings are returned.
func LoadSettings(appName string) (File, error) {
	configPath, err := ResolveConfigPath(appName)
	if err != nil {
		return File{Settings: preferences.DefaultSettings()}, err
	}
	return LoadSettingsFile(configPath)
}

// LoadSettingsFile reads user preferences from configPath.
func LoadSettingsFile(configPath string) (File, error) {
	file := File{Settings: preferences.DefaultSettings()}

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return file, nil
		}
		return file, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return file, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&file.Settings, fileData)
	file.Phrases = nonEmpty(fileData.Phrases)
	return file, nil
}

// SaveSettings writes user preferences to YAML in the user config directory.
func SaveSettings(appName string, file File) error {
	configPath, err := ResolveConfigPath(appName)
	if err != nil {
		return err
	}
	return SaveSettingsFile(configPath, file)
}

// SaveSettingsFile writes user preferences to configPath.
func SaveSettingsFile(configPath string, file File) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	settings := file.Settings
	fileData := yamlSettings{
		DurationSeconds:  int(settings.Duration / time.Second),
		AnimationStyle:   string(settings.AnimationStyle),
		MusicTrack:       string(settings.MusicTrack),
		MusicEnabled:     &settings.MusicEnabled,
		VibrationEnabled: &settings.VibrationEnabled,
		OverlayOpacity:   settings.OverlayOpacity,
		Fullscreen:       &settings.Fullscreen,
		Phrases:          file.Phrases,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// ResolveConfigPath returns the settings file location for appName.
func ResolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.DurationSeconds > 0 {
		settings.Duration = time.Duration(fileData.DurationSeconds) * time.Second
	}
	if style, err := model.ParseAnimationStyle(fileData.AnimationStyle); err == nil {
		settings.AnimationStyle = style
	}
	if track, err := model.ParseMusicTrack(fileData.MusicTrack); err == nil {
		settings.MusicTrack = track
	}

	if fileData.OverlayOpacity >= 0.5 && fileData.OverlayOpacity <= 1 {
		settings.OverlayOpacity = fileData.OverlayOpacity
	}

	if fileData.MusicEnabled != nil {
		settings.MusicEnabled = *fileData.MusicEnabled
	}
	if fileData.VibrationEnabled != nil {
		settings.VibrationEnabled = *fileData.VibrationEnabled
	}
	if fileData.Fullscreen != nil {
		settings.Fullscreen = *fileData.Fullscreen
	}
}

func nonEmpty(values []string) []string {
	var kept []string
	for _, value := range values {
		if value != "" {
			kept = append(kept, value)
		}
	}
	return kept
}
