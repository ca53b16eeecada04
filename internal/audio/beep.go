package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"stillpoint/internal/core/model"
)

const (
	// ChimeFileName is the chime asset inside the audio directory.
	ChimeFileName = "chime.wav"

	sampleRate     = beep.SampleRate(44100)
	resampleDepth  = 4
	toneFrequency  = 528.0
	toneLength     = 1500 * time.Millisecond
	toneVolume     = 0.6
	speakerLatency = 100 * time.Millisecond
)

// BeepBackend plays through the system speaker.
type BeepBackend struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger

	loopSource beep.StreamSeekCloser
	loopCtrl   *beep.Ctrl
	loopGain   *effects.Gain
	loopQueued bool

	chimeBuffer      *beep.Buffer
	chimeReused      beep.StreamSeekCloser
	chimeReusedGain  *effects.Gain
	chimeReusedRate  beep.SampleRate
	chimeReusedQueue bool
	chimeCtrls       []*beep.Ctrl
}

// NewBeepBackend opens the speaker and preloads the chime from dir.
// A missing chime leaves only the synthesized tone available.
func NewBeepBackend(dir string, logger *slog.Logger) (*BeepBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := speaker.Init(sampleRate, sampleRate.N(speakerLatency)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}

	backend := &BeepBackend{dir: dir, logger: logger}
	if err := backend.preloadChime(); err != nil {
		logger.Info("chime asset unavailable", "dir", dir, "error", err)
	}
	return backend, nil
}

func (backend *BeepBackend) preloadChime() error {
	streamer, format, err := backend.decodeChime()
	if err != nil {
		return err
	}
	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	_ = streamer.Close()
	backend.chimeBuffer = buffer

	reused, reusedFormat, err := backend.decodeChime()
	if err != nil {
		return err
	}
	backend.chimeReused = reused
	backend.chimeReusedRate = reusedFormat.SampleRate
	return nil
}

func (backend *BeepBackend) decodeChime() (beep.StreamSeekCloser, beep.Format, error) {
	file, err := os.Open(filepath.Join(backend.dir, ChimeFileName))
	if err != nil {
		return nil, beep.Format{}, err
	}
	streamer, format, err := wav.Decode(file)
	if err != nil {
		_ = file.Close()
		return nil, beep.Format{}, fmt.Errorf("decode chime: %w", err)
	}
	return streamer, format, nil
}

func (backend *BeepBackend) decodeTrack(track model.MusicTrack) (beep.StreamSeekCloser, beep.Format, error) {
	name := track.FileName()
	if name == "" {
		return nil, beep.Format{}, ErrUnavailable
	}
	file, err := os.Open(filepath.Join(backend.dir, name))
	if err != nil {
		return nil, beep.Format{}, err
	}
	streamer, format, err := mp3.Decode(file)
	if err != nil {
		_ = file.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return streamer, format, nil
}

func toSpeakerRate(from beep.SampleRate, streamer beep.Streamer) beep.Streamer {
	if from == sampleRate {
		return streamer
	}
	return beep.Resample(resampleDepth, from, sampleRate, streamer)
}

// LoadTrack replaces the loop source with track.
func (backend *BeepBackend) LoadTrack(track model.MusicTrack) error {
	source, format, err := backend.decodeTrack(track)
	if err != nil {
		return err
	}
	looped := beep.Loop(-1, source)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	backend.retireLoopLocked()

	gain := &effects.Gain{Streamer: toSpeakerRate(format.SampleRate, looped), Gain: 0}
	backend.loopSource = source
	backend.loopGain = gain
	backend.loopCtrl = &beep.Ctrl{Streamer: gain, Paused: true}
	backend.loopQueued = false
	return nil
}

func (backend *BeepBackend) retireLoopLocked() {
	if backend.loopCtrl == nil {
		return
	}
	speaker.Lock()
	// A nil streamer drains the ctrl from the mixer.
	backend.loopCtrl.Streamer = nil
	speaker.Unlock()
	_ = backend.loopSource.Close()
	backend.loopCtrl = nil
	backend.loopGain = nil
	backend.loopSource = nil
}

func (backend *BeepBackend) PlayLoop() error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.loopCtrl == nil {
		return ErrUnavailable
	}
	speaker.Lock()
	backend.loopCtrl.Paused = false
	speaker.Unlock()
	if !backend.loopQueued {
		speaker.Play(backend.loopCtrl)
		backend.loopQueued = true
	}
	return nil
}

func (backend *BeepBackend) PauseLoop() {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.loopCtrl == nil {
		return
	}
	speaker.Lock()
	backend.loopCtrl.Paused = true
	speaker.Unlock()
}

func (backend *BeepBackend) RewindLoop() {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.loopSource == nil {
		return
	}
	speaker.Lock()
	err := backend.loopSource.Seek(0)
	speaker.Unlock()
	if err != nil {
		backend.logger.Debug("rewind loop failed", "error", err)
	}
}

// SetLoopVolume maps a linear volume in [0,1] onto the gain effect.
func (backend *BeepBackend) SetLoopVolume(volume float64) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.loopGain == nil {
		return
	}
	speaker.Lock()
	backend.loopGain.Gain = volume - 1
	speaker.Unlock()
}

func (backend *BeepBackend) SupportsChime(mode ChimeMode) bool {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	switch mode {
	case ChimeBuffered:
		return backend.chimeBuffer != nil
	case ChimeFresh:
		_, err := os.Stat(filepath.Join(backend.dir, ChimeFileName))
		return err == nil
	case ChimeReused:
		return backend.chimeReused != nil
	case ChimeTone:
		return true
	default:
		return false
	}
}

func (backend *BeepBackend) PlayChime(mode ChimeMode, volume float64) error {
	switch mode {
	case ChimeBuffered:
		backend.mu.Lock()
		buffer := backend.chimeBuffer
		backend.mu.Unlock()
		if buffer == nil {
			return ErrUnavailable
		}
		backend.playOneShot(toSpeakerRate(buffer.Format().SampleRate, buffer.Streamer(0, buffer.Len())), volume, nil)
		return nil

	case ChimeFresh:
		streamer, format, err := backend.decodeChime()
		if err != nil {
			return err
		}
		backend.playOneShot(toSpeakerRate(format.SampleRate, streamer), volume, func() { _ = streamer.Close() })
		return nil

	case ChimeReused:
		return backend.replayChime(volume)

	case ChimeTone:
		tone, err := generators.SineTone(sampleRate, toneFrequency)
		if err != nil {
			return fmt.Errorf("synthesize tone: %w", err)
		}
		backend.playOneShot(beep.Take(sampleRate.N(toneLength), tone), volume*toneVolume, nil)
		return nil
	}
	return fmt.Errorf("unknown chime mode %d", mode)
}

func (backend *BeepBackend) playOneShot(streamer beep.Streamer, volume float64, done func()) {
	ctrl := &beep.Ctrl{Streamer: &effects.Gain{Streamer: streamer, Gain: volume - 1}}
	backend.mu.Lock()
	backend.chimeCtrls = append(backend.chimeCtrls, ctrl)
	backend.mu.Unlock()

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		if done != nil {
			done()
		}
		go backend.forgetChime(ctrl)
	})))
}

func (backend *BeepBackend) forgetChime(ctrl *beep.Ctrl) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	for index, candidate := range backend.chimeCtrls {
		if candidate == ctrl {
			backend.chimeCtrls = append(backend.chimeCtrls[:index], backend.chimeCtrls[index+1:]...)
			return
		}
	}
}

func (backend *BeepBackend) replayChime(volume float64) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.chimeReused == nil {
		return ErrUnavailable
	}

	speaker.Lock()
	err := backend.chimeReused.Seek(0)
	if backend.chimeReusedGain != nil {
		backend.chimeReusedGain.Gain = volume - 1
	}
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("rewind chime: %w", err)
	}
	if backend.chimeReusedQueue {
		return nil
	}

	backend.chimeReusedGain = &effects.Gain{
		Streamer: toSpeakerRate(backend.chimeReusedRate, backend.chimeReused),
		Gain:     volume - 1,
	}
	backend.chimeReusedQueue = true
	speaker.Play(beep.Seq(backend.chimeReusedGain, beep.Callback(func() {
		go func() {
			backend.mu.Lock()
			backend.chimeReusedQueue = false
			backend.mu.Unlock()
		}()
	})))
	return nil
}

// StopChimes silences chimes already queued on the speaker.
func (backend *BeepBackend) StopChimes() {
	backend.mu.Lock()
	ctrls := backend.chimeCtrls
	backend.chimeCtrls = nil
	reused := backend.chimeReused
	backend.mu.Unlock()

	speaker.Lock()
	for _, ctrl := range ctrls {
		ctrl.Streamer = nil
	}
	if reused != nil {
		_ = reused.Seek(reused.Len())
	}
	speaker.Unlock()
}

// PlayPreview plays track once at volume until stop is called.
func (backend *BeepBackend) PlayPreview(track model.MusicTrack, volume float64) (func(), error) {
	source, format, err := backend.decodeTrack(track)
	if err != nil {
		return nil, err
	}
	ctrl := &beep.Ctrl{Streamer: &effects.Gain{Streamer: toSpeakerRate(format.SampleRate, source), Gain: volume - 1}}
	speaker.Play(ctrl)

	var once sync.Once
	return func() {
		once.Do(func() {
			speaker.Lock()
			ctrl.Streamer = nil
			speaker.Unlock()
			_ = source.Close()
		})
	}, nil
}

// Close retires the loop and closes preloaded streams.
func (backend *BeepBackend) Close() error {
	backend.StopChimes()
	backend.mu.Lock()
	defer backend.mu.Unlock()
	backend.retireLoopLocked()
	var errs []error
	if backend.chimeReused != nil {
		errs = append(errs, backend.chimeReused.Close())
		backend.chimeReused = nil
	}
	speaker.Clear()
	return errors.Join(errs...)
}
