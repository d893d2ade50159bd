// SPDX-License-Identifier: EPL-2.0

package almidi

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/ik5/almidi/audio"
	"github.com/ik5/almidi/config"
	"github.com/ik5/almidi/midi"
	"github.com/ik5/almidi/sf2"
	"github.com/ik5/almidi/soundfont"
	"github.com/ik5/almidi/synth"
	"github.com/ik5/almidi/synth/meltysynth"
)

// Options configures a Device.
type Options struct {
	// Config is the device configuration. nil means config.Default().
	Config *config.Config
	Logger *slog.Logger
	// OpenFile opens soundfont and sample files. nil means os.Open.
	OpenFile func(path string) (io.ReadCloser, error)
}

// Device is the MIDI half of one audio device.
type Device struct {
	logger   *slog.Logger
	cfg      *config.Config
	openFile func(path string) (io.ReadCloser, error)

	loader   *sf2.Loader
	repo     *soundfont.Repository
	synth    *synth.Synth
	decoders *audio.Registry
}

var _ synth.FontResolver = (*Device)(nil)

// Open validates the configuration, selects a backend and returns a Device
// with an Initial synth.
func Open(opts Options) (*Device, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.OpenFile == nil {
		opts.OpenFile = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Open(): %w", err)
	}

	backend, err := newBackend(cfg, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("Open(): %w", err)
	}
	opts.Logger.Info("midi backend selected",
		"backend", backend.Name(),
		"frequency", cfg.Device.Frequency,
	)

	return &Device{
		logger:   opts.Logger,
		cfg:      cfg,
		openFile: opts.OpenFile,
		loader:   sf2.NewLoader(opts.Logger),
		repo:     soundfont.NewRepository(opts.Logger),
		synth: synth.New(backend, synth.Options{
			SampleRate: cfg.Device.Frequency,
			Logger:     opts.Logger,
		}),
		decoders: NewRegistry(),
	}, nil
}

func newBridge(cfg *config.Config, logger *slog.Logger) *meltysynth.Bridge {
	opts := meltysynth.Options{
		Polyphony:       cfg.MIDI.Polyphony,
		ReverbAndChorus: cfg.MIDI.ReverbChorus,
		Logger:          logger,
	}
	if cfg.MIDI.Volume != nil {
		opts.Scale = meltysynth.ScaleForVolume(*cfg.MIDI.Volume)
	}
	return meltysynth.New(opts)
}

func newBackend(cfg *config.Config, logger *slog.Logger) (synth.Backend, error) {
	switch cfg.MIDI.Backend {
	case "meltysynth":
		return newBridge(cfg, logger), nil
	case "soft":
		return synth.NewSoft(cfg.MIDI.Polyphony, logger), nil
	case "null":
		return synth.Null{}, nil
	case "":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.MIDI.Backend)
	}

	if meltysynth.Supports(cfg.Device.Frequency) {
		return newBridge(cfg, logger), nil
	}
	if cfg.MIDI.InternalSynth {
		return synth.NewSoft(cfg.MIDI.Polyphony, logger), nil
	}
	logger.Warn("no midi synthesizer available, rendering silence",
		"frequency", cfg.Device.Frequency,
	)
	return synth.Null{}, nil
}

// Synth returns the device synth.
func (d *Device) Synth() *synth.Synth { return d.synth }

// Repository returns the soundfont repository.
func (d *Device) Repository() *soundfont.Repository { return d.repo }

// BufferSize returns the configured number of frames per render call.
func (d *Device) BufferSize() int { return d.cfg.Device.BufferSize }

// Resolve returns the soundfont named by id, creating and loading the
// default soundfont on first use of id 0. A default that fails to load is
// logged and left empty.
func (d *Device) Resolve(id uint32) (*soundfont.SoundFont, error) {
	if id != 0 {
		sf, err := d.repo.Soundfont(id)
		if err != nil {
			return nil, fmt.Errorf("Resolve(%d): %w", id, err)
		}
		return sf, nil
	}

	sf, err := d.repo.DefaultSoundfont(d.openDefault, d.loader)
	if err != nil {
		d.logger.Warn("failed to load default soundfont", "error", err)
	}
	return sf, nil
}

func (d *Device) openDefault() (io.ReadCloser, error) {
	path := d.cfg.SoundfontPath()
	if path == "" {
		d.logger.Warn("no default soundfont configured",
			"env", config.SoundfontEnv,
		)
		return nil, nil
	}

	d.logger.Info("loading default soundfont", "path", path)
	rc, err := d.openFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	return rc, nil
}

// SelectSoundfonts binds the synth to the soundfonts named by ids. Later
// soundfonts take precedence when they define the same preset.
func (d *Device) SelectSoundfonts(ids ...uint32) error {
	return d.synth.SelectSoundfonts(d, ids)
}

// MidiSoundfont loads the file at path into the default soundfont. If the
// synth is bound to the default soundfont it is rebound to the new one.
func (d *Device) MidiSoundfont(path string) error {
	switch st := d.synth.State(); st {
	case synth.Playing, synth.Paused:
		return fmt.Errorf("MidiSoundfont(%q): %w: %s", path, ErrBusy, st)
	}

	rc, err := d.openFile(path)
	if err != nil {
		return fmt.Errorf("MidiSoundfont(%q): %w", path, err)
	}
	defer rc.Close()

	if err := d.repo.ReloadDefault(rc, d.loader); err != nil {
		return fmt.Errorf("MidiSoundfont(%q): %w", path, err)
	}
	d.logger.Info("default soundfont replaced", "path", path)

	bound := d.synth.Soundfonts()
	if !slices.ContainsFunc(bound, func(sf *soundfont.SoundFont) bool { return sf.ID() == 0 }) {
		return nil
	}

	ids := make([]uint32, len(bound))
	for i, sf := range bound {
		ids[i] = sf.ID()
	}
	return d.SelectSoundfonts(ids...)
}

// QueueSMF reads a Standard MIDI File from r and queues its events starting
// at the current synth time.
func (d *Device) QueueSMF(r io.Reader) error {
	events, err := midi.ReadSMF(r, d.synth.Time())
	if err != nil {
		return fmt.Errorf("QueueSMF(): %w", err)
	}

	for _, ev := range events {
		if err := d.synth.Insert(ev); err != nil {
			return fmt.Errorf("QueueSMF(): %w", err)
		}
	}
	d.logger.Debug("queued midi file", "events", len(events))
	return nil
}

// SetFrequency changes the device sample rate.
func (d *Device) SetFrequency(rate int) error {
	if err := d.synth.SetSampleRate(rate); err != nil {
		return err
	}
	d.cfg.Device.Frequency = rate
	return nil
}

// ImportSamples replaces the sample data of soundfont id with src, resampled
// to the device frequency and mixed to mono. src is closed.
func (d *Device) ImportSamples(id uint32, src audio.Source) error {
	pcm, err := ReadPCM16(src, d.synth.SampleRate())
	if err != nil {
		return fmt.Errorf("ImportSamples(%d): %w", id, err)
	}
	if err := d.repo.SetSamples(id, pcm); err != nil {
		return fmt.Errorf("ImportSamples(%d): %w", id, err)
	}
	return nil
}

// ImportFile decodes the audio file at path, picking the decoder by its
// extension, and imports it with ImportSamples.
func (d *Device) ImportFile(id uint32, path string) error {
	dec, err := d.decoders.ForPath(path)
	if err != nil {
		return fmt.Errorf("ImportFile(%q): %w", path, err)
	}

	rc, err := d.openFile(path)
	if err != nil {
		return fmt.Errorf("ImportFile(%q): %w", path, err)
	}
	defer rc.Close()

	src, err := dec.Decode(rc)
	if err != nil {
		return fmt.Errorf("ImportFile(%q): %w", path, err)
	}
	return d.ImportSamples(id, src)
}

// Render adds len(left) frames of synth output into left and right.
func (d *Device) Render(left, right []float32) {
	d.synth.Process(left, right)
}

// Close stops the synth and releases every soundfont object.
func (d *Device) Close() error {
	d.synth.Close()
	d.repo.ReleaseAll()
	return nil
}
