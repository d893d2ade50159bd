// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.MIDI.Polyphony != 256 || !cfg.MIDI.ReverbChorus || cfg.MIDI.InternalSynth {
		t.Fatalf("Default().MIDI = %+v, want polyphony 256, reverb on, internal synth off", cfg.MIDI)
	}
	if cfg.MIDI.Volume != nil {
		t.Fatalf("Default().MIDI.Volume = %v, want nil", *cfg.MIDI.Volume)
	}
	if cfg.Device.Frequency != 44100 || cfg.Device.BufferSize != 1024 {
		t.Fatalf("Default().Device = %+v, want 44100 Hz, 1024 frames", cfg.Device)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
midi:
  soundfont: /usr/share/sounds/sf2/default.sf2
  internal-synth: true
  volume: -6
  backend: soft
device:
  frequency: 48000
`))
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if cfg.MIDI.Soundfont != "/usr/share/sounds/sf2/default.sf2" || !cfg.MIDI.InternalSynth {
		t.Fatalf("MIDI = %+v, want the configured soundfont and internal synth", cfg.MIDI)
	}
	if cfg.MIDI.Volume == nil || *cfg.MIDI.Volume != -6 {
		t.Fatalf("MIDI.Volume = %v, want -6", cfg.MIDI.Volume)
	}
	if cfg.MIDI.Polyphony != 256 || cfg.Device.BufferSize != 1024 {
		t.Fatalf("unset keys lost their defaults: %+v", cfg)
	}
	if cfg.Device.Frequency != 48000 {
		t.Fatalf("Device.Frequency = %d, want 48000", cfg.Device.Frequency)
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v, want nil", err)
	}
	if cfg.Device.Frequency != 44100 {
		t.Fatalf("Device.Frequency = %d, want 44100", cfg.Device.Frequency)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown key", "midi:\n  sountfont: x\n", ErrSyntax},
		{"bad type", "device:\n  frequency: fast\n", ErrSyntax},
		{"backend", "midi:\n  backend: fluidsynth\n", ErrBackend},
		{"polyphony", "midi:\n  polyphony: 0\n", ErrRange},
		{"frequency", "device:\n  frequency: -1\n", ErrRange},
		{"buffer", "device:\n  buffer-size: 0\n", ErrRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse([]byte(tt.data)); !errors.Is(err, tt.want) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "almidi.yml")
	if err := os.WriteFile(path, []byte("midi:\n  backend: \"null\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v, want nil", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.MIDI.Backend != "null" {
		t.Fatalf("MIDI.Backend = %q, want null", cfg.MIDI.Backend)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load(missing) error = %v, want ErrNotExist", err)
	}
}

func TestSoundfontPath(t *testing.T) {
	cfg := Default()
	cfg.MIDI.Soundfont = "configured.sf2"

	t.Setenv(SoundfontEnv, "")
	if got := cfg.SoundfontPath(); got != "configured.sf2" {
		t.Fatalf("SoundfontPath() = %q, want configured.sf2", got)
	}

	t.Setenv(SoundfontEnv, "env.sf2")
	if got := cfg.SoundfontPath(); got != "env.sf2" {
		t.Fatalf("SoundfontPath() = %q, want env.sf2", got)
	}
}
