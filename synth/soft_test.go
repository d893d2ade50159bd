// SPDX-License-Identifier: EPL-2.0

package synth

import (
	"io"
	"math"
	"strings"
	"testing"

	"github.com/ik5/almidi/midi"
	"github.com/ik5/almidi/soundfont"
)

const sineFrames = 1000

func sineSamples() []int16 {
	out := make([]int16, sineFrames)
	for i := range out {
		out[i] = int16(16000 * math.Sin(2*math.Pi*float64(i)/100))
	}
	return out
}

type presetDef struct {
	bank, program int
	class         int
	loop          soundfont.LoopMode
}

// loadFont builds a soundfont holding one single-sound preset per def.
func loadFont(t *testing.T, repo *soundfont.Repository, defs ...presetDef) *soundfont.SoundFont {
	t.Helper()

	loader := soundfont.LoaderFunc(func(r io.Reader) (*soundfont.Bank, error) {
		bank := &soundfont.Bank{Samples: sineSamples()}
		for _, sp := range defs {
			snd := soundfont.NewFontsound()
			snd.End = sineFrames
			snd.LoopStart, snd.LoopEnd = 100, 900
			snd.LoopMode = sp.loop
			snd.ExclusiveClass = sp.class
			bank.Presets = append(bank.Presets, soundfont.NewPreset(sp.program, sp.bank, []*soundfont.Fontsound{snd}))
		}
		return bank, nil
	})

	ids, err := repo.GenSoundfonts(1)
	if err != nil {
		t.Fatalf("GenSoundfonts() error = %v, want nil", err)
	}
	if err := repo.LoadSoundfont(ids[0], strings.NewReader("sf2"), loader); err != nil {
		t.Fatalf("LoadSoundfont() error = %v, want nil", err)
	}
	sf, err := repo.Soundfont(ids[0])
	if err != nil {
		t.Fatalf("Soundfont() error = %v, want nil", err)
	}
	return sf
}

func newTestSoft(t *testing.T, polyphony int, defs ...presetDef) *Soft {
	t.Helper()

	s := NewSoft(polyphony, nil)
	s.SetSampleRate(44100)
	if err := s.LoadSoundfonts([]*soundfont.SoundFont{loadFont(t, soundfont.NewRepository(nil), defs...)}); err != nil {
		t.Fatalf("LoadSoundfonts() error = %v, want nil", err)
	}
	return s
}

func send(t *testing.T, s *Soft, kind midi.Kind, ch, p1, p2 int) {
	t.Helper()

	ev, err := midi.NewEvent(0, kind, ch, p1, p2)
	if err != nil {
		t.Fatalf("NewEvent() error = %v, want nil", err)
	}
	s.Dispatch(ev)
}

func peak(s *Soft, n int) float32 {
	left, right := make([]float32, n), make([]float32, n)
	s.Render(left, right)

	var p float32
	for i := range left {
		p = max(p, float32(math.Abs(float64(left[i]))), float32(math.Abs(float64(right[i]))))
	}
	return p
}

var looped = presetDef{loop: soundfont.LoopContinuous}

func TestSoft_NoteOnOff(t *testing.T) {
	t.Parallel()

	s := newTestSoft(t, 0, looped)
	send(t, s, midi.NoteOn, 0, 60, 127)

	if got := s.Active(); got != 1 {
		t.Fatalf("Active() = %d, want 1", got)
	}
	if p := peak(s, 2048); p < 0.1 {
		t.Fatalf("peak = %v, want audible output", p)
	}

	send(t, s, midi.NoteOff, 0, 60, 0)
	if p := peak(s, 256); p != 0 {
		t.Fatalf("peak after release = %v, want 0", p)
	}
	if got := s.Active(); got != 0 {
		t.Fatalf("Active() = %d, want 0 after release", got)
	}
}

func TestSoft_ZeroSampleRatePlaysAtOutputRate(t *testing.T) {
	t.Parallel()

	s := newTestSoft(t, 0, looped)
	s.fonts[0].Presets()[0].Sounds()[0].SampleRate = 0
	send(t, s, midi.NoteOn, 0, 60, 127)

	if got := s.voices[0].step; got != 1 {
		t.Fatalf("step = %v, want 1", got)
	}
	if p := peak(s, 2048); p < 0.1 {
		t.Fatalf("peak = %v, want audible output", p)
	}
}

func TestSoft_NoteOnZeroVelocityReleases(t *testing.T) {
	t.Parallel()

	s := newTestSoft(t, 0, looped)
	send(t, s, midi.NoteOn, 0, 60, 100)
	send(t, s, midi.NoteOn, 0, 60, 0)
	peak(s, 16)

	if got := s.Active(); got != 0 {
		t.Fatalf("Active() = %d, want 0", got)
	}
}

func TestSoft_OneShotEnds(t *testing.T) {
	t.Parallel()

	s := newTestSoft(t, 0, presetDef{})
	send(t, s, midi.NoteOn, 0, 60, 100)
	peak(s, sineFrames+10)

	if got := s.Active(); got != 0 {
		t.Fatalf("Active() = %d, want 0 once the sample ends", got)
	}
}

func TestSoft_PresetSelection(t *testing.T) {
	t.Parallel()

	repo := soundfont.NewRepository(nil)
	first := loadFont(t, repo, presetDef{program: 0}, presetDef{program: 5})
	second := loadFont(t, repo, presetDef{program: 0}, presetDef{bank: soundfont.PercussionBank})

	s := NewSoft(0, nil)
	if err := s.LoadSoundfonts([]*soundfont.SoundFont{first, second}); err != nil {
		t.Fatalf("LoadSoundfonts() error = %v, want nil", err)
	}

	tests := []struct {
		name  string
		setup func()
		ch    int
		want  *soundfont.Fontsound
	}{
		{"later font wins", func() {}, 0, second.FindPreset(0, 0).Sounds()[0]},
		{"program change", func() { send(t, s, midi.ProgramChange, 1, 5, 0) }, 1, first.FindPreset(0, 5).Sounds()[0]},
		{"drum channel", func() {}, drumChannel, second.FindPreset(soundfont.PercussionBank, 0).Sounds()[0]},
		{"bank fallback", func() { send(t, s, midi.ControlChange, 2, ccBankSelect, 3) }, 2, second.FindPreset(0, 0).Sounds()[0]},
	}
	for _, tt := range tests {
		s.Reset()
		tt.setup()
		send(t, s, midi.NoteOn, tt.ch, 60, 100)

		if s.Active() != 1 || s.voices[0].sound != tt.want {
			t.Fatalf("%s: Active() = %d, want one voice playing the expected sound", tt.name, s.Active())
		}
	}

	s.Reset()
	send(t, s, midi.ProgramChange, 0, 42, 0)
	send(t, s, midi.NoteOn, 0, 60, 100)
	if got := s.Active(); got != 0 {
		t.Fatalf("Active() = %d, want 0 for a missing program", got)
	}
}

func TestSoft_Sustain(t *testing.T) {
	t.Parallel()

	s := newTestSoft(t, 0, looped)
	send(t, s, midi.ControlChange, 0, ccSustain, 127)
	send(t, s, midi.NoteOn, 0, 60, 100)
	send(t, s, midi.NoteOff, 0, 60, 0)
	peak(s, 64)

	if got := s.Active(); got != 1 {
		t.Fatalf("Active() = %d, want 1 while sustained", got)
	}

	send(t, s, midi.ControlChange, 0, ccSustain, 0)
	peak(s, 64)
	if got := s.Active(); got != 0 {
		t.Fatalf("Active() = %d, want 0 after pedal up", got)
	}
}

func TestSoft_ExclusiveClass(t *testing.T) {
	t.Parallel()

	s := newTestSoft(t, 0, presetDef{class: 1, loop: soundfont.LoopContinuous})
	send(t, s, midi.NoteOn, 0, 60, 100)
	send(t, s, midi.NoteOn, 0, 64, 100)

	if got := s.Active(); got != 1 {
		t.Fatalf("Active() = %d, want 1", got)
	}
}

func TestSoft_VoiceStealing(t *testing.T) {
	t.Parallel()

	s := newTestSoft(t, 2, looped)
	for _, key := range []int{60, 62, 64} {
		send(t, s, midi.NoteOn, 0, key, 100)
	}

	if got := s.Active(); got != 2 {
		t.Fatalf("Active() = %d, want 2", got)
	}
	for _, v := range s.voices {
		if v.key == 60 {
			t.Fatalf("voice for key 60 survived, want the oldest voice stolen")
		}
	}
}

func TestSoft_Pitch(t *testing.T) {
	t.Parallel()

	s := newTestSoft(t, 0, looped)
	send(t, s, midi.NoteOn, 0, 72, 100)

	if got := s.voices[0].step; math.Abs(got-2) > 1e-9 {
		t.Fatalf("step = %v, want 2 an octave above the base key", got)
	}

	send(t, s, midi.PitchBend, 0, 0x7F, 0x7F)
	if got := s.channels[0].bendRatio(); math.Abs(got-math.Pow(2, 2.0/12)) > 1e-3 {
		t.Fatalf("bendRatio() = %v, want about two semitones up", got)
	}

	s.SetSampleRate(22050)
	if got := s.voices[0].step; math.Abs(got-4) > 1e-9 {
		t.Fatalf("step = %v, want 4 at half the output rate", got)
	}
}

func TestSoft_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		apply func(s *Soft)
	}{
		{"volume", func(s *Soft) { send(t, s, midi.ControlChange, 0, ccVolume, 0) }},
		{"expression", func(s *Soft) { send(t, s, midi.ControlChange, 0, ccExpression, 0) }},
		{"gain", func(s *Soft) { s.SetGain(0) }},
	}
	for _, tt := range tests {
		s := newTestSoft(t, 0, looped)
		send(t, s, midi.NoteOn, 0, 60, 127)
		tt.apply(s)

		if p := peak(s, 1024); p != 0 {
			t.Fatalf("%s: peak = %v, want 0", tt.name, p)
		}
	}
}

func TestSoft_Pan(t *testing.T) {
	t.Parallel()

	s := newTestSoft(t, 0, looped)
	send(t, s, midi.ControlChange, 0, ccPan, 0)
	send(t, s, midi.NoteOn, 0, 60, 127)

	left, right := make([]float32, 512), make([]float32, 512)
	s.Render(left, right)

	for i := range right {
		if math.Abs(float64(right[i])) > 1e-6 {
			t.Fatalf("right[%d] = %v, want silence panned hard left", i, right[i])
		}
	}
}

func TestSoft_StopAndControllers(t *testing.T) {
	t.Parallel()

	s := newTestSoft(t, 0, looped)
	send(t, s, midi.NoteOn, 0, 60, 100)
	send(t, s, midi.NoteOn, 3, 60, 100)

	send(t, s, midi.ControlChange, 0, ccAllSoundOff, 0)
	if got := s.Active(); got != 1 {
		t.Fatalf("Active() = %d, want 1 after all sound off on one channel", got)
	}

	s.Stop()
	peak(s, 16)
	if got := s.Active(); got != 0 {
		t.Fatalf("Active() = %d, want 0 after Stop()", got)
	}

	send(t, s, midi.NoteOn, 0, 60, 100)
	if err := s.LoadSoundfonts(nil); err != nil {
		t.Fatalf("LoadSoundfonts() error = %v, want nil", err)
	}
	if got := s.Active(); got != 0 {
		t.Fatalf("Active() = %d, want 0 after rebinding", got)
	}
}

func TestSoft_SystemOnResets(t *testing.T) {
	t.Parallel()

	s := newTestSoft(t, 0, looped)
	send(t, s, midi.ControlChange, 4, ccVolume, 10)
	send(t, s, midi.NoteOn, 4, 60, 100)

	ev, err := midi.NewSysExEvent(0, gmSystemOn)
	if err != nil {
		t.Fatalf("NewSysExEvent() error = %v, want nil", err)
	}
	s.Dispatch(ev)

	if s.Active() != 0 || s.channels[4].volume != defaultVolume {
		t.Fatalf("Active(), volume = %d, %d, want 0, %d", s.Active(), s.channels[4].volume, defaultVolume)
	}
}

func TestEnvelope_Stages(t *testing.T) {
	t.Parallel()

	snd := soundfont.NewFontsound()
	snd.Params[soundfont.ParamVolEnvAttack] = 0
	snd.Params[soundfont.ParamVolEnvDecay] = 0
	snd.Params[soundfont.ParamVolEnvSustain] = 60
	snd.Params[soundfont.ParamVolEnvRelease] = 0

	e := newEnvelope(snd, 60, 100)
	if e.stage != envAttack {
		t.Fatalf("stage = %d, want attack with no delay", e.stage)
	}

	steps := func(n int) {
		for range n {
			e.next()
		}
	}

	steps(50)
	if math.Abs(float64(e.level)-0.5) > 1e-6 {
		t.Fatalf("level = %v, want 0.5 halfway through the attack", e.level)
	}

	steps(50)
	if e.stage != envDecay || e.level != 1 {
		t.Fatalf("stage, level = %d, %v, want decay at 1", e.stage, e.level)
	}

	steps(100)
	want := float32(math.Pow(10, -60.0/200))
	if e.stage != envSustain || math.Abs(float64(e.level-want)) > 1e-6 {
		t.Fatalf("stage, level = %d, %v, want sustain at %v", e.stage, e.level, want)
	}

	e.noteOff()
	steps(100)
	if e.stage != envDone || e.level != 0 {
		t.Fatalf("stage, level = %d, %v, want done at 0", e.stage, e.level)
	}
}
