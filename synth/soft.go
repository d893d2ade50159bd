// SPDX-License-Identifier: EPL-2.0

package synth

import (
	"bytes"
	"log/slog"
	"math"

	"github.com/viterin/vek/vek32"

	"github.com/ik5/almidi/midi"
	"github.com/ik5/almidi/soundfont"
)

// DefaultPolyphony is the voice count of a Soft backend created with a
// non-positive polyphony.
const DefaultPolyphony = 256

const (
	ccBankSelect      = 0
	ccVolume          = 7
	ccPan             = 10
	ccExpression      = 11
	ccSustain         = 64
	ccAllSoundOff     = 120
	ccResetAll        = 121
	ccAllNotesOff     = 123
	drumChannel       = 9
	defaultBendRange  = 2
	pitchBendCenter   = 8192
	defaultVolume     = 100
	defaultExpression = 127
	defaultPan        = 64
)

var gmSystemOn = []byte{0x7E, 0x7F, 0x09, 0x01}

type channelState struct {
	program    int
	bank       int
	volume     int
	expression int
	pan        int
	sustain    bool
	bend       int
	bendRange  int
}

func (c *channelState) reset(ch int) {
	*c = channelState{
		volume:     defaultVolume,
		expression: defaultExpression,
		pan:        defaultPan,
		bendRange:  defaultBendRange,
	}
	if ch == drumChannel {
		c.bank = soundfont.PercussionBank
	}
}

func (c *channelState) resetControllers() {
	c.expression = defaultExpression
	c.sustain = false
	c.bend = 0
}

func (c *channelState) level() float32 {
	v := float32(c.volume) / 127
	e := float32(c.expression) / 127
	return v * v * e * e
}

func (c *channelState) panPosition() float32 {
	return float32(c.pan) / 127
}

func (c *channelState) bendRatio() float64 {
	if c.bend == 0 {
		return 1
	}
	cents := float64(c.bend) / pitchBendCenter * float64(c.bendRange) * 100
	return math.Pow(2, cents/1200)
}

// Soft renders the bound soundfonts' sample data directly: cubic
// interpolated voices with a DAHDSR volume envelope, velocity, attenuation
// and pan.
type Soft struct {
	logger *slog.Logger

	rate  int
	gain  float32
	fonts []*soundfont.SoundFont

	channels [midi.NumChannels]channelState
	voices   []voice
	age      uint64

	matches  []*soundfont.Fontsound
	mono     []float32
	scratchL []float32
	scratchR []float32
}

var _ Backend = (*Soft)(nil)

// NewSoft returns a Soft backend with the given voice count.
func NewSoft(polyphony int, logger *slog.Logger) *Soft {
	if polyphony <= 0 {
		polyphony = DefaultPolyphony
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Soft{
		logger: logger,
		rate:   DefaultSampleRate,
		gain:   1,
		voices: make([]voice, polyphony),
	}
	s.Reset()
	return s
}

func (s *Soft) Name() string { return "soft" }

// Active returns the number of sounding voices.
func (s *Soft) Active() int {
	n := 0
	for i := range s.voices {
		if s.voices[i].active {
			n++
		}
	}
	return n
}

func (s *Soft) PrepareSoundfonts(fonts []*soundfont.SoundFont) (func(), error) {
	return func() {
		s.killAll()
		s.fonts = fonts
	}, nil
}

// LoadSoundfonts binds fonts immediately. It must not run concurrently with
// Render.
func (s *Soft) LoadSoundfonts(fonts []*soundfont.SoundFont) error {
	commit, err := s.PrepareSoundfonts(fonts)
	if err != nil {
		return err
	}
	commit()
	return nil
}

func (s *Soft) SetSampleRate(rate int) {
	for i := range s.voices {
		v := &s.voices[i]
		if v.active {
			v.step *= float64(s.rate) / float64(rate)
		}
	}
	s.rate = rate
}

func (s *Soft) SetGain(gain float32) { s.gain = gain }

// Stop releases every note.
func (s *Soft) Stop() {
	for ch := range s.channels {
		s.channels[ch].sustain = false
		s.releaseNotes(ch, -1)
	}
}

// Reset kills every voice and restores channel defaults.
func (s *Soft) Reset() {
	s.killAll()
	for ch := range s.channels {
		s.channels[ch].reset(ch)
	}
}

func (s *Soft) killAll() {
	for i := range s.voices {
		s.voices[i] = voice{}
	}
}

// Dispatch applies ev to the channel state and voices. Soft has no
// modulator engine, so channel and key pressure are ignored.
func (s *Soft) Dispatch(ev midi.Event) {
	ch := int(ev.Channel)
	c := &s.channels[ch]

	switch ev.Kind {
	case midi.NoteOn:
		if ev.Param2 == 0 {
			s.noteOff(ch, int(ev.Param1))
			return
		}
		s.noteOn(ch, int(ev.Param1), int(ev.Param2))
	case midi.NoteOff:
		s.noteOff(ch, int(ev.Param1))
	case midi.ProgramChange:
		c.program = int(ev.Param1)
	case midi.PitchBend:
		c.bend = int(ev.PitchBendValue()) - pitchBendCenter
	case midi.ControlChange:
		s.control(ch, int(ev.Param1), int(ev.Param2))
	case midi.SysEx:
		if bytes.Equal(ev.Data, gmSystemOn) {
			s.Reset()
		}
	}
}

func (s *Soft) control(ch, cc, value int) {
	c := &s.channels[ch]

	switch cc {
	case ccBankSelect:
		if ch != drumChannel {
			c.bank = value
		}
	case ccVolume:
		c.volume = value
	case ccPan:
		c.pan = value
	case ccExpression:
		c.expression = value
	case ccSustain:
		c.sustain = value >= 64
		if !c.sustain {
			s.releaseSustained(ch)
		}
	case ccAllSoundOff:
		for i := range s.voices {
			if s.voices[i].channel == ch {
				s.voices[i] = voice{}
			}
		}
	case ccResetAll:
		c.resetControllers()
		s.releaseSustained(ch)
	case ccAllNotesOff:
		s.releaseNotes(ch, -1)
	}
}

// findPreset searches the bound fonts, latest first, falling back to bank 0
// when no font has the requested bank.
func (s *Soft) findPreset(bank, program int) (*soundfont.Preset, *soundfont.SoundFont) {
	for _, b := range []int{bank, 0} {
		for i := len(s.fonts) - 1; i >= 0; i-- {
			if p := s.fonts[i].FindPreset(b, program); p != nil {
				return p, s.fonts[i]
			}
		}
		if bank == 0 {
			break
		}
	}
	return nil, nil
}

func (s *Soft) noteOn(ch, key, velocity int) {
	c := &s.channels[ch]

	preset, font := s.findPreset(c.bank, c.program)
	if preset == nil {
		s.logger.Debug("no preset for note",
			slog.Int("channel", ch), slog.Int("bank", c.bank), slog.Int("program", c.program))
		return
	}

	data := font.Samples()
	s.matches = preset.Lookup(s.matches[:0], key, velocity)
	for _, snd := range s.matches {
		if snd.Start < 0 || snd.End <= snd.Start || snd.End > len(data) {
			continue
		}
		if snd.ExclusiveClass != 0 {
			s.cutClass(ch, snd.ExclusiveClass)
		}
		s.start(ch, key, velocity, snd, data)
	}
}

func (s *Soft) cutClass(ch, class int) {
	for i := range s.voices {
		v := &s.voices[i]
		if v.active && v.channel == ch && v.class == class {
			*v = voice{}
		}
	}
}

// allocate returns a free voice, stealing the oldest one when all are busy.
func (s *Soft) allocate() *voice {
	var oldest *voice
	for i := range s.voices {
		v := &s.voices[i]
		if !v.active {
			return v
		}
		if oldest == nil || v.age < oldest.age {
			oldest = v
		}
	}
	return oldest
}

func (s *Soft) start(ch, key, velocity int, snd *soundfont.Fontsound, data []int16) {
	cents := float64((key-snd.BaseKey)*snd.Param(soundfont.ParamScaleTuning)) +
		float64(snd.Param(soundfont.ParamCoarseTune)*100) +
		float64(snd.Param(soundfont.ParamFineTune)) +
		float64(snd.KeyCorrection)

	vel := float32(velocity) / 127

	// Sounds built without a rate play at the output rate.
	rate := snd.SampleRate
	if rate <= 0 {
		rate = s.rate
	}

	loop := snd.LoopMode
	if snd.LoopStart < snd.Start || snd.LoopEnd > snd.End || snd.LoopEnd <= snd.LoopStart {
		loop = soundfont.LoopNone
	}

	s.age++
	v := s.allocate()
	*v = voice{
		active:  true,
		age:     s.age,
		channel: ch,
		key:     key,
		class:   snd.ExclusiveClass,
		sound:   snd,
		data:    data,
		pos:     float64(snd.Start),
		step:    float64(rate) / float64(s.rate) * math.Pow(2, cents/1200),
		loop:    loop,
		amp:     centibelsGain(snd.Param(soundfont.ParamAttenuation)) * vel * vel,
		pan:     float32(snd.Param(soundfont.ParamPan))/1000 + 0.5,
		side:    snd.SampleType,
		env:     newEnvelope(snd, key, s.rate),
	}
}

func (s *Soft) noteOff(ch, key int) {
	if s.channels[ch].sustain {
		for i := range s.voices {
			v := &s.voices[i]
			if v.active && !v.released && v.channel == ch && v.key == key {
				v.sustained = true
			}
		}
		return
	}
	s.releaseNotes(ch, key)
}

// releaseNotes releases the voices of ch playing key, or all of them when
// key is negative.
func (s *Soft) releaseNotes(ch, key int) {
	for i := range s.voices {
		v := &s.voices[i]
		if v.active && v.channel == ch && (key < 0 || v.key == key) {
			v.released, v.sustained = true, false
			v.env.noteOff()
		}
	}
}

func (s *Soft) releaseSustained(ch int) {
	for i := range s.voices {
		v := &s.voices[i]
		if v.active && v.sustained && v.channel == ch {
			v.released, v.sustained = true, false
			v.env.noteOff()
		}
	}
}

func (s *Soft) grow(n int) {
	if cap(s.mono) < n {
		s.mono = make([]float32, n)
		s.scratchL = make([]float32, n)
		s.scratchR = make([]float32, n)
	}
}

func (s *Soft) Render(left, right []float32) {
	n := min(len(left), len(right))
	clear(left)
	clear(right)
	s.grow(n)

	mono := s.mono[:n]
	tl, tr := s.scratchL[:n], s.scratchR[:n]
	for i := range s.voices {
		v := &s.voices[i]
		if !v.active {
			continue
		}

		c := &s.channels[v.channel]
		if !v.render(mono, c.bendRatio()) {
			v.active = false
		}

		gl, gr := v.gains(c.level(), c.panPosition())
		vek32.Add_Inplace(left[:n], vek32.MulNumber_Into(tl, mono, gl))
		vek32.Add_Inplace(right[:n], vek32.MulNumber_Into(tr, mono, gr))
	}

	if s.gain != 1 {
		vek32.MulNumber_Inplace(left[:n], s.gain)
		vek32.MulNumber_Inplace(right[:n], s.gain)
	}
}
