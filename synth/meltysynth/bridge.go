// SPDX-License-Identifier: EPL-2.0

package meltysynth

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"

	engine "github.com/sinshu/go-meltysynth/meltysynth"
	"github.com/viterin/vek/vek32"

	"github.com/ik5/almidi/midi"
	"github.com/ik5/almidi/sf2"
	"github.com/ik5/almidi/soundfont"
	"github.com/ik5/almidi/synth"
)

// DefaultScale is the output scale used when no volume is configured.
const DefaultScale = 0.2

const (
	minPolyphony = 8
	maxPolyphony = 256

	minRate = 16000
	maxRate = 192000

	cmdControl = 0xB0

	ccBankSelect    = 0
	ccBankSelectLSB = 32
	ccAllNotesOff   = 123

	gm2BankDrums   = 120
	gm2BankMelodic = 121
)

var (
	sysExGMOn   = []byte{0x7E, 0x7F, 0x09, 0x01}
	sysExGM2On  = []byte{0x7E, 0x7F, 0x09, 0x03}
	sysExGM2Off = []byte{0x7E, 0x7F, 0x09, 0x02}
)

// ScaleForVolume converts a volume in dB to an output scale. Volumes above
// 0 dB are clamped.
func ScaleForVolume(db float64) float32 {
	return float32(math.Pow(10, min(db, 0)/20))
}

// Supports reports whether the engine can render at rate Hz.
func Supports(rate int) bool { return rate >= minRate && rate <= maxRate }

// Options configures a Bridge.
type Options struct {
	// Polyphony is the engine voice limit, clamped to 8..256.
	Polyphony int
	// ReverbAndChorus enables the engine's effect units.
	ReverbAndChorus bool
	// Scale multiplies the output. 0 means DefaultScale.
	Scale  float32
	Logger *slog.Logger
}

// Bridge forwards events to a go-meltysynth synthesizer.
type Bridge struct {
	logger *slog.Logger
	opts   Options

	rate  int
	gain  float32
	image []byte
	font  *engine.SoundFont
	syn   *engine.Synthesizer

	gm2   bool
	drums [midi.NumChannels]bool
}

var _ synth.Backend = (*Bridge)(nil)

// New returns a Bridge with no soundfont bound.
func New(opts Options) *Bridge {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	opts.Polyphony = min(max(opts.Polyphony, minPolyphony), maxPolyphony)

	return &Bridge{
		logger: opts.Logger,
		opts:   opts,
		rate:   synth.DefaultSampleRate,
		gain:   1,
	}
}

func (b *Bridge) Name() string { return "meltysynth" }

// GM2 reports whether General MIDI 2 bank handling is on.
func (b *Bridge) GM2() bool { return b.gm2 }

// Image returns the SF2 image handed to the engine, or nil.
func (b *Bridge) Image() []byte { return b.image }

// PrepareSoundfonts encodes fonts into one SF2 image and builds an engine
// around it. The engine replaces the current one on commit, so no voice of
// the previous fonts survives. Fonts without presets leave the engine
// silent.
func (b *Bridge) PrepareSoundfonts(fonts []*soundfont.SoundFont) (func(), error) {
	src := make([]sf2.Font, 0, len(fonts))
	for _, sf := range fonts {
		src = append(src, sf2.Font{Presets: sf.Presets(), Samples: sf.Samples()})
	}

	var buf bytes.Buffer
	err := sf2.NewEncoder(b.logger).Encode(&buf, "almidi", src...)
	if errors.Is(err, sf2.ErrNothingToSave) {
		b.logger.Warn("no presets to bind", slog.Int("soundfonts", len(fonts)))
		return func() { b.install(nil, nil, nil) }, nil
	}
	if err != nil {
		return nil, fmt.Errorf("encode soundfonts: %w", err)
	}

	image := buf.Bytes()
	font, err := engine.NewSoundFont(bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("engine soundfont: %w", err)
	}
	syn, err := b.newEngine(font)
	if err != nil {
		return nil, err
	}
	return func() { b.install(image, font, syn) }, nil
}

// LoadSoundfonts binds fonts immediately. It must not run concurrently with
// Render.
func (b *Bridge) LoadSoundfonts(fonts []*soundfont.SoundFont) error {
	commit, err := b.PrepareSoundfonts(fonts)
	if err != nil {
		return err
	}
	commit()
	return nil
}

func (b *Bridge) install(image []byte, font *engine.SoundFont, syn *engine.Synthesizer) {
	b.image, b.font, b.syn = image, font, syn
	b.drums = [midi.NumChannels]bool{}
}

func (b *Bridge) newEngine(font *engine.SoundFont) (*engine.Synthesizer, error) {
	settings := engine.NewSynthesizerSettings(int32(b.rate))
	settings.MaximumPolyphony = int32(b.opts.Polyphony)
	settings.EnableReverbAndChorus = b.opts.ReverbAndChorus

	syn, err := engine.NewSynthesizer(font, settings)
	if err != nil {
		return nil, fmt.Errorf("engine synthesizer: %w", err)
	}
	return syn, nil
}

func (b *Bridge) rebuild() error {
	b.syn = nil
	b.drums = [midi.NumChannels]bool{}
	if b.font == nil {
		return nil
	}

	syn, err := b.newEngine(b.font)
	if err != nil {
		return err
	}
	b.syn = syn
	return nil
}

// SetSampleRate rebuilds the engine at rate. Sounding notes are cut.
func (b *Bridge) SetSampleRate(rate int) {
	b.rate = rate
	if err := b.rebuild(); err != nil {
		b.logger.Error("sample rate change", slog.Int("rate", rate), slog.Any("error", err))
	}
}

func (b *Bridge) SetGain(gain float32) { b.gain = gain }

func (b *Bridge) send(ch, cmd, d1, d2 int) {
	if b.syn == nil {
		return
	}
	b.syn.ProcessMidiMessage(int32(ch), int32(cmd), int32(d1), int32(d2))
}

func (b *Bridge) controlAll(cc int) {
	for ch := range midi.NumChannels {
		b.send(ch, cmdControl, cc, 0)
	}
}

func (b *Bridge) Dispatch(ev midi.Event) {
	ch, p1, p2 := int(ev.Channel), int(ev.Param1), int(ev.Param2)

	switch ev.Kind {
	case midi.NoteOff, midi.NoteOn, midi.ProgramChange, midi.ChannelPressure:
		b.send(ch, int(ev.Kind), p1, p2)
	case midi.PitchBend:
		b.send(ch, int(ev.Kind), p1&0x7F, p2&0x7F)
	case midi.ControlChange:
		b.control(ch, p1, p2)
	case midi.SysEx:
		b.sysEx(ev.Data)
	}
}

// control maps bank selects for GM2 and passes everything else through.
// The engine treats bank 128 as the drum bank.
func (b *Bridge) control(ch, cc, value int) {
	if !b.gm2 {
		b.send(ch, cmdControl, cc, value)
		return
	}

	switch cc {
	case ccBankSelect:
		switch {
		case value == gm2BankDrums && (ch == 9 || ch == 10):
			b.drums[ch] = true
			b.send(ch, cmdControl, ccBankSelect, b.bankFor(ch, soundfont.PercussionBank))
		case value == gm2BankMelodic:
			b.drums[ch] = false
			b.send(ch, cmdControl, ccBankSelect, b.bankFor(ch, 0))
		}
	case ccBankSelectLSB:
		if !b.drums[ch] {
			b.send(ch, cmdControl, ccBankSelect, b.bankFor(ch, value))
		}
	default:
		b.send(ch, cmdControl, cc, value)
	}
}

// bankFor returns the bank select value that makes the engine use bank on
// ch. The engine offsets its own percussion channel by 128.
func (b *Bridge) bankFor(ch, bank int) int {
	if ch == 9 {
		return max(bank-soundfont.PercussionBank, 0)
	}
	return bank
}

// sysEx handles the GM and GM2 system messages, matched on their first four
// bytes so trailing data is ignored. Other SysEx
// is dropped: the engine has no SysEx entry point.
func (b *Bridge) sysEx(data []byte) {
	if len(data) < len(sysExGMOn) {
		return
	}

	switch {
	case bytes.HasPrefix(data, sysExGM2On):
		b.gm2 = true
		b.logger.Debug("GM2 on")
	case bytes.HasPrefix(data, sysExGM2Off):
		b.gm2 = false
		b.logger.Debug("GM2 off")
	case bytes.HasPrefix(data, sysExGMOn):
		b.Reset()
	}
}

// Render renders the engine, scaled by the gain and the volume scale.
func (b *Bridge) Render(left, right []float32) {
	if b.syn == nil {
		clear(left)
		clear(right)
		return
	}

	b.syn.Render(left, right)
	scale := b.gain * b.opts.Scale
	vek32.MulNumber_Inplace(left, scale)
	vek32.MulNumber_Inplace(right, scale)
}

// Stop sends all notes off on every channel.
func (b *Bridge) Stop() { b.controlAll(ccAllNotesOff) }

// Reset rebuilds the engine from the bound image, as a system reset.
func (b *Bridge) Reset() {
	b.gm2 = false
	if err := b.rebuild(); err != nil {
		b.logger.Error("engine reset", slog.Any("error", err))
	}
}
