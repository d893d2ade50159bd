// SPDX-License-Identifier: EPL-2.0

package sf2

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/ik5/almidi/soundfont"
)

// Font is a preset list over one block of sample data.
type Font struct {
	Presets []*soundfont.Preset
	Samples []int16
}

// samplePad is the number of zero samples written after each font's sample
// data.
const samplePad = 46

// Encoder writes SF2 files from repository objects.
type Encoder struct {
	logger *slog.Logger
}

func NewEncoder(logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{logger: logger}
}

// Encode writes fonts with a default Encoder.
func Encode(w io.Writer, name string, fonts ...Font) error {
	return NewEncoder(nil).Encode(w, name, fonts...)
}

// Encode writes fonts as a single SF2 file named name. Sample data of the
// fonts is concatenated. When two fonts define the same bank and program
// the later one wins.
//
// Every Fontsound becomes one instrument zone with its own sample header,
// and every preset gets one instrument. Fontsounds whose sample range lies
// outside their font's sample data are logged and skipped. ErrTooLarge is
// returned when a table outgrows the 16-bit SF2 indices.
func (enc *Encoder) Encode(w io.Writer, name string, fonts ...Font) error {
	e := &encoder{logger: enc.logger}
	if err := e.build(fonts); err != nil {
		return err
	}
	if len(e.phdr) == 0 {
		return ErrNothingToSave
	}
	e.terminate()

	bw := bufio.NewWriter(w)
	if err := e.writeTo(bw, name); err != nil {
		return err
	}
	return bw.Flush()
}

type encoder struct {
	logger  *slog.Logger
	samples []int16

	phdr []presetHeader
	pbag []bag
	pmod []modulator
	pgen []generator
	inst []instHeader
	ibag []bag
	imod []modulator
	igen []generator
	shdr []sampleHeader
}

func (e *encoder) build(fonts []Font) error {
	type slot struct{ bank, program int }
	winner := map[slot]int{}
	for fi, f := range fonts {
		for _, p := range f.Presets {
			winner[slot{p.Bank, p.Program}] = fi
		}
	}

	seen := map[slot]bool{}
	for fi, f := range fonts {
		base := len(e.samples)
		e.samples = append(e.samples, f.Samples...)
		e.samples = append(e.samples, make([]int16, samplePad)...)

		for _, p := range f.Presets {
			key := slot{p.Bank, p.Program}
			if winner[key] != fi || seen[key] {
				continue
			}
			seen[key] = true

			e.addPreset(p, base, len(f.Samples))
			if err := e.checkLimits(); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkLimits fails once any table holds more records than a 16-bit index
// can address, terminal record included.
func (e *encoder) checkLimits() error {
	tables := []struct {
		name string
		n    int
	}{
		{"phdr", len(e.phdr)}, {"pbag", len(e.pbag)}, {"pgen", len(e.pgen)}, {"pmod", len(e.pmod)},
		{"inst", len(e.inst)}, {"ibag", len(e.ibag)}, {"igen", len(e.igen)}, {"imod", len(e.imod)},
		{"shdr", len(e.shdr)},
	}
	for _, t := range tables {
		if t.n > math.MaxUint16 {
			return fmt.Errorf("%w: %s has %d records", ErrTooLarge, t.name, t.n)
		}
	}
	return nil
}

func (e *encoder) addPreset(p *soundfont.Preset, base, n int) {
	name := fmt.Sprintf("preset %d:%d", p.Bank, p.Program)

	sounds := make([]*soundfont.Fontsound, 0, len(p.Sounds()))
	for _, s := range p.Sounds() {
		if s.Start < 0 || s.End > n || s.Start > s.End {
			e.logger.Warn("skipping zone outside sample data",
				slog.String("preset", name),
				slog.Int("start", s.Start),
				slog.Int("end", s.End),
				slog.Int("samples", n),
			)
			continue
		}
		sounds = append(sounds, s)
	}
	if len(sounds) == 0 {
		return
	}

	instID := len(e.inst)
	e.inst = append(e.inst, instHeader{Name: name, ZoneIdx: uint16(len(e.ibag))})
	for _, s := range sounds {
		e.addZone(s, base)
	}

	e.phdr = append(e.phdr, presetHeader{
		Name:    name,
		Preset:  uint16(p.Program),
		Bank:    uint16(p.Bank),
		ZoneIdx: uint16(len(e.pbag)),
	})
	e.pbag = append(e.pbag, bag{GenIdx: uint16(len(e.pgen)), ModIdx: uint16(len(e.pmod))})
	e.pgen = append(e.pgen, generator{ID: soundfont.GenInstrument, Amount: uint16(instID)})
}

func rangeAmount(lo, hi int) uint16 { return uint16(lo&0xff) | uint16(hi&0xff)<<8 }

func (e *encoder) addZone(s *soundfont.Fontsound, base int) {
	e.ibag = append(e.ibag, bag{GenIdx: uint16(len(e.igen)), ModIdx: uint16(len(e.imod))})

	gen := func(id int, v int) {
		e.igen = append(e.igen, generator{ID: uint16(id), Amount: uint16(int16(v))})
	}
	e.igen = append(e.igen,
		generator{ID: soundfont.GenKeyRange, Amount: rangeAmount(s.MinKey, s.MaxKey)},
		generator{ID: soundfont.GenVelocityRange, Amount: rangeAmount(s.MinVelocity, s.MaxVelocity)},
	)
	for p := range soundfont.NumParams {
		if v := s.Params[p]; v != p.Default() {
			gen(p.Generator(), v)
		}
	}
	switch s.LoopMode {
	case soundfont.LoopContinuous:
		gen(soundfont.GenSampleModes, 1)
	case soundfont.LoopUntilRelease:
		gen(soundfont.GenSampleModes, 3)
	}
	if s.ExclusiveClass != 0 {
		gen(soundfont.GenExclusiveClass, s.ExclusiveClass)
	}
	gen(soundfont.GenSampleID, len(e.shdr))

	for _, m := range s.Modulators {
		e.imod = append(e.imod, encodeModulator(m))
	}

	sampleType := uint16(1)
	switch s.SampleType {
	case soundfont.SampleRight:
		sampleType = 2
	case soundfont.SampleLeft:
		sampleType = 4
	}
	loopStart := min(max(s.LoopStart, s.Start), s.End)
	loopEnd := min(max(s.LoopEnd, loopStart), s.End)
	e.shdr = append(e.shdr, sampleHeader{
		Name:        fmt.Sprintf("sample %d", len(e.shdr)),
		Start:       uint32(base + s.Start),
		End:         uint32(base + s.End),
		LoopStart:   uint32(base + loopStart),
		LoopEnd:     uint32(base + loopEnd),
		SampleRate:  uint32(s.SampleRate),
		OriginalKey: uint8(min(max(s.BaseKey, 0), 127)),
		Correction:  int8(s.KeyCorrection),
		SampleType:  sampleType,
	})
}

var inputCodes = map[soundfont.Input]uint16{
	soundfont.InputOne:                  0,
	soundfont.InputVelocity:             2,
	soundfont.InputKey:                  3,
	soundfont.InputKeyPressure:          10,
	soundfont.InputChannelPressure:      13,
	soundfont.InputPitchBend:            14,
	soundfont.InputPitchBendSensitivity: 16,
}

func encodeSource(s soundfont.Source) uint16 {
	op := inputCodes[s.Input]
	if s.Input == soundfont.InputController {
		op = 0x80 | uint16(s.Controller&0x7f)
	}
	return op | uint16(s.Type)<<8 | uint16(s.Form)<<10
}

func encodeModulator(m soundfont.Modulator) modulator {
	trans := uint16(0)
	if m.Transform == soundfont.TransformAbsolute {
		trans = 2
	}
	return modulator{
		SrcOp:    encodeSource(m.Source),
		DstOp:    uint16(m.Destination.Generator()),
		Amount:   int16(m.Amount),
		AmtSrcOp: encodeSource(m.AmountSource),
		TransOp:  trans,
	}
}

// terminate appends the terminal record every pdta table ends with.
func (e *encoder) terminate() {
	e.phdr = append(e.phdr, presetHeader{Name: "EOP", ZoneIdx: uint16(len(e.pbag))})
	e.pbag = append(e.pbag, bag{GenIdx: uint16(len(e.pgen)), ModIdx: uint16(len(e.pmod))})
	e.pmod = append(e.pmod, modulator{})
	e.pgen = append(e.pgen, generator{})
	e.inst = append(e.inst, instHeader{Name: "EOI", ZoneIdx: uint16(len(e.ibag))})
	e.ibag = append(e.ibag, bag{GenIdx: uint16(len(e.igen)), ModIdx: uint16(len(e.imod))})
	e.imod = append(e.imod, modulator{})
	e.igen = append(e.igen, generator{})
	e.shdr = append(e.shdr, sampleHeader{Name: "EOS"})
}

func chunk(id string, body []byte) []byte {
	out := make([]byte, 0, 8+len(body)+1)
	out = append(out, id...)
	out = le.AppendUint32(out, uint32(len(body)))
	out = append(out, body...)
	if len(body)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func listChunk(typ string, subs ...[]byte) []byte {
	body := []byte(typ)
	for _, s := range subs {
		body = append(body, s...)
	}
	return chunk("LIST", body)
}

func table[T interface{ appendTo([]byte) []byte }](records []T) []byte {
	var out []byte
	for _, r := range records {
		out = r.appendTo(out)
	}
	return out
}

func zstr(s string) []byte {
	b := append([]byte(s), 0)
	if len(b)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

func (e *encoder) writeTo(w io.Writer, name string) error {
	ifil := le.AppendUint16(le.AppendUint16(nil, 2), 1)

	smpl := make([]byte, 0, 2*len(e.samples))
	for _, v := range e.samples {
		smpl = le.AppendUint16(smpl, uint16(v))
	}

	body := []byte("sfbk")
	body = append(body, listChunk("INFO",
		chunk("ifil", ifil),
		chunk("isng", zstr("EMU8000")),
		chunk("INAM", zstr(name)),
	)...)
	body = append(body, listChunk("sdta", chunk("smpl", smpl))...)
	body = append(body, listChunk("pdta",
		chunk("phdr", table(e.phdr)),
		chunk("pbag", table(e.pbag)),
		chunk("pmod", table(e.pmod)),
		chunk("pgen", table(e.pgen)),
		chunk("inst", table(e.inst)),
		chunk("ibag", table(e.ibag)),
		chunk("imod", table(e.imod)),
		chunk("igen", table(e.igen)),
		chunk("shdr", table(e.shdr)),
	)...)

	_, err := w.Write(chunk("RIFF", body))
	return err
}
