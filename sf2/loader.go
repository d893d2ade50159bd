// SPDX-License-Identifier: EPL-2.0

package sf2

import (
	"io"
	"log/slog"
	"sync"

	"github.com/ik5/almidi/soundfont"
)

// Loader decodes SF2 files into soundfont banks. It implements
// soundfont.Loader and is safe for concurrent use.
type Loader struct {
	logger *slog.Logger

	mu     sync.Mutex
	warned map[uint16]bool
}

var _ soundfont.Loader = (*Loader)(nil)

// NewLoader returns a Loader logging to logger. A nil logger uses
// slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, warned: make(map[uint16]bool)}
}

// Load reads an SF2 file and resolves its zones.
//
// Parameters:
//   - r: the file, positioned at the RIFF header
//
// Returns:
//   - the decoded sample data and presets, unregistered
//   - an error wrapping ErrMalformed if the file structure is invalid
//
// Presets whose zones all fail to resolve are left out.
func (l *Loader) Load(r io.Reader) (*soundfont.Bank, error) {
	f, err := readFile(r, l.logger)
	if err != nil {
		return nil, err
	}
	if err := f.checkSanity(); err != nil {
		return nil, err
	}

	bank := &soundfont.Bank{Samples: f.samples}
	for i := 0; i < len(f.phdr)-1; i++ {
		if p := l.resolvePreset(f, i); p != nil {
			bank.Presets = append(bank.Presets, p)
		}
	}
	return bank, nil
}

// globalZone seeds base with the first zone of bags[first:end] when it has
// no terminal generator, and returns the index of the first local zone.
func globalZone(base *zoneList, bags []bag, gens []generator, mods []modulator, first, end int, terminal uint16, preset bool) int {
	if end-first <= 1 {
		return first
	}

	zgens := gens[bags[first].GenIdx:bags[first+1].GenIdx]
	for _, g := range zgens {
		if g.ID == terminal {
			return first
		}
	}

	for _, g := range zgens {
		base.insertGen(g, preset)
	}
	for _, m := range mods[bags[first].ModIdx:bags[first+1].ModIdx] {
		base.insertMod(m)
	}
	return first + 1
}

func (l *Loader) resolvePreset(f *rawFile, i int) *soundfont.Preset {
	hdr := f.phdr[i]
	first, end := int(hdr.ZoneIdx), int(f.phdr[i+1].ZoneIdx)
	if first == end {
		return nil
	}

	var global zoneList
	var sounds []*soundfont.Fontsound

	zone := globalZone(&global, f.pbag, f.pgen, f.pmod, first, end, soundfont.GenInstrument, true)
	for ; zone < end; zone++ {
		local := global.clone()
		for _, m := range f.pmod[f.pbag[zone].ModIdx:f.pbag[zone+1].ModIdx] {
			local.insertMod(m)
		}

		for _, g := range f.pgen[f.pbag[zone].GenIdx:f.pbag[zone+1].GenIdx] {
			if g.ID != soundfont.GenInstrument {
				local.insertGen(g, true)
				continue
			}
			if int(g.Amount) >= len(f.inst)-1 {
				l.logger.Warn("invalid instrument id",
					slog.String("preset", hdr.Name),
					slog.Int("instrument", int(g.Amount)),
					slog.Int("instruments", len(f.inst)-1),
				)
			} else {
				sounds = l.resolveInstrument(sounds, f, int(g.Amount), hdr, &local)
			}
			break
		}
	}

	if len(sounds) == 0 {
		return nil
	}
	return soundfont.NewPreset(int(hdr.Preset), int(hdr.Bank), sounds)
}

func (l *Loader) resolveInstrument(sounds []*soundfont.Fontsound, f *rawFile, idx int, preset presetHeader, pzone *zoneList) []*soundfont.Fontsound {
	inst := f.inst[idx]
	first, end := int(inst.ZoneIdx), int(f.inst[idx+1].ZoneIdx)
	if first == end {
		l.logger.Warn("instrument with no zones", slog.String("instrument", inst.Name))
	}

	var global zoneList
	zone := globalZone(&global, f.ibag, f.igen, f.imod, first, end, soundfont.GenSampleID, false)
	for ; zone < end; zone++ {
		local := global.clone()
		for _, m := range f.imod[f.ibag[zone].ModIdx:f.ibag[zone+1].ModIdx] {
			local.insertMod(m)
		}

		for _, g := range f.igen[f.ibag[zone].GenIdx:f.ibag[zone+1].GenIdx] {
			if g.ID != soundfont.GenSampleID {
				local.insertGen(g, false)
				continue
			}
			if s := l.resolveSample(f, int(g.Amount), preset, inst, pzone, &local); s != nil {
				sounds = append(sounds, s)
			}
			break
		}
	}
	return sounds
}

// resolveSample folds the preset zone into an instrument zone that ends in
// a sample reference and builds its Fontsound.
func (l *Loader) resolveSample(f *rawFile, id int, preset presetHeader, inst instHeader, pzone, local *zoneList) *soundfont.Fontsound {
	if id >= len(f.shdr)-1 {
		l.logger.Warn("invalid sample id",
			slog.String("instrument", inst.Name),
			slog.Int("sample", id),
			slog.Int("samples", len(f.shdr)-1),
		)
		return nil
	}
	smp := f.shdr[id]

	for _, g := range pzone.gens {
		local.accumGen(g)
	}
	for _, m := range pzone.mods {
		local.accumMod(m)
	}

	if gen, lo, hi, ok := local.rangeValid(); !ok {
		kind := "key"
		if gen == soundfont.GenVelocityRange {
			kind = "velocity"
		}
		l.logger.Warn("invalid "+kind+" range",
			slog.String("preset", preset.Name),
			slog.String("instrument", inst.Name),
			slog.String("sample", smp.Name),
			slog.Int("low", lo),
			slog.Int("high", hi),
		)
		return nil
	}
	if smp.SampleType&sampleROM != 0 {
		return nil
	}

	s := soundfont.NewFontsound()
	s.Start = int(smp.Start)
	s.End = int(smp.End)
	s.LoopStart = int(smp.LoopStart)
	s.LoopEnd = int(smp.LoopEnd)
	s.SampleRate = int(smp.SampleRate)
	s.BaseKey = 60
	if smp.OriginalKey <= 127 {
		s.BaseKey = int(smp.OriginalKey)
	}
	s.KeyCorrection = int(smp.Correction)
	s.SampleType = l.sampleType(smp.SampleType &^ sampleROM)

	l.fillZone(s, local)
	return s
}
