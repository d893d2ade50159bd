// SPDX-License-Identifier: EPL-2.0

package sf2

import (
	"bytes"

	"github.com/ik5/almidi/soundfont"
)

// fixture assembles SF2 files in memory. Tables are written without their
// terminal records, which bytes appends.
type fixture struct {
	info    [][]byte
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

	// override replaces the body of a pdta chunk.
	override map[string][]byte
}

func ifilChunk(major, minor uint16) []byte {
	return chunk("ifil", le.AppendUint16(le.AppendUint16(nil, major), minor))
}

func gen(id int, amount int) generator {
	return generator{ID: uint16(id), Amount: uint16(int16(amount))}
}

func rangeGen(id, lo, hi int) generator {
	return generator{ID: uint16(id), Amount: rangeAmount(lo, hi)}
}

// newFixture returns a file with 64 samples and no presets.
func newFixture() *fixture {
	return &fixture{
		info:    [][]byte{ifilChunk(2, 1), chunk("INAM", zstr("fixture"))},
		samples: make([]int16, 64),
	}
}

// addSample appends a sample header spanning the whole sample data.
func (fx *fixture) addSample() int {
	fx.shdr = append(fx.shdr, sampleHeader{
		Name:        "sine",
		End:         uint32(len(fx.samples)),
		LoopStart:   8,
		LoopEnd:     56,
		SampleRate:  22050,
		OriginalKey: 69,
		SampleType:  1,
	})
	return len(fx.shdr) - 1
}

// addInstrument appends an instrument whose zones hold the given generator
// and modulator lists.
func (fx *fixture) addInstrument(zones [][]generator, mods ...[]modulator) int {
	fx.inst = append(fx.inst, instHeader{Name: "inst", ZoneIdx: uint16(len(fx.ibag))})
	for i, z := range zones {
		fx.ibag = append(fx.ibag, bag{GenIdx: uint16(len(fx.igen)), ModIdx: uint16(len(fx.imod))})
		fx.igen = append(fx.igen, z...)
		if i < len(mods) {
			fx.imod = append(fx.imod, mods[i]...)
		}
	}
	return len(fx.inst) - 1
}

// addPreset appends a preset whose zones hold the given generator and
// modulator lists.
func (fx *fixture) addPreset(program, bank int, zones [][]generator, mods ...[]modulator) {
	fx.phdr = append(fx.phdr, presetHeader{
		Name:    "preset",
		Preset:  uint16(program),
		Bank:    uint16(bank),
		ZoneIdx: uint16(len(fx.pbag)),
	})
	for i, z := range zones {
		fx.pbag = append(fx.pbag, bag{GenIdx: uint16(len(fx.pgen)), ModIdx: uint16(len(fx.pmod))})
		fx.pgen = append(fx.pgen, z...)
		if i < len(mods) {
			fx.pmod = append(fx.pmod, mods[i]...)
		}
	}
}

// simple returns a file with one preset over one instrument zone playing
// the whole sample.
func simple(presetGens []generator, instGens []generator) *fixture {
	fx := newFixture()
	smp := fx.addSample()
	inst := fx.addInstrument([][]generator{append(instGens, gen(soundfont.GenSampleID, smp))})
	fx.addPreset(0, 0, [][]generator{append(presetGens, gen(soundfont.GenInstrument, inst))})
	return fx
}

func (fx *fixture) bytes() []byte {
	phdr := append(fx.phdr, presetHeader{Name: "EOP", ZoneIdx: uint16(len(fx.pbag))})
	pbag := append(fx.pbag, bag{GenIdx: uint16(len(fx.pgen)), ModIdx: uint16(len(fx.pmod))})
	pmod := append(fx.pmod, modulator{})
	pgen := append(fx.pgen, generator{})
	inst := append(fx.inst, instHeader{Name: "EOI", ZoneIdx: uint16(len(fx.ibag))})
	ibag := append(fx.ibag, bag{GenIdx: uint16(len(fx.igen)), ModIdx: uint16(len(fx.imod))})
	imod := append(fx.imod, modulator{})
	igen := append(fx.igen, generator{})
	shdr := append(fx.shdr, sampleHeader{Name: "EOS"})

	body := func(id string, def []byte) []byte {
		if b, ok := fx.override[id]; ok {
			return chunk(id, b)
		}
		return chunk(id, def)
	}

	smpl := make([]byte, 0, 2*len(fx.samples))
	for _, v := range fx.samples {
		smpl = le.AppendUint16(smpl, uint16(v))
	}

	var buf bytes.Buffer
	riffBody := []byte("sfbk")
	riffBody = append(riffBody, listChunk("INFO", fx.info...)...)
	riffBody = append(riffBody, listChunk("sdta", chunk("smpl", smpl))...)
	riffBody = append(riffBody, listChunk("pdta",
		body("phdr", table(phdr)),
		body("pbag", table(pbag)),
		body("pmod", table(pmod)),
		body("pgen", table(pgen)),
		body("inst", table(inst)),
		body("ibag", table(ibag)),
		body("imod", table(imod)),
		body("igen", table(igen)),
		body("shdr", table(shdr)),
	)...)
	buf.Write(chunk("RIFF", riffBody))
	return buf.Bytes()
}
