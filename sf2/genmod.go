// SPDX-License-Identifier: EPL-2.0

package sf2

import (
	"slices"

	"github.com/ik5/almidi/soundfont"
)

// presetOnlyExcluded lists generators that are not valid at preset level and
// are dropped when inserted into a preset zone.
var presetOnlyExcluded = map[uint16]bool{
	soundfont.GenStartOffset:       true,
	soundfont.GenEndOffset:         true,
	soundfont.GenLoopStartOffset:   true,
	soundfont.GenLoopEndOffset:     true,
	soundfont.GenStartCoarse:       true,
	soundfont.GenEndCoarse:         true,
	soundfont.GenLoopStartCoarse:   true,
	soundfont.GenKeynum:            true,
	soundfont.GenVelocity:          true,
	soundfont.GenLoopEndCoarse:     true,
	soundfont.GenSampleModes:       true,
	soundfont.GenExclusiveClass:    true,
	soundfont.GenOverridingRootKey: true,
}

// defaultModBias is added to a modulator the first time it is accumulated
// when it matches one of the SF2 default modulators.
var defaultModBias = map[[2]uint16]int16{
	{0x0502, 48}: 960,
	{0x0102, 8}:  -2400,
	{0x000D, 6}:  50,
	{0x0081, 6}:  50,
	{0x0582, 48}: 960,
	{0x028A, 17}: 1000,
	{0x058B, 48}: 960,
	{0x00DB, 16}: 200,
	{0x00DD, 15}: 200,
}

// zoneList is the working set of generators and modulators of one zone
// while it is being resolved.
type zoneList struct {
	gens []generator
	mods []modulator
}

func (z *zoneList) clone() zoneList {
	return zoneList{gens: slices.Clone(z.gens), mods: slices.Clone(z.mods)}
}

func (z *zoneList) findGen(id uint16) int {
	return slices.IndexFunc(z.gens, func(g generator) bool { return g.ID == id })
}

func sameMod(a, b modulator) bool {
	return a.DstOp == b.DstOp && a.SrcOp == b.SrcOp &&
		a.AmtSrcOp == b.AmtSrcOp && a.TransOp == b.TransOp
}

func (z *zoneList) findMod(m modulator) int {
	return slices.IndexFunc(z.mods, func(o modulator) bool { return sameMod(o, m) })
}

// insertGen sets g, replacing an existing generator with the same id.
func (z *zoneList) insertGen(g generator, preset bool) {
	if i := z.findGen(g.ID); i >= 0 {
		z.gens[i].Amount = g.Amount
		return
	}
	if preset && presetOnlyExcluded[g.ID] {
		return
	}
	z.gens = append(z.gens, g)
}

// accumGen adds g onto an existing generator with the same id. Key and
// velocity ranges intersect instead. A generator new to the list starts at
// its default value.
func (z *zoneList) accumGen(g generator) {
	if i := z.findGen(g.ID); i >= 0 {
		cur := &z.gens[i]
		if g.ID == soundfont.GenKeyRange || g.ID == soundfont.GenVelocityRange {
			lo := max(cur.Amount&0x00ff, g.Amount&0x00ff)
			hi := min(cur.Amount&0xff00, g.Amount&0xff00)
			cur.Amount = lo | hi
			return
		}
		cur.Amount += g.Amount
		return
	}

	if int(g.ID) < soundfont.NumGenerators {
		g.Amount += uint16(soundfont.DefaultGeneratorValue[g.ID])
	}
	z.gens = append(z.gens, g)
}

// insertMod sets m, replacing the amount of a matching modulator.
func (z *zoneList) insertMod(m modulator) {
	if i := z.findMod(m); i >= 0 {
		z.mods[i].Amount = m.Amount
		return
	}
	z.mods = append(z.mods, m)
}

// accumMod adds m onto a matching modulator, or appends it biased by the
// matching default modulator amount.
func (z *zoneList) accumMod(m modulator) {
	if i := z.findMod(m); i >= 0 {
		z.mods[i].Amount += m.Amount
		return
	}

	if m.AmtSrcOp == 0 && m.TransOp == 0 {
		m.Amount += defaultModBias[[2]uint16{m.SrcOp, m.DstOp}]
	}
	z.mods = append(z.mods, m)
}
