// SPDX-License-Identifier: EPL-2.0

package soundfont

import "sync/atomic"

// PercussionBank is the bank number of drum kits.
const PercussionBank = 128

// Preset is a MIDI program in a bank, made of Fontsounds. A Preset holds a
// reference on each of its Fontsounds.
type Preset struct {
	id  uint32
	ref atomic.Int32

	Program int
	Bank    int

	sounds []*Fontsound
}

// ID returns the repository handle, or 0 if unregistered.
func (p *Preset) ID() uint32 { return p.id }

// RefCount returns the number of owners holding p.
func (p *Preset) RefCount() int32 { return p.ref.Load() }

// Sounds returns the preset's Fontsounds. The slice must not be modified.
func (p *Preset) Sounds() []*Fontsound { return p.sounds }

// Lookup appends to dst every Fontsound of p playing key at velocity.
func (p *Preset) Lookup(dst []*Fontsound, key, velocity int) []*Fontsound {
	for _, s := range p.sounds {
		if s.Matches(key, velocity) {
			dst = append(dst, s)
		}
	}
	return dst
}

func (p *Preset) release() {
	for _, s := range p.sounds {
		s.ref.Add(-1)
	}
	p.sounds = nil
}
