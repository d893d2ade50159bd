// SPDX-License-Identifier: EPL-2.0

package soundfont

import (
	"sync"
	"sync/atomic"
)

// SoundFont is the unit bound to a synthesizer: a preset list plus the 16-bit
// sample data its Fontsounds point into. A SoundFont holds a reference on
// each of its Presets.
type SoundFont struct {
	id  uint32
	ref atomic.Int32

	presets atomic.Pointer[[]*Preset]
	idle    atomic.Pointer[func(*SoundFont)]

	mu      sync.RWMutex
	samples []int16
	mapped  bool
}

// ID returns the repository handle. The default soundfont is 0.
func (s *SoundFont) ID() uint32 { return s.id }

// RefCount returns the number of owners holding s.
func (s *SoundFont) RefCount() int32 { return s.ref.Load() }

// Acquire takes a reference on s.
func (s *SoundFont) Acquire() { s.ref.Add(1) }

// Release drops a reference taken with Acquire. Dropping the last reference
// on a superseded default soundfont destroys it.
func (s *SoundFont) Release() {
	if s.ref.Add(-1) != 0 {
		return
	}
	if f := s.idle.Load(); f != nil {
		(*f)(s)
	}
}

// Presets returns the current preset list. The slice is replaced, never
// modified, so it is safe to read while the list is being swapped.
func (s *SoundFont) Presets() []*Preset {
	p := s.presets.Load()
	if p == nil {
		return nil
	}
	return *p
}

// FindPreset returns the first preset with the given bank and program.
func (s *SoundFont) FindPreset(bank, program int) *Preset {
	for _, p := range s.Presets() {
		if p.Bank == bank && p.Program == program {
			return p
		}
	}
	return nil
}

// Samples returns the sample data. Callers must not modify it.
func (s *SoundFont) Samples() []int16 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.samples
}

// Mapped reports whether the sample data is mapped for writing.
func (s *SoundFont) Mapped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.mapped
}

// swapPresets publishes presets and returns the previous list. References
// are not touched.
func (s *SoundFont) swapPresets(presets []*Preset) []*Preset {
	var next *[]*Preset
	if len(presets) > 0 {
		next = &presets
	}

	old := s.presets.Swap(next)
	if old == nil {
		return nil
	}
	return *old
}

// Bank is decoded soundfont content waiting to be installed into a
// SoundFont. Its Presets and Fontsounds are not registered yet.
type Bank struct {
	Samples []int16
	Presets []*Preset
}

// NewPreset builds an unregistered preset holding a reference on each sound.
func NewPreset(program, bank int, sounds []*Fontsound) *Preset {
	p := &Preset{Program: program, Bank: bank, sounds: sounds}
	for _, s := range sounds {
		s.ref.Add(1)
	}
	return p
}
