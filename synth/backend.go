// SPDX-License-Identifier: EPL-2.0

package synth

import (
	"github.com/ik5/almidi/midi"
	"github.com/ik5/almidi/soundfont"
)

// Backend renders audio for a Synth. The Synth serializes every call, so
// implementations need no locking of their own.
type Backend interface {
	// Name identifies the backend in logs and configuration.
	Name() string

	// PrepareSoundfonts builds what the backend needs to render fonts. It
	// runs without the render lock and must not change anything Render or
	// Dispatch reads. The returned commit runs with the render lock held,
	// swaps the new state in and silences voices of the previous fonts.
	PrepareSoundfonts(fonts []*soundfont.SoundFont) (commit func(), err error)

	// SetSampleRate changes the output rate in Hz.
	SetSampleRate(rate int)

	// SetGain scales the output.
	SetGain(gain float32)

	// Dispatch applies one due event.
	Dispatch(ev midi.Event)

	// Render writes len(left) frames, overwriting left and right.
	Render(left, right []float32)

	// Stop silences all notes.
	Stop()

	// Reset returns the backend to its power-up state.
	Reset()
}

// Null drops every event and renders silence.
type Null struct{}

var _ Backend = Null{}

func (Null) Name() string          { return "null" }
func (Null) SetSampleRate(rate int) {}
func (Null) SetGain(gain float32)   {}
func (Null) Dispatch(ev midi.Event) {}
func (Null) Stop()                  {}
func (Null) Reset()                 {}

func (Null) PrepareSoundfonts(fonts []*soundfont.SoundFont) (func(), error) {
	return func() {}, nil
}

func (Null) Render(left, right []float32) {
	clear(left)
	clear(right)
}
