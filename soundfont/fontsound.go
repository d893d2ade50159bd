// SPDX-License-Identifier: EPL-2.0

package soundfont

import "sync/atomic"

// SampleType is the channel role of a Fontsound's sample.
type SampleType int

const (
	SampleMono SampleType = iota
	SampleRight
	SampleLeft
)

// LoopMode controls how a voice loops its sample.
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopContinuous
	LoopUntilRelease
)

// Input is the controller feeding a modulator source.
type Input int

const (
	InputOne Input = iota
	InputVelocity
	InputKey
	InputKeyPressure
	InputChannelPressure
	InputPitchBend
	InputPitchBendSensitivity
	InputController
)

// SourceType is the polarity and direction of a modulator source.
type SourceType int

const (
	Unorm SourceType = iota
	UnormReverse
	Snorm
	SnormReverse
)

// SourceForm is the curve applied to a modulator source.
type SourceForm int

const (
	FormLinear SourceForm = iota
	FormConcave
	FormConvex
	FormSwitch
)

// Transform is the output transform of a modulator.
type Transform int

const (
	TransformLinear Transform = iota
	TransformAbsolute
)

// Source is one input stage of a modulator. Controller is the MIDI CC number
// when Input is InputController.
type Source struct {
	Input      Input
	Controller int
	Type       SourceType
	Form       SourceForm
}

// Modulator routes a realtime source, scaled by Amount and a second source,
// onto a parameter.
type Modulator struct {
	Source       Source
	AmountSource Source
	Amount       int
	Transform    Transform
	Destination  Param
}

// Fontsound is one playable region: a key and velocity window over a span of
// the owning SoundFont's sample data plus its synthesis parameters.
type Fontsound struct {
	id  uint32
	ref atomic.Int32

	MinKey, MaxKey           int
	MinVelocity, MaxVelocity int

	// Offsets into SoundFont sample data, in sample frames.
	Start, End         int
	LoopStart, LoopEnd int

	SampleRate     int
	BaseKey        int
	KeyCorrection  int
	SampleType     SampleType
	LoopMode       LoopMode
	ExclusiveClass int

	Params     [NumParams]int
	Modulators []Modulator
}

// NewFontsound returns an unregistered Fontsound covering every key and
// velocity with default parameters.
func NewFontsound() *Fontsound {
	return &Fontsound{
		MaxKey:      127,
		MaxVelocity: 127,
		BaseKey:     60,
		SampleRate:  44100,
		Params:      DefaultParams(),
	}
}

// ID returns the repository handle, or 0 if unregistered.
func (f *Fontsound) ID() uint32 { return f.id }

// RefCount returns the number of owners holding f.
func (f *Fontsound) RefCount() int32 { return f.ref.Load() }

// Matches reports whether a note with the given key and velocity plays f.
func (f *Fontsound) Matches(key, velocity int) bool {
	return key >= f.MinKey && key <= f.MaxKey &&
		velocity >= f.MinVelocity && velocity <= f.MaxVelocity
}

// Param returns the value of p.
func (f *Fontsound) Param(p Param) int {
	if p < 0 || p >= NumParams {
		return 0
	}
	return f.Params[p]
}
