// SPDX-License-Identifier: EPL-2.0

// Package meltysynth implements a synth.Backend on top of the go-meltysynth
// software synthesizer.
//
// Bound soundfonts are re-encoded as a single SF2 image and handed to the
// engine, so the engine sees exactly the presets the repository resolved.
// Later fonts shadow earlier ones on the same bank and program.
//
//	b := meltysynth.New(meltysynth.Options{Polyphony: 256})
//	s := synth.New(b, synth.Options{SampleRate: 48000})
package meltysynth
