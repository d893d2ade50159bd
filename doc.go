// SPDX-License-Identifier: EPL-2.0

// Package almidi provides a software MIDI device: a timed event queue
// driving a synthesizer that renders into an audio mixer's sample buffers.
//
// A Device owns everything one audio device needs for MIDI playback: a
// soundfont repository, a synth with its event clock, the backend that
// renders voices, and the lazily loaded default soundfont.
//
// # Backends
//
// The backend is picked when the device is opened:
//   - the one named by midi.backend, if set
//   - the go-meltysynth bridge, if the device frequency is one it supports
//   - the built-in sample player, if midi.internal-synth is true
//   - the null backend, which renders silence
//
// # Quick Start
//
//	dev, err := almidi.Open(almidi.Options{Config: cfg})
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	// Bind the default soundfont and queue a song
//	if err := dev.SelectSoundfonts(0); err != nil {
//	    return err
//	}
//	if err := dev.QueueSMF(file); err != nil {
//	    return err
//	}
//	dev.Synth().Play()
//
//	// On the audio goroutine
//	dev.Render(left, right)
//
// # Sample Import
//
// Sample data for programmatic soundfonts can be imported from any format
// the audio pipeline decodes (WAV, AIFF, MP3, Ogg Vorbis). ReadPCM16
// resamples and mixes a decoded stream down to mono 16-bit PCM, and
// Device.ImportFile feeds the result to a soundfont.
//
// # Thread Safety
//
// Device methods may be called from any goroutine. Render is meant for the
// audio goroutine and only blocks on control calls that touch the render
// path.
package almidi
