// SPDX-License-Identifier: EPL-2.0

// Package audio is the decoded-audio pipeline used to bring external
// recordings into a soundfont's 16-bit sample data.
//
// A Source streams interleaved float32 samples. Decoders in formats/...
// produce Sources; Resampler and MonoMixer wrap them:
//
//	src, _ := wav.Decoder{}.Decode(f)
//	pcm, _ := audio.ReadMono16(src, 44100)
//
// ReadMono16 is the usual entry point. Registry picks a decoder by file
// extension.
package audio
