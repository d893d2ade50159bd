// SPDX-License-Identifier: EPL-2.0

// Package wav decodes PCM WAV files into audio.Sources and writes rendered
// output back to WAV, both through github.com/go-audio/wav.
//
//	src, err := wav.Decoder{}.Decode(f)
//
//	w := wav.NewStereoWriter(out, 44100)
//	w.Write(left, right)
//	w.Close()
package wav
