// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides synthetic audio sources for tests.
package audiotest

import (
	"io"
	"math"
)

// Source generates Frames frames of interleaved samples from Wave. It
// satisfies audio.Source.
type Source struct {
	Rate   int
	Chans  int
	Frames int
	Wave   func(frame, channel int) float32

	// Err, when set, is returned once FailAt frames have been produced.
	Err    error
	FailAt int

	pos    int
	closed bool
}

// NewSine returns a source playing a sine at freq Hz on every channel.
func NewSine(rate, channels, frames int, freq float64) *Source {
	return &Source{Rate: rate, Chans: channels, Frames: frames, Wave: func(f, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * freq * float64(f) / float64(rate)))
	}}
}

// NewConstant returns a source repeating value.
func NewConstant(rate, channels, frames int, value float32) *Source {
	return &Source{Rate: rate, Chans: channels, Frames: frames, Wave: func(int, int) float32 { return value }}
}

// NewRamp returns a source whose channel c holds frame/frames + c.
func NewRamp(rate, channels, frames int) *Source {
	return &Source{Rate: rate, Chans: channels, Frames: frames, Wave: func(f, c int) float32 {
		return float32(f)/float32(frames) + float32(c)
	}}
}

func (s *Source) SampleRate() int { return s.Rate }
func (s *Source) Channels() int   { return s.Chans }

// Closed reports whether Close was called.
func (s *Source) Closed() bool { return s.closed }

func (s *Source) Close() error {
	s.closed = true
	return nil
}

// Rewind restarts the stream.
func (s *Source) Rewind() { s.pos = 0 }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.Err != nil && s.pos >= s.FailAt {
		return 0, s.Err
	}
	if s.pos >= s.Frames {
		return 0, io.EOF
	}

	frames := min(len(dst)/s.Chans, s.Frames-s.pos)
	if s.Err != nil {
		frames = min(frames, s.FailAt-s.pos)
	}
	for f := range frames {
		for c := range s.Chans {
			dst[f*s.Chans+c] = s.Wave(s.pos+f, c)
		}
	}
	s.pos += frames

	if s.pos >= s.Frames {
		return frames * s.Chans, io.EOF
	}
	return frames * s.Chans, nil
}
