// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/almidi/utils"
)

const bitDepth = 16

// StereoWriter encodes planar float32 stereo blocks as 16-bit PCM WAV.
// Close must be called to finish the file headers.
type StereoWriter struct {
	enc *wav.Encoder
	buf *goaudio.IntBuffer
}

func NewStereoWriter(w io.WriteSeeker, rate int) *StereoWriter {
	return &StereoWriter{
		enc: wav.NewEncoder(w, rate, bitDepth, 2, formatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 2, SampleRate: rate},
			SourceBitDepth: bitDepth,
		},
	}
}

// Write interleaves left and right and appends them to the file.
func (s *StereoWriter) Write(left, right []float32) error {
	if len(left) != len(right) {
		return ErrChannelMismatch
	}

	if cap(s.buf.Data) < 2*len(left) {
		s.buf.Data = make([]int, 2*len(left))
	}
	s.buf.Data = s.buf.Data[:2*len(left)]
	for i := range left {
		s.buf.Data[2*i] = int(utils.Float32ToInt16(left[i]))
		s.buf.Data[2*i+1] = int(utils.Float32ToInt16(right[i]))
	}

	if err := s.enc.Write(s.buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *StereoWriter) Close() error {
	if err := s.enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// WriteMono16 writes samples as a mono 16-bit PCM WAV file at rate Hz.
func WriteMono16(w io.WriteSeeker, rate int, samples []int16) error {
	enc := wav.NewEncoder(w, rate, bitDepth, 1, formatPCM)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: bitDepth,
	}
	for i, v := range samples {
		buf.Data[i] = int(v)
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
