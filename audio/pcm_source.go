// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// PCMReader is the integer PCM interface shared by the go-audio decoders.
type PCMReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// PCMSource adapts a PCMReader to Source.
type PCMSource struct {
	dec      PCMReader
	rate     int
	channels int
	bitDepth int
	buf      *goaudio.IntBuffer
}

// NewPCMSource wraps dec, which yields bitDepth-bit samples.
func NewPCMSource(dec PCMReader, rate, channels, bitDepth int) *PCMSource {
	return &PCMSource{
		dec:      dec,
		rate:     rate,
		channels: channels,
		bitDepth: bitDepth,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
			SourceBitDepth: bitDepth,
		},
	}
}

func (s *PCMSource) SampleRate() int { return s.rate }
func (s *PCMSource) Channels() int   { return s.channels }
func (s *PCMSource) Close() error    { return nil }

// ReadSamples reads integer PCM and scales it to [-1, 1]. A short read ends
// the stream.
func (s *PCMSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if cap(s.buf.Data) < len(dst) {
		s.buf.Data = make([]int, len(dst))
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.buf)
	n = IntToFloat(dst[:n], s.buf.Data[:n], s.bitDepth)

	switch {
	case err != nil && err != io.EOF:
		return n, fmt.Errorf("%w", err)
	case err == io.EOF || n < len(dst):
		return n, io.EOF
	}
	return n, nil
}
