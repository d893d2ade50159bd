// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/almidi/utils"
)

const resampleChunk = 1024

// Resampler converts src to another sample rate with cubic interpolation,
// keeping the channel count. A one-pole low-pass runs on the input when
// downsampling.
//
// Output frame k is taken at source frame k*srcRate/dstRate, so a source of
// N frames yields ceil(N*dstRate/srcRate) frames.
type Resampler struct {
	src      Source
	srcRate  int
	rate     int
	channels int

	// win holds source frames base-1, base, base+1 and base+2. Positions
	// before the first frame and after the last repeat the edge frame.
	win  [4][]float32
	base int
	read int
	out  int64

	started bool
	eof     bool

	in           []float32
	inPos, inLen int

	lowpass bool
	state   []float32
}

// NewResampler returns a Resampler producing dstRate Hz.
func NewResampler(src Source, dstRate int) *Resampler {
	ch := max(src.Channels(), 1)
	r := &Resampler{
		src:      src,
		rate:     dstRate,
		srcRate:  src.SampleRate(),
		channels: ch,
		in:       make([]float32, resampleChunk*ch),
		state:    make([]float32, ch),
	}
	r.lowpass = r.srcRate > dstRate
	for i := range r.win {
		r.win[i] = make([]float32, ch)
	}
	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// load copies the next source frame into dst. It returns false once the
// source is exhausted.
func (r *Resampler) load(dst []float32) (bool, error) {
	for r.inPos >= r.inLen {
		if r.eof {
			return false, nil
		}
		n, err := r.src.ReadSamples(r.in)
		r.inPos, r.inLen = 0, n-n%r.channels
		if errors.Is(err, io.EOF) {
			r.eof = true
		} else if err != nil {
			return false, fmt.Errorf("%w", err)
		}
	}

	frame := r.in[r.inPos : r.inPos+r.channels]
	r.inPos += r.channels

	if r.lowpass {
		if r.read == 0 {
			copy(r.state, frame)
		}
		for c, x := range frame {
			r.state[c] = 0.5*x + 0.5*r.state[c]
		}
		frame = r.state
	}
	copy(dst, frame)
	r.read++
	return true, nil
}

// fill loads win[i], repeating win[i-1] past the end of the source.
func (r *Resampler) fill(i int) error {
	ok, err := r.load(r.win[i])
	if err != nil {
		return err
	}
	if !ok && i > 0 {
		copy(r.win[i], r.win[i-1])
	}
	return nil
}

func (r *Resampler) start() (bool, error) {
	r.started = true

	ok, err := r.load(r.win[1])
	if err != nil || !ok {
		return false, err
	}
	copy(r.win[0], r.win[1])

	for i := 2; i < 4; i++ {
		if err := r.fill(i); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *Resampler) advance() error {
	w0 := r.win[0]
	copy(r.win[:3], r.win[1:])
	r.win[3] = w0
	r.base++
	return r.fill(3)
}

// ReadSamples fills dst, whose length must be a multiple of Channels().
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.rate <= 0 {
		return 0, ErrInvalidRate
	}

	if !r.started {
		ok, err := r.start()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, io.EOF
		}
	}

	n := 0
	for n < len(dst) {
		pos := r.out * int64(r.srcRate)
		for target := int(pos / int64(r.rate)); r.base < target; {
			if err := r.advance(); err != nil {
				return n, err
			}
		}
		if r.base >= r.read {
			return n, io.EOF
		}

		x := float32(pos%int64(r.rate)) / float32(r.rate)
		for c := range r.channels {
			dst[n+c] = utils.CubicInterpolate(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], x)
		}
		n += r.channels
		r.out++
	}
	return n, nil
}
