// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/almidi/utils"
)

const readChunk = 4096

// ReadMono16 drains src through a Resampler and a MonoMixer and returns the
// result as 16-bit PCM at rate Hz. src is not closed.
func ReadMono16(src Source, rate int) ([]int16, error) {
	if rate <= 0 {
		return nil, ErrInvalidRate
	}

	var pipeline Source = NewMonoMixer(src)
	if src.SampleRate() != rate {
		pipeline = NewMonoMixer(NewResampler(src, rate))
	}

	out := make([]int16, 0, rate)
	buf := make([]float32, readChunk)
	for {
		n, err := pipeline.ReadSamples(buf)
		for _, x := range buf[:n] {
			out = append(out, utils.Float32ToInt16(x))
		}

		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}
}

// IntToFloat scales integer PCM of the given bit depth into dst, returning
// the number of samples converted.
func IntToFloat(dst []float32, src []int, bitDepth int) int {
	full := float32(int64(1) << (max(bitDepth, 8) - 1))
	n := min(len(dst), len(src))
	for i, v := range src[:n] {
		dst[i] = float32(v) / full
	}
	return n
}
