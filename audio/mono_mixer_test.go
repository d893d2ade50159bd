// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"math"
	"testing"

	"github.com/ik5/almidi/internal/audiotest"
)

func TestMonoMixer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  *audiotest.Source
		want func(frame int) float32
	}{
		{
			name: "mono passthrough",
			src:  audiotest.NewConstant(8000, 1, 100, 0.5),
			want: func(int) float32 { return 0.5 },
		},
		{
			name: "stereo average",
			src: &audiotest.Source{Rate: 8000, Chans: 2, Frames: 100, Wave: func(_, c int) float32 {
				return 0.4 + 0.2*float32(c)
			}},
			want: func(int) float32 { return 0.5 },
		},
		{
			name: "three channels",
			src:  audiotest.NewRamp(8000, 3, 100),
			want: func(f int) float32 { return float32(f)/100 + 1 },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewMonoMixer(tt.src)
			if m.Channels() != 1 || m.SampleRate() != 8000 {
				t.Fatalf("Channels(), SampleRate() = %d, %d, want 1, 8000", m.Channels(), m.SampleRate())
			}

			out := drain(t, m, 30)
			if len(out) != 100 {
				t.Fatalf("mixed %d frames, want 100", len(out))
			}
			for f, got := range out {
				if want := tt.want(f); math.Abs(float64(got-want)) > 1e-6 {
					t.Fatalf("out[%d] = %v, want %v", f, got, want)
				}
			}
		})
	}
}

func TestMonoMixer_EmptyDst(t *testing.T) {
	t.Parallel()

	m := NewMonoMixer(audiotest.NewConstant(8000, 2, 10, 1))
	if n, err := m.ReadSamples(nil); n != 0 || err != nil {
		t.Fatalf("ReadSamples(nil) = %d, %v, want 0, nil", n, err)
	}
}
