// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/ik5/almidi/internal/audiotest"
)

func readAll(t *testing.T, data []byte) ([]float32, int, int) {
	t.Helper()

	src, err := Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil", err)
	}
	defer src.Close()

	var out []float32
	buf := make([]float32, 100)
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out, src.SampleRate(), src.Channels()
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v, want nil", err)
		}
	}
}

func TestWriteMono16_RoundTrip(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 1000)
	for i := range samples {
		samples[i] = int16(10000 * math.Sin(float64(i)/10))
	}

	var buf audiotest.Buffer
	if err := WriteMono16(&buf, 8000, samples); err != nil {
		t.Fatalf("WriteMono16() error = %v, want nil", err)
	}

	got, rate, channels := readAll(t, buf.Bytes())
	if rate != 8000 || channels != 1 {
		t.Fatalf("rate, channels = %d, %d, want 8000, 1", rate, channels)
	}
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i, v := range got {
		if want := float32(samples[i]) / 32768; v != want {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestStereoWriter(t *testing.T) {
	t.Parallel()

	var buf audiotest.Buffer
	w := NewStereoWriter(&buf, 44100)

	left, right := make([]float32, 256), make([]float32, 256)
	for i := range left {
		left[i], right[i] = 0.5, -0.25
	}
	for range 3 {
		if err := w.Write(left, right); err != nil {
			t.Fatalf("Write() error = %v, want nil", err)
		}
	}
	if err := w.Write(left, right[:1]); !errors.Is(err, ErrChannelMismatch) {
		t.Fatalf("Write() with uneven buffers error = %v, want ErrChannelMismatch", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v, want nil", err)
	}

	got, rate, channels := readAll(t, buf.Bytes())
	if rate != 44100 || channels != 2 || len(got) != 2*3*256 {
		t.Fatalf("rate, channels, samples = %d, %d, %d, want 44100, 2, %d", rate, channels, len(got), 2*3*256)
	}
	for i := 0; i < len(got); i += 2 {
		if math.Abs(float64(got[i]-0.5)) > 1e-3 || math.Abs(float64(got[i+1]+0.25)) > 1e-3 {
			t.Fatalf("frame %d = (%v, %v), want (0.5, -0.25)", i/2, got[i], got[i+1])
		}
	}
}

func TestDecoder_Errors(t *testing.T) {
	t.Parallel()

	if _, err := (Decoder{}).Decode(strings.NewReader("definitely not a wav file")); !errors.Is(err, ErrNotWavFile) {
		t.Fatalf("Decode() error = %v, want ErrNotWavFile", err)
	}
	if _, err := (Decoder{}).Decode(bytes.NewReader(nil)); !errors.Is(err, ErrNotWavFile) {
		t.Fatalf("Decode(empty) error = %v, want ErrNotWavFile", err)
	}
}
