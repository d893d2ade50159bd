// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

type stubReader struct {
	channels int
	data     []float32
	err      error
}

func (s *stubReader) SampleRate() int { return 48000 }
func (s *stubReader) Channels() int   { return s.channels }

func (s *stubReader) Read(p []float32) (int, error) {
	if len(s.data) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.EOF
	}
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n, nil
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	want := []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}
	src := &source{dec: &stubReader{channels: 2, data: append([]float32(nil), want...)}}

	if src.Channels() != 2 || src.SampleRate() != 48000 {
		t.Fatalf("Channels(), SampleRate() = %d, %d, want 2, 48000", src.Channels(), src.SampleRate())
	}

	// An odd buffer is trimmed to whole frames.
	buf := make([]float32, 5)
	var got []float32
	for range 10 {
		n, err := src.ReadSamples(buf)
		if n%2 != 0 {
			t.Fatalf("ReadSamples() = %d, want whole frames", n)
		}
		got = append(got, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v, want nil", err)
		}
	}

	if len(got) != len(want) {
		t.Fatalf("read %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}

	if n, err := src.ReadSamples(buf[:1]); n != 0 || err != nil {
		t.Fatalf("ReadSamples() with less than a frame = %d, %v, want 0, nil", n, err)
	}
}

func TestSource_ReadError(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	src := &source{dec: &stubReader{channels: 1, err: errBoom}}
	if _, err := src.ReadSamples(make([]float32, 4)); !errors.Is(err, errBoom) {
		t.Fatalf("ReadSamples() error = %v, want the decoder error", err)
	}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	if _, err := (Decoder{}).Decode(bytes.NewReader([]byte("OggS but not really"))); err == nil {
		t.Fatalf("Decode() error = nil, want an error")
	}
}
