// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/ik5/almidi/internal/audiotest"
)

func encode(t *testing.T, rate, channels int, data []int) []byte {
	t.Helper()

	var buf audiotest.Buffer
	enc := aiff.NewEncoder(&buf, rate, 16, channels)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatalf("Write() error = %v, want nil", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v, want nil", err)
	}
	return buf.Bytes()
}

func TestDecoder_RoundTrip(t *testing.T) {
	t.Parallel()

	data := make([]int, 400)
	for i := range data {
		data[i] = (i%2*2 - 1) * 8192
	}

	// Hide the Seeker so the decoder buffers the input.
	src, err := Decoder{}.Decode(io.MultiReader(bytes.NewReader(encode(t, 22050, 2, data))))
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil", err)
	}
	if src.SampleRate() != 22050 || src.Channels() != 2 {
		t.Fatalf("SampleRate(), Channels() = %d, %d, want 22050, 2", src.SampleRate(), src.Channels())
	}

	var got []float32
	buf := make([]float32, 64)
	for {
		n, err := src.ReadSamples(buf)
		got = append(got, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v, want nil", err)
		}
	}

	if len(got) != len(data) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(data))
	}
	for i, v := range got {
		if want := float32(data[i]) / 32768; v != want {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestDecoder_NotAiff(t *testing.T) {
	t.Parallel()

	if _, err := (Decoder{}).Decode(bytes.NewReader([]byte("RIFF....WAVEfmt "))); !errors.Is(err, ErrNotAiffFile) {
		t.Fatalf("Decode() error = %v, want ErrNotAiffFile", err)
	}
}
