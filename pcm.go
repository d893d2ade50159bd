// SPDX-License-Identifier: EPL-2.0

package almidi

import (
	"fmt"

	"github.com/ik5/almidi/audio"
	"github.com/ik5/almidi/formats/aiff"
	"github.com/ik5/almidi/formats/mp3"
	"github.com/ik5/almidi/formats/vorbis"
	"github.com/ik5/almidi/formats/wav"
)

// NewRegistry returns a registry with every built-in decoder registered.
func NewRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("aif", aiff.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	return reg
}

// ReadPCM16 resamples src to rate Hz, mixes it down to mono and returns all
// of it as 16-bit PCM. src is closed before returning.
//
// The result is ready to be set as soundfont sample data:
//
//	src, _ := wav.Decoder{}.Decode(file)
//	pcm, err := almidi.ReadPCM16(src, 44100)
//	if err != nil {
//	    return err
//	}
//	err = repo.SetSamples(id, pcm)
func ReadPCM16(src audio.Source, rate int) ([]int16, error) {
	pcm, err := audio.ReadMono16(src, rate)
	if cerr := src.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return pcm, nil
}
