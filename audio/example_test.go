// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"fmt"

	"github.com/ik5/almidi/audio"
	"github.com/ik5/almidi/internal/audiotest"
)

func ExampleReadMono16() {
	// One second of a stereo 440 Hz tone at 22.05 kHz.
	src := audiotest.NewSine(22050, 2, 22050, 440)

	pcm, err := audio.ReadMono16(src, 44100)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("frames:", len(pcm))
	// Output:
	// frames: 44100
}

func ExampleNewResampler() {
	src := audiotest.NewSine(44100, 1, 44100, 440)
	r := audio.NewResampler(src, 16000)

	fmt.Printf("%d Hz, %d channel\n", r.SampleRate(), r.Channels())
	// Output:
	// 16000 Hz, 1 channel
}
