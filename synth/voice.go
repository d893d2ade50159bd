// SPDX-License-Identifier: EPL-2.0

package synth

import (
	"math"

	"github.com/ik5/almidi/soundfont"
	"github.com/ik5/almidi/utils"
)

type envStage int

const (
	envDelay envStage = iota
	envAttack
	envHold
	envDecay
	envSustain
	envRelease
	envDone
)

// envelope is a linear DAHDSR volume envelope. Stage lengths are in frames.
type envelope struct {
	stage envStage
	pos   int
	level float32

	delay, attack, hold, decay, release int
	sustain                             float32

	releaseFrom float32
}

// timecentsFrames converts an SF2 timecent value to frames at rate.
func timecentsFrames(tc, rate int) int {
	if tc <= -12000 {
		return 0
	}
	return int(math.Pow(2, float64(tc)/1200) * float64(rate))
}

func centibelsGain(cb int) float32 {
	if cb <= 0 {
		return 1
	}
	return float32(math.Pow(10, -float64(cb)/200))
}

func newEnvelope(s *soundfont.Fontsound, key, rate int) envelope {
	keyScale := func(base, perKey soundfont.Param) int {
		return s.Param(base) + s.Param(perKey)*(60-key)
	}

	e := envelope{
		delay:   timecentsFrames(s.Param(soundfont.ParamVolEnvDelay), rate),
		attack:  timecentsFrames(s.Param(soundfont.ParamVolEnvAttack), rate),
		hold:    timecentsFrames(keyScale(soundfont.ParamVolEnvHold, soundfont.ParamVolEnvKeyToHold), rate),
		decay:   timecentsFrames(keyScale(soundfont.ParamVolEnvDecay, soundfont.ParamVolEnvKeyToDecay), rate),
		release: timecentsFrames(s.Param(soundfont.ParamVolEnvRelease), rate),
		sustain: centibelsGain(s.Param(soundfont.ParamVolEnvSustain)),
	}
	e.enter(envDelay)
	return e
}

// enter switches to st, skipping stages of zero length.
func (e *envelope) enter(st envStage) {
	for {
		e.stage, e.pos = st, 0
		switch st {
		case envDelay:
			e.level = 0
			if e.delay > 0 {
				return
			}
		case envAttack:
			if e.attack > 0 {
				return
			}
		case envHold:
			e.level = 1
			if e.hold > 0 {
				return
			}
		case envDecay:
			if e.decay > 0 {
				return
			}
		case envSustain:
			e.level = e.sustain
			return
		case envRelease:
			if e.release > 0 {
				return
			}
		case envDone:
			e.level = 0
			return
		}
		st++
	}
}

func (e *envelope) noteOff() {
	if e.stage >= envRelease {
		return
	}
	e.releaseFrom = e.level
	e.enter(envRelease)
}

// next returns the level for the current frame and steps the envelope.
func (e *envelope) next() float32 {
	lvl := e.level
	e.pos++

	switch e.stage {
	case envDelay:
		if e.pos >= e.delay {
			e.enter(envAttack)
		}
	case envAttack:
		e.level = float32(e.pos) / float32(e.attack)
		if e.pos >= e.attack {
			e.enter(envHold)
		}
	case envHold:
		if e.pos >= e.hold {
			e.enter(envDecay)
		}
	case envDecay:
		e.level = 1 - (1-e.sustain)*float32(e.pos)/float32(e.decay)
		if e.pos >= e.decay {
			e.enter(envSustain)
		}
	case envRelease:
		e.level = e.releaseFrom * (1 - float32(e.pos)/float32(e.release))
		if e.pos >= e.release {
			e.enter(envDone)
		}
	}
	return lvl
}

// voice plays one fontsound for one note.
type voice struct {
	active bool
	age    uint64

	channel, key int
	class        int
	sound        *soundfont.Fontsound
	data         []int16

	pos  float64
	step float64

	loop      soundfont.LoopMode
	released  bool
	sustained bool

	amp  float32
	pan  float32
	side soundfont.SampleType
	env  envelope
}

func (v *voice) looping() bool {
	switch v.loop {
	case soundfont.LoopContinuous:
		return true
	case soundfont.LoopUntilRelease:
		return !v.released
	}
	return false
}

// sample fetches frame i, wrapping into the loop while looping and
// clamping to the sample span otherwise.
func (v *voice) sample(i int) float32 {
	s := v.sound
	if v.looping() && i >= s.LoopEnd {
		i = s.LoopStart + (i-s.LoopStart)%(s.LoopEnd-s.LoopStart)
	}
	i = min(max(i, s.Start), s.End-1)
	return utils.Int16ToFloat32(v.data[i])
}

// render writes up to len(out) frames of the voice at pitch ratio bend and
// reports whether the voice is still sounding.
func (v *voice) render(out []float32, bend float64) bool {
	s := v.sound
	step := v.step * bend

	for i := range out {
		if v.env.stage == envDone {
			clear(out[i:])
			return false
		}

		if v.looping() {
			for v.pos >= float64(s.LoopEnd) {
				v.pos -= float64(s.LoopEnd - s.LoopStart)
			}
		} else if v.pos >= float64(s.End) {
			clear(out[i:])
			return false
		}

		idx := int(v.pos)
		frac := float32(v.pos - float64(idx))
		y := utils.CubicInterpolate(v.sample(idx-1), v.sample(idx), v.sample(idx+1), v.sample(idx+2), frac)

		out[i] = y * v.env.next()
		v.pos += step
	}
	return true
}

// gains returns the left and right amplitudes for the voice given the
// channel level and channel pan in 0..1.
func (v *voice) gains(level, chanPan float32) (float32, float32) {
	p := v.pan + chanPan - 0.5
	switch v.side {
	case soundfont.SampleLeft:
		p = 0
	case soundfont.SampleRight:
		p = 1
	}
	p = min(max(p, 0), 1)

	a := float64(v.amp * level)
	angle := float64(p) * math.Pi / 2
	return float32(a * math.Cos(angle)), float32(a * math.Sin(angle))
}
