// SPDX-License-Identifier: EPL-2.0

package sf2

import (
	"log/slog"

	"github.com/ik5/almidi/soundfont"
)

// rangeValid reports whether every key and velocity range of z satisfies
// 0 <= low <= high <= 127.
func (z *zoneList) rangeValid() (gen uint16, lo, hi int, ok bool) {
	for _, g := range z.gens {
		if g.ID != soundfont.GenKeyRange && g.ID != soundfont.GenVelocityRange {
			continue
		}
		lo, hi = g.Range()
		if hi > 127 || hi < lo {
			return g.ID, lo, hi, false
		}
	}
	return 0, 0, 0, true
}

// isValidController reports whether cc may drive a modulator.
func isValidController(cc int) bool {
	switch {
	case cc == 0, cc == 6, cc == 32, cc == 38:
		return false
	case cc >= 98 && cc <= 101:
		return false
	case cc >= 120:
		return false
	}
	return true
}

// decodeSource maps an SF2 modulator source operand.
func decodeSource(op uint16) (soundfont.Source, bool) {
	var src soundfont.Source

	switch in := int(op & 0xff); {
	case in == 0:
		src.Input = soundfont.InputOne
	case in == 2:
		src.Input = soundfont.InputVelocity
	case in == 3:
		src.Input = soundfont.InputKey
	case in == 10:
		src.Input = soundfont.InputKeyPressure
	case in == 13:
		src.Input = soundfont.InputChannelPressure
	case in == 14:
		src.Input = soundfont.InputPitchBend
	case in == 16:
		src.Input = soundfont.InputPitchBendSensitivity
	case in&0x80 != 0 && isValidController(in^0x80):
		src.Input = soundfont.InputController
		src.Controller = in ^ 0x80
	default:
		return src, false
	}

	switch op & 0x0300 {
	case 0x0000:
		src.Type = soundfont.Unorm
	case 0x0100:
		src.Type = soundfont.UnormReverse
	case 0x0200:
		src.Type = soundfont.Snorm
	case 0x0300:
		src.Type = soundfont.SnormReverse
	}

	switch op & 0xfc00 {
	case 0x0000:
		src.Form = soundfont.FormLinear
	case 0x0400:
		src.Form = soundfont.FormConcave
	case 0x0800:
		src.Form = soundfont.FormConvex
	case 0x0c00:
		src.Form = soundfont.FormSwitch
	default:
		return src, false
	}
	return src, true
}

func decodeTransform(op uint16) (soundfont.Transform, bool) {
	switch op {
	case 0:
		return soundfont.TransformLinear, true
	case 2:
		return soundfont.TransformAbsolute, true
	}
	return 0, false
}

func (l *Loader) decodeModulator(m modulator) (soundfont.Modulator, bool) {
	dst, ok := soundfont.ParamForGenerator(int(m.DstOp))
	if !ok {
		l.logger.Warn("unhandled modulator destination", slog.Int("destination", int(m.DstOp)))
		return soundfont.Modulator{}, false
	}

	src, ok1 := decodeSource(m.SrcOp)
	amt, ok2 := decodeSource(m.AmtSrcOp)
	trans, ok3 := decodeTransform(m.TransOp)
	if !ok1 || !ok2 || !ok3 {
		l.logger.Warn("unhandled modulator encoding",
			slog.Int("source", int(m.SrcOp)),
			slog.Int("amount_source", int(m.AmtSrcOp)),
			slog.Int("transform", int(m.TransOp)),
		)
		return soundfont.Modulator{}, false
	}

	return soundfont.Modulator{
		Source:       src,
		AmountSource: amt,
		Amount:       int(m.Amount),
		Transform:    trans,
		Destination:  dst,
	}, true
}

func loopMode(v int) (soundfont.LoopMode, bool) {
	switch v {
	case 0:
		return soundfont.LoopNone, true
	case 1:
		return soundfont.LoopContinuous, true
	case 3:
		return soundfont.LoopUntilRelease, true
	}
	return soundfont.LoopNone, false
}

func (l *Loader) sampleType(t uint16) soundfont.SampleType {
	switch t {
	case 1:
		return soundfont.SampleMono
	case 2:
		return soundfont.SampleRight
	case 4:
		return soundfont.SampleLeft
	case 8:
		l.logger.Warn(`sample type "linked" ignored; using mono`)
		return soundfont.SampleMono
	}
	l.logger.Warn("unhandled sample type", slog.Int("type", int(t)))
	return soundfont.SampleMono
}

// fillZone applies the resolved generators and modulators of z to s.
func (l *Loader) fillZone(s *soundfont.Fontsound, z *zoneList) {
	for _, m := range z.mods {
		if mod, ok := l.decodeModulator(m); ok {
			s.Modulators = append(s.Modulators, mod)
		}
	}

	for _, g := range z.gens {
		v := g.Value()

		switch g.ID {
		case soundfont.GenStartOffset:
			s.Start += v
		case soundfont.GenEndOffset:
			s.End += v
		case soundfont.GenLoopStartOffset:
			s.LoopStart += v
		case soundfont.GenLoopEndOffset:
			s.LoopEnd += v
		case soundfont.GenStartCoarse:
			s.Start += v << 15
		case soundfont.GenEndCoarse:
			s.End += v << 15
		case soundfont.GenLoopStartCoarse:
			s.LoopStart += v << 15
		case soundfont.GenLoopEndCoarse:
			s.LoopEnd += v << 15
		case soundfont.GenKeyRange:
			lo, hi := g.Range()
			s.MinKey, s.MaxKey = min(lo, 127), min(hi, 127)
		case soundfont.GenVelocityRange:
			lo, hi := g.Range()
			s.MinVelocity, s.MaxVelocity = min(lo, 127), min(hi, 127)
		case soundfont.GenSampleModes:
			mode, ok := loopMode(v)
			if !ok {
				l.logger.Warn("unhandled loop mode", slog.Int("mode", v))
			}
			s.LoopMode = mode
		case soundfont.GenExclusiveClass:
			s.ExclusiveClass = v
		case soundfont.GenOverridingRootKey:
			if v < 0 || v > 127 {
				if v != -1 {
					l.logger.Warn("invalid overridingRootKey", slog.Int("value", v))
				}
				continue
			}
			s.BaseKey = v
		default:
			p, ok := soundfont.ParamForGenerator(int(g.ID))
			if !ok {
				l.warnGenerator(g.ID)
				continue
			}
			switch p {
			case soundfont.ParamFilterResonance, soundfont.ParamAttenuation:
				v = max(v, 0)
			case soundfont.ParamChorusSend, soundfont.ParamReverbSend:
				v = min(max(v, 0), 1000)
			}
			s.Params[p] = v
		}
	}
}

// warnGenerator logs an unhandled generator id the first time it is seen.
func (l *Loader) warnGenerator(id uint16) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.warned[id] {
		return
	}
	l.warned[id] = true
	l.logger.Warn("unhandled generator", slog.Int("generator", int(id)))
}
