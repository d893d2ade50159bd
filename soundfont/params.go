// SPDX-License-Identifier: EPL-2.0

package soundfont

// Param identifies a generator-backed synthesis parameter of a Fontsound.
// Values use SF2 units (cents, centibels, timecents, tenths of a percent).
type Param int

const (
	ParamModLfoToPitch Param = iota
	ParamVibratoLfoToPitch
	ParamModEnvToPitch
	ParamFilterCutoff
	ParamFilterResonance
	ParamModLfoToFilterCutoff
	ParamModEnvToFilterCutoff
	ParamModLfoToVolume
	ParamChorusSend
	ParamReverbSend
	ParamPan
	ParamModLfoDelay
	ParamModLfoFrequency
	ParamVibratoLfoDelay
	ParamVibratoLfoFrequency
	ParamModEnvDelay
	ParamModEnvAttack
	ParamModEnvHold
	ParamModEnvDecay
	ParamModEnvSustain
	ParamModEnvRelease
	ParamModEnvKeyToHold
	ParamModEnvKeyToDecay
	ParamVolEnvDelay
	ParamVolEnvAttack
	ParamVolEnvHold
	ParamVolEnvDecay
	ParamVolEnvSustain
	ParamVolEnvRelease
	ParamVolEnvKeyToHold
	ParamVolEnvKeyToDecay
	ParamAttenuation
	ParamCoarseTune
	ParamFineTune
	ParamScaleTuning

	NumParams
)

// SF2 generator ids that are not plain parameters.
const (
	GenStartOffset       = 0
	GenEndOffset         = 1
	GenLoopStartOffset   = 2
	GenLoopEndOffset     = 3
	GenStartCoarse       = 4
	GenEndCoarse         = 12
	GenInstrument        = 41
	GenKeyRange          = 43
	GenVelocityRange     = 44
	GenLoopStartCoarse   = 45
	GenKeynum            = 46
	GenVelocity          = 47
	GenLoopEndCoarse     = 50
	GenSampleID          = 53
	GenSampleModes       = 54
	GenExclusiveClass    = 57
	GenOverridingRootKey = 58

	NumGenerators = 60
)

var paramGenerator = [NumParams]int{
	ParamModLfoToPitch:        5,
	ParamVibratoLfoToPitch:    6,
	ParamModEnvToPitch:        7,
	ParamFilterCutoff:         8,
	ParamFilterResonance:      9,
	ParamModLfoToFilterCutoff: 10,
	ParamModEnvToFilterCutoff: 11,
	ParamModLfoToVolume:       13,
	ParamChorusSend:           15,
	ParamReverbSend:           16,
	ParamPan:                  17,
	ParamModLfoDelay:          21,
	ParamModLfoFrequency:      22,
	ParamVibratoLfoDelay:      23,
	ParamVibratoLfoFrequency:  24,
	ParamModEnvDelay:          25,
	ParamModEnvAttack:         26,
	ParamModEnvHold:           27,
	ParamModEnvDecay:          28,
	ParamModEnvSustain:        29,
	ParamModEnvRelease:        30,
	ParamModEnvKeyToHold:      31,
	ParamModEnvKeyToDecay:     32,
	ParamVolEnvDelay:          33,
	ParamVolEnvAttack:         34,
	ParamVolEnvHold:           35,
	ParamVolEnvDecay:          36,
	ParamVolEnvSustain:        37,
	ParamVolEnvRelease:        38,
	ParamVolEnvKeyToHold:      39,
	ParamVolEnvKeyToDecay:     40,
	ParamAttenuation:          48,
	ParamCoarseTune:           51,
	ParamFineTune:             52,
	ParamScaleTuning:          56,
}

var generatorParam = func() [NumGenerators]Param {
	var m [NumGenerators]Param
	for i := range m {
		m[i] = -1
	}
	for p, g := range paramGenerator {
		m[g] = Param(p)
	}
	return m
}()

// DefaultGeneratorValue holds the SF2 default amount of every generator id
// below NumGenerators.
var DefaultGeneratorValue = [NumGenerators]int{
	8:  13500,
	21: -12000,
	23: -12000,
	25: -12000,
	26: -12000,
	27: -12000,
	28: -12000,
	30: -12000,
	33: -12000,
	34: -12000,
	35: -12000,
	36: -12000,
	38: -12000,
	56: 100,
}

// Generator returns the SF2 generator id that feeds p.
func (p Param) Generator() int {
	if p < 0 || p >= NumParams {
		return -1
	}
	return paramGenerator[p]
}

// Default returns the SF2 default value of p.
func (p Param) Default() int {
	g := p.Generator()
	if g < 0 {
		return 0
	}
	return DefaultGeneratorValue[g]
}

// ParamForGenerator maps an SF2 generator id to its parameter. ok is false
// for ids that are not plain parameters (offsets, ranges, terminal ids,
// sample modes, exclusive class, root key, and unused ids).
func ParamForGenerator(gen int) (p Param, ok bool) {
	if gen < 0 || gen >= NumGenerators {
		return -1, false
	}
	p = generatorParam[gen]
	return p, p >= 0
}

// DefaultParams returns a parameter set holding every default value.
func DefaultParams() [NumParams]int {
	var out [NumParams]int
	for p := range out {
		out[p] = Param(p).Default()
	}
	return out
}
