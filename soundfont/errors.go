// SPDX-License-Identifier: EPL-2.0

package soundfont

import (
	"fmt"

	"github.com/ik5/almidi/midi"
)

var (
	ErrUnknownSoundfont = fmt.Errorf("%w: unknown soundfont", midi.ErrInvalidName)
	ErrUnknownPreset    = fmt.Errorf("%w: unknown preset", midi.ErrInvalidValue)
	ErrUnknownFontsound = fmt.Errorf("%w: unknown fontsound", midi.ErrInvalidValue)
	ErrDefaultSoundfont = fmt.Errorf("%w: operation not allowed on the default soundfont", midi.ErrInvalidOperation)
	ErrInUse            = fmt.Errorf("%w: object is referenced", midi.ErrInvalidOperation)
	ErrMapped           = fmt.Errorf("%w: soundfont samples are mapped", midi.ErrInvalidOperation)
	ErrNotMapped        = fmt.Errorf("%w: soundfont samples are not mapped", midi.ErrInvalidOperation)
	ErrHasPresets       = fmt.Errorf("%w: soundfont already has presets", midi.ErrInvalidOperation)
	ErrNegativeCount    = fmt.Errorf("%w: count must not be negative", midi.ErrInvalidValue)
	ErrSampleRange      = fmt.Errorf("%w: sample range out of bounds", midi.ErrInvalidValue)
	ErrNoLoader         = fmt.Errorf("%w: no loader", midi.ErrInvalidOperation)
	ErrProgramRange     = fmt.Errorf("%w: program must be in 0..127 and bank in 0..128", midi.ErrInvalidValue)
)
