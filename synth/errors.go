// SPDX-License-Identifier: EPL-2.0

package synth

import (
	"fmt"

	"github.com/ik5/almidi/midi"
)

var (
	ErrBusy        = fmt.Errorf("%w: soundfonts can only change while initial or stopped", midi.ErrInvalidOperation)
	ErrNoSoundfont = fmt.Errorf("%w: unresolvable soundfont", midi.ErrInvalidValue)
	ErrGain        = fmt.Errorf("%w: gain must be finite and not negative", midi.ErrInvalidValue)
	ErrSampleRate  = fmt.Errorf("%w: sample rate must be positive", midi.ErrInvalidValue)
)
