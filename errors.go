// SPDX-License-Identifier: EPL-2.0

package almidi

import (
	"fmt"

	"github.com/ik5/almidi/midi"
)

var (
	ErrBusy           = fmt.Errorf("%w: device is playing or paused", midi.ErrInvalidOperation)
	ErrUnknownBackend = fmt.Errorf("%w: unknown backend", midi.ErrInvalidEnum)
)
