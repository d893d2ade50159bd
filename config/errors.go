// SPDX-License-Identifier: EPL-2.0

package config

import (
	"fmt"

	"github.com/ik5/almidi/midi"
)

var (
	ErrSyntax  = fmt.Errorf("%w: malformed configuration", midi.ErrInvalidValue)
	ErrBackend = fmt.Errorf("%w: unknown backend", midi.ErrInvalidEnum)
	ErrRange   = fmt.Errorf("%w: setting out of range", midi.ErrInvalidValue)
)
