// SPDX-License-Identifier: EPL-2.0

package midi

import (
	"errors"
	"fmt"
)

// Error classes shared by every package of the module. Narrower errors wrap
// one of these, so callers can test with errors.Is.
var (
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidValue     = errors.New("invalid value")
	ErrInvalidEnum      = errors.New("invalid enum")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrOutOfMemory      = errors.New("out of memory")
)

var (
	ErrUnknownKind   = fmt.Errorf("%w: unsupported event kind", ErrInvalidEnum)
	ErrChannelRange  = fmt.Errorf("%w: channel must be in 0..15", ErrInvalidValue)
	ErrParamRange    = fmt.Errorf("%w: parameter must be in 0..127", ErrInvalidValue)
	ErrSysExData     = fmt.Errorf("%w: sysex data byte has the high bit set", ErrInvalidValue)
	ErrQueueFull     = fmt.Errorf("%w: event queue limit reached", ErrOutOfMemory)
	ErrNotAnSMFEvent = errors.New("message is not a channel or sysex message")
)
