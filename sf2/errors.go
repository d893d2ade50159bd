// SPDX-License-Identifier: EPL-2.0

package sf2

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every structural error returned from Load.
var ErrMalformed = errors.New("malformed sf2 file")

var (
	ErrNotRIFF       = fmt.Errorf("%w: not a RIFF file", ErrMalformed)
	ErrNotSoundfont  = fmt.Errorf("%w: RIFF form is not sfbk", ErrMalformed)
	ErrChunkOrder    = fmt.Errorf("%w: unexpected chunk", ErrMalformed)
	ErrChunkSize     = fmt.Errorf("%w: invalid chunk size", ErrMalformed)
	ErrTruncated     = fmt.Errorf("%w: unexpected end of data", ErrMalformed)
	ErrMissingIfil   = fmt.Errorf("%w: missing ifil sub-chunk", ErrMalformed)
	ErrVersion       = fmt.Errorf("%w: unsupported format version", ErrMalformed)
	ErrZoneIndex     = fmt.Errorf("%w: invalid zone index", ErrMalformed)
	ErrGenIndex      = fmt.Errorf("%w: invalid generator index", ErrMalformed)
	ErrModIndex      = fmt.Errorf("%w: invalid modulator index", ErrMalformed)
	ErrMissingROM    = fmt.Errorf("%w: ROM sample without an irom sub-chunk", ErrMalformed)
	ErrTooLarge      = errors.New("too many records for sf2 indices")
	ErrNothingToSave = errors.New("no presets to encode")
)
