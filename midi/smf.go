// SPDX-License-Identifier: EPL-2.0

package midi

import (
	"errors"
	"fmt"
	"io"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ReadSMF reads a Standard MIDI File and returns its channel and SysEx
// messages as events. Event times are the absolute microsecond position of
// each message plus offset. Meta and other non-channel messages are skipped.
// The returned events are in track order, not time order; inserting them in
// a Queue sorts them.
func ReadSMF(r io.Reader, offset uint64) ([]Event, error) {
	var events []Event
	var convErr error

	rd := smf.ReadTracksFrom(r).Do(func(te smf.TrackEvent) {
		if convErr != nil || te.Message.IsMeta() {
			return
		}

		ev, err := FromMessage(offset+uint64(te.AbsMicroSeconds), gomidi.Message(te.Message))
		if errors.Is(err, ErrNotAnSMFEvent) {
			return
		}
		if err != nil {
			convErr = fmt.Errorf("track %d: %w", te.TrackNo, err)
			return
		}
		events = append(events, ev)
	})

	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if convErr != nil {
		return nil, convErr
	}

	return events, nil
}
