// SPDX-License-Identifier: EPL-2.0

package midi

import (
	"bytes"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func buildSMF(t *testing.T) []byte {
	t.Helper()

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)

	var track smf.Track
	track.Add(0, smf.MetaTempo(120))
	track.Add(0, gomidi.NoteOn(0, 60, 100))
	track.Add(960, gomidi.NoteOff(0, 60))
	track.Close(0)

	if err := s.Add(track); err != nil {
		t.Fatalf("Add() error = %v, want nil", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v, want nil", err)
	}
	return buf.Bytes()
}

func TestReadSMF(t *testing.T) {
	t.Parallel()

	events, err := ReadSMF(bytes.NewReader(buildSMF(t)), 1000)
	if err != nil {
		t.Fatalf("ReadSMF() error = %v, want nil", err)
	}
	if len(events) != 2 {
		t.Fatalf("ReadSMF() returned %d events, want 2", len(events))
	}

	if events[0].Kind != NoteOn || events[0].Time != 1000 {
		t.Errorf("events[0] = %+v, want NoteOn at 1000", events[0])
	}
	// One quarter note at 120 BPM is half a second.
	if events[1].Time != 1000+500000 {
		t.Errorf("events[1].Time = %d, want %d", events[1].Time, 1000+500000)
	}
	if events[1].Kind != NoteOff && !(events[1].Kind == NoteOn && events[1].Param2 == 0) {
		t.Errorf("events[1] = %+v, want a note release", events[1])
	}
}
