// SPDX-License-Identifier: EPL-2.0

// Package midi holds the timed MIDI event model used by the synthesizer.
//
// An Event is a channel message (note on/off, key pressure, control change,
// program change, channel pressure, pitch bend) or a SysEx payload stamped
// with a tick time. Ticks are microseconds.
//
// Queue is the time ordered store the synthesizer drains while rendering:
//
//	q := midi.NewQueue(0)
//	ev, err := midi.NewEvent(1000, midi.NoteOn, 0, 60, 100)
//	if err != nil {
//	    return err
//	}
//	if err := q.Insert(ev); err != nil {
//	    return err
//	}
//	q.Drain(1000, func(ev midi.Event) {
//	    // dispatch
//	})
//
// Events with equal times are drained in the order they were inserted.
// Drained entries stay in the queue until an insert needs their space, so
// draining never allocates.
//
// Conversion to and from gitlab.com/gomidi/midi/v2 messages is provided by
// Event.Message and FromMessage, and ReadSMF turns a Standard MIDI File into
// events timed in synth ticks.
package midi
