// SPDX-License-Identifier: EPL-2.0

package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Kind is the status nibble of a channel message, or SysEx.
type Kind uint8

const (
	NoteOff         Kind = 0x80
	NoteOn          Kind = 0x90
	KeyPressure     Kind = 0xA0
	ControlChange   Kind = 0xB0
	ProgramChange   Kind = 0xC0
	ChannelPressure Kind = 0xD0
	PitchBend       Kind = 0xE0
	SysEx           Kind = 0xF0
)

// NumChannels is the number of MIDI channels.
const NumChannels = 16

func (k Kind) String() string {
	switch k {
	case NoteOff:
		return "NoteOff"
	case NoteOn:
		return "NoteOn"
	case KeyPressure:
		return "KeyPressure"
	case ControlChange:
		return "ControlChange"
	case ProgramChange:
		return "ProgramChange"
	case ChannelPressure:
		return "ChannelPressure"
	case PitchBend:
		return "PitchBend"
	case SysEx:
		return "SysEx"
	}
	return "Unknown"
}

// IsChannel reports whether k is one of the seven channel message kinds.
func (k Kind) IsChannel() bool {
	switch k {
	case NoteOff, NoteOn, KeyPressure, ControlChange, ProgramChange, ChannelPressure, PitchBend:
		return true
	}
	return false
}

// Event is one queued MIDI message. Data is only set for SysEx and is owned
// by the event.
type Event struct {
	Time    uint64
	Kind    Kind
	Channel uint8
	Param1  uint8
	Param2  uint8
	Data    []byte
}

// NewEvent validates and builds a channel message event.
func NewEvent(time uint64, kind Kind, channel, param1, param2 int) (Event, error) {
	if !kind.IsChannel() {
		return Event{}, ErrUnknownKind
	}
	if channel < 0 || channel >= NumChannels {
		return Event{}, ErrChannelRange
	}
	if param1 < 0 || param1 > 127 || param2 < 0 || param2 > 127 {
		return Event{}, ErrParamRange
	}

	return Event{
		Time:    time,
		Kind:    kind,
		Channel: uint8(channel),
		Param1:  uint8(param1),
		Param2:  uint8(param2),
	}, nil
}

// NewSysExEvent copies data into a SysEx event. data excludes the F0/F7
// framing bytes.
func NewSysExEvent(time uint64, data []byte) (Event, error) {
	for _, b := range data {
		if b&0x80 != 0 {
			return Event{}, ErrSysExData
		}
	}

	payload := make([]byte, len(data))
	copy(payload, data)

	return Event{Time: time, Kind: SysEx, Data: payload}, nil
}

// Validate checks e against the same rules as NewEvent and NewSysExEvent.
func (e Event) Validate() error {
	if e.Kind == SysEx {
		for _, b := range e.Data {
			if b&0x80 != 0 {
				return ErrSysExData
			}
		}
		return nil
	}
	_, err := NewEvent(e.Time, e.Kind, int(e.Channel), int(e.Param1), int(e.Param2))
	return err
}

// PitchBendValue returns the 14-bit pitch wheel position of a PitchBend event.
func (e Event) PitchBendValue() uint16 {
	return uint16(e.Param1&0x7F) | uint16(e.Param2&0x7F)<<7
}

// Message converts the event to a gomidi message.
func (e Event) Message() gomidi.Message {
	ch := e.Channel
	switch e.Kind {
	case NoteOff:
		return gomidi.NoteOffVelocity(ch, e.Param1, e.Param2)
	case NoteOn:
		return gomidi.NoteOn(ch, e.Param1, e.Param2)
	case KeyPressure:
		return gomidi.PolyAfterTouch(ch, e.Param1, e.Param2)
	case ControlChange:
		return gomidi.ControlChange(ch, e.Param1, e.Param2)
	case ProgramChange:
		return gomidi.ProgramChange(ch, e.Param1)
	case ChannelPressure:
		return gomidi.AfterTouch(ch, e.Param1)
	case PitchBend:
		return gomidi.Pitchbend(ch, int16(e.PitchBendValue())-8192)
	case SysEx:
		return gomidi.SysEx(e.Data)
	}
	return nil
}

// FromMessage converts a gomidi channel or SysEx message into an Event at
// the given time. Realtime, system common and meta messages are rejected.
func FromMessage(time uint64, msg gomidi.Message) (Event, error) {
	var data []byte
	if msg.GetSysEx(&data) {
		return NewSysExEvent(time, data)
	}
	if len(msg) < 2 {
		return Event{}, ErrNotAnSMFEvent
	}

	kind := Kind(msg[0] & 0xF0)
	if !kind.IsChannel() {
		return Event{}, ErrNotAnSMFEvent
	}

	var p2 byte
	if len(msg) > 2 {
		p2 = msg[2]
	}

	return NewEvent(time, kind, int(msg[0]&0x0F), int(msg[1]), int(p2))
}
