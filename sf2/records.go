// SPDX-License-Identifier: EPL-2.0

package sf2

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// On-disk record sizes of the pdta tables.
const (
	presetHeaderSize = 38
	bagSize          = 4
	modSize          = 10
	genSize          = 4
	instHeaderSize   = 22
	sampleHeaderSize = 46
)

const nameSize = 20

// sampleROM marks a sample header whose data lives in a ROM.
const sampleROM = 0x8000

type presetHeader struct {
	Name       string
	Preset     uint16
	Bank       uint16
	ZoneIdx    uint16
	Library    uint32
	Genre      uint32
	Morphology uint32
}

type bag struct {
	GenIdx uint16
	ModIdx uint16
}

type modulator struct {
	SrcOp    uint16
	DstOp    uint16
	Amount   int16
	AmtSrcOp uint16
	TransOp  uint16
}

type generator struct {
	ID     uint16
	Amount uint16
}

// Value returns the amount as a signed 16-bit value.
func (g generator) Value() int { return int(int16(g.Amount)) }

// Range returns the amount as a low/high byte pair.
func (g generator) Range() (lo, hi int) { return int(g.Amount & 0xff), int(g.Amount >> 8) }

type instHeader struct {
	Name    string
	ZoneIdx uint16
}

type sampleHeader struct {
	Name        string
	Start       uint32
	End         uint32
	LoopStart   uint32
	LoopEnd     uint32
	SampleRate  uint32
	OriginalKey uint8
	Correction  int8
	SampleLink  uint16
	SampleType  uint16
}

var le = binary.LittleEndian

func decodeName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func decodePresetHeader(b []byte) presetHeader {
	return presetHeader{
		Name:       decodeName(b[:nameSize]),
		Preset:     le.Uint16(b[20:]),
		Bank:       le.Uint16(b[22:]),
		ZoneIdx:    le.Uint16(b[24:]),
		Library:    le.Uint32(b[26:]),
		Genre:      le.Uint32(b[30:]),
		Morphology: le.Uint32(b[34:]),
	}
}

func decodeBag(b []byte) bag {
	return bag{GenIdx: le.Uint16(b), ModIdx: le.Uint16(b[2:])}
}

func decodeModulator(b []byte) modulator {
	return modulator{
		SrcOp:    le.Uint16(b),
		DstOp:    le.Uint16(b[2:]),
		Amount:   int16(le.Uint16(b[4:])),
		AmtSrcOp: le.Uint16(b[6:]),
		TransOp:  le.Uint16(b[8:]),
	}
}

func decodeGenerator(b []byte) generator {
	return generator{ID: le.Uint16(b), Amount: le.Uint16(b[2:])}
}

func decodeInstHeader(b []byte) instHeader {
	return instHeader{Name: decodeName(b[:nameSize]), ZoneIdx: le.Uint16(b[20:])}
}

func decodeSampleHeader(b []byte) sampleHeader {
	return sampleHeader{
		Name:        decodeName(b[:nameSize]),
		Start:       le.Uint32(b[20:]),
		End:         le.Uint32(b[24:]),
		LoopStart:   le.Uint32(b[28:]),
		LoopEnd:     le.Uint32(b[32:]),
		SampleRate:  le.Uint32(b[36:]),
		OriginalKey: b[40],
		Correction:  int8(b[41]),
		SampleLink:  le.Uint16(b[42:]),
		SampleType:  le.Uint16(b[44:]),
	}
}

// decodeTable splits data into records of size bytes. The data must hold at
// least one record and no partial one.
func decodeTable[T any](id string, data []byte, size int, decode func([]byte) T) ([]T, error) {
	if len(data) == 0 || len(data)%size != 0 {
		return nil, fmt.Errorf("%w: %s is %d bytes, want a positive multiple of %d", ErrChunkSize, id, len(data), size)
	}

	out := make([]T, len(data)/size)
	for i := range out {
		out[i] = decode(data[i*size : (i+1)*size])
	}
	return out, nil
}

// decodeSamples converts little-endian 16-bit sample data.
func decodeSamples(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(le.Uint16(data[2*i:]))
	}
	return out
}

func appendName(dst []byte, name string) []byte {
	var b [nameSize]byte
	copy(b[:nameSize-1], name)
	return append(dst, b[:]...)
}

func (h presetHeader) appendTo(dst []byte) []byte {
	dst = appendName(dst, h.Name)
	dst = le.AppendUint16(dst, h.Preset)
	dst = le.AppendUint16(dst, h.Bank)
	dst = le.AppendUint16(dst, h.ZoneIdx)
	dst = le.AppendUint32(dst, h.Library)
	dst = le.AppendUint32(dst, h.Genre)
	return le.AppendUint32(dst, h.Morphology)
}

func (b bag) appendTo(dst []byte) []byte {
	dst = le.AppendUint16(dst, b.GenIdx)
	return le.AppendUint16(dst, b.ModIdx)
}

func (m modulator) appendTo(dst []byte) []byte {
	dst = le.AppendUint16(dst, m.SrcOp)
	dst = le.AppendUint16(dst, m.DstOp)
	dst = le.AppendUint16(dst, uint16(m.Amount))
	dst = le.AppendUint16(dst, m.AmtSrcOp)
	return le.AppendUint16(dst, m.TransOp)
}

func (g generator) appendTo(dst []byte) []byte {
	dst = le.AppendUint16(dst, g.ID)
	return le.AppendUint16(dst, g.Amount)
}

func (h instHeader) appendTo(dst []byte) []byte {
	dst = appendName(dst, h.Name)
	return le.AppendUint16(dst, h.ZoneIdx)
}

func (h sampleHeader) appendTo(dst []byte) []byte {
	dst = appendName(dst, h.Name)
	dst = le.AppendUint32(dst, h.Start)
	dst = le.AppendUint32(dst, h.End)
	dst = le.AppendUint32(dst, h.LoopStart)
	dst = le.AppendUint32(dst, h.LoopEnd)
	dst = le.AppendUint32(dst, h.SampleRate)
	dst = append(dst, h.OriginalKey, byte(h.Correction))
	dst = le.AppendUint16(dst, h.SampleLink)
	return le.AppendUint16(dst, h.SampleType)
}
