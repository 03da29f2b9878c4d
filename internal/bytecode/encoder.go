package bytecode

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Encode serializes p into the wire format described in §4.6,
// mirroring the reference encoder (writebin.c) field for field. There
// is no compiler in this module — Encode exists solely so the
// round-trip testable property (load(serialize(p)) == p) can be
// checked without a second, independently-written implementation of
// the format drifting out of sync.
func Encode(p *Prototype) []byte {
	var buf bytes.Buffer
	buf.Write(signature[:])
	buf.WriteByte(formatMajor)
	buf.WriteByte(formatMinor)
	writeU16(&buf, 0)
	encodePrototype(&buf, p)
	return buf.Bytes()
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeI16(buf *bytes.Buffer, v int16) { writeU16(buf, uint16(v)) }

func writeF64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func encodePrototype(buf *bytes.Buffer, p *Prototype) {
	writeU32(buf, uint32(len(p.Instructions)))
	for _, in := range p.Instructions {
		buf.WriteByte(byte(in.Op))
		buf.WriteByte(in.A)
		writeI16(buf, in.B)
	}

	writeU32(buf, uint32(len(p.Constants)))
	for _, c := range p.Constants {
		buf.WriteByte(byte(c.Kind))
		switch c.Kind {
		case ConstNumber:
			writeF64(buf, c.Number)
		case ConstString:
			writeU32(buf, uint32(len(c.Bytes)))
			buf.Write(c.Bytes)
		}
	}

	writeU32(buf, uint32(len(p.Upvalues)))
	for _, u := range p.Upvalues {
		writeU16(buf, u.Level)
		writeU16(buf, u.Index)
	}

	writeU32(buf, uint32(len(p.SubProtos)))
	for _, sub := range p.SubProtos {
		encodePrototype(buf, sub)
	}

	name := append([]byte(p.Name), 0)
	writeU32(buf, uint32(len(name)))
	buf.Write(name)

	writeU32(buf, uint32(len(p.LineInfo)))
	for _, l := range p.LineInfo {
		writeU32(buf, l)
	}
}
