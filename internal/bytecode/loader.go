package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// PullReader is the byte source the loader consumes: each call
// returns up to sizeHint bytes, or a zero-length slice to signal
// end-of-stream. At least one byte is returned on every call that is
// not end-of-stream.
type PullReader interface {
	Read(sizeHint int) []byte
}

// SliceReader adapts a single in-memory buffer to PullReader, for
// tests and for loading an already-assembled program.
type SliceReader struct {
	buf []byte
}

func NewSliceReader(buf []byte) *SliceReader { return &SliceReader{buf: buf} }

func (r *SliceReader) Read(sizeHint int) []byte {
	if len(r.buf) == 0 {
		return nil
	}
	n := sizeHint
	if n > len(r.buf) || n <= 0 {
		n = len(r.buf)
	}
	chunk := r.buf[:n]
	r.buf = r.buf[n:]
	return chunk
}

// frameReader translates PullReader's chunked delivery into
// exact-N-byte reads, copying across chunk boundaries as needed.
type frameReader struct {
	src PullReader
	buf []byte
}

func (f *frameReader) readExact(n int) ([]byte, error) {
	for len(f.buf) < n {
		chunk := f.src.Read(n - len(f.buf))
		if len(chunk) == 0 {
			return nil, io.ErrUnexpectedEOF
		}
		f.buf = append(f.buf, chunk...)
	}
	out := f.buf[:n:n]
	f.buf = f.buf[n:]
	return out, nil
}

func (f *frameReader) u8() (uint8, error) {
	b, err := f.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (f *frameReader) u16() (uint16, error) {
	b, err := f.readExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (f *frameReader) i16() (int16, error) {
	u, err := f.u16()
	return int16(u), err
}

func (f *frameReader) u32() (uint32, error) {
	b, err := f.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (f *frameReader) f64() (float64, error) {
	b, err := f.readExact(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

var signature = [4]byte{0x1B, 's', 'u', 'c'}

const (
	formatMajor = 0
	formatMinor = 0
)

// Load reads a full program (header + root prototype) from r. Any
// mismatch — bad signature, unsupported version, non-zero flags, or a
// short read — aborts and returns a non-nil error without installing
// a partial program, per §4.6/§7.
func Load(r PullReader) (*Prototype, error) {
	f := &frameReader{src: r}

	sig, err := f.readExact(4)
	if err != nil {
		return nil, fmt.Errorf("bytecode: truncated header: %w", err)
	}
	if sig[0] != signature[0] || sig[1] != signature[1] || sig[2] != signature[2] || sig[3] != signature[3] {
		return nil, fmt.Errorf("bytecode: bad signature")
	}

	major, err := f.u8()
	if err != nil {
		return nil, fmt.Errorf("bytecode: truncated header: %w", err)
	}
	minor, err := f.u8()
	if err != nil {
		return nil, fmt.Errorf("bytecode: truncated header: %w", err)
	}
	if major != formatMajor || minor != formatMinor {
		return nil, fmt.Errorf("bytecode: unsupported version %d.%d", major, minor)
	}

	flags, err := f.u16()
	if err != nil {
		return nil, fmt.Errorf("bytecode: truncated header: %w", err)
	}
	if flags != 0 {
		return nil, fmt.Errorf("bytecode: unsupported flags 0x%04x", flags)
	}

	return readPrototype(f)
}

func readPrototype(f *frameReader) (*Prototype, error) {
	p := &Prototype{}

	numInst, err := f.u32()
	if err != nil {
		return nil, err
	}
	p.Instructions = make([]Instruction, numInst)
	for i := range p.Instructions {
		op, err := f.u8()
		if err != nil {
			return nil, err
		}
		a, err := f.u8()
		if err != nil {
			return nil, err
		}
		b, err := f.i16()
		if err != nil {
			return nil, err
		}
		p.Instructions[i] = Instruction{Op: Op(op), A: a, B: b}
	}

	numConst, err := f.u32()
	if err != nil {
		return nil, err
	}
	p.Constants = make([]Constant, numConst)
	for i := range p.Constants {
		tag, err := f.u8()
		if err != nil {
			return nil, err
		}
		switch ConstKind(tag) {
		case ConstNil, ConstTrue, ConstFalse:
			p.Constants[i] = Constant{Kind: ConstKind(tag)}
		case ConstNumber:
			n, err := f.f64()
			if err != nil {
				return nil, err
			}
			p.Constants[i] = Constant{Kind: ConstNumber, Number: n}
		case ConstString:
			size, err := f.u32()
			if err != nil {
				return nil, err
			}
			bs, err := f.readExact(int(size))
			if err != nil {
				return nil, err
			}
			p.Constants[i] = Constant{Kind: ConstString, Bytes: bs}
		default:
			return nil, fmt.Errorf("bytecode: bad constant tag %d", tag)
		}
	}

	numUp, err := f.u32()
	if err != nil {
		return nil, err
	}
	p.Upvalues = make([]UpvalueDesc, numUp)
	for i := range p.Upvalues {
		level, err := f.u16()
		if err != nil {
			return nil, err
		}
		index, err := f.u16()
		if err != nil {
			return nil, err
		}
		p.Upvalues[i] = UpvalueDesc{Level: level, Index: index}
	}

	numSub, err := f.u32()
	if err != nil {
		return nil, err
	}
	p.SubProtos = make([]*Prototype, numSub)
	for i := range p.SubProtos {
		sub, err := readPrototype(f)
		if err != nil {
			return nil, err
		}
		p.SubProtos[i] = sub
	}

	nameSize, err := f.u32()
	if err != nil {
		return nil, err
	}
	nameBytes, err := f.readExact(int(nameSize))
	if err != nil {
		return nil, err
	}
	// nameSize includes the terminating NUL; strip it for the
	// in-memory form.
	if len(nameBytes) > 0 && nameBytes[len(nameBytes)-1] == 0 {
		nameBytes = nameBytes[:len(nameBytes)-1]
	}
	p.Name = string(nameBytes)

	numLine, err := f.u32()
	if err != nil {
		return nil, err
	}
	p.LineInfo = make([]uint32, numLine)
	for i := range p.LineInfo {
		v, err := f.u32()
		if err != nil {
			return nil, err
		}
		p.LineInfo[i] = v
	}

	return p, nil
}
