package seen

import (
	"bytes"
	"encoding/binary"
)

// ---------------------------------------------------------------------------
// Code reader
// ---------------------------------------------------------------------------

// reader is a bounds-checked cursor over the code section. Offsets are
// code-relative and 0-based.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, &TruncatedError{Offset: r.pos}
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readUint16() (uint16, error) {
	if r.pos+2 > len(r.buf) {
		return 0, &TruncatedError{Offset: r.pos}
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) readUint32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, &TruncatedError{Offset: r.pos}
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, &TruncatedError{Offset: r.pos}
	}
	b := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// Decode parses a complete SEEN script buffer: fixed header, string pool,
// then the instruction stream up to its end-of-stream marker. It is a pure
// function of the buffer; the table is consulted read-only.
//
// The whole buffer must be consumed: a code section shorter or longer than
// its declared size is a TrailingBytesError or TruncatedError, never
// ignored.
func Decode(buf []byte, tab *Table) (*Script, error) {
	if len(buf) < HeaderSize {
		return nil, &TruncatedError{Offset: len(buf)}
	}
	if !bytes.Equal(buf[:len(Magic)], Magic[:]) {
		return nil, ErrBadMagic
	}

	var s Script
	s.Header.Version = binary.LittleEndian.Uint16(buf[6:])
	s.Header.EntryPoint = binary.LittleEndian.Uint32(buf[8:])
	s.Header.CounterStart = binary.LittleEndian.Uint32(buf[12:])
	stringCount := binary.LittleEndian.Uint32(buf[16:])
	codeSize := binary.LittleEndian.Uint32(buf[20:])
	copy(s.Header.Reserved[:], buf[24:32])

	pos := HeaderSize
	// Each pool entry occupies at least its NUL terminator, so a count
	// exceeding the remaining bytes cannot be satisfied.
	if int64(stringCount) > int64(len(buf)-pos) {
		return nil, &TruncatedError{Offset: pos}
	}
	s.Strings = make([]string, 0, stringCount)
	for i := uint32(0); i < stringCount; i++ {
		end := bytes.IndexByte(buf[pos:], 0)
		if end < 0 {
			return nil, &TruncatedError{Offset: pos}
		}
		s.Strings = append(s.Strings, string(buf[pos:pos+end]))
		pos += end + 1
	}

	if int64(pos)+int64(codeSize) > int64(len(buf)) {
		return nil, &TruncatedError{Offset: len(buf)}
	}
	if extra := len(buf) - pos - int(codeSize); extra > 0 {
		return nil, &TrailingBytesError{Count: extra}
	}

	code, err := decodeCode(buf[pos:], tab)
	if err != nil {
		return nil, err
	}
	s.Code = code

	if err := checkTargets(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// decodeCode decodes the instruction stream, including its end-of-stream
// marker, consuming the slice exactly.
func decodeCode(code []byte, tab *Table) ([]Instruction, error) {
	r := &reader{buf: code}
	var instrs []Instruction

	for {
		off := r.pos
		b, err := r.readByte()
		if err != nil {
			return nil, err
		}
		if b == eos {
			if n := r.remaining(); n > 0 {
				return nil, &TrailingBytesError{Count: n}
			}
			return instrs, nil
		}

		spec, ok := tab.Lookup(b)
		if !ok {
			return nil, &UnknownOpcodeError{Offset: off, Byte: b}
		}

		operands := make([]Operand, 0, len(spec.Operands))
		prevInt := int64(-1) // length source for a following RawBytes operand
		for _, kind := range spec.Operands {
			op, err := decodeOperand(r, kind, prevInt)
			if err != nil {
				return nil, err
			}
			if kind == KindInt16 {
				prevInt = op.Int
			}
			operands = append(operands, op)
		}

		instrs = append(instrs, Instruction{Offset: off, Spec: spec, Operands: operands})
	}
}

func decodeOperand(r *reader, kind Kind, prevInt int64) (Operand, error) {
	op := Operand{Kind: kind}
	switch kind {
	case KindInt8:
		b, err := r.readByte()
		if err != nil {
			return op, err
		}
		op.Int = int64(int8(b))
	case KindInt16:
		v, err := r.readUint16()
		if err != nil {
			return op, err
		}
		op.Int = int64(int16(v))
	case KindInt32:
		v, err := r.readUint32()
		if err != nil {
			return op, err
		}
		op.Int = int64(int32(v))
	case KindStringRef:
		v, err := r.readUint16()
		if err != nil {
			return op, err
		}
		op.Int = int64(v)
	case KindJumpTarget:
		v, err := r.readUint32()
		if err != nil {
			return op, err
		}
		op.Int = int64(v)
	case KindString:
		n, err := r.readUint16()
		if err != nil {
			return op, err
		}
		b, err := r.readBytes(int(n))
		if err != nil {
			return op, err
		}
		op.Str = string(b)
	case KindRawBytes:
		b, err := r.readBytes(int(prevInt))
		if err != nil {
			return op, err
		}
		op.Raw = b
	}
	return op, nil
}

// checkTargets enforces that every jump target, and the header entry point,
// lands exactly on an instruction offset.
func checkTargets(s *Script) error {
	valid := s.offsets()
	if _, ok := valid[int(s.Header.EntryPoint)]; !ok {
		return &DanglingTargetError{Offset: -1, Target: int64(s.Header.EntryPoint)}
	}
	for i := range s.Code {
		in := &s.Code[i]
		for j := range in.Operands {
			op := &in.Operands[j]
			if op.Kind != KindJumpTarget {
				continue
			}
			if _, ok := valid[int(op.Int)]; !ok {
				return &DanglingTargetError{Offset: in.Offset, Target: op.Int}
			}
		}
	}
	return nil
}
