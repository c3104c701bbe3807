package seen

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// Encode serializes a script back to its binary form. Instruction offsets
// are assigned in a single forward pass; the stored Offset fields are
// overwritten. Encoding a script produced by Decode reproduces the original
// buffer byte for byte.
//
// All jump targets must already be concrete offsets; a leftover label
// reference is an UnresolvedLabelError.
func Encode(s *Script) ([]byte, error) {
	if err := layout(s); err != nil {
		return nil, err
	}
	if err := checkTargets(s); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Grow(HeaderSize + s.CodeLen())

	out.Write(Magic[:])
	writeUint16(&out, s.Header.Version)
	writeUint32(&out, s.Header.EntryPoint)
	writeUint32(&out, s.Header.CounterStart)
	writeUint32(&out, uint32(len(s.Strings)))
	writeUint32(&out, uint32(s.CodeLen()))
	out.Write(s.Header.Reserved[:])

	for i, str := range s.Strings {
		if strings.IndexByte(str, 0) >= 0 {
			return nil, fmt.Errorf("string pool entry %d contains a NUL byte", i)
		}
		out.WriteString(str)
		out.WriteByte(0)
	}

	for i := range s.Code {
		if err := encodeInstruction(&out, &s.Code[i]); err != nil {
			return nil, err
		}
	}
	out.WriteByte(eos)

	return out.Bytes(), nil
}

// layout assigns sequential code-relative offsets to every instruction.
func layout(s *Script) error {
	off := 0
	for i := range s.Code {
		in := &s.Code[i]
		for j := range in.Operands {
			op := &in.Operands[j]
			if op.Kind == KindJumpTarget && op.Label != "" {
				return &UnresolvedLabelError{Name: op.Label}
			}
			if op.Kind == KindString && len(op.Str) > math.MaxUint16 {
				return fmt.Errorf("%s at offset 0x%04x: inline string of %d bytes exceeds the u16 length prefix",
					in.Spec.Mnemonic, off, len(op.Str))
			}
			if op.Kind == KindRawBytes {
				// The preceding int16 operand carries the payload length on
				// the wire; the two must agree.
				if j == 0 || in.Operands[j-1].Int != int64(len(op.Raw)) {
					return fmt.Errorf("%s at offset 0x%04x: raw payload length %d disagrees with its length operand",
						in.Spec.Mnemonic, off, len(op.Raw))
				}
				if len(op.Raw) > math.MaxInt16 {
					return fmt.Errorf("%s at offset 0x%04x: raw payload of %d bytes exceeds its int16 length operand",
						in.Spec.Mnemonic, off, len(op.Raw))
				}
			}
		}
		in.Offset = off
		off += in.EncodedLen()
	}
	return nil
}

func encodeInstruction(out *bytes.Buffer, in *Instruction) error {
	out.WriteByte(in.Spec.Byte)
	if len(in.Operands) != len(in.Spec.Operands) {
		return fmt.Errorf("%s at offset 0x%04x: %d operands, signature has %d",
			in.Spec.Mnemonic, in.Offset, len(in.Operands), len(in.Spec.Operands))
	}
	for i := range in.Operands {
		op := &in.Operands[i]
		if op.Kind != in.Spec.Operands[i] {
			return fmt.Errorf("%s at offset 0x%04x: operand %d is %s, signature says %s",
				in.Spec.Mnemonic, in.Offset, i, op.Kind, in.Spec.Operands[i])
		}
		switch op.Kind {
		case KindInt8:
			out.WriteByte(byte(int8(op.Int)))
		case KindInt16:
			writeUint16(out, uint16(int16(op.Int)))
		case KindInt32:
			writeUint32(out, uint32(int32(op.Int)))
		case KindStringRef:
			writeUint16(out, uint16(op.Int))
		case KindJumpTarget:
			writeUint32(out, uint32(op.Int))
		case KindString:
			writeUint16(out, uint16(len(op.Str)))
			out.WriteString(op.Str)
		case KindRawBytes:
			out.Write(op.Raw)
		}
	}
	return nil
}

func writeUint16(out *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	out.Write(b[:])
}

func writeUint32(out *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	out.Write(b[:])
}
