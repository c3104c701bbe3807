package seen

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestEncodeRejectsUnresolvedLabel(t *testing.T) {
	s := &Script{
		Code: []Instruction{
			{Spec: mustSpec(t, "JMP"), Operands: []Operand{{Kind: KindJumpTarget, Label: "pending"}}},
		},
	}
	_, err := Encode(s)
	var ue *UnresolvedLabelError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want UnresolvedLabelError", err)
	}
}

func TestEncodeRejectsNULInPoolString(t *testing.T) {
	s := &Script{
		Strings: []string{"bad\x00string"},
		Code:    []Instruction{{Spec: mustSpec(t, "END")}},
	}
	_, err := Encode(s)
	if err == nil || !strings.Contains(err.Error(), "NUL") {
		t.Errorf("err = %v, want NUL rejection", err)
	}
}

func TestEncodeRejectsRawLengthMismatch(t *testing.T) {
	s := &Script{
		Code: []Instruction{
			{Spec: mustSpec(t, "MACRO"), Operands: []Operand{
				{Kind: KindInt16, Int: 3},
				{Kind: KindRawBytes, Raw: []byte{0xde}},
			}},
			{Spec: mustSpec(t, "END")},
		},
	}
	_, err := Encode(s)
	if err == nil || !strings.Contains(err.Error(), "disagrees") {
		t.Errorf("err = %v, want length disagreement", err)
	}
}

func TestEncodeRejectsOversizedInlineString(t *testing.T) {
	// A string longer than the u16 length prefix can describe must be
	// rejected outright: writing it would truncate the length while still
	// emitting every byte, producing a binary that decodes to different
	// content.
	s := &Script{
		Code: []Instruction{
			{Spec: mustSpec(t, "MSGI"), Operands: []Operand{
				{Kind: KindString, Str: strings.Repeat("x", 65540)},
			}},
			{Spec: mustSpec(t, "END")},
		},
	}
	_, err := Encode(s)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("err = %v, want length prefix rejection", err)
	}

	// One byte under the limit still encodes and survives a round trip.
	s.Code[0].Operands[0].Str = strings.Repeat("x", 65535)
	bin, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(bin, Builtin())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := back.Code[0].Operands[0].Str; len(got) != 65535 {
		t.Errorf("string came back with len %d, want 65535", len(got))
	}
}

func TestEncodeRejectsOversizedRawPayload(t *testing.T) {
	// Same corruption path as oversized strings: a raw payload too large for
	// its int16 length operand, even when the two agree.
	raw := bytes.Repeat([]byte{0xde}, 40000)
	s := &Script{
		Code: []Instruction{
			{Spec: mustSpec(t, "MACRO"), Operands: []Operand{
				{Kind: KindInt16, Int: int64(len(raw))},
				{Kind: KindRawBytes, Raw: raw},
			}},
			{Spec: mustSpec(t, "END")},
		},
	}
	_, err := Encode(s)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("err = %v, want length operand rejection", err)
	}
}

func TestEncodeRejectsDanglingTarget(t *testing.T) {
	s := &Script{
		Code: []Instruction{
			{Spec: mustSpec(t, "JMP"), Operands: []Operand{{Kind: KindJumpTarget, Int: 3}}},
			{Spec: mustSpec(t, "END")},
		},
	}
	_, err := Encode(s)
	var de *DanglingTargetError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DanglingTargetError", err)
	}
}

func TestEncodeAssignsOffsets(t *testing.T) {
	s := &Script{
		Code: []Instruction{
			{Offset: 99, Spec: mustSpec(t, "MSG"), Operands: []Operand{{Kind: KindStringRef, Int: 0}}},
			{Offset: 99, Spec: mustSpec(t, "END")},
		},
		Strings: []string{"x"},
	}
	if _, err := Encode(s); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if s.Code[0].Offset != 0 || s.Code[1].Offset != 3 {
		t.Errorf("offsets = %d, %d, want 0, 3", s.Code[0].Offset, s.Code[1].Offset)
	}
}
