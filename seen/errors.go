package seen

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------
//
// Every error here is fatal to the script being translated and is never
// silently corrected. Binary-side errors carry byte offsets, text-side
// errors carry line numbers.

// ErrBadMagic indicates the buffer does not start with the TPC32 magic.
var ErrBadMagic = errors.New("not a SEEN script: bad magic")

// UnknownOpcodeError reports an opcode byte absent from the table.
type UnknownOpcodeError struct {
	Offset int // code-relative offset of the opcode byte
	Byte   byte
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode 0x%02x at offset 0x%04x", e.Byte, e.Offset)
}

// TruncatedError reports a buffer that ended mid-instruction or mid-header.
type TruncatedError struct {
	Offset int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated instruction at offset 0x%04x", e.Offset)
}

// TrailingBytesError reports unconsumed bytes past the declared end of the
// code section, or a declared size extending past the buffer contents.
type TrailingBytesError struct {
	Count int
}

func (e *TrailingBytesError) Error() string {
	return fmt.Sprintf("%d trailing bytes after end of stream", e.Count)
}

// DanglingTargetError reports a jump target that is not the offset of any
// instruction in the same stream.
type DanglingTargetError struct {
	Offset int   // offset of the referencing instruction, -1 for the entry point
	Target int64 // the bad target offset
}

func (e *DanglingTargetError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("entry point 0x%04x is not an instruction offset", e.Target)
	}
	return fmt.Sprintf("instruction at offset 0x%04x jumps to 0x%04x, which is not an instruction offset", e.Offset, e.Target)
}

// UnresolvedLabelError reports a label reference with no matching
// declaration.
type UnresolvedLabelError struct {
	Name string
}

func (e *UnresolvedLabelError) Error() string {
	return fmt.Sprintf("unresolved label %q", e.Name)
}

// UnknownMnemonicError reports a mnemonic absent from the table.
type UnknownMnemonicError struct {
	Line  int
	Token string
}

func (e *UnknownMnemonicError) Error() string {
	return fmt.Sprintf("line %d: unknown mnemonic %q", e.Line, e.Token)
}

// OperandCountError reports an operand list whose length disagrees with the
// opcode's signature.
type OperandCountError struct {
	Line     int
	Mnemonic string
	Want     int
	Got      int
}

func (e *OperandCountError) Error() string {
	return fmt.Sprintf("line %d: %s takes %d operands, got %d", e.Line, e.Mnemonic, e.Want, e.Got)
}

// OperandParseError reports an operand token that cannot be parsed as its
// declared kind.
type OperandParseError struct {
	Line  int
	Token string
	Kind  Kind
}

func (e *OperandParseError) Error() string {
	return fmt.Sprintf("line %d: cannot parse %q as %s", e.Line, e.Token, e.Kind)
}

// MalformedHeaderError reports a preamble block whose shape does not match
// the header format.
type MalformedHeaderError struct {
	Line   int
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: malformed header: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed header: %s", e.Reason)
}
