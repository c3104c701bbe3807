// Package seen translates compiled AVG32 SEEN scripts between their binary
// form and a line-oriented textual assembly, losslessly in both directions.
package seen

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Operand kinds
// ---------------------------------------------------------------------------

// Kind identifies the encoding of a single operand.
type Kind uint8

const (
	KindInt8  Kind = iota // signed 8-bit
	KindInt16             // signed 16-bit little-endian
	KindInt32             // signed 32-bit little-endian
	KindString            // inline: u16 length + raw bytes
	KindStringRef         // u16 index into the string pool
	KindJumpTarget        // u32 code-relative byte offset
	KindRawBytes          // opaque payload, length from preceding Int16
)

var kindNames = map[Kind]string{
	KindInt8:       "int8",
	KindInt16:      "int16",
	KindInt32:      "int32",
	KindString:     "string",
	KindStringRef:  "stringref",
	KindJumpTarget: "jump",
	KindRawBytes:   "raw",
}

// String implements the Stringer interface.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// KindFromName returns the Kind for a registry operand name.
func KindFromName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// fixedSize returns the encoded size of a fixed-width kind, or -1 for the
// self-describing kinds (String, RawBytes).
func (k Kind) fixedSize() int {
	switch k {
	case KindInt8:
		return 1
	case KindInt16, KindStringRef:
		return 2
	case KindInt32, KindJumpTarget:
		return 4
	}
	return -1
}

// ---------------------------------------------------------------------------
// Opcode specs
// ---------------------------------------------------------------------------

// OpcodeSpec describes one opcode: its byte, mnemonic and operand signature.
type OpcodeSpec struct {
	Byte     byte
	Mnemonic string
	Operands []Kind
	Variable bool // true if any operand is self-describing
}

// eos is the end-of-stream marker byte closing the code section. It is not
// an opcode and may never appear in a table.
const eos byte = 0x00

// Table is an immutable opcode registry, indexed by opcode byte and by
// mnemonic. Shared read-only across goroutines.
type Table struct {
	byByte [256]*OpcodeSpec
	byName map[string]*OpcodeSpec
}

// NewTable builds a table from specs. Duplicate bytes or mnemonics, use of
// the reserved end-of-stream byte, and signatures whose RawBytes operand is
// not preceded by an Int16 length are configuration errors.
func NewTable(specs []OpcodeSpec) (*Table, error) {
	t := &Table{byName: make(map[string]*OpcodeSpec, len(specs))}
	for i := range specs {
		spec := &specs[i]
		if spec.Byte == eos {
			return nil, fmt.Errorf("opcode table: byte 0x%02x is reserved for the end-of-stream marker", eos)
		}
		if t.byByte[spec.Byte] != nil {
			return nil, fmt.Errorf("opcode table: duplicate opcode byte 0x%02x", spec.Byte)
		}
		if _, ok := t.byName[spec.Mnemonic]; ok {
			return nil, fmt.Errorf("opcode table: duplicate mnemonic %q", spec.Mnemonic)
		}
		variable := false
		for j, k := range spec.Operands {
			switch k {
			case KindString:
				variable = true
			case KindRawBytes:
				if j == 0 || spec.Operands[j-1] != KindInt16 {
					return nil, fmt.Errorf("opcode table: %s: raw operand needs a preceding int16 length", spec.Mnemonic)
				}
				variable = true
			}
		}
		if variable != spec.Variable {
			return nil, fmt.Errorf("opcode table: %s: variable flag does not match signature", spec.Mnemonic)
		}
		t.byByte[spec.Byte] = spec
		t.byName[spec.Mnemonic] = spec
	}
	return t, nil
}

// Lookup returns the spec for an opcode byte.
func (t *Table) Lookup(b byte) (*OpcodeSpec, bool) {
	spec := t.byByte[b]
	return spec, spec != nil
}

// LookupMnemonic returns the spec for a mnemonic.
func (t *Table) LookupMnemonic(name string) (*OpcodeSpec, bool) {
	spec, ok := t.byName[name]
	return spec, ok
}

// Specs returns the table's specs ordered by opcode byte.
func (t *Table) Specs() []OpcodeSpec {
	out := make([]OpcodeSpec, 0, len(t.byName))
	for i := 0; i < 256; i++ {
		if t.byByte[i] != nil {
			out = append(out, *t.byByte[i])
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Builtin table
// ---------------------------------------------------------------------------

// builtinSpecs is the opcode set recovered from the engine. Signatures for
// MACRO and EXT are only partially reverse-engineered; their payloads are
// carried as opaque bytes.
var builtinSpecs = []OpcodeSpec{
	{Byte: 0x01, Mnemonic: "END"},
	{Byte: 0x02, Mnemonic: "RET"},
	{Byte: 0x03, Mnemonic: "RETV", Operands: []Kind{KindInt16}},

	{Byte: 0x10, Mnemonic: "JMP", Operands: []Kind{KindJumpTarget}},
	{Byte: 0x11, Mnemonic: "CALL", Operands: []Kind{KindJumpTarget}},
	{Byte: 0x12, Mnemonic: "JZ", Operands: []Kind{KindInt16, KindJumpTarget}},
	{Byte: 0x13, Mnemonic: "JNZ", Operands: []Kind{KindInt16, KindJumpTarget}},
	{Byte: 0x14, Mnemonic: "LOOP", Operands: []Kind{KindInt16, KindJumpTarget}},

	{Byte: 0x20, Mnemonic: "MSG", Operands: []Kind{KindStringRef}},
	{Byte: 0x21, Mnemonic: "MSGI", Operands: []Kind{KindString}, Variable: true},
	{Byte: 0x22, Mnemonic: "NAME", Operands: []Kind{KindStringRef}},
	{Byte: 0x23, Mnemonic: "CHOICE", Operands: []Kind{KindInt8, KindStringRef}},

	{Byte: 0x30, Mnemonic: "SET", Operands: []Kind{KindInt16, KindInt32}},
	{Byte: 0x31, Mnemonic: "ADD", Operands: []Kind{KindInt16, KindInt32}},
	{Byte: 0x32, Mnemonic: "SUB", Operands: []Kind{KindInt16, KindInt32}},
	{Byte: 0x33, Mnemonic: "MUL", Operands: []Kind{KindInt16, KindInt32}},
	{Byte: 0x34, Mnemonic: "DIV", Operands: []Kind{KindInt16, KindInt32}},
	{Byte: 0x35, Mnemonic: "MOD", Operands: []Kind{KindInt16, KindInt32}},
	{Byte: 0x39, Mnemonic: "CMP", Operands: []Kind{KindInt16, KindInt16}},

	{Byte: 0x40, Mnemonic: "BGM", Operands: []Kind{KindString, KindInt8}, Variable: true},
	{Byte: 0x41, Mnemonic: "BGMSTOP"},
	{Byte: 0x42, Mnemonic: "SE", Operands: []Kind{KindInt16}},
	{Byte: 0x43, Mnemonic: "KOE", Operands: []Kind{KindInt32}},
	{Byte: 0x44, Mnemonic: "WAV", Operands: []Kind{KindString, KindInt8}, Variable: true},

	{Byte: 0x50, Mnemonic: "GRP", Operands: []Kind{KindString, KindInt16}, Variable: true},
	{Byte: 0x51, Mnemonic: "GRPFX", Operands: []Kind{KindString, KindInt16, KindInt16, KindInt16, KindInt16}, Variable: true},
	{Byte: 0x52, Mnemonic: "FADE", Operands: []Kind{KindInt16, KindInt16}},

	{Byte: 0x60, Mnemonic: "WAIT", Operands: []Kind{KindInt16}},
	{Byte: 0x61, Mnemonic: "WAITKEY"},
	{Byte: 0x62, Mnemonic: "TIMER", Operands: []Kind{KindInt32}},

	{Byte: 0x70, Mnemonic: "MACRO", Operands: []Kind{KindInt16, KindRawBytes}, Variable: true},
	{Byte: 0x7F, Mnemonic: "EXT", Operands: []Kind{KindInt8, KindInt16, KindRawBytes}, Variable: true},

	{Byte: 0xFE, Mnemonic: "MARK"},
}

var builtin = func() *Table {
	t, err := NewTable(builtinSpecs)
	if err != nil {
		panic(fmt.Sprintf("seen: builtin opcode table: %v", err))
	}
	return t
}()

// Builtin returns the default opcode table.
func Builtin() *Table {
	return builtin
}
