package seen

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Wire form
// ---------------------------------------------------------------------------
//
// The wire form is a canonical CBOR rendering of a decoded script, used by
// the catalog and for structured interchange. It references opcodes by byte
// so a table is needed to rehydrate.

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("seen: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireOperand struct {
	Kind uint8  `cbor:"k"`
	Int  int64  `cbor:"i,omitempty"`
	Str  string `cbor:"s,omitempty"`
	Raw  []byte `cbor:"r,omitempty"`
}

type wireInstruction struct {
	Op       byte          `cbor:"op"`
	Operands []wireOperand `cbor:"args,omitempty"`
}

type wireScript struct {
	Version      uint16            `cbor:"version"`
	EntryPoint   uint32            `cbor:"entry"`
	CounterStart uint32            `cbor:"counter"`
	Reserved     []byte            `cbor:"reserved"`
	Strings      []string          `cbor:"strings"`
	Code         []wireInstruction `cbor:"code"`
}

// MarshalScript serializes a script to canonical CBOR. Jump operands must
// be resolved to offsets.
func MarshalScript(s *Script) ([]byte, error) {
	w := wireScript{
		Version:      s.Header.Version,
		EntryPoint:   s.Header.EntryPoint,
		CounterStart: s.Header.CounterStart,
		Reserved:     s.Header.Reserved[:],
		Strings:      s.Strings,
		Code:         make([]wireInstruction, 0, len(s.Code)),
	}
	for i := range s.Code {
		in := &s.Code[i]
		wi := wireInstruction{Op: in.Spec.Byte}
		for j := range in.Operands {
			op := &in.Operands[j]
			if op.Label != "" {
				return nil, &UnresolvedLabelError{Name: op.Label}
			}
			wi.Operands = append(wi.Operands, wireOperand{
				Kind: uint8(op.Kind), Int: op.Int, Str: op.Str, Raw: op.Raw,
			})
		}
		w.Code = append(w.Code, wi)
	}
	return cborEncMode.Marshal(&w)
}

// UnmarshalScript deserializes a script from its CBOR wire form, resolving
// opcode bytes against the given table.
func UnmarshalScript(data []byte, tab *Table) (*Script, error) {
	var w wireScript
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("seen: unmarshal script: %w", err)
	}

	var s Script
	s.Header.Version = w.Version
	s.Header.EntryPoint = w.EntryPoint
	s.Header.CounterStart = w.CounterStart
	copy(s.Header.Reserved[:], w.Reserved)
	s.Strings = w.Strings

	off := 0
	s.Code = make([]Instruction, 0, len(w.Code))
	for _, wi := range w.Code {
		spec, ok := tab.Lookup(wi.Op)
		if !ok {
			return nil, &UnknownOpcodeError{Offset: off, Byte: wi.Op}
		}
		in := Instruction{Offset: off, Spec: spec}
		for _, wo := range wi.Operands {
			in.Operands = append(in.Operands, Operand{
				Kind: Kind(wo.Kind), Int: wo.Int, Str: wo.Str, Raw: wo.Raw,
			})
		}
		off += in.EncodedLen()
		s.Code = append(s.Code, in)
	}
	return &s, nil
}
