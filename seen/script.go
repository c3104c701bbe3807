package seen

// ---------------------------------------------------------------------------
// Script model
// ---------------------------------------------------------------------------

// Magic identifies a SEEN script. The trailing NUL is part of the on-disk
// form.
var Magic = [6]byte{'T', 'P', 'C', '3', '2', 0}

// HeaderSize is the fixed header size in bytes:
// magic(6) + version(2) + entryPoint(4) + counterStart(4) +
// stringCount(4) + codeSize(4) + reserved(8) = 32.
const HeaderSize = 32

// Header is the fixed-size script header. stringCount and codeSize are
// derived from content on encode and therefore not stored here.
type Header struct {
	Version      uint16
	EntryPoint   uint32 // code-relative byte offset
	CounterStart uint32
	Reserved     [8]byte // opaque, copied through unmodified
}

// Operand is one decoded operand. A JumpTarget operand holds either a raw
// code offset in Int or, transiently during disassembly/assembly, a label
// name in Label, never both.
type Operand struct {
	Kind  Kind
	Int   int64  // Int8/Int16/Int32 value, StringRef index, JumpTarget offset
	Str   string // KindString payload
	Raw   []byte // KindRawBytes payload
	Label string // KindJumpTarget symbolic form; empty once resolved
}

// encodedLen returns the operand's size in the binary form.
func (o *Operand) encodedLen() int {
	switch o.Kind {
	case KindString:
		return 2 + len(o.Str)
	case KindRawBytes:
		return len(o.Raw)
	default:
		return o.Kind.fixedSize()
	}
}

// Instruction is one decoded instruction. Offset is code-relative and
// 0-based; instructions appear in stream order with no gaps or overlaps.
type Instruction struct {
	Offset   int
	Spec     *OpcodeSpec
	Operands []Operand
}

// EncodedLen returns the instruction's size in the binary form, including
// the opcode byte.
func (in *Instruction) EncodedLen() int {
	n := 1
	for i := range in.Operands {
		n += in.Operands[i].encodedLen()
	}
	return n
}

// Script is the unit of translation: one SEEN program with its header,
// string pool and instruction stream. A Script owns its contents
// exclusively; nothing is shared across scripts.
type Script struct {
	Header  Header
	Strings []string // pool, indexed by position
	Code    []Instruction
}

// CodeLen returns the code section size in bytes, including the
// end-of-stream marker.
func (s *Script) CodeLen() int {
	n := 1 // marker
	for i := range s.Code {
		n += s.Code[i].EncodedLen()
	}
	return n
}

// offsets returns the set of valid instruction offsets.
func (s *Script) offsets() map[int]struct{} {
	set := make(map[int]struct{}, len(s.Code))
	for i := range s.Code {
		set[s.Code[i].Offset] = struct{}{}
	}
	return set
}
