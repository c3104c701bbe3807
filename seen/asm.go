package seen

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Assembly
// ---------------------------------------------------------------------------

// Assemble parses disassembly text (or a hand-edited copy) back into a
// Script. The grammar is the one Disassemble emits: a preamble of
// "key: value" header lines, one blank line, then instruction lines with
// optional "name:" label declarations. ';' starts a comment anywhere
// outside a quoted string.
func Assemble(text string, tab *Table) (*Script, error) {
	p := &asmParser{tab: tab, declared: make(map[string]int)}
	lines := strings.Split(text, "\n")
	for i, raw := range lines {
		if err := p.line(i+1, raw); err != nil {
			return nil, err
		}
	}
	return p.finish()
}

// header fields gathered from the preamble; pointers distinguish "absent"
// from zero values.
type asmHeader struct {
	version  *uint16
	counter  *uint32
	reserved *[8]byte
	entry    string // label name or numeric token
	strings  []string
}

type asmParser struct {
	tab      *Table
	inCode   bool
	header   asmHeader
	code     []Instruction
	declared map[string]int // label name -> index of following instruction
}

func (p *asmParser) line(n int, raw string) error {
	line := strings.TrimSpace(stripComment(raw))
	if !p.inCode {
		if line == "" {
			// The blank separator ends the preamble; leading blanks before
			// any header line are tolerated.
			if p.headerSeen() {
				p.inCode = true
			}
			return nil
		}
		return p.headerLine(n, line)
	}
	if line == "" {
		return nil
	}
	if name, ok := labelDecl(line); ok {
		if !isIdent(name) {
			return &MalformedHeaderError{Line: n, Reason: fmt.Sprintf("invalid label name %q", name)}
		}
		if _, dup := p.declared[name]; dup {
			return fmt.Errorf("line %d: duplicate label %q", n, name)
		}
		p.declared[name] = len(p.code)
		return nil
	}
	return p.instructionLine(n, line)
}

func (p *asmParser) headerSeen() bool {
	return p.header.version != nil || p.header.entry != "" ||
		p.header.counter != nil || p.header.reserved != nil || len(p.header.strings) > 0
}

func (p *asmParser) headerLine(n int, line string) error {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return &MalformedHeaderError{Line: n, Reason: "expected key: value"}
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch key {
	case "version":
		if p.header.version != nil {
			return &MalformedHeaderError{Line: n, Reason: "duplicate version"}
		}
		v, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return &MalformedHeaderError{Line: n, Reason: fmt.Sprintf("bad version %q", value)}
		}
		ver := uint16(v)
		p.header.version = &ver
	case "counter":
		if p.header.counter != nil {
			return &MalformedHeaderError{Line: n, Reason: "duplicate counter"}
		}
		v, err := strconv.ParseUint(value, 0, 32)
		if err != nil {
			return &MalformedHeaderError{Line: n, Reason: fmt.Sprintf("bad counter %q", value)}
		}
		c := uint32(v)
		p.header.counter = &c
	case "reserved":
		if p.header.reserved != nil {
			return &MalformedHeaderError{Line: n, Reason: "duplicate reserved"}
		}
		b, err := hex.DecodeString(value)
		if err != nil || len(b) != 8 {
			return &MalformedHeaderError{Line: n, Reason: "reserved must be 16 hex digits"}
		}
		var r [8]byte
		copy(r[:], b)
		p.header.reserved = &r
	case "entry":
		if p.header.entry != "" {
			return &MalformedHeaderError{Line: n, Reason: "duplicate entry"}
		}
		if value == "" {
			return &MalformedHeaderError{Line: n, Reason: "empty entry"}
		}
		p.header.entry = value
	case "string":
		s, err := strconv.Unquote(value)
		if err != nil {
			return &MalformedHeaderError{Line: n, Reason: fmt.Sprintf("bad string literal %s", value)}
		}
		p.header.strings = append(p.header.strings, s)
	default:
		return &MalformedHeaderError{Line: n, Reason: fmt.Sprintf("unknown key %q", key)}
	}
	return nil
}

func (p *asmParser) instructionLine(n int, line string) error {
	mnemonic, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		mnemonic, rest = line[:i], line[i+1:]
	}
	spec, ok := p.tab.LookupMnemonic(mnemonic)
	if !ok {
		return &UnknownMnemonicError{Line: n, Token: mnemonic}
	}

	tokens := splitOperands(strings.TrimSpace(rest))
	if len(tokens) != len(spec.Operands) {
		return &OperandCountError{Line: n, Mnemonic: mnemonic, Want: len(spec.Operands), Got: len(tokens)}
	}

	operands := make([]Operand, 0, len(spec.Operands))
	for i, kind := range spec.Operands {
		op, err := parseOperand(n, tokens[i], kind)
		if err != nil {
			return err
		}
		if kind == KindRawBytes && operands[i-1].Int != int64(len(op.Raw)) {
			return &OperandParseError{Line: n, Token: tokens[i], Kind: kind}
		}
		operands = append(operands, op)
	}

	p.code = append(p.code, Instruction{Spec: spec, Operands: operands})
	return nil
}

func parseOperand(line int, tok string, kind Kind) (Operand, error) {
	op := Operand{Kind: kind}
	fail := func() (Operand, error) {
		return op, &OperandParseError{Line: line, Token: tok, Kind: kind}
	}
	switch kind {
	case KindInt8, KindInt16, KindInt32:
		bits := 8 * kind.fixedSize()
		v, err := strconv.ParseInt(tok, 0, bits)
		if err != nil {
			return fail()
		}
		op.Int = v
	case KindStringRef:
		v, err := strconv.ParseUint(tok, 0, 16)
		if err != nil {
			return fail()
		}
		op.Int = int64(v)
	case KindString:
		s, err := strconv.Unquote(tok)
		if err != nil {
			return fail()
		}
		op.Str = s
	case KindJumpTarget:
		if isIdent(tok) {
			op.Label = tok
			break
		}
		v, err := strconv.ParseUint(tok, 0, 32)
		if err != nil {
			return fail()
		}
		op.Int = int64(v)
	case KindRawBytes:
		b, err := hex.DecodeString(tok)
		if err != nil {
			return fail()
		}
		op.Raw = b
	}
	return op, nil
}

func (p *asmParser) finish() (*Script, error) {
	if p.header.version == nil {
		return nil, &MalformedHeaderError{Reason: "missing version"}
	}
	if p.header.entry == "" {
		return nil, &MalformedHeaderError{Reason: "missing entry"}
	}

	byName, err := resolveLabels(p.code, p.declared)
	if err != nil {
		return nil, err
	}

	var s Script
	s.Header.Version = *p.header.version
	if p.header.counter != nil {
		s.Header.CounterStart = *p.header.counter
	}
	if p.header.reserved != nil {
		s.Header.Reserved = *p.header.reserved
	}
	s.Strings = p.header.strings
	s.Code = p.code

	if entry, ok := byName[p.header.entry]; ok {
		s.Header.EntryPoint = uint32(entry)
	} else if isIdent(p.header.entry) {
		return nil, &UnresolvedLabelError{Name: p.header.entry}
	} else {
		v, err := strconv.ParseUint(p.header.entry, 0, 32)
		if err != nil {
			return nil, &MalformedHeaderError{Reason: fmt.Sprintf("bad entry %q", p.header.entry)}
		}
		s.Header.EntryPoint = uint32(v)
	}

	if err := checkTargets(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ---------------------------------------------------------------------------
// Tokenizing
// ---------------------------------------------------------------------------

// stripComment removes a trailing ';' comment, ignoring semicolons inside a
// double-quoted string.
func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

// splitOperands splits a comma-separated operand list, ignoring commas
// inside quoted strings. An empty list yields no tokens.
func splitOperands(rest string) []string {
	if rest == "" {
		return nil
	}
	var tokens []string
	start := 0
	inQuote := false
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				tokens = append(tokens, strings.TrimSpace(rest[start:i]))
				start = i + 1
			}
		}
	}
	return append(tokens, strings.TrimSpace(rest[start:]))
}

// labelDecl reports whether a line is a label declaration ("name:").
func labelDecl(line string) (string, bool) {
	if !strings.HasSuffix(line, ":") {
		return "", false
	}
	name := strings.TrimSpace(line[:len(line)-1])
	if strings.ContainsAny(name, " \t") {
		return "", false
	}
	return name, true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
