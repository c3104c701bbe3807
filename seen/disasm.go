package seen

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// Disassemble renders a script as editable assembly text: a preamble of
// key/value header lines, a blank separator, then one line per instruction
// with synthetic labels declared at every jump target. Instruction order is
// preserved exactly.
func Disassemble(s *Script) (string, error) {
	labels := collectLabels(s)

	var b strings.Builder
	fmt.Fprintf(&b, "version: %d\n", s.Header.Version)
	fmt.Fprintf(&b, "counter: %d\n", s.Header.CounterStart)
	fmt.Fprintf(&b, "reserved: %s\n", hex.EncodeToString(s.Header.Reserved[:]))
	fmt.Fprintf(&b, "entry: %s\n", labels[int(s.Header.EntryPoint)])
	for _, str := range s.Strings {
		fmt.Fprintf(&b, "string: %s\n", strconv.Quote(str))
	}
	b.WriteByte('\n')

	emitted := 0
	for i := range s.Code {
		in := &s.Code[i]
		if name, ok := labels[in.Offset]; ok {
			fmt.Fprintf(&b, "%s:\n", name)
			emitted++
		}
		line, err := formatInstruction(in, labels)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if emitted != len(labels) {
		// Decode rules this out; it can only happen for a hand-built Script.
		return "", fmt.Errorf("%d labels target no instruction", len(labels)-emitted)
	}
	return b.String(), nil
}

func formatInstruction(in *Instruction, labels map[int]string) (string, error) {
	var b strings.Builder
	b.WriteByte('\t')
	b.WriteString(in.Spec.Mnemonic)
	for i := range in.Operands {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		op := &in.Operands[i]
		switch op.Kind {
		case KindInt8, KindInt16, KindInt32, KindStringRef:
			b.WriteString(strconv.FormatInt(op.Int, 10))
		case KindString:
			b.WriteString(strconv.Quote(op.Str))
		case KindJumpTarget:
			name, ok := labels[int(op.Int)]
			if !ok {
				return "", &DanglingTargetError{Offset: in.Offset, Target: op.Int}
			}
			b.WriteString(name)
		case KindRawBytes:
			b.WriteString(hex.EncodeToString(op.Raw))
		}
	}
	return b.String(), nil
}
