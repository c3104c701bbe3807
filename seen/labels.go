package seen

import "fmt"

// ---------------------------------------------------------------------------
// Label resolution
// ---------------------------------------------------------------------------
//
// Labels are a transient view: synthesized fresh for each disassembly and
// discarded once assembly has resolved them back to offsets. They are never
// part of a Script's identity.

// LabelName derives the deterministic synthetic label for a code offset.
func LabelName(offset int) string {
	return fmt.Sprintf("loc_%04x", offset)
}

// collectLabels returns one label per distinct offset referenced by at
// least one jump operand or by the header entry point.
func collectLabels(s *Script) map[int]string {
	labels := make(map[int]string)
	labels[int(s.Header.EntryPoint)] = LabelName(int(s.Header.EntryPoint))
	for i := range s.Code {
		for j := range s.Code[i].Operands {
			op := &s.Code[i].Operands[j]
			if op.Kind == KindJumpTarget {
				labels[int(op.Int)] = LabelName(int(op.Int))
			}
		}
	}
	return labels
}

// resolveLabels assigns final offsets to code and replaces label references
// with the concrete offsets of their targets. declared maps a label name to
// the index of the instruction it precedes; an index equal to len(code)
// addresses the end-of-stream marker. A single forward pass suffices
// because jump operands are fixed-width absolute offsets. The returned map
// gives each declared label's resolved offset.
func resolveLabels(code []Instruction, declared map[string]int) (map[string]int, error) {
	offsets := make([]int, len(code)+1)
	off := 0
	for i := range code {
		offsets[i] = off
		code[i].Offset = off
		off += code[i].EncodedLen()
	}
	offsets[len(code)] = off

	byName := make(map[string]int, len(declared))
	for name, idx := range declared {
		byName[name] = offsets[idx]
	}

	for i := range code {
		for j := range code[i].Operands {
			op := &code[i].Operands[j]
			if op.Kind != KindJumpTarget || op.Label == "" {
				continue
			}
			target, ok := byName[op.Label]
			if !ok {
				return nil, &UnresolvedLabelError{Name: op.Label}
			}
			op.Int = int64(target)
			op.Label = ""
		}
	}
	return byName, nil
}
