package seen

import (
	"errors"
	"strings"
	"testing"
)

func TestLabelName(t *testing.T) {
	tests := []struct {
		offset int
		want   string
	}{
		{0, "loc_0000"},
		{0x1a, "loc_001a"},
		{0xbeef, "loc_beef"},
		{0x12345, "loc_12345"},
	}
	for _, tt := range tests {
		if got := LabelName(tt.offset); got != tt.want {
			t.Errorf("LabelName(0x%x) = %q, want %q", tt.offset, got, tt.want)
		}
	}
}

// TestLabelBijection checks that the disassembly declares exactly one label
// per distinct referenced offset: no extras, none missing.
func TestLabelBijection(t *testing.T) {
	s, err := Decode(sampleBuffer(), Builtin())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	referenced := map[string]bool{LabelName(int(s.Header.EntryPoint)): true}
	for i := range s.Code {
		for _, op := range s.Code[i].Operands {
			if op.Kind == KindJumpTarget {
				referenced[LabelName(int(op.Int))] = true
			}
		}
	}

	text, err := Disassemble(s)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	declared := map[string]bool{}
	inCode := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			inCode = true
			continue
		}
		if !inCode {
			continue
		}
		if name, ok := labelDecl(line); ok {
			if declared[name] {
				t.Errorf("label %q declared twice", name)
			}
			declared[name] = true
		}
	}

	for name := range referenced {
		if !declared[name] {
			t.Errorf("referenced label %q not declared", name)
		}
	}
	for name := range declared {
		if !referenced[name] {
			t.Errorf("label %q declared but never referenced", name)
		}
	}
}

func TestResolveLabels(t *testing.T) {
	code := []Instruction{
		{Spec: mustSpec(t, "JMP"), Operands: []Operand{{Kind: KindJumpTarget, Label: "done"}}},
		{Spec: mustSpec(t, "MSG"), Operands: []Operand{{Kind: KindStringRef, Int: 0}}},
		{Spec: mustSpec(t, "END")},
	}
	declared := map[string]int{"done": 2}

	byName, err := resolveLabels(code, declared)
	if err != nil {
		t.Fatalf("resolveLabels: %v", err)
	}
	// JMP is 5 bytes, MSG is 3: END lands at offset 8.
	if byName["done"] != 8 {
		t.Errorf(`byName["done"] = %d, want 8`, byName["done"])
	}
	op := &code[0].Operands[0]
	if op.Label != "" || op.Int != 8 {
		t.Errorf("jump operand = %+v, want resolved to 8", *op)
	}
	if code[1].Offset != 5 {
		t.Errorf("MSG offset = %d, want 5", code[1].Offset)
	}
}

func TestResolveLabelsUnresolved(t *testing.T) {
	code := []Instruction{
		{Spec: mustSpec(t, "JMP"), Operands: []Operand{{Kind: KindJumpTarget, Label: "nowhere"}}},
	}
	_, err := resolveLabels(code, map[string]int{})
	var ue *UnresolvedLabelError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want UnresolvedLabelError", err)
	}
	if ue.Name != "nowhere" {
		t.Errorf("Name = %q, want %q", ue.Name, "nowhere")
	}
}
