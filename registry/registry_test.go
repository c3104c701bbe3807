package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moonlitsea/seentool/seen"
)

func writeOverlay(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opcodes.toml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAndApply(t *testing.T) {
	path := writeOverlay(t, `
version = 1

# Rename a builtin and widen its operands.
[[opcode]]
byte = 0x20
mnemonic = "SAY"
operands = ["stringref", "int8"]

# A newly reverse-engineered opcode.
[[opcode]]
byte = 0x80
mnemonic = "SHAKE"
operands = ["int16"]
`)
	o, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if o.Version != 1 || len(o.Opcodes) != 2 {
		t.Fatalf("overlay = %+v", o)
	}

	tab, err := o.Apply(seen.Builtin())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	say, ok := tab.Lookup(0x20)
	if !ok || say.Mnemonic != "SAY" || len(say.Operands) != 2 {
		t.Errorf("Lookup(0x20) = %+v, %v", say, ok)
	}
	if _, ok := tab.LookupMnemonic("MSG"); ok {
		t.Error("replaced mnemonic MSG still resolves")
	}
	shake, ok := tab.LookupMnemonic("SHAKE")
	if !ok || shake.Byte != 0x80 {
		t.Errorf("LookupMnemonic(SHAKE) = %+v, %v", shake, ok)
	}

	// The base table is untouched.
	if msg, ok := seen.Builtin().Lookup(0x20); !ok || msg.Mnemonic != "MSG" {
		t.Error("Apply mutated the builtin table")
	}
}

func TestApplyReplacesByMnemonic(t *testing.T) {
	// Same mnemonic, different byte: the opcode moves.
	path := writeOverlay(t, `
version = 1

[[opcode]]
byte = 0x90
mnemonic = "MSG"
operands = ["stringref"]
`)
	o, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tab, err := o.Apply(seen.Builtin())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := tab.Lookup(0x20); ok {
		t.Error("old byte 0x20 still resolves")
	}
	if msg, ok := tab.LookupMnemonic("MSG"); !ok || msg.Byte != 0x90 {
		t.Errorf("MSG = %+v, %v", msg, ok)
	}
}

func TestApplySetsVariableFlag(t *testing.T) {
	path := writeOverlay(t, `
version = 1

[[opcode]]
byte = 0x81
mnemonic = "BLOB"
operands = ["int16", "raw"]
`)
	o, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tab, err := o.Apply(seen.Builtin())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	blob, ok := tab.LookupMnemonic("BLOB")
	if !ok || !blob.Variable {
		t.Errorf("BLOB = %+v, %v", blob, ok)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{"bad toml", "version = ][", "parse error"},
		{"wrong version", "version = 2", "unsupported overlay version"},
		{"missing version", "[[opcode]]\nbyte = 3\nmnemonic = \"X\"", "unsupported overlay version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeOverlay(t, tt.text))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{
			"byte out of range",
			"version = 1\n[[opcode]]\nbyte = 0\nmnemonic = \"X\"",
			"out of range",
		},
		{
			"missing mnemonic",
			"version = 1\n[[opcode]]\nbyte = 0x80",
			"missing mnemonic",
		},
		{
			"unknown kind",
			"version = 1\n[[opcode]]\nbyte = 0x80\nmnemonic = \"X\"\noperands = [\"float\"]",
			"unknown operand kind",
		},
		{
			"raw without length",
			"version = 1\n[[opcode]]\nbyte = 0x80\nmnemonic = \"X\"\noperands = [\"raw\"]",
			"invalid table",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := Load(writeOverlay(t, tt.text))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			_, err = o.Apply(seen.Builtin())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
