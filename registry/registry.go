// Package registry loads opcode-table overlays from TOML files. The operand
// grammar of the engine is only partially reverse-engineered, so the table
// is treated as a versionable registry: new findings ship as overlay files
// instead of code changes.
package registry

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/moonlitsea/seentool/seen"
)

// Overlay is a parsed opcode overlay file.
type Overlay struct {
	Version int            `toml:"version"`
	Opcodes []OpcodeConfig `toml:"opcode"`
}

// OpcodeConfig is one [[opcode]] block.
type OpcodeConfig struct {
	Byte     int      `toml:"byte"`
	Mnemonic string   `toml:"mnemonic"`
	Operands []string `toml:"operands"`
}

// Load parses an overlay file.
func Load(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var o Overlay
	if err := toml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if o.Version != 1 {
		return nil, fmt.Errorf("%s: unsupported overlay version %d", path, o.Version)
	}
	return &o, nil
}

// Apply merges the overlay over a base table, returning a new table. An
// overlay entry with the byte or mnemonic of a base entry replaces it;
// conflicts that survive the merge (one overlay entry shadowing the byte of
// one base spec and the mnemonic of another) surface as NewTable errors.
func (o *Overlay) Apply(base *seen.Table) (*seen.Table, error) {
	specs := base.Specs()

	for _, oc := range o.Opcodes {
		spec, err := oc.spec()
		if err != nil {
			return nil, err
		}
		replaced := false
		for i := range specs {
			if specs[i].Byte == spec.Byte || specs[i].Mnemonic == spec.Mnemonic {
				if replaced {
					// Second match: drop it and let the first replacement win
					// the byte; NewTable reports any remaining duplicate.
					continue
				}
				specs[i] = spec
				replaced = true
			}
		}
		if !replaced {
			specs = append(specs, spec)
		}
	}

	tab, err := seen.NewTable(specs)
	if err != nil {
		return nil, fmt.Errorf("overlay produces invalid table: %w", err)
	}
	return tab, nil
}

func (oc *OpcodeConfig) spec() (seen.OpcodeSpec, error) {
	var spec seen.OpcodeSpec
	if oc.Byte < 1 || oc.Byte > 0xFF {
		return spec, fmt.Errorf("opcode %q: byte %d out of range", oc.Mnemonic, oc.Byte)
	}
	if oc.Mnemonic == "" {
		return spec, fmt.Errorf("opcode 0x%02x: missing mnemonic", oc.Byte)
	}
	spec.Byte = byte(oc.Byte)
	spec.Mnemonic = oc.Mnemonic
	for _, name := range oc.Operands {
		kind, ok := seen.KindFromName(name)
		if !ok {
			return spec, fmt.Errorf("opcode %q: unknown operand kind %q", oc.Mnemonic, name)
		}
		if kind == seen.KindString || kind == seen.KindRawBytes {
			spec.Variable = true
		}
		spec.Operands = append(spec.Operands, kind)
	}
	return spec, nil
}
