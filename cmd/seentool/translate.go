package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moonlitsea/seentool/registry"
	"github.com/moonlitsea/seentool/seen"
)

// loadTable returns the builtin opcode table, with an overlay applied when
// one is given.
func loadTable(overlayPath string) (*seen.Table, error) {
	tab := seen.Builtin()
	if overlayPath == "" {
		return tab, nil
	}
	overlay, err := registry.Load(overlayPath)
	if err != nil {
		return nil, err
	}
	log.Infof("applying opcode overlay %s", overlayPath)
	return overlay.Apply(tab)
}

func cmdDisasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	out := fs.String("o", "", "Output file (default: input with .sa extension)")
	overlay := fs.String("table", "", "Opcode table overlay (TOML)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: seentool disasm [-o file] [-table overlay] <script>")
	}
	path := fs.Arg(0)

	tab, err := loadTable(*overlay)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	script, err := seen.Decode(data, tab)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	text, err := seen.Disassemble(script)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	dest := *out
	if dest == "" {
		dest = replaceExt(path, ".sa")
	}
	log.Infof("disassembled %s: %d instructions", path, len(script.Code))
	return os.WriteFile(dest, []byte(text), 0o644)
}

func cmdAsm(args []string) error {
	fs := flag.NewFlagSet("asm", flag.ExitOnError)
	out := fs.String("o", "", "Output file (default: input with .TXT extension)")
	overlay := fs.String("table", "", "Opcode table overlay (TOML)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: seentool asm [-o file] [-table overlay] <text>")
	}
	path := fs.Arg(0)

	tab, err := loadTable(*overlay)
	if err != nil {
		return err
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	script, err := seen.Assemble(string(text), tab)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	data, err := seen.Encode(script)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	dest := *out
	if dest == "" {
		dest = replaceExt(path, ".TXT")
	}
	log.Infof("assembled %s: %d bytes", path, len(data))
	return os.WriteFile(dest, data, 0o644)
}

func replaceExt(path, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + ext
}
