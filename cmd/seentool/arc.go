package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/moonlitsea/seentool/archive"
	"github.com/moonlitsea/seentool/catalog"
	"github.com/moonlitsea/seentool/seen"
)

func cmdUnpack(args []string) error {
	fs := flag.NewFlagSet("unpack", flag.ExitOnError)
	out := fs.String("o", ".", "Output directory")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: seentool unpack [-o dir] <archive>")
	}

	ar, err := readArchive(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	for i := range ar.Entries {
		data, err := ar.Extract(i)
		if err != nil {
			return err
		}
		dest := filepath.Join(*out, ar.Entries[i].Name)
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
		log.Infof("extracted %s (%d bytes)", ar.Entries[i].Name, len(data))
	}
	return nil
}

func cmdPack(args []string) error {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	out := fs.String("o", "SEEN.TXT", "Output archive")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: seentool pack [-o archive] <dir>")
	}

	entries, err := os.ReadDir(fs.Arg(0))
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var ar archive.Archive
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(fs.Arg(0), name))
		if err != nil {
			return err
		}
		if err := ar.Add(name, data); err != nil {
			return err
		}
		log.Infof("packed %s (%d bytes)", name, len(data))
	}
	buf, err := ar.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(*out, buf, 0o644)
}

func cmdBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	out := fs.String("o", ".", "Output directory")
	dbPath := fs.String("catalog", "", "Record results in a catalog database")
	overlay := fs.String("table", "", "Opcode table overlay (TOML)")
	workers := fs.Int("j", 0, "Worker count (default: number of CPUs)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: seentool batch [-o dir] [-catalog db] [-table overlay] [-j N] <archive>")
	}

	tab, err := loadTable(*overlay)
	if err != nil {
		return err
	}
	ar, err := readArchive(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	var cat *catalog.Catalog
	runID := ""
	if *dbPath != "" {
		cat, err = catalog.Open(*dbPath)
		if err != nil {
			return err
		}
		defer cat.Close()
		runID = catalog.NewRunID()
		log.Infof("catalog run %s", runID)
	}

	failures := 0
	for _, res := range archive.TranslateAll(ar, tab, *workers) {
		if res.Err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.Name, res.Err)
			if cat != nil {
				if err := cat.RecordFailure(runID, res.Name, res.Data, res.Err); err != nil {
					return err
				}
			}
			continue
		}
		dest := filepath.Join(*out, res.Name+".sa")
		if err := os.WriteFile(dest, []byte(res.Text), 0o644); err != nil {
			return err
		}
		if cat != nil {
			wire, err := seen.MarshalScript(res.Script)
			if err != nil {
				return err
			}
			if err := cat.RecordSuccess(runID, res.Name, res.Data, res.Text, wire); err != nil {
				return err
			}
		}
	}

	log.Infof("translated %d scripts, %d failures", len(ar.Entries)-failures, failures)
	if failures > 0 {
		return fmt.Errorf("%d of %d scripts failed", failures, len(ar.Entries))
	}
	return nil
}

func readArchive(path string) (*archive.Archive, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ar, err := archive.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ar, nil
}
