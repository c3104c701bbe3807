// Seentool translates compiled SEEN scripts between binary and assembly
// text, and unpacks/repacks the PACL archives that bundle them.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("seentool")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: seentool [options] <command> [arguments]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  unpack <archive>     Split a PACL archive into script files\n")
		fmt.Fprintf(os.Stderr, "  pack <dir>           Bundle script files into a PACL archive\n")
		fmt.Fprintf(os.Stderr, "  disasm <script>      Decode a script and write assembly text\n")
		fmt.Fprintf(os.Stderr, "  asm <text>           Assemble text and write a binary script\n")
		fmt.Fprintf(os.Stderr, "  batch <archive>      Disassemble every script in an archive\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nRun 'seentool <command> -h' for command options.\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "unpack":
		err = cmdUnpack(args[1:])
	case "pack":
		err = cmdPack(args[1:])
	case "disasm":
		err = cmdDisasm(args[1:])
	case "asm":
		err = cmdAsm(args[1:])
	case "batch":
		err = cmdBatch(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
