// Command zedctl is the swiss-army knife for Phantom Hourglass and Spirit
// Tracks data: archive listing and packing, ROM extraction, and LZ10
// compression.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/phst-randomizer/zed/internal/logging"
)

const version = "0.1.0"

// errUsage makes a subcommand print usage and exit 2 instead of 1.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logging.ConfigureRuntime()

	if len(args) < 1 {
		usage()
		return 2
	}

	var err error
	switch args[0] {
	case "narc":
		err = cmdNARC(args[1:])
	case "rom":
		err = cmdROM(args[1:])
	case "lz10":
		err = cmdLZ10(args[1:])
	case "version", "--version", "-v":
		fmt.Println(version)
		return 0
	case "help", "--help", "-h":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "zedctl: unknown command %q\n\n", args[0])
		usage()
		return 2
	}

	if err != nil {
		if errors.Is(err, errUsage) {
			usage()
			return 2
		}
		fmt.Fprintf(os.Stderr, "zedctl: %v\n", err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprint(os.Stderr, `zedctl - DS Zelda data toolkit

Usage:
  zedctl <command> [options]

Commands:
  narc ls <file>                List the files inside an archive
  narc extract <file> [-o dir]  Write an archive's file tree to disk
  narc pack <dir> [-o file]     Build an archive from a directory
  rom ls <file>                 List a ROM image's filesystem
  rom extract <file> [-o dir]   Extract a ROM image's filesystem
  lz10 d <in> [out]             Decompress an LZ10 stream
  lz10 c <in> [out]             Compress a file
  version                       Show version

Compressed archives (course.bin) are decompressed transparently.
`)
}

// parseTail parses flags on both sides of the first positional argument, so
// "narc pack dir -o out" and "narc pack -o out dir" both work.
func parseTail(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", errUsage
	}
	rest := fs.Args()
	if len(rest) < 1 {
		return "", errUsage
	}
	if len(rest) > 1 {
		if err := fs.Parse(rest[1:]); err != nil {
			return "", errUsage
		}
	}
	return rest[0], nil
}
