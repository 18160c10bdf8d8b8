// Command scriptgrapher disassembles the event scripts in a directory of
// BMG files into text listings, message dumps, and optional control-flow
// graphs.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dominikbraun/graph/draw"
	colorable "github.com/mattn/go-colorable"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/phst-randomizer/zed/internal/flowgraph"
	"github.com/phst-randomizer/zed/internal/logging"
)

func main() {
	outDir := flag.String("out", ".", "directory for the scripts/ and messages/ dumps")
	dot := flag.Bool("dot", false, "also write a Graphviz control-flow graph per file")
	printListing := flag.Bool("print", false, "print listings to stdout instead of writing files")
	flagBase := flag.Uint("flag-base", 0, "memory base for progress-flag annotations (0 = retail)")
	flag.Parse()

	logging.ConfigureRuntime()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: scriptgrapher [flags] <bmg-dir>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *outDir, *dot, *printListing, uint32(*flagBase)); err != nil {
		fmt.Fprintf(os.Stderr, "scriptgrapher: %v\n", err)
		os.Exit(1)
	}
}

func run(bmgDir, outDir string, dot, printListing bool, flagBase uint32) error {
	c, err := flowgraph.LoadDir(bmgDir)
	if err != nil {
		return err
	}

	opts := flowgraph.ListOptions{FlagBase: flagBase}
	var console io.Writer
	if printListing {
		opts.Color = term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
		console = colorable.NewColorableStdout()
	}

	for _, src := range c.Sources() {
		if len(src.File.Instructions()) == 0 {
			log.Info().Str("file", src.Name).Msg("does not have scripts")
			continue
		}
		lines, err := c.Listing(src, opts)
		if err != nil {
			return err
		}
		if printListing {
			fmt.Fprintf(console, "== %s\n", src.Name)
			for _, line := range lines {
				fmt.Fprintln(console, line)
			}
		} else {
			if err := writeLines(filepath.Join(outDir, "scripts", src.Name+".txt"), lines); err != nil {
				return err
			}
			msgs := flowgraph.MessageDump(src.File)
			if err := writeLines(filepath.Join(outDir, "messages", src.Name+".txt"), msgs); err != nil {
				return err
			}
		}
		if dot {
			if err := writeGraph(filepath.Join(outDir, "scripts", src.Name+".dot"), src); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
}

func writeGraph(path string, src flowgraph.Source) error {
	g, err := flowgraph.ControlFlow(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := draw.DOT(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
