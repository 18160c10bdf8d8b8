package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/phst-randomizer/zed/rom"
)

func cmdROM(args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	switch args[0] {
	case "ls":
		if len(args) != 2 {
			return errUsage
		}
		return romList(args[1])
	case "extract":
		fs := flag.NewFlagSet("rom extract", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		out := fs.String("o", ".", "output directory")
		file, err := parseTail(fs, args[1:])
		if err != nil {
			return err
		}
		return romExtract(file, *out)
	default:
		return errUsage
	}
}

func openROM(path string) (*rom.ROM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return rom.Parse(data)
}

func romList(path string) error {
	r, err := openROM(path)
	if err != nil {
		return err
	}
	fmt.Printf("title:     %s\n", r.Title)
	fmt.Printf("game code: %s\n", r.GameCode)
	return listTree(os.Stdout, r.Filenames(), r.FileByID)
}

func romExtract(path, dir string) error {
	r, err := openROM(path)
	if err != nil {
		return err
	}
	return extractTree(dir, r.Filenames(), r.FileByID)
}
