package main

import (
	"os"

	"github.com/phst-randomizer/zed/lz10"
)

func cmdLZ10(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	verb, in := args[0], args[1]
	if verb != "d" && verb != "c" {
		return errUsage
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	var coded []byte
	var out string
	if verb == "d" {
		if coded, err = lz10.Decompress(data); err != nil {
			return err
		}
		out = in + ".dec"
	} else {
		coded = lz10.Compress(data)
		out = in + ".lz"
	}
	if len(args) == 3 {
		out = args[2]
	}
	return os.WriteFile(out, coded, 0o644)
}
