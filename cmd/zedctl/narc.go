package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/phst-randomizer/zed/fnt"
	"github.com/phst-randomizer/zed/narc"
)

func cmdNARC(args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	switch args[0] {
	case "ls":
		if len(args) != 2 {
			return errUsage
		}
		return narcList(args[1])
	case "extract":
		fs := flag.NewFlagSet("narc extract", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		out := fs.String("o", ".", "output directory")
		file, err := parseTail(fs, args[1:])
		if err != nil {
			return err
		}
		return narcExtract(file, *out)
	case "pack":
		fs := flag.NewFlagSet("narc pack", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		out := fs.String("o", "", "output file (default <dir>.narc)")
		dir, err := parseTail(fs, args[1:])
		if err != nil {
			return err
		}
		if *out == "" {
			*out = filepath.Clean(dir) + ".narc"
		}
		return narcPack(dir, *out)
	default:
		return errUsage
	}
}

func openArchive(path string) (*narc.Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return narc.Open(data)
}

func narcList(path string) error {
	a, err := openArchive(path)
	if err != nil {
		return err
	}
	return listTree(os.Stdout, a.Root, a.FileByID)
}

func narcExtract(path, dir string) error {
	a, err := openArchive(path)
	if err != nil {
		return err
	}
	return extractTree(dir, a.Root, a.FileByID)
}

func narcPack(dir, out string) error {
	var files [][]byte
	root, err := packDir(dir, &files)
	if err != nil {
		return err
	}
	a, err := narc.New(root, files)
	if err != nil {
		return err
	}
	data, err := a.Save()
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

// packDir builds a name tree from a directory. Files take IDs in walk
// order: a folder's own files first, then its subfolders.
func packDir(dir string, files *[][]byte) (*fnt.Folder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	f := &fnt.Folder{FirstID: uint16(len(*files))}
	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		f.Files = append(f.Files, e.Name())
		*files = append(*files, data)
	}
	for _, name := range subdirs {
		child, err := packDir(filepath.Join(dir, name), files)
		if err != nil {
			return nil, err
		}
		f.Folders = append(f.Folders, fnt.Child{Name: name, Folder: child})
	}
	return f, nil
}
