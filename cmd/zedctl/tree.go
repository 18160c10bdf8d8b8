package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/phst-randomizer/zed/fnt"
)

// walkTree visits every file in table order with its /-joined path.
func walkTree(f *fnt.Folder, prefix string, visit func(path string, id uint16) error) error {
	for i, name := range f.Files {
		if err := visit(prefix+name, f.FirstID+uint16(i)); err != nil {
			return err
		}
	}
	for _, c := range f.Folders {
		if err := walkTree(c.Folder, prefix+c.Name+"/", visit); err != nil {
			return err
		}
	}
	return nil
}

func listTree(w io.Writer, root *fnt.Folder, read func(id uint16) ([]byte, error)) error {
	return walkTree(root, "", func(path string, id uint16) error {
		data, err := read(id)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%8d  %s\n", len(data), path)
		return err
	})
}

func extractTree(dir string, root *fnt.Folder, read func(id uint16) ([]byte, error)) error {
	return walkTree(root, "", func(path string, id uint16) error {
		data, err := read(id)
		if err != nil {
			return err
		}
		dest := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		return os.WriteFile(dest, data, 0o644)
	})
}
