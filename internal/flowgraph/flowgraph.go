// Package flowgraph turns BMG event scripts into human-readable listings
// and control-flow graphs.
package flowgraph

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/phst-randomizer/zed/bmg"
)

// Source is one loaded BMG file.
type Source struct {
	Name string
	File *bmg.File
}

// Collection holds every BMG from a directory, indexed by file ID so SAY
// instructions can quote messages that live in another file.
type Collection struct {
	sources []Source
	byID    map[uint32]*bmg.File
}

func NewCollection() *Collection {
	return &Collection{byID: make(map[uint32]*bmg.File)}
}

func (c *Collection) Add(name string, f *bmg.File) {
	c.sources = append(c.sources, Source{Name: name, File: f})
	c.byID[f.ID()] = f
}

func (c *Collection) Sources() []Source { return c.sources }

func (c *Collection) message(id uint32, index int) (bmg.Message, bool) {
	f, ok := c.byID[id]
	if !ok || index < 0 || index >= len(f.Messages()) {
		return bmg.Message{}, false
	}
	return f.Messages()[index], true
}

// LoadDir parses every regular file in dir as a BMG, in name order.
func LoadDir(dir string) (*Collection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "bmg directory")
	}
	c := NewCollection()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, errors.Wrap(err, "read bmg")
		}
		f, err := bmg.Parse(data)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", e.Name())
		}
		c.Add(e.Name(), f)
	}
	return c, nil
}
