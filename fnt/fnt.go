// Package fnt reads and writes nitro filename tables, the directory
// structure shared by NARC archives (FNTB body) and ROM filesystems.
package fnt

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Directory IDs live in 0xF000..0xFFFF; the root is always 0xF000.
	RootDirID   = 0xF000
	dirEntryLen = 8
	dirFlag     = 0x80
	maxNameLen  = 0x7F
)

var (
	ErrShortTable  = errors.New("fnt: table too short")
	ErrBadDirID    = errors.New("fnt: directory id out of range")
	ErrCycle       = errors.New("fnt: directory cycle")
	ErrNameLength  = errors.New("fnt: name empty or longer than 127 bytes")
	ErrBadSubtable = errors.New("fnt: subtable runs past end of table")
	ErrDirCount    = errors.New("fnt: directory count out of range")
)

// Folder is one directory: child folders and file names in table order.
// FirstID is the file ID of the first file entry; files take sequential IDs
// from there, which is how names map onto FAT slots.
type Folder struct {
	Folders []Child
	Files   []string
	FirstID uint16
}

// Child is a named subfolder.
type Child struct {
	Name   string
	Folder *Folder
}

// Lookup descends one path component. Empty name or missing component
// returns nil.
func (f *Folder) Lookup(name string) *Folder {
	for _, c := range f.Folders {
		if c.Name == name {
			return c.Folder
		}
	}
	return nil
}

// FileID resolves a file name in this folder to its table-assigned ID.
func (f *Folder) FileID(name string) (uint16, bool) {
	for i, file := range f.Files {
		if file == name {
			return f.FirstID + uint16(i), true
		}
	}
	return 0, false
}

// Parse decodes a filename table blob. Offsets inside the blob are relative
// to its first byte.
func Parse(data []byte) (*Folder, error) {
	if len(data) < dirEntryLen {
		return nil, ErrShortTable
	}
	dirCount := int(binary.LittleEndian.Uint16(data[6:8]))
	if dirCount == 0 || dirCount > 0x1000 {
		return nil, ErrDirCount
	}
	visited := make(map[uint16]bool, dirCount)
	return parseDir(data, RootDirID, dirCount, visited)
}

func parseDir(data []byte, dirID uint16, dirCount int, visited map[uint16]bool) (*Folder, error) {
	if dirID&RootDirID != RootDirID {
		return nil, fmt.Errorf("%w: %#x", ErrBadDirID, dirID)
	}
	index := int(dirID &^ RootDirID)
	if index >= dirCount {
		return nil, fmt.Errorf("%w: %#x", ErrBadDirID, dirID)
	}
	if visited[dirID] {
		return nil, fmt.Errorf("%w: %#x", ErrCycle, dirID)
	}
	visited[dirID] = true

	entry := index * dirEntryLen
	if entry+dirEntryLen > len(data) {
		return nil, ErrShortTable
	}
	subOffset := int(binary.LittleEndian.Uint32(data[entry : entry+4]))
	firstID := binary.LittleEndian.Uint16(data[entry+4 : entry+6])

	folder := &Folder{FirstID: firstID}
	pos := subOffset
	for {
		if pos >= len(data) {
			return nil, ErrBadSubtable
		}
		control := data[pos]
		pos++
		if control == 0 {
			break
		}
		nameLen := int(control & maxNameLen)
		if pos+nameLen > len(data) {
			return nil, ErrBadSubtable
		}
		name := string(data[pos : pos+nameLen])
		pos += nameLen

		if control&dirFlag != 0 {
			if pos+2 > len(data) {
				return nil, ErrBadSubtable
			}
			childID := binary.LittleEndian.Uint16(data[pos : pos+2])
			pos += 2
			child, err := parseDir(data, childID, dirCount, visited)
			if err != nil {
				return nil, err
			}
			folder.Folders = append(folder.Folders, Child{Name: name, Folder: child})
		} else {
			folder.Files = append(folder.Files, name)
		}
	}
	return folder, nil
}

// Encode writes the table back out. Directories are numbered depth-first in
// child order; subtables follow the directory table in ID order. Inverse of
// Parse for tables this package wrote; for foreign tables the structure (not
// the byte layout) is what round-trips.
func Encode(root *Folder) ([]byte, error) {
	dirs := flatten(root)
	if len(dirs) > 0x1000 {
		return nil, ErrDirCount
	}

	subtables := make([][]byte, len(dirs))
	for i, d := range dirs {
		sub, err := encodeSubtable(d.folder, d.childIDs)
		if err != nil {
			return nil, err
		}
		subtables[i] = sub
	}

	tableLen := len(dirs) * dirEntryLen
	out := make([]byte, tableLen)
	offset := tableLen
	for i, d := range dirs {
		entry := out[i*dirEntryLen:]
		binary.LittleEndian.PutUint32(entry[0:4], uint32(offset))
		binary.LittleEndian.PutUint16(entry[4:6], d.folder.FirstID)
		if i == 0 {
			// Root's parent field holds the directory count.
			binary.LittleEndian.PutUint16(entry[6:8], uint16(len(dirs)))
		} else {
			binary.LittleEndian.PutUint16(entry[6:8], RootDirID|uint16(d.parent))
		}
		offset += len(subtables[i])
	}
	for _, sub := range subtables {
		out = append(out, sub...)
	}
	return out, nil
}

type flatDir struct {
	folder   *Folder
	parent   int
	childIDs []uint16
}

// flatten assigns depth-first directory indices.
func flatten(root *Folder) []flatDir {
	dirs := []flatDir{{folder: root}}
	var walk func(folderIndex int)
	walk = func(folderIndex int) {
		f := dirs[folderIndex].folder
		for _, c := range f.Folders {
			childIndex := len(dirs)
			dirs[folderIndex].childIDs = append(dirs[folderIndex].childIDs, RootDirID|uint16(childIndex))
			dirs = append(dirs, flatDir{folder: c.Folder, parent: folderIndex})
			walk(childIndex)
		}
	}
	walk(0)
	return dirs
}

func encodeSubtable(f *Folder, childIDs []uint16) ([]byte, error) {
	var out []byte
	for i, c := range f.Folders {
		if len(c.Name) == 0 || len(c.Name) > maxNameLen {
			return nil, fmt.Errorf("%w: %q", ErrNameLength, c.Name)
		}
		out = append(out, dirFlag|byte(len(c.Name)))
		out = append(out, c.Name...)
		id := make([]byte, 2)
		binary.LittleEndian.PutUint16(id, childIDs[i])
		out = append(out, id...)
	}
	for _, name := range f.Files {
		if len(name) == 0 || len(name) > maxNameLen {
			return nil, fmt.Errorf("%w: %q", ErrNameLength, name)
		}
		out = append(out, byte(len(name)))
		out = append(out, name...)
	}
	return append(out, 0), nil
}
