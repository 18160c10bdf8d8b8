// Package rom provides read access to the filesystem of a Nintendo DS ROM
// image: enough to pull course archives and message files out of a retail
// cartridge dump. Writing a ROM back is out of scope.
package rom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/phst-randomizer/zed/fnt"
)

// minHeader covers the header fields through the allocation table
// pointers at 0x4C.
const minHeader = 0x50

var (
	ErrShortROM = errors.New("rom: data shorter than header")
	ErrRange    = errors.New("rom: table outside data")
	ErrFATSize  = errors.New("rom: allocation table size not a multiple of 8")
	ErrFileID   = errors.New("rom: file ID out of range")
	ErrNotFound = errors.New("rom: no such file")
)

// ROM is a read-only view over a ROM image. It keeps a reference to the
// data it was parsed from; file reads return copies.
type ROM struct {
	Title    string
	GameCode string

	data  []byte
	names *fnt.Folder
	fat   [][2]uint32
}

// Parse decodes the header, filename table and file allocation table.
func Parse(data []byte) (*ROM, error) {
	if len(data) < minHeader {
		return nil, ErrShortROM
	}
	r := &ROM{
		Title:    string(bytes.TrimRight(data[0:12], "\x00")),
		GameCode: string(data[12:16]),
		data:     data,
	}

	fntOff := binary.LittleEndian.Uint32(data[0x40:0x44])
	fntSize := binary.LittleEndian.Uint32(data[0x44:0x48])
	fatOff := binary.LittleEndian.Uint32(data[0x48:0x4C])
	fatSize := binary.LittleEndian.Uint32(data[0x4C:0x50])
	if err := checkRange(len(data), fntOff, fntSize); err != nil {
		return nil, fmt.Errorf("filename table: %w", err)
	}
	if err := checkRange(len(data), fatOff, fatSize); err != nil {
		return nil, fmt.Errorf("allocation table: %w", err)
	}
	if fatSize%8 != 0 {
		return nil, ErrFATSize
	}

	names, err := fnt.Parse(data[fntOff : fntOff+fntSize])
	if err != nil {
		return nil, err
	}
	r.names = names

	r.fat = make([][2]uint32, fatSize/8)
	for i := range r.fat {
		off := int(fatOff) + i*8
		start := binary.LittleEndian.Uint32(data[off : off+4])
		end := binary.LittleEndian.Uint32(data[off+4 : off+8])
		if start > end || int(end) > len(data) {
			return nil, fmt.Errorf("%w: file %d", ErrRange, i)
		}
		r.fat[i] = [2]uint32{start, end}
	}
	return r, nil
}

func checkRange(total int, off, size uint32) error {
	if int64(off)+int64(size) > int64(total) {
		return ErrRange
	}
	return nil
}

// Filenames returns the ROM's directory tree.
func (r *ROM) Filenames() *fnt.Folder { return r.names }

// NumFiles is the number of allocation table slots.
func (r *ROM) NumFiles() int { return len(r.fat) }

// FileByID copies one file out of the image.
func (r *ROM) FileByID(id uint16) ([]byte, error) {
	if int(id) >= len(r.fat) {
		return nil, fmt.Errorf("%w: %d", ErrFileID, id)
	}
	start, end := r.fat[id][0], r.fat[id][1]
	out := make([]byte, end-start)
	copy(out, r.data[start:end])
	return out, nil
}

// FileByName resolves a /-separated path and copies that file out.
func (r *ROM) FileByName(path string) ([]byte, error) {
	folder := r.names
	parts := strings.Split(path, "/")
	for _, dir := range parts[:len(parts)-1] {
		folder = folder.Lookup(dir)
		if folder == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
	}
	id, ok := folder.FileID(parts[len(parts)-1])
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return r.FileByID(id)
}
