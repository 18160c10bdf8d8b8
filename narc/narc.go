// Package narc reads and writes NARC archives, the container the games use
// for course data (course.bin and the map*.bin archives).
package narc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/phst-randomizer/zed/common"
	"github.com/phst-randomizer/zed/fnt"
	"github.com/phst-randomizer/zed/lz10"
)

// Magic is stored forward at the start of the file; the three sub-blocks
// store theirs reversed.
const (
	Magic      = "NARC"
	blockFATB  = "FATB"
	blockFNTB  = "FNTB"
	blockFIMG  = "FIMG"
	imageAlign = 4
)

var (
	ErrBlockOrder = errors.New("narc: expected FATB, FNTB, FIMG blocks")
	ErrFATRange   = errors.New("narc: allocation entry outside file image")
	ErrShortFAT   = errors.New("narc: allocation block too short")
	ErrFileID     = errors.New("narc: file id out of range")
	ErrNotFound   = errors.New("narc: file not found")
	ErrTreeRange  = errors.New("narc: name table references missing file ids")
)

// Archive is a parsed NARC: the name tree plus file payloads indexed by the
// IDs the tree assigns.
type Archive struct {
	Root  *fnt.Folder
	files [][]byte
}

// New builds an archive from a name tree and payloads. Every file ID the
// tree assigns must resolve into files.
func New(root *fnt.Folder, files [][]byte) (*Archive, error) {
	a := &Archive{Root: root, files: files}
	if err := checkTree(root, len(files)); err != nil {
		return nil, err
	}
	return a, nil
}

func checkTree(f *fnt.Folder, n int) error {
	if int(f.FirstID)+len(f.Files) > n {
		return ErrTreeRange
	}
	for _, c := range f.Folders {
		if err := checkTree(c.Folder, n); err != nil {
			return err
		}
	}
	return nil
}

// Open parses data, transparently LZ10-decompressing first when the stream
// carries the 0x10 type byte (course.bin archives are stored compressed).
func Open(data []byte) (*Archive, error) {
	if len(data) > 0 && data[0] == lz10.TypeByte {
		plain, err := lz10.Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("narc: decompress: %w", err)
		}
		data = plain
	}
	return Parse(data)
}

// Parse decodes an uncompressed NARC image.
func Parse(data []byte) (*Archive, error) {
	h, err := common.ParseHeader(data, Magic)
	if err != nil {
		return nil, err
	}
	blocks, err := common.ParseBlocks(data[common.HeaderLen:], int(h.BlockCount), true)
	if err != nil {
		return nil, err
	}
	if len(blocks) < 3 || blocks[0].Magic != blockFATB ||
		blocks[1].Magic != blockFNTB || blocks[2].Magic != blockFIMG {
		return nil, ErrBlockOrder
	}

	fat := blocks[0].Body
	if len(fat) < 4 {
		return nil, ErrShortFAT
	}
	count := int(binary.LittleEndian.Uint32(fat[0:4]))
	if len(fat) < 4+count*8 {
		return nil, ErrShortFAT
	}

	image := blocks[2].Body
	files := make([][]byte, count)
	for i := 0; i < count; i++ {
		entry := fat[4+i*8:]
		start := int(binary.LittleEndian.Uint32(entry[0:4]))
		end := int(binary.LittleEndian.Uint32(entry[4:8]))
		if start > end || end > len(image) {
			return nil, fmt.Errorf("%w: file %d [%#x:%#x]", ErrFATRange, i, start, end)
		}
		files[i] = make([]byte, end-start)
		copy(files[i], image[start:end])
	}

	root, err := fnt.Parse(blocks[1].Body)
	if err != nil {
		return nil, err
	}
	return New(root, files)
}

// NumFiles reports how many payloads the archive holds.
func (a *Archive) NumFiles() int {
	return len(a.files)
}

// FileByID returns the payload for a FAT slot.
func (a *Archive) FileByID(id uint16) ([]byte, error) {
	if int(id) >= len(a.files) {
		return nil, fmt.Errorf("%w: %d", ErrFileID, id)
	}
	return a.files[id], nil
}

// File resolves a /-separated path ("zmb/map00.zmb") through the name tree.
func (a *Archive) File(path string) ([]byte, error) {
	folder := a.Root
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
	return a.FileByID(id)
}

// ReplaceFile swaps the payload behind an existing path.
func (a *Archive) ReplaceFile(path string, data []byte) error {
	folder := a.Root
	parts := strings.Split(path, "/")
	for _, dir := range parts[:len(parts)-1] {
		folder = folder.Lookup(dir)
		if folder == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
	}
	id, ok := folder.FileID(parts[len(parts)-1])
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if int(id) >= len(a.files) {
		return fmt.Errorf("%w: %d", ErrFileID, id)
	}
	a.files[id] = data
	return nil
}

// Save rebuilds the archive image. File payloads are aligned to 4 bytes with
// 0xFF padding between them, matching retail archives.
func (a *Archive) Save() ([]byte, error) {
	fat := make([]byte, 4, 4+len(a.files)*8)
	binary.LittleEndian.PutUint32(fat, uint32(len(a.files)))

	var image []byte
	for i, f := range a.files {
		if i > 0 {
			for len(image)%imageAlign != 0 {
				image = append(image, 0xFF)
			}
		}
		entry := make([]byte, 8)
		binary.LittleEndian.PutUint32(entry[0:4], uint32(len(image)))
		binary.LittleEndian.PutUint32(entry[4:8], uint32(len(image)+len(f)))
		fat = append(fat, entry...)
		image = append(image, f...)
	}

	names, err := fnt.Encode(a.Root)
	if err != nil {
		return nil, err
	}
	for len(names)%imageAlign != 0 {
		names = append(names, 0xFF)
	}

	blocks, err := common.EncodeBlocks([]common.Block{
		{Magic: blockFATB, Body: fat},
		{Magic: blockFNTB, Body: names},
		{Magic: blockFIMG, Body: image},
	}, true)
	if err != nil {
		return nil, err
	}

	header, err := common.Header{
		Magic:         Magic,
		ByteOrderMark: common.BOMDefault,
		FileSize:      uint32(common.HeaderLen + len(blocks)),
		BlockCount:    3,
	}.Encode()
	if err != nil {
		return nil, err
	}
	return append(header, blocks...), nil
}

// SaveCompressed emits the LZ10-wrapped form used on disk for course.bin.
func (a *Archive) SaveCompressed() ([]byte, error) {
	plain, err := a.Save()
	if err != nil {
		return nil, err
	}
	return lz10.Compress(plain), nil
}
