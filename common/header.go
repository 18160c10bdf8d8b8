package common

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLen is the size of the NDS standard file header.
const HeaderLen = 16

// The header's second word looks like a byte order mark; both values appear
// in retail files.
const (
	BOMDefault uint32 = 0x0100FFFE
	BOMAlt     uint32 = 0x0100FEFF
)

var (
	ErrShortHeader    = errors.New("common: short standard header")
	ErrBadHeaderSize  = errors.New("common: header size field is not 16")
	ErrBadFileSize    = errors.New("common: file size field exceeds data")
	ErrBadBOM         = errors.New("common: unrecognized byte order mark")
	ErrShortBlock     = errors.New("common: short block header")
	ErrBlockSize      = errors.New("common: block size out of range")
	ErrBlockCount     = errors.New("common: block count mismatch")
	ErrBadMagicLength = errors.New("common: magic must be 4 bytes")
)

// Header is the standard header that NARC, ZMB and course binaries open with:
// magic, BOM-ish constant, total file size, header size (always 16) and the
// number of blocks that follow.
type Header struct {
	Magic         string
	ByteOrderMark uint32
	FileSize      uint32
	HeaderSize    uint16
	BlockCount    uint16
}

// WrongMagicError reports a magic mismatch with both sides, matching the
// original tooling's message shape.
type WrongMagicError struct {
	Want  string
	Found string
}

func (e *WrongMagicError) Error() string {
	return fmt.Sprintf("common: wrong magic (should be %q, instead found %q)", e.Want, e.Found)
}

// ParseHeader decodes the standard header and verifies the expected magic.
// wantMagic compares against the on-disk bytes as stored, so callers pass the
// stored form (file-level magics are not reversed).
func ParseHeader(data []byte, wantMagic string) (Header, error) {
	if len(data) < HeaderLen {
		return Header{}, ErrShortHeader
	}
	h := Header{
		Magic:         string(data[0:4]),
		ByteOrderMark: binary.LittleEndian.Uint32(data[4:8]),
		FileSize:      binary.LittleEndian.Uint32(data[8:12]),
		HeaderSize:    binary.LittleEndian.Uint16(data[12:14]),
		BlockCount:    binary.LittleEndian.Uint16(data[14:16]),
	}
	if wantMagic != "" && h.Magic != wantMagic {
		return Header{}, &WrongMagicError{Want: wantMagic, Found: h.Magic}
	}
	if h.HeaderSize != HeaderLen {
		return Header{}, ErrBadHeaderSize
	}
	if h.ByteOrderMark != BOMDefault && h.ByteOrderMark != BOMAlt {
		return Header{}, ErrBadBOM
	}
	if int(h.FileSize) > len(data) {
		return Header{}, ErrBadFileSize
	}
	return h, nil
}

// Encode emits the 16-byte header. A zero ByteOrderMark becomes BOMDefault.
func (h Header) Encode() ([]byte, error) {
	if len(h.Magic) != 4 {
		return nil, ErrBadMagicLength
	}
	bom := h.ByteOrderMark
	if bom == 0 {
		bom = BOMDefault
	}
	buf := make([]byte, HeaderLen)
	copy(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], bom)
	binary.LittleEndian.PutUint32(buf[8:12], h.FileSize)
	binary.LittleEndian.PutUint16(buf[12:14], HeaderLen)
	binary.LittleEndian.PutUint16(buf[14:16], h.BlockCount)
	return buf, nil
}
