// Package course parses the course lists that name every map in the games:
// courselist.clb (ZCLB) and its optional display-name companion
// courseinit.cib (ZCIB). Spirit Tracks ships both; Phantom Hourglass has no
// init file and so no display names.
package course

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/phst-randomizer/zed/common"
)

const (
	MagicInit = "ZCIB"
	MagicList = "ZCLB"

	headerLen = 0x10
	nameWidth = 0x10
	// Entry length counts itself: u32 length + 0x10 name + tail.
	minEntryLen = 4 + nameWidth
)

var (
	ErrShortFile   = errors.New("course: file shorter than header")
	ErrEntryLength = errors.New("course: entry length out of range")
	ErrShortEntry  = errors.New("course: entry runs past end of file")
)

// Entry is one course: the folder name under Map/ and, when an init file is
// present, the display name. Tails past the fixed name field are preserved
// so EncodeList can reproduce the files.
type Entry struct {
	DisplayName string
	File        string

	initTail []byte
	listTail []byte
}

// List is a parsed course list pair.
type List struct {
	Entries []Entry

	// Header words the parser does not interpret, kept for re-encode.
	HasInit    bool
	InitUnk04  uint32
	InitCount2 uint32
	ListUnk04  uint32
	ListCount2 uint32
}

// ParseList decodes courselist.clb and, when init is non-nil,
// courseinit.cib alongside it. The list's entry count drives the walk; the
// init file is read in lockstep the way the original tooling does.
func ParseList(init, list []byte) (*List, error) {
	if err := checkMagic(list, MagicList); err != nil {
		return nil, err
	}
	hasInit := init != nil
	if hasInit {
		if err := checkMagic(init, MagicInit); err != nil {
			return nil, err
		}
	}

	out := &List{
		HasInit:    hasInit,
		ListUnk04:  binary.LittleEndian.Uint32(list[4:8]),
		ListCount2: binary.LittleEndian.Uint32(list[12:16]),
	}
	count := int(binary.LittleEndian.Uint32(list[8:12]))
	if hasInit {
		out.InitUnk04 = binary.LittleEndian.Uint32(init[4:8])
		out.InitCount2 = binary.LittleEndian.Uint32(init[12:16])
	}

	initOffset, listOffset := headerLen, headerLen
	for i := 0; i < count; i++ {
		var entry Entry

		if hasInit {
			name, tail, next, err := readEntry(init, initOffset)
			if err != nil {
				return nil, fmt.Errorf("init entry %d: %w", i, err)
			}
			entry.DisplayName = name
			entry.initTail = tail
			initOffset = next
		}

		file, tail, next, err := readEntry(list, listOffset)
		if err != nil {
			return nil, fmt.Errorf("list entry %d: %w", i, err)
		}
		entry.File = file
		entry.listTail = tail
		listOffset = next

		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func checkMagic(data []byte, magic string) error {
	if len(data) < headerLen {
		return ErrShortFile
	}
	if string(data[0:4]) != magic {
		return &common.WrongMagicError{Want: magic, Found: string(data[0:4])}
	}
	return nil
}

func readEntry(data []byte, offset int) (name string, tail []byte, next int, err error) {
	if offset+minEntryLen > len(data) {
		return "", nil, 0, ErrShortEntry
	}
	length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	if length < minEntryLen || offset+length > len(data) {
		return "", nil, 0, fmt.Errorf("%w: %d at %#x", ErrEntryLength, length, offset)
	}
	name, err = common.DecodeFixedSJIS(data[offset+4 : offset+4+nameWidth])
	if err != nil {
		return "", nil, 0, err
	}
	tail = make([]byte, length-minEntryLen)
	copy(tail, data[offset+minEntryLen:offset+length])
	return name, tail, offset + length, nil
}

// EncodeList is the inverse of ParseList. The entry count written to both
// headers is len(Entries); unknown header words are emitted as parsed.
func (l *List) EncodeList() (init, list []byte, err error) {
	list, err = encodeFile(MagicList, l.ListUnk04, l.ListCount2, l.Entries, func(e Entry) (string, []byte) {
		return e.File, e.listTail
	})
	if err != nil {
		return nil, nil, err
	}
	if !l.HasInit {
		return nil, list, nil
	}
	init, err = encodeFile(MagicInit, l.InitUnk04, l.InitCount2, l.Entries, func(e Entry) (string, []byte) {
		return e.DisplayName, e.initTail
	})
	if err != nil {
		return nil, nil, err
	}
	return init, list, nil
}

func encodeFile(magic string, unk04, count2 uint32, entries []Entry, pick func(Entry) (string, []byte)) ([]byte, error) {
	out := make([]byte, headerLen)
	copy(out[0:4], magic)
	binary.LittleEndian.PutUint32(out[4:8], unk04)
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(entries)))
	binary.LittleEndian.PutUint32(out[12:16], count2)

	for _, e := range entries {
		name, tail := pick(e)
		field, err := common.EncodeFixedSJIS(name, nameWidth)
		if err != nil {
			return nil, err
		}
		length := make([]byte, 4)
		binary.LittleEndian.PutUint32(length, uint32(minEntryLen+len(tail)))
		out = append(out, length...)
		out = append(out, field...)
		out = append(out, tail...)
	}
	return out, nil
}
