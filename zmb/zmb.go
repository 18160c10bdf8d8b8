// Package zmb reads and writes the games' map binaries: the per-room ZMB
// files inside each course archive that place objects, actors and
// triggers.
//
// Phantom Hourglass and Spirit Tracks share the container but not every
// entry layout, so Parse and Save both take the game. Sections are kept
// raw and re-emitted verbatim unless replaced through a setter, so an
// unmodified file round-trips byte for byte.
package zmb

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/phst-randomizer/zed/common"
)

// Magic is the file magic in its conventional form; like every magic in
// these formats it is stored reversed on disk.
const Magic = "ZMB1"

// Section magics the typed views decode.
const (
	SectionMapObjects = "MPOB"
	SectionNPCs       = "NPCA"
)

var (
	ErrGameMismatch  = errors.New("zmb: cannot save for a different game")
	ErrSectionLayout = errors.New("zmb: section contents run past section end")
	ErrEntrySize     = errors.New("zmb: entry tail has wrong size")
)

// File is one parsed map binary.
type File struct {
	game     common.Game
	bom      uint32
	sections []common.Block
}

// Parse decodes a map binary for the given game. Section bodies are kept
// raw; the typed views validate their layout on access.
func Parse(game common.Game, data []byte) (*File, error) {
	h, err := common.ParseHeader(data, common.ReverseMagic(Magic))
	if err != nil {
		return nil, err
	}
	sections, err := common.ParseBlocks(data[common.HeaderLen:], int(h.BlockCount), true)
	if err != nil {
		return nil, err
	}
	return &File{game: game, bom: h.ByteOrderMark, sections: sections}, nil
}

// Game returns the game the file was parsed for.
func (f *File) Game() common.Game { return f.game }

// Sections returns the file's sections in file order, bodies raw. Treat
// the slice as read only.
func (f *File) Sections() []common.Block { return f.sections }

// Save encodes the file. game must match the game it was parsed for;
// entry layouts differ between the two and a silent cross-save would
// corrupt the map.
func (f *File) Save(game common.Game) ([]byte, error) {
	if game != f.game {
		return nil, fmt.Errorf("%w: parsed as %s, saving as %s", ErrGameMismatch, f.game, game)
	}
	body, err := common.EncodeBlocks(f.sections, true)
	if err != nil {
		return nil, err
	}
	header, err := common.Header{
		Magic:         common.ReverseMagic(Magic),
		ByteOrderMark: f.bom,
		FileSize:      uint32(common.HeaderLen + len(body)),
		BlockCount:    uint16(len(f.sections)),
	}.Encode()
	if err != nil {
		return nil, err
	}
	return append(header, body...), nil
}

func (f *File) sectionBody(magic string) ([]byte, bool) {
	sec, ok := common.FindBlock(f.sections, magic)
	return sec.Body, ok
}

func (f *File) setSection(magic string, body []byte) {
	for i := range f.sections {
		if f.sections[i].Magic == magic {
			f.sections[i].Body = body
			return
		}
	}
	f.sections = append(f.sections, common.Block{Magic: magic, Body: body})
}

// mapObjectLen is the MPOB entry size, which grew by four bytes in
// Spirit Tracks.
func mapObjectLen(g common.Game) int {
	if g == common.SpiritTracks {
		return 0x20
	}
	return 0x1C
}

const npcLen = 0x20

// MapObject is one MPOB entry: the object's type ID and tile position.
// Bytes past the modeled fields are kept raw per entry.
type MapObject struct {
	ID      uint16
	Unknown uint16
	X       uint16
	Y       uint16

	tail []byte
}

// NPC is one NPCA entry: the script driving the actor and its position.
// Bytes past the modeled fields are kept raw per entry.
type NPC struct {
	ScriptID uint32
	X        uint16
	Y        uint16

	tail []byte
}

// MapObjects decodes the MPOB section. A file without one yields nil.
func (f *File) MapObjects() ([]MapObject, error) {
	body, ok := f.sectionBody(SectionMapObjects)
	if !ok {
		return nil, nil
	}
	esize := mapObjectLen(f.game)
	count, err := sectionCount(body, esize, SectionMapObjects)
	if err != nil {
		return nil, err
	}
	out := make([]MapObject, count)
	for i := range out {
		e := body[4+i*esize : 4+(i+1)*esize]
		out[i] = MapObject{
			ID:      binary.LittleEndian.Uint16(e[0:2]),
			Unknown: binary.LittleEndian.Uint16(e[2:4]),
			X:       binary.LittleEndian.Uint16(e[4:6]),
			Y:       binary.LittleEndian.Uint16(e[6:8]),
			tail:    append([]byte(nil), e[8:]...),
		}
	}
	return out, nil
}

// SetMapObjects re-encodes the MPOB section from objs. Objects not read
// from a file of the same game must carry the right tail width.
func (f *File) SetMapObjects(objs []MapObject) error {
	esize := mapObjectLen(f.game)
	body := f.newSectionBody(SectionMapObjects, len(objs), esize)
	for i, o := range objs {
		e := make([]byte, esize)
		binary.LittleEndian.PutUint16(e[0:2], o.ID)
		binary.LittleEndian.PutUint16(e[2:4], o.Unknown)
		binary.LittleEndian.PutUint16(e[4:6], o.X)
		binary.LittleEndian.PutUint16(e[6:8], o.Y)
		if o.tail != nil {
			if len(o.tail) != esize-8 {
				return fmt.Errorf("%w: object %d has %d tail bytes, want %d",
					ErrEntrySize, i, len(o.tail), esize-8)
			}
			copy(e[8:], o.tail)
		}
		body = append(body, e...)
	}
	f.setSection(SectionMapObjects, body)
	return nil
}

// NPCs decodes the NPCA section. A file without one yields nil.
func (f *File) NPCs() ([]NPC, error) {
	body, ok := f.sectionBody(SectionNPCs)
	if !ok {
		return nil, nil
	}
	count, err := sectionCount(body, npcLen, SectionNPCs)
	if err != nil {
		return nil, err
	}
	out := make([]NPC, count)
	for i := range out {
		e := body[4+i*npcLen : 4+(i+1)*npcLen]
		out[i] = NPC{
			ScriptID: binary.LittleEndian.Uint32(e[0:4]),
			X:        binary.LittleEndian.Uint16(e[4:6]),
			Y:        binary.LittleEndian.Uint16(e[6:8]),
			tail:     append([]byte(nil), e[8:]...),
		}
	}
	return out, nil
}

// SetNPCs re-encodes the NPCA section from npcs.
func (f *File) SetNPCs(npcs []NPC) error {
	body := f.newSectionBody(SectionNPCs, len(npcs), npcLen)
	for i, n := range npcs {
		e := make([]byte, npcLen)
		binary.LittleEndian.PutUint32(e[0:4], n.ScriptID)
		binary.LittleEndian.PutUint16(e[4:6], n.X)
		binary.LittleEndian.PutUint16(e[6:8], n.Y)
		if n.tail != nil {
			if len(n.tail) != npcLen-8 {
				return fmt.Errorf("%w: npc %d has %d tail bytes, want %d",
					ErrEntrySize, i, len(n.tail), npcLen-8)
			}
			copy(e[8:], n.tail)
		}
		body = append(body, e...)
	}
	f.setSection(SectionNPCs, body)
	return nil
}

// sectionCount reads the section's leading entry count and bounds-checks
// it against the body.
func sectionCount(body []byte, esize int, magic string) (int, error) {
	if len(body) < 4 {
		return 0, fmt.Errorf("%w: %s", ErrSectionLayout, magic)
	}
	count := int(binary.LittleEndian.Uint16(body[0:2]))
	if 4+count*esize > len(body) {
		return 0, fmt.Errorf("%w: %s", ErrSectionLayout, magic)
	}
	return count, nil
}

// newSectionBody starts a section body with the entry count written and
// the unknown header word carried over from the existing section.
func (f *File) newSectionBody(magic string, count, esize int) []byte {
	body := make([]byte, 4, 4+count*esize)
	binary.LittleEndian.PutUint16(body[0:2], uint16(count))
	if old, ok := f.sectionBody(magic); ok && len(old) >= 4 {
		copy(body[2:4], old[2:4])
	}
	return body
}
