// Package bmg reads and writes the games' MESGbmg1 message files: the
// dialogue text and, when present, the event script blocks that drive it.
//
// Parse decodes the INF1/DAT1 message pair plus the FLW1 script flow and
// FLI1 script index blocks. Every block is also retained raw, and Save
// re-emits the raw bytes for any block whose typed view was not replaced
// through a setter, so an unmodified file round-trips byte for byte.
package bmg

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/phst-randomizer/zed/common"
	"github.com/phst-randomizer/zed/script"
)

// Magic opens every message file.
const Magic = "MESGbmg1"

const (
	headerLen = 0x20
	// Blocks are padded to this boundary, matching retail files.
	blockAlign = 0x20
)

var (
	ErrShortFile    = errors.New("bmg: file shorter than header")
	ErrFileSize     = errors.New("bmg: file size field exceeds data")
	ErrEncoding     = errors.New("bmg: unknown text encoding")
	ErrMissingBlock = errors.New("bmg: required block missing")
	ErrBlockLayout  = errors.New("bmg: block contents run past block end")
	ErrStringOffset = errors.New("bmg: string offset outside DAT1")
	ErrUnterminated = errors.New("bmg: unterminated string")
	ErrEscape       = errors.New("bmg: malformed escape sequence")
)

// ScriptEntry binds a script ID to the instruction slot it starts at.
type ScriptEntry struct {
	ScriptID    uint32
	Instruction uint16
}

// File is one parsed message file.
type File struct {
	id       uint32
	encoding TextEncoding

	messages     []Message
	instructions []uint64
	labels       []script.Label
	scripts      []ScriptEntry

	headerTail   []byte
	blocks       []common.Block
	inf1EntryLen int
	fli1EntryLen int
	flw1Pad      [4]byte
	fli1Pad      [4]byte

	msgDirty     bool
	flowDirty    bool
	scriptsDirty bool
}

// New starts an empty message file with the given file ID and text
// encoding.
func New(id uint32, enc TextEncoding) (*File, error) {
	if !enc.valid() {
		return nil, fmt.Errorf("%w: %d", ErrEncoding, uint8(enc))
	}
	return &File{
		id:         id,
		encoding:   enc,
		headerTail: make([]byte, headerLen-0x11),
		msgDirty:   true,
	}, nil
}

// Parse decodes a message file.
func Parse(data []byte) (*File, error) {
	if len(data) < headerLen {
		return nil, ErrShortFile
	}
	if string(data[0:8]) != Magic {
		return nil, &common.WrongMagicError{Want: Magic, Found: string(data[0:8])}
	}
	if size := binary.LittleEndian.Uint32(data[8:12]); int(size) > len(data) {
		return nil, ErrFileSize
	}
	count := binary.LittleEndian.Uint32(data[12:16])

	f := &File{
		encoding:   TextEncoding(data[0x10]),
		headerTail: append([]byte(nil), data[0x11:headerLen]...),
	}
	if !f.encoding.valid() {
		return nil, fmt.Errorf("%w: %d", ErrEncoding, data[0x10])
	}

	blocks, err := common.ParseBlocks(data[headerLen:], int(count), false)
	if err != nil {
		return nil, err
	}
	f.blocks = blocks

	inf1, ok := common.FindBlock(blocks, "INF1")
	if !ok {
		return nil, fmt.Errorf("%w: INF1", ErrMissingBlock)
	}
	dat1, ok := common.FindBlock(blocks, "DAT1")
	if !ok {
		return nil, fmt.Errorf("%w: DAT1", ErrMissingBlock)
	}
	if err := f.parseMessages(inf1.Body, dat1.Body); err != nil {
		return nil, err
	}
	if flw1, ok := common.FindBlock(blocks, "FLW1"); ok {
		if err := f.parseFlow(flw1.Body); err != nil {
			return nil, err
		}
	}
	if fli1, ok := common.FindBlock(blocks, "FLI1"); ok {
		if err := f.parseScripts(fli1.Body); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *File) parseMessages(inf1, dat1 []byte) error {
	if len(inf1) < 8 {
		return fmt.Errorf("%w: INF1", ErrBlockLayout)
	}
	count := int(binary.LittleEndian.Uint16(inf1[0:2]))
	entryLen := int(binary.LittleEndian.Uint16(inf1[2:4]))
	f.id = binary.LittleEndian.Uint32(inf1[4:8])
	if entryLen < 4 || 8+count*entryLen > len(inf1) {
		return fmt.Errorf("%w: INF1", ErrBlockLayout)
	}
	f.inf1EntryLen = entryLen

	f.messages = make([]Message, 0, count)
	for i := 0; i < count; i++ {
		entry := inf1[8+i*entryLen : 8+(i+1)*entryLen]
		off := binary.LittleEndian.Uint32(entry[0:4])
		parts, err := decodeString(f.encoding, dat1, int(off))
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		f.messages = append(f.messages, Message{
			Attributes: append([]byte(nil), entry[4:]...),
			Parts:      parts,
		})
	}
	return nil
}

func (f *File) parseFlow(body []byte) error {
	if len(body) < 8 {
		return fmt.Errorf("%w: FLW1", ErrBlockLayout)
	}
	instCount := int(binary.LittleEndian.Uint16(body[0:2]))
	labelCount := int(binary.LittleEndian.Uint16(body[2:4]))
	copy(f.flw1Pad[:], body[4:8])
	if 8+instCount*8+labelCount*3 > len(body) {
		return fmt.Errorf("%w: FLW1", ErrBlockLayout)
	}

	f.instructions = make([]uint64, instCount)
	pos := 8
	for i := range f.instructions {
		f.instructions[i] = binary.LittleEndian.Uint64(body[pos : pos+8])
		pos += 8
	}
	indices := make([]uint16, labelCount)
	for i := range indices {
		indices[i] = binary.LittleEndian.Uint16(body[pos : pos+2])
		pos += 2
	}
	bmgIDs := make([]uint8, labelCount)
	copy(bmgIDs, body[pos:pos+labelCount])

	labels, err := script.Labels(bmgIDs, indices)
	if err != nil {
		return err
	}
	f.labels = labels
	return nil
}

func (f *File) parseScripts(body []byte) error {
	if len(body) < 8 {
		return fmt.Errorf("%w: FLI1", ErrBlockLayout)
	}
	count := int(binary.LittleEndian.Uint16(body[0:2]))
	entryLen := int(binary.LittleEndian.Uint16(body[2:4]))
	copy(f.fli1Pad[:], body[4:8])
	if entryLen < 6 || 8+count*entryLen > len(body) {
		return fmt.Errorf("%w: FLI1", ErrBlockLayout)
	}
	f.fli1EntryLen = entryLen

	f.scripts = make([]ScriptEntry, count)
	for i := range f.scripts {
		entry := body[8+i*entryLen:]
		f.scripts[i] = ScriptEntry{
			ScriptID:    binary.LittleEndian.Uint32(entry[0:4]),
			Instruction: binary.LittleEndian.Uint16(entry[4:6]),
		}
	}
	return nil
}

// ID is the file's INF1 identifier. Script labels and SAY instructions
// reference message files by it.
func (f *File) ID() uint32 { return f.id }

// SetID replaces the file ID.
func (f *File) SetID(id uint32) {
	f.id = id
	f.msgDirty = true
}

// Encoding is the text encoding declared in the header.
func (f *File) Encoding() TextEncoding { return f.encoding }

// SetEncoding switches the text encoding. Every message is re-encoded on
// the next Save.
func (f *File) SetEncoding(enc TextEncoding) error {
	if !enc.valid() {
		return fmt.Errorf("%w: %d", ErrEncoding, uint8(enc))
	}
	f.encoding = enc
	f.msgDirty = true
	return nil
}

// Messages returns the decoded message table. Treat the slice as read
// only; replace it with SetMessages.
func (f *File) Messages() []Message { return f.messages }

func (f *File) SetMessages(msgs []Message) {
	f.messages = msgs
	f.msgDirty = true
}

// Instructions returns the raw FLW1 script words; Labels the jump slots
// alongside them. SetFlow replaces both together, which keeps the written
// label count and the arrays in step.
func (f *File) Instructions() []uint64 { return f.instructions }
func (f *File) Labels() []script.Label { return f.labels }

func (f *File) SetFlow(instructions []uint64, labels []script.Label) {
	f.instructions = instructions
	f.labels = labels
	f.flowDirty = true
}

// Scripts returns the FLI1 entry points.
func (f *File) Scripts() []ScriptEntry { return f.scripts }

func (f *File) SetScripts(entries []ScriptEntry) {
	f.scripts = entries
	f.scriptsDirty = true
}

// Save encodes the file. Blocks whose typed view was never replaced are
// emitted from their original bytes.
func (f *File) Save() ([]byte, error) {
	blocks := make([]common.Block, len(f.blocks))
	copy(blocks, f.blocks)

	if f.msgDirty {
		inf1, dat1, err := f.encodeMessages()
		if err != nil {
			return nil, err
		}
		blocks = setBlock(blocks, "INF1", inf1)
		blocks = setBlock(blocks, "DAT1", dat1)
	}
	if f.flowDirty {
		blocks = setBlock(blocks, "FLW1", f.encodeFlow())
	}
	if f.scriptsDirty {
		blocks = setBlock(blocks, "FLI1", f.encodeScripts())
	}

	body, err := common.EncodeBlocks(blocks, false)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerLen, headerLen+len(body))
	copy(out[0:8], Magic)
	binary.LittleEndian.PutUint32(out[8:12], uint32(headerLen+len(body)))
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(blocks)))
	out[0x10] = byte(f.encoding)
	copy(out[0x11:], f.headerTail)
	return append(out, body...), nil
}

func (f *File) encodeMessages() (inf1, dat1 []byte, err error) {
	entryLen := f.inf1EntryLen
	if entryLen < 4 {
		entryLen = 4
	}
	for _, m := range f.messages {
		if need := 4 + len(m.Attributes); need > entryLen {
			entryLen = need
		}
	}

	term := make([]byte, f.encoding.unitLen())
	dat1 = append(dat1, term...)

	inf1 = make([]byte, 8, 8+len(f.messages)*entryLen)
	binary.LittleEndian.PutUint16(inf1[0:2], uint16(len(f.messages)))
	binary.LittleEndian.PutUint16(inf1[2:4], uint16(entryLen))
	binary.LittleEndian.PutUint32(inf1[4:8], f.id)

	for i, m := range f.messages {
		enc, err := encodeString(f.encoding, m.Parts)
		if err != nil {
			return nil, nil, fmt.Errorf("message %d: %w", i, err)
		}
		off := 0 // empty messages share the leading terminator
		if len(enc) > 0 {
			off = len(dat1)
			dat1 = append(dat1, enc...)
			dat1 = append(dat1, term...)
		}

		entry := make([]byte, entryLen)
		binary.LittleEndian.PutUint32(entry[0:4], uint32(off))
		copy(entry[4:], m.Attributes)
		inf1 = append(inf1, entry...)
	}
	return padBlock(inf1), padBlock(dat1), nil
}

func (f *File) encodeFlow() []byte {
	body := make([]byte, 8, 8+len(f.instructions)*8+len(f.labels)*3)
	binary.LittleEndian.PutUint16(body[0:2], uint16(len(f.instructions)))
	binary.LittleEndian.PutUint16(body[2:4], uint16(len(f.labels)))
	copy(body[4:8], f.flw1Pad[:])

	var word [8]byte
	for _, inst := range f.instructions {
		binary.LittleEndian.PutUint64(word[:], inst)
		body = append(body, word[:]...)
	}
	for _, l := range f.labels {
		var idx [2]byte
		binary.LittleEndian.PutUint16(idx[:], uint16(int16(l.Index)))
		body = append(body, idx[:]...)
	}
	for _, l := range f.labels {
		body = append(body, uint8(int8(l.BMG)))
	}
	return padBlock(body)
}

func (f *File) encodeScripts() []byte {
	entryLen := f.fli1EntryLen
	if entryLen < 6 {
		entryLen = 8
	}
	body := make([]byte, 8, 8+len(f.scripts)*entryLen)
	binary.LittleEndian.PutUint16(body[0:2], uint16(len(f.scripts)))
	binary.LittleEndian.PutUint16(body[2:4], uint16(entryLen))
	copy(body[4:8], f.fli1Pad[:])

	for _, s := range f.scripts {
		entry := make([]byte, entryLen)
		binary.LittleEndian.PutUint32(entry[0:4], s.ScriptID)
		binary.LittleEndian.PutUint16(entry[4:6], s.Instruction)
		body = append(body, entry...)
	}
	return padBlock(body)
}

// padBlock zero-pads a body so the whole block, its 8-byte header
// included, ends on the alignment boundary.
func padBlock(body []byte) []byte {
	for (8+len(body))%blockAlign != 0 {
		body = append(body, 0)
	}
	return body
}

func setBlock(blocks []common.Block, magic string, body []byte) []common.Block {
	for i := range blocks {
		if blocks[i].Magic == magic {
			blocks[i].Body = body
			return blocks
		}
	}
	return append(blocks, common.Block{Magic: magic, Body: body})
}
