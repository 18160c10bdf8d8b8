package common

import "encoding/binary"

// Block is one size-prefixed block following a standard header. Body excludes
// the 8-byte block header; Magic is the conventional (un-reversed) name.
type Block struct {
	Magic string
	Body  []byte
}

// Len is the block's encoded size including its own header.
func (b Block) Len() int {
	return 8 + len(b.Body)
}

// ReverseMagic flips a 4-byte magic. Sub-block magics are stored on disk in
// reverse ("FATB" reads back as "BTAF").
func ReverseMagic(m string) string {
	if len(m) != 4 {
		return m
	}
	return string([]byte{m[3], m[2], m[1], m[0]})
}

// ParseBlocks walks count blocks starting at data[0]. Each block carries a
// 4-byte magic and a u32 size that includes the 8-byte block header. With
// reversedMagic set, stored magics are flipped back to their conventional
// names before being returned.
func ParseBlocks(data []byte, count int, reversedMagic bool) ([]Block, error) {
	blocks := make([]Block, 0, count)
	offset := 0
	for i := 0; i < count; i++ {
		if len(data)-offset < 8 {
			return nil, ErrShortBlock
		}
		magic := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		if size < 8 || int(size) > len(data)-offset {
			return nil, ErrBlockSize
		}
		if reversedMagic {
			magic = ReverseMagic(magic)
		}
		body := make([]byte, size-8)
		copy(body, data[offset+8:offset+int(size)])
		blocks = append(blocks, Block{Magic: magic, Body: body})
		offset += int(size)
	}
	return blocks, nil
}

// EncodeBlocks is the inverse of ParseBlocks.
func EncodeBlocks(blocks []Block, reversedMagic bool) ([]byte, error) {
	total := 0
	for _, b := range blocks {
		if len(b.Magic) != 4 {
			return nil, ErrBadMagicLength
		}
		total += b.Len()
	}
	buf := make([]byte, 0, total)
	for _, b := range blocks {
		magic := b.Magic
		if reversedMagic {
			magic = ReverseMagic(magic)
		}
		head := make([]byte, 8)
		copy(head[0:4], magic)
		binary.LittleEndian.PutUint32(head[4:8], uint32(b.Len()))
		buf = append(buf, head...)
		buf = append(buf, b.Body...)
	}
	return buf, nil
}

// FindBlock returns the first block with the given conventional magic.
func FindBlock(blocks []Block, magic string) (Block, bool) {
	for _, b := range blocks {
		if b.Magic == magic {
			return b, true
		}
	}
	return Block{}, false
}
