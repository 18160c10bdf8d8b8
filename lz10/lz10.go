// Package lz10 implements the LZ77 variant ("LZ10") the games use for
// course.bin and friends. The decompressor is a port of the NSMBe-derived
// routine, which was converted from Elitemap.
package lz10

import (
	"encoding/binary"
	"errors"
)

// TypeByte is the compression type tag in the stream's first byte.
const TypeByte = 0x10

const (
	minMatch    = 3
	maxMatch    = 18
	windowRange = 0x1000
)

var (
	ErrBadType   = errors.New("lz10: first byte is not 0x10")
	ErrTruncated = errors.New("lz10: truncated input")
	ErrBackref   = errors.New("lz10: back-reference before start of output")
)

// Decompress expands an LZ10 stream. The 24-bit length after the type byte is
// authoritative: decoding stops the moment it is satisfied, even mid-token.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, ErrTruncated
	}
	if data[0] != TypeByte {
		return nil, ErrBadType
	}
	remaining := int(binary.LittleEndian.Uint32(data) >> 8)

	out := make([]byte, remaining)
	inPos, outPos := 4, 0

	for remaining > 0 {
		if inPos >= len(data) {
			return nil, ErrTruncated
		}
		flags := data[inPos]
		inPos++

		if flags == 0 {
			// All-literal fast path: eight raw bytes.
			for i := 0; i < 8; i++ {
				if inPos >= len(data) {
					return nil, ErrTruncated
				}
				out[outPos] = data[inPos]
				outPos++
				inPos++
				remaining--
				if remaining == 0 {
					return out, nil
				}
			}
			continue
		}

		for i := 0; i < 8; i++ {
			if flags&0x80 != 0 {
				if inPos+2 > len(data) {
					return nil, ErrTruncated
				}
				// Token is stored big-endian: 4 bits length, 12 bits offset.
				token := binary.BigEndian.Uint16(data[inPos : inPos+2])
				inPos += 2

				length := int(token>>12) + minMatch
				offset := int(token & 0xFFF)
				windowPos := outPos - offset - 1
				if windowPos < 0 {
					return nil, ErrBackref
				}

				for j := 0; j < length; j++ {
					out[outPos] = out[windowPos]
					outPos++
					windowPos++
					remaining--
					if remaining == 0 {
						return out, nil
					}
				}
			} else {
				if inPos >= len(data) {
					return nil, ErrTruncated
				}
				out[outPos] = data[inPos]
				outPos++
				inPos++
				remaining--
				if remaining == 0 {
					return out, nil
				}
			}
			flags <<= 1
		}
	}

	return out, nil
}

// Compress produces an LZ10 stream that Decompress inverts. Greedy longest
// match over the 0x1000-byte window, match lengths 3..18.
func Compress(data []byte) []byte {
	out := make([]byte, 0, len(data)/2+8)
	head := make([]byte, 4)
	binary.LittleEndian.PutUint32(head, uint32(len(data))<<8|TypeByte)
	out = append(out, head...)

	pos := 0
	for pos < len(data) {
		flagIndex := len(out)
		out = append(out, 0)
		var flags byte

		for bit := 0; bit < 8 && pos < len(data); bit++ {
			length, distance := findMatch(data, pos)
			if length >= minMatch {
				flags |= 0x80 >> bit
				token := uint16(length-minMatch)<<12 | uint16(distance-1)
				out = append(out, byte(token>>8), byte(token))
				pos += length
			} else {
				out = append(out, data[pos])
				pos++
			}
		}
		out[flagIndex] = flags
	}
	return out
}

// findMatch returns the longest match for data[pos:] within the window, and
// the distance back to it. Overlapping matches are legal; the decompressor
// copies byte by byte.
func findMatch(data []byte, pos int) (length, distance int) {
	limit := len(data) - pos
	if limit > maxMatch {
		limit = maxMatch
	}
	if limit < minMatch {
		return 0, 0
	}
	start := pos - windowRange
	if start < 0 {
		start = 0
	}
	for candidate := pos - 1; candidate >= start; candidate-- {
		n := 0
		for n < limit && data[candidate+n] == data[pos+n] {
			n++
		}
		if n > length {
			length = n
			distance = pos - candidate
			if length == maxMatch {
				break
			}
		}
	}
	return length, distance
}
