package bmg

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// TextEncoding is the character encoding declared in the file header and
// used by every DAT1 string.
type TextEncoding uint8

const (
	CP1252   TextEncoding = 1
	UTF16    TextEncoding = 2 // little-endian
	ShiftJIS TextEncoding = 3
	UTF8     TextEncoding = 4
)

func (e TextEncoding) String() string {
	switch e {
	case CP1252:
		return "cp1252"
	case UTF16:
		return "utf-16"
	case ShiftJIS:
		return "shift-jis"
	case UTF8:
		return "utf-8"
	}
	return fmt.Sprintf("encoding(%d)", uint8(e))
}

func (e TextEncoding) valid() bool { return e >= CP1252 && e <= UTF8 }

// unitLen is the width of one code unit, which is also the width of the
// NUL terminator.
func (e TextEncoding) unitLen() int {
	if e == UTF16 {
		return 2
	}
	return 1
}

func (e TextEncoding) codec() (encoding.Encoding, error) {
	switch e {
	case CP1252:
		return charmap.Windows1252, nil
	case UTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case ShiftJIS:
		return japanese.ShiftJIS, nil
	case UTF8:
		return unicode.UTF8, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrEncoding, uint8(e))
}

// escapeIntro opens an escape sequence inside message text. The byte
// following the introducer holds the escape's total length, counted from
// the introducer itself.
const escapeIntro = 0x1A

// Part is one run of a message: either decoded text or one raw escape
// sequence, kept verbatim from the introducer through its last byte.
// Exactly one of the two fields is set.
type Part struct {
	Text   string
	Escape []byte
}

// Message is one entry of the INF1/DAT1 pair: the text content and the
// attribute bytes stored alongside the string offset. Attributes come back
// zero-padded to the table's uniform entry length after a save.
type Message struct {
	Attributes []byte
	Parts      []Part
}

// NewMessage wraps plain text in a Message with no attributes.
func NewMessage(text string) Message {
	return Message{Parts: []Part{{Text: text}}}
}

// String flattens the message for display. Escape sequences render as
// bracketed hex.
func (m Message) String() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Escape != nil {
			fmt.Fprintf(&b, "[%X]", p.Escape)
		} else {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// decodeString reads one NUL-terminated string from data starting at off,
// splitting it into text runs and raw escape sequences.
func decodeString(enc TextEncoding, data []byte, off int) ([]Part, error) {
	if off < 0 || off > len(data) {
		return nil, fmt.Errorf("%w: %#x", ErrStringOffset, off)
	}
	codec, err := enc.codec()
	if err != nil {
		return nil, err
	}

	var parts []Part
	runStart := off
	flush := func(end int) error {
		if end == runStart {
			return nil
		}
		text, err := codec.NewDecoder().Bytes(data[runStart:end])
		if err != nil {
			return fmt.Errorf("bmg: %s decode: %w", enc, err)
		}
		parts = append(parts, Part{Text: string(text)})
		return nil
	}

	step := enc.unitLen()
	pos := off
	for {
		if pos+step > len(data) {
			return nil, ErrUnterminated
		}
		var unit uint16
		if step == 2 {
			unit = binary.LittleEndian.Uint16(data[pos : pos+2])
		} else {
			unit = uint16(data[pos])
		}
		switch unit {
		case 0:
			if err := flush(pos); err != nil {
				return nil, err
			}
			return parts, nil
		case escapeIntro:
			if err := flush(pos); err != nil {
				return nil, err
			}
			esc, next, err := scanEscape(data, pos, step)
			if err != nil {
				return nil, err
			}
			parts = append(parts, Part{Escape: esc})
			pos, runStart = next, next
		default:
			pos += step
		}
	}
}

// scanEscape slices one escape sequence out of data. The declared length
// is authoritative even when it leaves a 2-byte encoding misaligned.
func scanEscape(data []byte, pos, step int) ([]byte, int, error) {
	lenAt := pos + step
	if lenAt >= len(data) {
		return nil, 0, ErrEscape
	}
	total := int(data[lenAt])
	if total < step+1 || pos+total > len(data) {
		return nil, 0, fmt.Errorf("%w: length %d at %#x", ErrEscape, total, pos)
	}
	esc := make([]byte, total)
	copy(esc, data[pos:pos+total])
	return esc, pos + total, nil
}

// encodeString is the inverse of decodeString, without the terminator.
func encodeString(enc TextEncoding, parts []Part) ([]byte, error) {
	codec, err := enc.codec()
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, p := range parts {
		if p.Escape != nil {
			if len(p.Escape) == 0 || p.Escape[0] != escapeIntro {
				return nil, fmt.Errorf("%w: escape must open with 0x1A", ErrEscape)
			}
			out = append(out, p.Escape...)
			continue
		}
		if p.Text == "" {
			continue
		}
		b, err := codec.NewEncoder().Bytes([]byte(p.Text))
		if err != nil {
			return nil, fmt.Errorf("bmg: %s encode: %w", enc, err)
		}
		out = append(out, b...)
	}
	return out, nil
}
