package common

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	in := Header{Magic: "NARC", ByteOrderMark: BOMAlt, FileSize: 0x100, BlockCount: 3}
	buf, err := in.Encode()
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}
	if len(buf) != HeaderLen {
		t.Fatalf("encoded header length = %d, want %d", len(buf), HeaderLen)
	}
	// ParseHeader checks FileSize against the data it is handed.
	data := append(buf, make([]byte, 0x100-HeaderLen)...)
	out, err := ParseHeader(data, "NARC")
	if err != nil {
		t.Fatalf("parse header: %v", err)
	}
	want := in
	want.HeaderSize = HeaderLen
	if out != want {
		t.Fatalf("header mismatch: got=%+v want=%+v", out, want)
	}
}

func TestParseHeaderWrongMagic(t *testing.T) {
	h := Header{Magic: "ZMB1", FileSize: HeaderLen}
	buf, err := h.Encode()
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}
	_, err = ParseHeader(buf, "NARC")
	var wm *WrongMagicError
	if !errors.As(err, &wm) {
		t.Fatalf("expected WrongMagicError, got %v", err)
	}
	if wm.Want != "NARC" || wm.Found != "ZMB1" {
		t.Fatalf("unexpected magic pair: %+v", wm)
	}
}

func TestParseHeaderShort(t *testing.T) {
	if _, err := ParseHeader([]byte{1, 2, 3}, ""); !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestParseHeaderFileSizeBeyondData(t *testing.T) {
	h := Header{Magic: "NARC", FileSize: 0x1000}
	buf, err := h.Encode()
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}
	if _, err := ParseHeader(buf, "NARC"); !errors.Is(err, ErrBadFileSize) {
		t.Fatalf("expected ErrBadFileSize, got %v", err)
	}
}

func TestBlocksRoundTripReversed(t *testing.T) {
	in := []Block{
		{Magic: "FATB", Body: []byte{1, 2, 3, 4}},
		{Magic: "FNTB", Body: nil},
		{Magic: "FIMG", Body: bytes.Repeat([]byte{0xFF}, 9)},
	}
	buf, err := EncodeBlocks(in, true)
	if err != nil {
		t.Fatalf("encode blocks: %v", err)
	}
	if string(buf[0:4]) != "BTAF" {
		t.Fatalf("stored magic not reversed: %q", buf[0:4])
	}
	out, err := ParseBlocks(buf, len(in), true)
	if err != nil {
		t.Fatalf("parse blocks: %v", err)
	}
	for i := range in {
		if out[i].Magic != in[i].Magic {
			t.Fatalf("block %d magic mismatch: %q", i, out[i].Magic)
		}
		if !bytes.Equal(out[i].Body, in[i].Body) {
			t.Fatalf("block %d body mismatch", i)
		}
	}
}

func TestParseBlocksTruncated(t *testing.T) {
	buf, err := EncodeBlocks([]Block{{Magic: "FATB", Body: []byte{1}}}, true)
	if err != nil {
		t.Fatalf("encode blocks: %v", err)
	}
	if _, err := ParseBlocks(buf[:len(buf)-1], 1, true); !errors.Is(err, ErrBlockSize) {
		t.Fatalf("expected ErrBlockSize, got %v", err)
	}
	if _, err := ParseBlocks(buf[:4], 1, true); !errors.Is(err, ErrShortBlock) {
		t.Fatalf("expected ErrShortBlock, got %v", err)
	}
}

func TestReverseMagic(t *testing.T) {
	if got := ReverseMagic("FATB"); got != "BTAF" {
		t.Fatalf("ReverseMagic = %q", got)
	}
	if got := ReverseMagic(ReverseMagic("GMIF")); got != "GMIF" {
		t.Fatalf("double reverse = %q", got)
	}
}
