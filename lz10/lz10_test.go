package lz10

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestDecompressKnownVector(t *testing.T) {
	// "aaaaaaaa": one literal then a length-7 overlapping back-reference.
	stream := []byte{0x10, 0x08, 0x00, 0x00, 0x40, 'a', 0x40, 0x00}
	got, err := Decompress(stream)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(got) != "aaaaaaaa" {
		t.Fatalf("got %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(0x1A))
	random := make([]byte, 4096)
	rng.Read(random)

	cases := [][]byte{
		nil,
		[]byte{0x42},
		[]byte("ab"),
		[]byte("abcabcabcabcabcabc"),
		bytes.Repeat([]byte{0xFF}, 5000),
		append(bytes.Repeat([]byte("narc"), 700), random...),
		random,
	}
	for i, in := range cases {
		packed := Compress(in)
		if packed[0] != TypeByte {
			t.Fatalf("case %d: type byte = %#x", i, packed[0])
		}
		out, err := Decompress(packed)
		if err != nil {
			t.Fatalf("case %d: decompress: %v", i, err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("case %d: round trip mismatch (in=%d bytes, out=%d bytes)", i, len(in), len(out))
		}
	}
}

func TestCompressShrinksRepetitiveData(t *testing.T) {
	in := bytes.Repeat([]byte("course.bin"), 400)
	packed := Compress(in)
	if len(packed) >= len(in) {
		t.Fatalf("no compression: %d -> %d", len(in), len(packed))
	}
}

func TestDecompressBadType(t *testing.T) {
	if _, err := Decompress([]byte{0x11, 0, 0, 0}); !errors.Is(err, ErrBadType) {
		t.Fatalf("expected ErrBadType, got %v", err)
	}
}

func TestDecompressTruncated(t *testing.T) {
	packed := Compress(bytes.Repeat([]byte("zelda"), 100))
	for _, cut := range []int{3, 5, len(packed) / 2, len(packed) - 1} {
		if _, err := Decompress(packed[:cut]); !errors.Is(err, ErrTruncated) {
			t.Fatalf("cut=%d: expected ErrTruncated, got %v", cut, err)
		}
	}
}

func TestDecompressBackrefBeforeStart(t *testing.T) {
	// Length claims 3 bytes; the first token references offset 5 with nothing
	// written yet.
	stream := []byte{0x10, 0x03, 0x00, 0x00, 0x80, 0x00, 0x05}
	if _, err := Decompress(stream); !errors.Is(err, ErrBackref) {
		t.Fatalf("expected ErrBackref, got %v", err)
	}
}

func TestDecompressEmptyPayload(t *testing.T) {
	out, err := Decompress([]byte{0x10, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d bytes", len(out))
	}
}
