package common

import (
	"bytes"
	"errors"
	"testing"
)

func TestFixedSJISRoundTrip(t *testing.T) {
	for _, name := range []string{"", "map00", "demo_field", "めいろ"} {
		field, err := EncodeFixedSJIS(name, 0x10)
		if err != nil {
			t.Fatalf("encode %q: %v", name, err)
		}
		if len(field) != 0x10 {
			t.Fatalf("field width = %d, want 16", len(field))
		}
		got, err := DecodeFixedSJIS(field)
		if err != nil {
			t.Fatalf("decode %q: %v", name, err)
		}
		if got != name {
			t.Fatalf("round trip mismatch: got=%q want=%q", got, name)
		}
	}
}

func TestEncodeFixedSJISTooLong(t *testing.T) {
	if _, err := EncodeFixedSJIS("sixteen-plus-characters", 0x10); !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong, got %v", err)
	}
}

func TestDecodeFixedSJISPadding(t *testing.T) {
	field := append([]byte("abc"), bytes.Repeat([]byte{0}, 13)...)
	got, err := DecodeFixedSJIS(field)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != "abc" {
		t.Fatalf("got %q", got)
	}
}
