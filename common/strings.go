package common

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/japanese"
)

var ErrStringTooLong = errors.New("common: encoded string exceeds field width")

// DecodeFixedSJIS decodes a fixed-width Shift-JIS field, trimming the
// trailing NUL padding the games use.
func DecodeFixedSJIS(field []byte) (string, error) {
	trimmed := bytes.TrimRight(field, "\x00")
	if len(trimmed) == 0 {
		return "", nil
	}
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(trimmed)
	if err != nil {
		return "", fmt.Errorf("common: shift-jis decode: %w", err)
	}
	return string(out), nil
}

// EncodeFixedSJIS encodes s into a NUL-padded field of exactly width bytes.
func EncodeFixedSJIS(s string, width int) ([]byte, error) {
	field := make([]byte, width)
	if s == "" {
		return field, nil
	}
	enc, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("common: shift-jis encode: %w", err)
	}
	if len(enc) > width {
		return nil, ErrStringTooLong
	}
	copy(field, enc)
	return field, nil
}
