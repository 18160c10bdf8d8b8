package bmg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/phst-randomizer/zed/common"
	"github.com/phst-randomizer/zed/script"
)

func buildSample(t *testing.T) *File {
	t.Helper()
	f, err := New(5, UTF16)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	f.SetMessages([]Message{
		{Attributes: []byte{1, 2, 3, 4}, Parts: []Part{{Text: "Hello"}}},
		NewMessage(""),
		{Parts: []Part{
			{Text: "Take "},
			{Escape: []byte{0x1A, 0x00, 0x06, 0xFF, 0x00, 0x01}},
			{Text: " rupees"},
		}},
	})

	say := &script.Say{MessageBMG: 5, MessageID: 0, Next: script.Label{BMG: 5, Index: 1}}
	do := &script.Do{Action: script.ActionSetProgressFlag, LabelNumber: 1, Parameter: 40}
	f.SetFlow(
		[]uint64{say.Assemble(), do.Assemble()},
		[]script.Label{{BMG: 5, Index: 1}, script.NullLabel},
	)
	f.SetScripts([]ScriptEntry{{ScriptID: 0x00010002, Instruction: 0}})
	return f
}

func TestSaveParseRoundTrip(t *testing.T) {
	in := buildSample(t)
	data, err := in.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if out.ID() != 5 || out.Encoding() != UTF16 {
		t.Fatalf("id/encoding = %d/%v", out.ID(), out.Encoding())
	}

	msgs := out.Messages()
	if len(msgs) != 3 {
		t.Fatalf("message count = %d", len(msgs))
	}
	if msgs[0].String() != "Hello" || msgs[1].String() != "" {
		t.Fatalf("messages = %q, %q", msgs[0], msgs[1])
	}
	if !bytes.Equal(msgs[0].Attributes, []byte{1, 2, 3, 4}) {
		t.Fatalf("attributes = %v", msgs[0].Attributes)
	}
	if len(msgs[2].Parts) != 3 {
		t.Fatalf("escape message has %d parts", len(msgs[2].Parts))
	}
	if !bytes.Equal(msgs[2].Parts[1].Escape, []byte{0x1A, 0x00, 0x06, 0xFF, 0x00, 0x01}) {
		t.Fatalf("escape = %v", msgs[2].Parts[1].Escape)
	}
	if msgs[2].String() != "Take [1A0006FF0001] rupees" {
		t.Fatalf("escape renders %q", msgs[2].String())
	}

	if len(out.Instructions()) != 2 {
		t.Fatalf("instruction count = %d", len(out.Instructions()))
	}
	insts, err := script.DisassembleAll(out.Instructions())
	if err != nil {
		t.Fatalf("disassemble: %v", err)
	}
	if insts[0].Kind() != script.KindSay || insts[1].Mnemonic() != "DO_SET_P_FLAG" {
		t.Fatalf("instructions decode to %v, %v", insts[0].Kind(), insts[1].Mnemonic())
	}

	labels := out.Labels()
	if len(labels) != 2 || labels[0] != (script.Label{BMG: 5, Index: 1}) || !labels[1].IsNull() {
		t.Fatalf("labels = %v", labels)
	}

	scripts := out.Scripts()
	if len(scripts) != 1 || scripts[0] != (ScriptEntry{ScriptID: 0x00010002, Instruction: 0}) {
		t.Fatalf("scripts = %v", scripts)
	}
}

func TestUnmodifiedSaveIsIdentical(t *testing.T) {
	data, err := buildSample(t).Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// Splice in a block the parser does not model; it must survive
	// untouched.
	extra := make([]byte, 16)
	copy(extra[0:4], "MID1")
	binary.LittleEndian.PutUint32(extra[4:8], 16)
	copy(extra[8:], []byte{8, 7, 6, 5, 4, 3, 2, 1})
	raw := append(append([]byte(nil), data...), extra...)
	binary.LittleEndian.PutUint32(raw[8:12], uint32(len(raw)))
	count := binary.LittleEndian.Uint32(raw[12:16])
	binary.LittleEndian.PutUint32(raw[12:16], count+1)

	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	again, err := f.Save()
	if err != nil {
		t.Fatalf("re-save: %v", err)
	}
	if !bytes.Equal(raw, again) {
		t.Fatalf("unmodified save differs: %d vs %d bytes", len(raw), len(again))
	}
}

func TestMessageEncodings(t *testing.T) {
	cases := []struct {
		enc  TextEncoding
		text string
	}{
		{CP1252, "Héllo déjà"},
		{UTF16, "ゼルダ Link"},
		{ShiftJIS, "ゼルダの伝説"},
		{UTF8, "Oshus \U0001f30a"},
	}
	for _, c := range cases {
		f, err := New(1, c.enc)
		if err != nil {
			t.Fatalf("%v: new: %v", c.enc, err)
		}
		f.SetMessages([]Message{NewMessage(c.text)})
		data, err := f.Save()
		if err != nil {
			t.Fatalf("%v: save: %v", c.enc, err)
		}
		out, err := Parse(data)
		if err != nil {
			t.Fatalf("%v: parse: %v", c.enc, err)
		}
		if out.Encoding() != c.enc {
			t.Errorf("%v: encoding came back %v", c.enc, out.Encoding())
		}
		if got := out.Messages()[0].String(); got != c.text {
			t.Errorf("%v: text = %q, want %q", c.enc, got, c.text)
		}
	}
}

func TestEscapeInSingleByteEncoding(t *testing.T) {
	f, err := New(2, ShiftJIS)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	esc := []byte{0x1A, 0x04, 0x05, 0x00}
	f.SetMessages([]Message{{Parts: []Part{{Text: "A"}, {Escape: esc}, {Text: "B"}}}})
	data, err := f.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m := out.Messages()[0]
	if len(m.Parts) != 3 || !bytes.Equal(m.Parts[1].Escape, esc) {
		t.Fatalf("parts = %+v", m.Parts)
	}
	if m.String() != "A[1A040500]B" {
		t.Fatalf("renders %q", m.String())
	}
}

func TestSetEncodingReencodes(t *testing.T) {
	f, err := New(1, ShiftJIS)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	f.SetMessages([]Message{NewMessage("ゼルダ")})
	data, err := f.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	f, err = Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := f.SetEncoding(UTF16); err != nil {
		t.Fatalf("set encoding: %v", err)
	}
	data, err = f.Save()
	if err != nil {
		t.Fatalf("re-save: %v", err)
	}
	out, err := Parse(data)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if out.Encoding() != UTF16 || out.Messages()[0].String() != "ゼルダ" {
		t.Fatalf("after switch: %v %q", out.Encoding(), out.Messages()[0].String())
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(nil); !errors.Is(err, ErrShortFile) {
		t.Fatalf("nil input: %v", err)
	}

	data, err := buildSample(t).Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	bad := append([]byte(nil), data...)
	copy(bad[0:8], "XESGbmg1")
	var magicErr *common.WrongMagicError
	if _, err := Parse(bad); !errors.As(err, &magicErr) {
		t.Fatalf("wrong magic: %v", err)
	}

	bad = append([]byte(nil), data...)
	bad[0x10] = 9
	if _, err := Parse(bad); !errors.Is(err, ErrEncoding) {
		t.Fatalf("bad encoding byte: %v", err)
	}

	bad = append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(bad[8:12], uint32(len(bad)+1))
	if _, err := Parse(bad); !errors.Is(err, ErrFileSize) {
		t.Fatalf("oversized file size: %v", err)
	}

	bad = append([]byte(nil), data...)
	copy(bad[headerLen:headerLen+4], "XNF1")
	if _, err := Parse(bad); !errors.Is(err, ErrMissingBlock) {
		t.Fatalf("renamed INF1: %v", err)
	}

	bad = append([]byte(nil), data...)
	flw := bytes.Index(bad, []byte("FLW1"))
	if flw < 0 {
		t.Fatalf("sample has no FLW1")
	}
	binary.LittleEndian.PutUint16(bad[flw+8:flw+10], 0xFFFF)
	if _, err := Parse(bad); !errors.Is(err, ErrBlockLayout) {
		t.Fatalf("overflowing FLW1 count: %v", err)
	}
}

func TestDecodeStringErrors(t *testing.T) {
	if _, err := decodeString(UTF8, []byte("AB"), 0); !errors.Is(err, ErrUnterminated) {
		t.Fatalf("missing terminator: %v", err)
	}
	if _, err := decodeString(UTF8, []byte{0x41, 0x1A}, 0); !errors.Is(err, ErrEscape) {
		t.Fatalf("escape without length: %v", err)
	}
	if _, err := decodeString(UTF8, []byte{0x1A, 0x09, 0x00}, 0); !errors.Is(err, ErrEscape) {
		t.Fatalf("escape past end: %v", err)
	}
	if _, err := decodeString(UTF8, []byte{0}, 5); !errors.Is(err, ErrStringOffset) {
		t.Fatalf("offset past end: %v", err)
	}

	// A declared odd length is followed even though it unaligns UTF-16.
	parts, err := decodeString(UTF16, []byte{0x1A, 0x00, 0x03, 0x00, 0x00, 0x00}, 0)
	if err != nil {
		t.Fatalf("odd escape length: %v", err)
	}
	if len(parts) != 1 || !bytes.Equal(parts[0].Escape, []byte{0x1A, 0x00, 0x03}) {
		t.Fatalf("odd escape parts = %+v", parts)
	}
}
