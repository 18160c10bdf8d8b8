// Package script decodes the event script instructions embedded in BMG
// message files.
//
// Each instruction is a 64-bit little-endian word whose low byte selects
// the kind: 1 SAY (show a message), 2 SW (branch on a condition), 3 DO
// (perform an action). Decoding is lossless: Disassemble rejects any word
// whose decoded form would not assemble back to the identical value.
package script

import (
	"errors"
	"fmt"
)

// Kind is the instruction type stored in the low byte of every word.
type Kind uint8

const (
	KindSay    Kind = 1
	KindSwitch Kind = 2
	KindDo     Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindSay:
		return "SAY"
	case KindSwitch:
		return "SW"
	case KindDo:
		return "DO"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

var (
	ErrUnknownType = errors.New("script: unknown instruction type")
	ErrReassembly  = errors.New("script: instruction does not reassemble to its input")
	ErrLabelArrays = errors.New("script: label arrays differ in length")
)

// Label addresses an instruction slot: the ID of the BMG holding the
// script and the slot index within it. The null label {-1, -1} ends
// execution; its wire form is 0xFF / 0xFFFF.
type Label struct {
	BMG   int
	Index int
}

// NullLabel terminates a script.
var NullLabel = Label{BMG: -1, Index: -1}

func (l Label) IsNull() bool { return l.BMG == -1 && l.Index == -1 }

// String renders the label the way disassembly listings name it:
// B<bmg>_L<index>, or END for the null label.
func (l Label) String() string {
	if l.IsNull() {
		return "END"
	}
	return fmt.Sprintf("B%d_L%d", l.BMG, l.Index)
}

// LabelFromWire builds a Label from the on-disk forms, a u8 BMG ID and a
// u16 slot index, reading both as signed so the null markers come out -1.
func LabelFromWire(bmg uint8, index uint16) Label {
	return Label{BMG: int(int8(bmg)), Index: int(int16(index))}
}

// Instruction is one decoded script word.
type Instruction interface {
	Kind() Kind
	// Mnemonic names the concrete variant, e.g. SW_P_FLAG for a switch
	// on a progress flag.
	Mnemonic() string
	Assemble() uint64
}

// Disassemble decodes a single instruction word. The decoded form must
// reassemble to the input exactly; a word that does not survive the round
// trip is reported as corrupt rather than returned lossy.
func Disassemble(value uint64) (Instruction, error) {
	var inst Instruction
	switch Kind(value & 0xFF) {
	case KindSay:
		inst = disassembleSay(value)
	case KindSwitch:
		inst = disassembleSwitch(value)
	case KindDo:
		inst = disassembleDo(value)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, value&0xFF)
	}
	if back := inst.Assemble(); back != value {
		return nil, fmt.Errorf("%w: %#016x reassembles to %#016x", ErrReassembly, value, back)
	}
	return inst, nil
}

// DisassembleAll decodes a whole instruction list, as stored in a BMG
// FLW1 block.
func DisassembleAll(values []uint64) ([]Instruction, error) {
	out := make([]Instruction, len(values))
	for i, v := range values {
		inst, err := Disassemble(v)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		out[i] = inst
	}
	return out, nil
}

// Labels pairs the FLW1 label arrays into Labels.
func Labels(bmgIDs []uint8, indices []uint16) ([]Label, error) {
	if len(bmgIDs) != len(indices) {
		return nil, fmt.Errorf("%w: %d BMG IDs, %d indices", ErrLabelArrays, len(bmgIDs), len(indices))
	}
	out := make([]Label, len(bmgIDs))
	for i := range out {
		out[i] = LabelFromWire(bmgIDs[i], indices[i])
	}
	return out, nil
}
