package script

import "strconv"

// Say shows a message and then jumps to Next. Layout: kind u8, message
// BMG u8, message ID u16, next label index i16, next label BMG i8, then
// one trailing signed byte of unknown meaning that is preserved as read.
type Say struct {
	MessageBMG uint8
	MessageID  uint16
	Next       Label

	extra int8
}

func disassembleSay(v uint64) *Say {
	return &Say{
		MessageBMG: uint8(v >> 8),
		MessageID:  uint16(v >> 16),
		Next:       LabelFromWire(uint8(v>>48), uint16(v>>32)),
		extra:      int8(v >> 56),
	}
}

func (s *Say) Kind() Kind       { return KindSay }
func (s *Say) Mnemonic() string { return "SAY" }

func (s *Say) Assemble() uint64 {
	v := uint64(KindSay)
	v |= uint64(s.MessageBMG) << 8
	v |= uint64(s.MessageID) << 16
	v |= uint64(uint16(int16(s.Next.Index))) << 32
	v |= uint64(uint8(int8(s.Next.BMG))) << 48
	v |= uint64(uint8(s.extra)) << 56
	return v
}

// Condition selects what a Switch branches on.
type Condition uint16

const (
	CondResponse2    Condition = 1
	CondResponse3    Condition = 2
	CondResponse4    Condition = 3
	CondProgressFlag Condition = 4
	CondTempFlag     Condition = 6
	CondTemp2Flag    Condition = 8
	CondShop         Condition = 27
)

// noParameter reports whether the condition ignores the parameter field.
// Only the response conditions do; notably the shop switch keeps its
// parameter (retail data carries a 3 in one place).
func (c Condition) noParameter() bool {
	return c == CondResponse2 || c == CondResponse3 || c == CondResponse4
}

// Switch branches to one of NumLabels targets depending on Condition. The
// targets are the label slots FirstLabel through FirstLabel+NumLabels-1.
// Layout: kind u8, label count u8, condition u16, parameter u16, first
// label u16.
type Switch struct {
	Condition  Condition
	NumLabels  uint8
	Parameter  uint16
	FirstLabel uint16
}

func disassembleSwitch(v uint64) *Switch {
	s := &Switch{
		NumLabels:  uint8(v >> 8),
		Condition:  Condition(v >> 16),
		Parameter:  uint16(v >> 32),
		FirstLabel: uint16(v >> 48),
	}
	if s.Condition.noParameter() {
		s.Parameter = 0
	}
	return s
}

func (s *Switch) Kind() Kind { return KindSwitch }

func (s *Switch) Mnemonic() string {
	switch s.Condition {
	case CondResponse2:
		return "SW_RESP_2"
	case CondResponse3:
		return "SW_RESP_3"
	case CondResponse4:
		return "SW_RESP_4"
	case CondProgressFlag:
		return "SW_P_FLAG"
	case CondTempFlag:
		return "SW_T_FLAG"
	case CondTemp2Flag:
		return "SW_T2_FLAG"
	case CondShop:
		return "SW_SHOP"
	}
	return "SW"
}

func (s *Switch) Assemble() uint64 {
	v := uint64(KindSwitch)
	v |= uint64(s.NumLabels) << 8
	v |= uint64(s.Condition) << 16
	v |= uint64(s.Parameter) << 32
	v |= uint64(s.FirstLabel) << 48
	return v
}

// Flag is the flag number tested by the flag conditions. It aliases
// Parameter.
func (s *Switch) Flag() uint16 { return s.Parameter }

var responseNames = []string{
	"(first response)",
	"(second response)",
	"(third response)",
	"(fourth response)",
}

var shopNames = []string{
	"Castle Town Shop",
	"Forest's General Store",
	"Anouki General Store",
	"Papuchia Shop",
	"Goron Country Store",
}

// BranchName names branch i the way disassembly listings print it.
// Unknown conditions and out-of-range branches fall back to the number.
func (s *Switch) BranchName(i int) string {
	var names []string
	switch s.Condition {
	case CondResponse2:
		names = responseNames[:2]
	case CondResponse3:
		names = responseNames[:3]
	case CondResponse4:
		names = responseNames[:4]
	case CondProgressFlag, CondTempFlag, CondTemp2Flag:
		names = []string{"true", "false"}
	case CondShop:
		names = shopNames
	}
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return strconv.Itoa(i)
}

// Action selects what a Do instruction performs.
type Action uint8

const (
	ActionSetProgressFlag   Action = 0
	ActionClearProgressFlag Action = 1
	ActionSetTemp2Flag      Action = 2
	ActionClearTemp2Flag    Action = 3
	ActionSetTempFlag       Action = 4
	ActionClearTempFlag     Action = 5
	ActionLaunchScript      Action = 7
)

// Do performs a side effect, then jumps to the label slot LabelNumber.
// Layout: kind u8, action u8, label number i16, parameter u32.
type Do struct {
	Action      Action
	LabelNumber int16
	Parameter   uint32
}

func disassembleDo(v uint64) *Do {
	return &Do{
		Action:      Action(v >> 8),
		LabelNumber: int16(v >> 16),
		Parameter:   uint32(v >> 32),
	}
}

func (d *Do) Kind() Kind { return KindDo }

func (d *Do) Mnemonic() string {
	switch d.Action {
	case ActionSetProgressFlag:
		return "DO_SET_P_FLAG"
	case ActionClearProgressFlag:
		return "DO_CLR_P_FLAG"
	case ActionSetTemp2Flag:
		return "DO_SET_T2_FLAG"
	case ActionClearTemp2Flag:
		return "DO_CLR_T2_FLAG"
	case ActionSetTempFlag:
		return "DO_SET_T_FLAG"
	case ActionClearTempFlag:
		return "DO_CLR_T_FLAG"
	case ActionLaunchScript:
		return "DO_SCRPT"
	}
	return "DO"
}

func (d *Do) Assemble() uint64 {
	v := uint64(KindDo)
	v |= uint64(d.Action) << 8
	v |= uint64(uint16(d.LabelNumber)) << 16
	v |= uint64(d.Parameter) << 32
	return v
}

// Flag is the flag number for the flag actions. It aliases Parameter.
func (d *Do) Flag() uint32 { return d.Parameter }

// ScriptID is the launch target for ActionLaunchScript. The wire form
// stores it with its halfwords swapped.
func (d *Do) ScriptID() uint32 { return d.Parameter<<16 | d.Parameter>>16 }

// SetScriptID stores id in the swapped wire form.
func (d *Do) SetScriptID(id uint32) { d.Parameter = id<<16 | id>>16 }
