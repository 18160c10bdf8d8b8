package flowgraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/phst-randomizer/zed/bmg"
	"github.com/phst-randomizer/zed/script"
)

// ListOptions adjust how a listing is rendered.
type ListOptions struct {
	// FlagBase overrides the memory base used to annotate progress-flag
	// writes. Zero keeps the retail base.
	FlagBase uint32
	// Color wraps mnemonics in ANSI colors for terminal output.
	Color bool
}

const (
	prefixCol   = 12
	mnemonicCol = 8
	commentCol  = 36
)

// Listing renders one BMG's instruction stream, one line per slot. Script
// entry points appear as S<hi>_<lo>: lines, SAY lines quote the message
// they display, and progress-flag writes get a comment naming the address
// and bit they touch.
func (c *Collection) Listing(src Source, opts ListOptions) ([]string, error) {
	f := src.File
	insts, err := script.DisassembleAll(f.Instructions())
	if err != nil {
		return nil, errors.Wrap(err, src.Name)
	}
	labels := f.Labels()
	base := uint32(script.FlagBase)
	if opts.FlagBase != 0 {
		base = opts.FlagBase
	}

	var lines []string
	for i, inst := range insts {
		if d, ok := inst.(*script.Do); ok && d.Action == script.ActionSetProgressFlag {
			addr, bit := script.FlagAddress(base, d.Parameter)
			lines = append(lines, fmt.Sprintf("#  %s - sets flag @ %#x, bit %#x", d.Mnemonic(), addr, bit))
		}
		for _, s := range f.Scripts() {
			if int(s.Instruction) == i {
				lines = append(lines, scriptName(s.ScriptID)+":")
			}
		}
		prefix := pad(fmt.Sprintf("B%d_L%d: ", f.ID(), i), prefixCol)
		lines = append(lines, prefix+c.instructionLine(inst, labels, opts))
	}
	return lines, nil
}

func (c *Collection) instructionLine(inst script.Instruction, labels []script.Label, opts ListOptions) string {
	var args []string
	comment := ""

	switch v := inst.(type) {
	case *script.Say:
		args = append(args,
			fmt.Sprintf("msg=%d/%d", v.MessageBMG, v.MessageID),
			"goto="+v.Next.String(),
		)
		if msg, ok := c.message(uint32(v.MessageBMG), int(v.MessageID)); ok {
			comment = `"` + strings.ReplaceAll(msg.String(), "\n", " ") + `"`
		}
	case *script.Switch:
		switch v.Condition {
		case script.CondResponse2, script.CondResponse3, script.CondResponse4:
			// response switches carry no parameter
		case script.CondProgressFlag:
			args = append(args,
				fmt.Sprintf("index=%d", v.Parameter>>5),
				fmt.Sprintf("bit=%d", v.Parameter&0x1F),
			)
		default:
			args = append(args, fmt.Sprintf("param=%d", v.Parameter))
		}
		targets := make([]string, 0, v.NumLabels)
		for j := 0; j < int(v.NumLabels); j++ {
			targets = append(targets, branchTarget(int(v.FirstLabel)+j, labels))
		}
		args = append(args, "goto=["+strings.Join(targets, ", ")+"]")
	case *script.Do:
		switch v.Action {
		case script.ActionLaunchScript:
			args = append(args, "script="+scriptName(v.ScriptID()))
		case script.ActionSetProgressFlag, script.ActionClearProgressFlag,
			script.ActionSetTemp2Flag, script.ActionClearTemp2Flag,
			script.ActionSetTempFlag, script.ActionClearTempFlag:
			args = append(args, fmt.Sprintf("flag=%d", v.Parameter))
		default:
			args = append(args, fmt.Sprintf("param=%d", v.Parameter))
		}
		args = append(args, "goto="+doTarget(v.LabelNumber, labels))
	}

	plain := inst.Mnemonic()
	line := pad(plain+" ", mnemonicCol)
	if opts.Color {
		line = colorFor(inst.Kind()) + plain + ansiReset + line[len(plain):]
	}
	line += strings.Join(args, ", ") + " "
	if comment != "" {
		line = pad(line, commentCol)
		line += "# " + comment
	}
	return line
}

// MessageDump renders every message in the file, separated by dash rules.
func MessageDump(f *bmg.File) []string {
	var lines []string
	for i, msg := range f.Messages() {
		lines = append(lines, strconv.Itoa(i)+":", msg.String(), messageSeparator)
	}
	if len(lines) > 0 {
		lines = lines[:len(lines)-1]
	}
	return lines
}

const messageSeparator = "--------------------------------"

func scriptName(id uint32) string {
	return fmt.Sprintf("S%d_%d", id>>16, id&0xFFFF)
}

func branchTarget(i int, labels []script.Label) string {
	if i < 0 || i >= len(labels) {
		return fmt.Sprintf("#%d", i)
	}
	return labels[i].String()
}

func doTarget(n int16, labels []script.Label) string {
	if n < 0 {
		return "END"
	}
	return branchTarget(int(n), labels)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

const ansiReset = "\x1b[0m"

func colorFor(k script.Kind) string {
	switch k {
	case script.KindSay:
		return "\x1b[36m"
	case script.KindSwitch:
		return "\x1b[33m"
	default:
		return "\x1b[35m"
	}
}
