package flowgraph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phst-randomizer/zed/bmg"
	"github.com/phst-randomizer/zed/internal/testutil/testlog"
	"github.com/phst-randomizer/zed/script"
)

func sampleCollection(t *testing.T) (*Collection, Source) {
	t.Helper()
	f, err := bmg.New(0, bmg.UTF16)
	require.NoError(t, err)
	f.SetMessages([]bmg.Message{
		{Parts: []bmg.Part{{Text: "Hello"}}},
		{Parts: []bmg.Part{{Text: "Two\nlines"}}},
	})

	say := &script.Say{MessageBMG: 0, MessageID: 0, Next: script.Label{BMG: 0, Index: 1}}
	resp := &script.Switch{Condition: script.CondResponse2, NumLabels: 2, FirstLabel: 0}
	setFlag := &script.Do{Action: script.ActionSetProgressFlag, LabelNumber: 2, Parameter: 37}
	launch := &script.Do{Action: script.ActionLaunchScript, LabelNumber: -1}
	launch.SetScriptID(0x00020005)

	f.SetFlow(
		[]uint64{say.Assemble(), resp.Assemble(), setFlag.Assemble(), launch.Assemble()},
		[]script.Label{{BMG: 0, Index: 2}, {BMG: 0, Index: 3}, script.NullLabel},
	)
	f.SetScripts([]bmg.ScriptEntry{{ScriptID: 1 << 16, Instruction: 0}})

	c := NewCollection()
	c.Add("map00.bmg", f)
	return c, c.Sources()[0]
}

func TestListing(t *testing.T) {
	testlog.Start(t)
	c, src := sampleCollection(t)

	lines, err := c.Listing(src, ListOptions{})
	require.NoError(t, err)
	want := []string{
		"S1_0:",
		`B0_L0:      SAY     msg=0/0, goto=B0_L1         # "Hello"`,
		"B0_L1:      SW_RESP_2 goto=[B0_L2, B0_L3] ",
		"#  DO_SET_P_FLAG - sets flag @ 0x21b5540, bit 0x20",
		"B0_L2:      DO_SET_P_FLAG flag=37, goto=END ",
		"B0_L3:      DO_SCRPT script=S2_5, goto=END ",
	}
	assert.Equal(t, want, lines)
}

func TestListingFlagBaseOverride(t *testing.T) {
	c, src := sampleCollection(t)
	lines, err := c.Listing(src, ListOptions{FlagBase: 0x1000})
	require.NoError(t, err)
	found := false
	for _, l := range lines {
		if strings.HasPrefix(l, "#  DO_SET_P_FLAG") {
			found = true
			assert.Contains(t, l, "@ 0x1004,")
		}
	}
	require.True(t, found, "no flag comment in %q", lines)
}

func TestListingColor(t *testing.T) {
	c, src := sampleCollection(t)
	lines, err := c.Listing(src, ListOptions{Color: true})
	require.NoError(t, err)
	assert.Contains(t, lines[1], "\x1b[36mSAY\x1b[0m")
}

// A SAY may quote a message from another file; an unloaded file just drops
// the comment.
func TestListingCrossFileMessages(t *testing.T) {
	other, err := bmg.New(7, bmg.UTF16)
	require.NoError(t, err)
	other.SetMessages([]bmg.Message{{Parts: []bmg.Part{{Text: "Other"}}}})

	main, err := bmg.New(0, bmg.UTF16)
	require.NoError(t, err)
	here := &script.Say{MessageBMG: 7, MessageID: 0, Next: script.NullLabel}
	gone := &script.Say{MessageBMG: 9, MessageID: 0, Next: script.NullLabel}
	main.SetFlow([]uint64{here.Assemble(), gone.Assemble()}, nil)

	c := NewCollection()
	c.Add("main.bmg", main)
	c.Add("other.bmg", other)

	lines, err := c.Listing(c.Sources()[0], ListOptions{})
	require.NoError(t, err)
	assert.Contains(t, lines[0], `# "Other"`)
	assert.NotContains(t, lines[1], "#", "unresolvable message should have no comment")
}

func TestMessageDump(t *testing.T) {
	_, src := sampleCollection(t)
	lines := MessageDump(src.File)
	want := []string{
		"0:",
		"Hello",
		messageSeparator,
		"1:",
		"Two\nlines",
	}
	assert.Equal(t, want, lines)

	empty, err := bmg.New(1, bmg.UTF16)
	require.NoError(t, err)
	assert.Empty(t, MessageDump(empty))
}

func TestControlFlow(t *testing.T) {
	testlog.Start(t)
	_, src := sampleCollection(t)

	g, err := ControlFlow(src)
	require.NoError(t, err)
	adj, err := g.AdjacencyMap()
	require.NoError(t, err)

	wantEdges := [][2]string{
		{"S1_0", "B0_L0"},
		{"B0_L0", "B0_L1"},
		{"B0_L1", "B0_L2"},
		{"B0_L1", "B0_L3"},
		{"B0_L2", "END"},
		{"B0_L3", "END"},
	}
	for _, e := range wantEdges {
		_, ok := adj[e[0]][e[1]]
		assert.True(t, ok, "missing edge %s -> %s", e[0], e[1])
	}

	first, err := g.Edge("B0_L1", "B0_L2")
	require.NoError(t, err)
	assert.Equal(t, "(first response)", first.Properties.Attributes["label"])

	entry, err := g.Edge("S1_0", "B0_L0")
	require.NoError(t, err)
	deep, err := g.Edge("B0_L2", "END")
	require.NoError(t, err)
	ec, dc := entry.Properties.Attributes["color"], deep.Properties.Attributes["color"]
	require.True(t, strings.HasPrefix(ec, "#"), "entry edge not colored: %q", ec)
	require.True(t, strings.HasPrefix(dc, "#"), "deep edge not colored: %q", dc)
	assert.NotEqual(t, ec, dc, "gradient should vary with depth")

	_, props, err := g.VertexWithProperties("END")
	require.NoError(t, err)
	assert.Equal(t, "plaintext", props.Attributes["shape"])
}

// Two branches onto the same slot collapse into one edge listing both
// branch names.
func TestControlFlowParallelBranches(t *testing.T) {
	f, err := bmg.New(3, bmg.UTF16)
	require.NoError(t, err)
	sw := &script.Switch{Condition: script.CondResponse2, NumLabels: 2, FirstLabel: 0}
	end := &script.Do{Action: script.ActionClearTempFlag, LabelNumber: -1}
	f.SetFlow(
		[]uint64{sw.Assemble(), end.Assemble()},
		[]script.Label{{BMG: 3, Index: 1}, {BMG: 3, Index: 1}},
	)

	c := NewCollection()
	c.Add("x.bmg", f)
	g, err := ControlFlow(c.Sources()[0])
	require.NoError(t, err)
	e, err := g.Edge("B3_L0", "B3_L1")
	require.NoError(t, err)
	assert.Equal(t, "(first response), (second response)", e.Properties.Attributes["label"])
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	for id, name := range map[uint32]string{5: "a.bmg", 6: "b.bmg"} {
		f, err := bmg.New(id, bmg.UTF16)
		require.NoError(t, err)
		f.SetMessages([]bmg.Message{bmg.NewMessage(name)})
		data, err := f.Save()
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}

	c, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, c.Sources(), 2)
	assert.Equal(t, "a.bmg", c.Sources()[0].Name)
	assert.Equal(t, "b.bmg", c.Sources()[1].Name)
	msg, ok := c.message(6, 0)
	require.True(t, ok, "lookup by id")
	assert.Equal(t, "b.bmg", msg.String())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.bin"), []byte("not a bmg"), 0o644))
	_, err = LoadDir(dir)
	require.Error(t, err, "junk file must fail the load")
}
