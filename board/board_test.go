package board_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bb "github.com/dwyrd/breadboard"
	"github.com/dwyrd/breadboard/board"
)

func TestEditAndEvaluateWorkflow(t *testing.T) {
	b := board.New(nil)

	a := b.AddNode(bb.KindInput)
	c := b.AddNode(bb.KindInput)
	and := b.AddNode(bb.KindAnd)
	led := b.AddNode(bb.KindLED)

	_, err := b.Connect(a, 0, and, 0)
	require.NoError(t, err)
	_, err = b.Connect(c, 0, and, 1)
	require.NoError(t, err)
	_, err = b.Connect(and, 0, led, 0)
	require.NoError(t, err)

	// everything off
	assert.False(t, b.Outputs(led)[0])

	require.NoError(t, b.SetValue(a, true))
	assert.False(t, b.Outputs(led)[0], "AND with one true input")

	require.NoError(t, b.SetValue(c, true))
	assert.True(t, b.Outputs(led)[0], "AND with both inputs true")

	require.NoError(t, b.Toggle(a))
	assert.False(t, b.Outputs(led)[0], "AND after toggling one input off")

	// removing the gate cascades its wires
	require.NoError(t, b.RemoveNode(and))
	assert.Empty(t, b.Connections())
	assert.False(t, b.Outputs(led)[0])
}

func TestConnectValidation(t *testing.T) {
	b := board.New(nil)
	in := b.AddNode(bb.KindInput)
	not := b.AddNode(bb.KindNot)

	_, err := b.Connect("missing", 0, not, 0)
	assert.Error(t, err)

	_, err = b.Connect(in, 1, not, 0)
	assert.Error(t, err, "INPUT has a single output pin")

	_, err = b.Connect(in, 0, not, 3)
	assert.Error(t, err, "NOT has a single input pin")

	_, err = b.Connect(in, 0, not, 0)
	assert.NoError(t, err)
}

func TestConnectReplacesOccupiedPin(t *testing.T) {
	b := board.New(nil)
	hi := b.AddNode(bb.KindInput)
	lo := b.AddNode(bb.KindInput)
	require.NoError(t, b.SetValue(hi, true))
	not := b.AddNode(bb.KindNot)

	w1, err := b.Connect(hi, 0, not, 0)
	require.NoError(t, err)
	assert.False(t, b.Outputs(not)[0])

	// wiring the other source to the same pin replaces w1
	w2, err := b.Connect(lo, 0, not, 0)
	require.NoError(t, err)
	assert.True(t, b.Outputs(not)[0])
	assert.Len(t, b.Connections(), 1)
	assert.NotEqual(t, w1, b.Connections()[0].ID)

	require.NoError(t, b.Disconnect(w2))
	assert.Empty(t, b.Connections())
	assert.Error(t, b.Disconnect(w2), "double disconnect")
}

func TestFeedbackPolicy(t *testing.T) {
	b := board.New(nil)
	n1 := b.AddNode(bb.KindNot)
	n2 := b.AddNode(bb.KindNot)
	_, err := b.Connect(n1, 0, n2, 0)
	require.NoError(t, err)

	b.DenyFeedback(true)
	_, err = b.Connect(n2, 0, n1, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, board.ErrFeedback))
	assert.Empty(t, b.CycleConnections())

	b.DenyFeedback(false)
	_, err = b.Connect(n2, 0, n1, 0)
	require.NoError(t, err)
	assert.Len(t, b.CycleConnections(), 2)
}

func TestFeedbackAdvancesPerEvaluate(t *testing.T) {
	b := board.New(nil)
	n := b.AddNode(bb.KindNot)
	_, err := b.Connect(n, 0, n, 0)
	require.NoError(t, err)

	want := true
	for pass := 0; pass < 6; pass++ {
		assert.Equal(t, want, b.Outputs(n)[0], "pass %d", pass)
		require.NoError(t, b.Evaluate())
		want = !want
	}
}

func TestDefineAndPlaceModule(t *testing.T) {
	b := board.New(nil)

	// build a NOT wrapper circuit and capture it
	in := b.AddNode(bb.KindInput)
	not := b.AddNode(bb.KindNot)
	out := b.AddNode(bb.KindOutput)
	_, err := b.Connect(in, 0, not, 0)
	require.NoError(t, err)
	_, err = b.Connect(not, 0, out, 0)
	require.NoError(t, err)

	def, err := b.DefineModule("INV")
	require.NoError(t, err)
	assert.Equal(t, 1, def.InputPins)
	assert.Equal(t, 1, def.OutputPins)
	require.Len(t, b.Modules(), 1)

	// a fresh circuit using the module
	b.Clear()
	src := b.AddNode(bb.KindInput)
	m, err := b.PlaceModule(def.ID)
	require.NoError(t, err)
	_, err = b.Connect(src, 0, m, 0)
	require.NoError(t, err)

	assert.True(t, b.Outputs(m)[0], "INV(false)")
	require.NoError(t, b.SetValue(src, true))
	assert.False(t, b.Outputs(m)[0], "INV(true)")

	// dropping the definition degrades the placed instance
	require.NoError(t, b.RemoveModule(def.ID))
	assert.Equal(t, []bool{false}, b.Outputs(m))
	_, err = b.PlaceModule(def.ID)
	assert.Error(t, err)
}

func TestDefineModuleRequiresTerminals(t *testing.T) {
	b := board.New(nil)
	b.AddNode(bb.KindAnd)

	_, err := b.DefineModule("EMPTY")
	assert.Error(t, err)
	_, err = b.DefineModule("")
	assert.Error(t, err)
}

func TestCyclicModuleDefinitionSurfacesError(t *testing.T) {
	b := board.New(nil)
	in := b.AddNode(bb.KindInput)
	out := b.AddNode(bb.KindOutput)
	_, err := b.Connect(in, 0, out, 0)
	require.NoError(t, err)

	def, err := b.DefineModule("SELF")
	require.NoError(t, err)

	// forge a self instantiating definition, as a corrupt file could
	def.Nodes = append(def.Nodes, bb.Node{
		ID: "inner", Kind: bb.KindModule, Module: def.ID, Inputs: 1, Outputs: 1,
	})

	m, err := b.PlaceModule(def.ID)
	require.NoError(t, err)
	require.Error(t, b.Err())
	assert.True(t, errors.Is(b.Err(), bb.ErrCyclicModule))

	// the last good result is still visible
	assert.Equal(t, []bool{false}, b.Outputs(in))

	// removing the bad instance clears the error
	require.NoError(t, b.RemoveNode(m))
	assert.NoError(t, b.Err())
}

func TestBarValues(t *testing.T) {
	b := board.New(nil)
	bar := b.AddBar(bb.BarInput, 3)
	sink := b.AddBar(bb.BarOutput, 2)
	_, err := b.Connect(bar, 2, sink, 0)
	require.NoError(t, err)

	require.NoError(t, b.SetBarValues(bar, []bool{false, true, true}))
	assert.Equal(t, []bool{false, true, true}, b.Outputs(bar))
	assert.Equal(t, []bool{true, false}, b.Outputs(sink))

	assert.Error(t, b.SetBarValues(sink, []bool{true}), "output bars hold no values")
	assert.Error(t, b.SetValue(bar, true), "bars are not single sources")
}
