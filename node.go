// Copyright 2025 The Breadboard Authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard

// A Kind identifies what a node does when its circuit is evaluated.
//
type Kind string

// Node kinds understood by the evaluator. A node of any other kind is kept
// in the circuit but settles to a single false output pin.
//
const (
	KindAnd    Kind = "AND"
	KindOr     Kind = "OR"
	KindNot    Kind = "NOT"
	KindInput  Kind = "INPUT"
	KindOutput Kind = "OUTPUT"
	KindLED    Kind = "LED"
	KindButton Kind = "BUTTON"
	KindPinBar Kind = "PINBAR"
	KindModule Kind = "MODULE"
)

// A BarMode sets the orientation of a PINBAR node.
//
type BarMode string

// Pin bar orientations. An input bar is a multi-pin signal source driven by
// its held values. An output bar is a multi-pin sink that repeats whatever
// arrives on its input pins.
//
const (
	BarInput  BarMode = "input"
	BarOutput BarMode = "output"
)

// PinCounts returns the pin counts of kinds whose arity is fixed. For kinds
// sized by the user (PINBAR, MODULE and anything unrecognized), fixed is
// false and the counts are zero.
//
func PinCounts(k Kind) (in, out int, fixed bool) {
	switch k {
	case KindAnd, KindOr:
		return 2, 1, true
	case KindNot:
		return 1, 1, true
	case KindInput, KindButton:
		return 0, 1, true
	case KindOutput, KindLED:
		return 1, 1, true
	}
	return 0, 0, false
}

// A Node is one placed element of a circuit: a gate, a terminal, a pin bar
// or a module instance. Nodes are plain values. The evaluator never mutates
// the nodes handed to it, so callers may keep them in whatever store they
// like.
//
// Only the fields relevant to a node's kind are consulted: Value for INPUT
// and BUTTON, Values and Mode for PINBAR, Module for MODULE. Inputs and
// Outputs size the pins of PINBAR and MODULE nodes; for every other kind the
// fixed arity of the kind wins over whatever the fields say.
//
type Node struct {
	ID      string
	Kind    Kind
	Inputs  int     // declared input pin count
	Outputs int     // declared output pin count
	Value   bool    // held state of an INPUT or BUTTON
	Values  []bool  // held states of an input bar, one per output pin
	Mode    BarMode // pin bar orientation
	Module  string  // module definition ID of a MODULE instance
}

// InputCount returns the effective number of input pins of n.
//
func (n *Node) InputCount() int {
	if in, _, fixed := PinCounts(n.Kind); fixed {
		return in
	}
	return n.Inputs
}

// OutputCount returns the effective number of output pins of n.
//
func (n *Node) OutputCount() int {
	if _, out, fixed := PinCounts(n.Kind); fixed {
		return out
	}
	return n.Outputs
}

// A Connection carries a single bit from an output pin of one node to an
// input pin of another. Connections whose endpoints name nodes absent from
// the circuit are ignored during evaluation. When several connections end on
// the same input pin, the one with the smallest ID wins and the others are
// ignored, so results never depend on slice order.
//
type Connection struct {
	ID      string
	From    string // source node ID
	FromPin int    // output pin index on the source
	To      string // destination node ID
	ToPin   int    // input pin index on the destination
}

// A ModuleDef is a reusable sub-circuit. InputIDs and OutputIDs list the
// terminal nodes forming the module boundary, in external pin order: INPUT
// and BUTTON terminals take one pin each, pin bars take one pin per bar pin.
// InputPins and OutputPins hold the resulting totals.
//
// Definitions are treated as immutable by the evaluator; instantiating one
// works on private copies of its nodes.
//
type ModuleDef struct {
	ID          string
	Name        string
	Nodes       []Node
	Connections []Connection
	InputIDs    []string
	OutputIDs   []string
	InputPins   int
	OutputPins  int
}

// NewModuleDef captures a circuit as a module definition. Terminal nodes
// become the boundary in node list order: INPUT and BUTTON nodes and input
// bars contribute input pins, OUTPUT and LED nodes and output bars output
// pins. The given slices are stored as is, so callers that keep editing
// their circuit should pass copies.
//
func NewModuleDef(id, name string, nodes []Node, conns []Connection) *ModuleDef {
	def := &ModuleDef{ID: id, Name: name, Nodes: nodes, Connections: conns}
	for i := range nodes {
		n := &nodes[i]
		switch {
		case n.Kind == KindInput || n.Kind == KindButton:
			def.InputIDs = append(def.InputIDs, n.ID)
			def.InputPins++
		case n.Kind == KindOutput || n.Kind == KindLED:
			def.OutputIDs = append(def.OutputIDs, n.ID)
			def.OutputPins++
		case n.Kind == KindPinBar && n.Mode == BarInput:
			def.InputIDs = append(def.InputIDs, n.ID)
			def.InputPins += n.OutputCount()
		case n.Kind == KindPinBar:
			def.OutputIDs = append(def.OutputIDs, n.ID)
			def.OutputPins += n.InputCount()
		}
	}
	return def
}

// A Library resolves module definition IDs during evaluation. The evaluator
// only ever reads it. A MODULE node whose definition is missing from the
// library settles to all false pins rather than failing the pass.
//
type Library map[string]*ModuleDef

// A Result maps node IDs to their output pin values after an evaluation
// pass. Feeding a pass's Result back into the next Evaluate call is what
// lets feedback loops hold state: each pass advances them by one step.
//
type Result map[string][]bool

// Bit returns output pin n of the given node, or false if the node has no
// recorded value or fewer pins than n.
//
func (r Result) Bit(id string, n int) bool {
	v := r[id]
	if n < 0 || n >= len(v) {
		return false
	}
	return v[n]
}
