// Copyright 2025 The Breadboard Authors.
// Licensed under the MIT license. See license text in the LICENSE file.

// Package board keeps an editable circuit and its module library, and keeps
// the evaluation result in step with every edit.
//
// A Board owns what the pure engine refuses to own: the live node and
// connection lists, the module library, the previous pass's result that
// gives feedback loops their memory, and the policy decisions around edits
// (replacing a wire that lands on an occupied pin, optionally refusing wires
// that would close a loop). Every mutation triggers a fresh evaluation; if
// the evaluation fails, the last good result stays visible and the error is
// reported until an edit clears it.
//
// Boards are not safe for concurrent use.
package board

import (
	"io"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	bb "github.com/dwyrd/breadboard"
)

// ErrFeedback is returned by Connect when feedback is denied and the wire
// would close a loop.
var ErrFeedback = errors.New("connection would close a feedback loop")

// A Board is an editable circuit with its module library and latest results.
type Board struct {
	log          *slog.Logger
	nodes        []bb.Node
	conns        []bb.Connection
	lib          bb.Library
	res          bb.Result
	cycles       []string
	err          error
	denyFeedback bool
}

// New returns an empty board. logger may be nil to disable logging.
func New(logger *slog.Logger) *Board {
	return Restore(logger, nil, nil, nil)
}

// Restore builds a board around an existing circuit, evaluating it once.
// The board takes ownership of the given slices and library.
func Restore(logger *slog.Logger, nodes []bb.Node, conns []bb.Connection, lib bb.Library) *Board {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if lib == nil {
		lib = make(bb.Library)
	}
	b := &Board{
		log:   logger,
		nodes: nodes,
		conns: conns,
		lib:   lib,
	}
	b.refresh()
	return b
}

// DenyFeedback switches the wiring policy: when set, Connect refuses wires
// that would close a feedback loop.
func (b *Board) DenyFeedback(deny bool) {
	b.denyFeedback = deny
}

// refresh re-evaluates the circuit after an edit. The previous result seeds
// the pass so feedback loops keep their state through edits. On error the
// last good result stays in place.
func (b *Board) refresh() {
	res, err := bb.Evaluate(b.nodes, b.conns, b.lib, b.res)
	if err != nil {
		b.err = err
		b.log.Warn("evaluation failed", "error", err)
		return
	}
	b.err = nil
	b.res = res
	b.cycles = bb.DetectCycleConnections(b.nodes, b.conns)
}

// Evaluate runs one more pass over the unchanged circuit, advancing feedback
// loops by one step. It returns the evaluation error, if any.
func (b *Board) Evaluate() error {
	b.refresh()
	return b.err
}

// Err returns the error of the most recent evaluation, or nil.
func (b *Board) Err() error {
	return b.err
}

func (b *Board) find(id string) int {
	for i := range b.nodes {
		if b.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// AddNode places a new node of the given kind and returns its generated ID.
// Pin counts follow the kind's fixed arity; kinds without one (bars,
// modules) are better served by AddBar and PlaceModule, which size them.
func (b *Board) AddNode(kind bb.Kind) string {
	in, out, _ := bb.PinCounts(kind)
	n := bb.Node{ID: uuid.NewString(), Kind: kind, Inputs: in, Outputs: out}
	b.nodes = append(b.nodes, n)
	b.log.Debug("node added", "node", n.ID, "kind", kind)
	b.refresh()
	return n.ID
}

// AddBar places a pin bar with the given orientation and pin count.
func (b *Board) AddBar(mode bb.BarMode, pins int) string {
	if pins < 0 {
		pins = 0
	}
	n := bb.Node{ID: uuid.NewString(), Kind: bb.KindPinBar, Mode: mode}
	if mode == bb.BarInput {
		n.Outputs = pins
		n.Values = make([]bool, pins)
	} else {
		n.Inputs = pins
	}
	b.nodes = append(b.nodes, n)
	b.log.Debug("bar added", "node", n.ID, "mode", mode, "pins", pins)
	b.refresh()
	return n.ID
}

// PlaceModule instantiates a module definition from the board's library,
// sized to the definition's external pins.
func (b *Board) PlaceModule(defID string) (string, error) {
	def, ok := b.lib[defID]
	if !ok {
		return "", errors.Errorf("no module definition %q", defID)
	}
	n := bb.Node{
		ID:      uuid.NewString(),
		Kind:    bb.KindModule,
		Module:  def.ID,
		Inputs:  def.InputPins,
		Outputs: def.OutputPins,
	}
	b.nodes = append(b.nodes, n)
	b.log.Debug("module placed", "node", n.ID, "definition", def.ID, "name", def.Name)
	b.refresh()
	return n.ID, nil
}

// SetValue sets the held state of an INPUT or BUTTON node.
func (b *Board) SetValue(id string, v bool) error {
	i := b.find(id)
	if i < 0 {
		return errors.Errorf("no node %q", id)
	}
	k := b.nodes[i].Kind
	if k != bb.KindInput && k != bb.KindButton {
		return errors.Errorf("node %q is a %s, not a source", id, k)
	}
	b.nodes[i].Value = v
	b.refresh()
	return nil
}

// Toggle flips the held state of an INPUT or BUTTON node.
func (b *Board) Toggle(id string) error {
	i := b.find(id)
	if i < 0 {
		return errors.Errorf("no node %q", id)
	}
	k := b.nodes[i].Kind
	if k != bb.KindInput && k != bb.KindButton {
		return errors.Errorf("node %q is a %s, not a source", id, k)
	}
	b.nodes[i].Value = !b.nodes[i].Value
	b.refresh()
	return nil
}

// SetBarValues replaces the held states of an input bar. The values are
// copied, padded or truncated to the bar's pin count.
func (b *Board) SetBarValues(id string, v []bool) error {
	i := b.find(id)
	if i < 0 {
		return errors.Errorf("no node %q", id)
	}
	n := &b.nodes[i]
	if n.Kind != bb.KindPinBar || n.Mode != bb.BarInput {
		return errors.Errorf("node %q is not an input bar", id)
	}
	vals := make([]bool, n.OutputCount())
	copy(vals, v)
	n.Values = vals
	b.refresh()
	return nil
}

// Connect wires an output pin of one node to an input pin of another and
// returns the new connection's ID. A wire landing on an occupied input pin
// replaces the wire already there. With feedback denied, wires that would
// close a loop fail with ErrFeedback.
func (b *Board) Connect(fromID string, fromPin int, toID string, toPin int) (string, error) {
	fi, ti := b.find(fromID), b.find(toID)
	if fi < 0 {
		return "", errors.Errorf("no node %q", fromID)
	}
	if ti < 0 {
		return "", errors.Errorf("no node %q", toID)
	}
	if fromPin < 0 || fromPin >= b.nodes[fi].OutputCount() {
		return "", errors.Errorf("node %q has no output pin %d", fromID, fromPin)
	}
	if toPin < 0 || toPin >= b.nodes[ti].InputCount() {
		return "", errors.Errorf("node %q has no input pin %d", toID, toPin)
	}

	rest := make([]bb.Connection, 0, len(b.conns)+1)
	var displaced string
	for _, w := range b.conns {
		if w.To == toID && w.ToPin == toPin {
			displaced = w.ID
			continue
		}
		rest = append(rest, w)
	}
	if b.denyFeedback && bb.WouldCreateCycle(rest, fromID, toID) {
		return "", errors.Wrapf(ErrFeedback, "%s -> %s", fromID, toID)
	}

	w := bb.Connection{ID: uuid.NewString(), From: fromID, FromPin: fromPin, To: toID, ToPin: toPin}
	b.conns = append(rest, w)
	if displaced != "" {
		b.log.Debug("wire replaced", "old", displaced, "new", w.ID)
	}
	b.log.Debug("connected", "conn", w.ID, "from", fromID, "fromPin", fromPin, "to", toID, "toPin", toPin)
	b.refresh()
	return w.ID, nil
}

// Disconnect removes a connection by ID.
func (b *Board) Disconnect(connID string) error {
	for i := range b.conns {
		if b.conns[i].ID == connID {
			b.conns = append(b.conns[:i], b.conns[i+1:]...)
			b.log.Debug("disconnected", "conn", connID)
			b.refresh()
			return nil
		}
	}
	return errors.Errorf("no connection %q", connID)
}

// RemoveNode deletes a node and every wire touching it.
func (b *Board) RemoveNode(id string) error {
	i := b.find(id)
	if i < 0 {
		return errors.Errorf("no node %q", id)
	}
	b.nodes = append(b.nodes[:i], b.nodes[i+1:]...)
	kept := b.conns[:0]
	for _, w := range b.conns {
		if w.From != id && w.To != id {
			kept = append(kept, w)
		}
	}
	b.conns = kept
	b.log.Debug("node removed", "node", id)
	b.refresh()
	return nil
}

// Clear removes every node and wire. Module definitions stay in the
// library.
func (b *Board) Clear() {
	b.nodes = nil
	b.conns = nil
	b.res = nil
	b.log.Debug("board cleared")
	b.refresh()
}

// DefineModule captures the current circuit as a reusable module definition
// and adds it to the board's library. Terminal nodes become the module
// boundary in their board order: INPUT and BUTTON nodes and input bars form
// the input pins, OUTPUT and LED nodes and output bars the output pins.
func (b *Board) DefineModule(name string) (*bb.ModuleDef, error) {
	if name == "" {
		return nil, errors.New("module name required")
	}
	def := bb.NewModuleDef(uuid.NewString(), name,
		append([]bb.Node(nil), b.nodes...),
		append([]bb.Connection(nil), b.conns...))
	if def.InputPins == 0 && def.OutputPins == 0 {
		return nil, errors.New("circuit has no terminals to expose")
	}
	b.lib[def.ID] = def
	b.log.Info("module defined", "definition", def.ID, "name", name,
		"inputPins", def.InputPins, "outputPins", def.OutputPins)
	return def, nil
}

// RemoveModule deletes a definition from the library. Instances already
// placed stay on their boards and settle to all false pins.
func (b *Board) RemoveModule(defID string) error {
	if _, ok := b.lib[defID]; !ok {
		return errors.Errorf("no module definition %q", defID)
	}
	delete(b.lib, defID)
	b.log.Info("module removed", "definition", defID)
	b.refresh()
	return nil
}

// Modules lists the library's definitions sorted by name, ties by ID.
func (b *Board) Modules() []*bb.ModuleDef {
	defs := make([]*bb.ModuleDef, 0, len(b.lib))
	for _, def := range b.lib {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Name != defs[j].Name {
			return defs[i].Name < defs[j].Name
		}
		return defs[i].ID < defs[j].ID
	})
	return defs
}

// Library exposes the board's module library for evaluation and saving.
// Treat it as read only.
func (b *Board) Library() bb.Library {
	return b.lib
}

// Node returns a copy of the node with the given ID.
func (b *Board) Node(id string) (bb.Node, bool) {
	i := b.find(id)
	if i < 0 {
		return bb.Node{}, false
	}
	return b.nodes[i], true
}

// Nodes returns the board's nodes in placement order. The slice is shared;
// treat it as read only.
func (b *Board) Nodes() []bb.Node {
	return b.nodes
}

// Connections returns the board's wires. The slice is shared; treat it as
// read only.
func (b *Board) Connections() []bb.Connection {
	return b.conns
}

// Results returns the latest good evaluation result.
func (b *Board) Results() bb.Result {
	return b.res
}

// Outputs returns the latest output pins of one node, nil if unknown.
func (b *Board) Outputs(id string) []bool {
	return b.res[id]
}

// CycleConnections returns the IDs of wires that sit on feedback loops, as
// of the latest good evaluation.
func (b *Board) CycleConnections() []string {
	return b.cycles
}
