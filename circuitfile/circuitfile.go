// Copyright 2025 The Breadboard Authors.
// Licensed under the MIT license. See license text in the LICENSE file.

// Package circuitfile reads and writes circuits as YAML documents.
//
// A document carries the nodes and connections of one circuit plus the
// module definitions it relies on. Documents are validated on both load
// and save, with one deliberate exception: a MODULE node may reference a
// definition that is not in the document. Removing a definition from a
// library leaves placed instances behind, and a board holding such
// instances must still round trip through a file. They settle to all
// false pins.
//
package circuitfile

import (
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	bb "github.com/dwyrd/breadboard"
	"github.com/dwyrd/breadboard/board"
)

// Version is the document format version understood by this package.
const Version = 1

// A Document is the on disk form of a circuit. Load and FromBoard always
// produce version 1 documents with defaults applied.
//
type Document struct {
	Version     int         `yaml:"version" validate:"required,min=1,max=1"`
	Name        string      `yaml:"name,omitempty" validate:"omitempty,max=128"`
	Nodes       []NodeDoc   `yaml:"nodes,omitempty" validate:"dive"`
	Connections []ConnDoc   `yaml:"connections,omitempty" validate:"dive"`
	Modules     []ModuleDoc `yaml:"modules,omitempty" validate:"dive"`
}

// A NodeDoc describes one node. Pin counts may be omitted for kinds with a
// fixed pin layout and for input bars that declare values; Load fills them
// in.
//
type NodeDoc struct {
	ID      string `yaml:"id" validate:"required,max=128"`
	Kind    string `yaml:"kind" validate:"required,oneof=AND OR NOT INPUT OUTPUT LED BUTTON PINBAR MODULE"`
	Inputs  int    `yaml:"inputs,omitempty" validate:"min=0,max=4096"`
	Outputs int    `yaml:"outputs,omitempty" validate:"min=0,max=4096"`
	Value   bool   `yaml:"value,omitempty"`
	Values  []bool `yaml:"values,omitempty" validate:"max=4096"`
	Mode    string `yaml:"mode,omitempty" validate:"omitempty,oneof=input output"`
	Module  string `yaml:"module,omitempty" validate:"omitempty,max=128"`
}

// A ConnDoc describes one wire between two node pins.
type ConnDoc struct {
	ID      string `yaml:"id" validate:"required,max=128"`
	From    string `yaml:"from" validate:"required"`
	FromPin int    `yaml:"from_pin,omitempty" validate:"min=0,max=4096"`
	To      string `yaml:"to" validate:"required"`
	ToPin   int    `yaml:"to_pin,omitempty" validate:"min=0,max=4096"`
}

// A ModuleDoc describes one module definition. The input_ids and
// output_ids lists fix the order in which terminal nodes map to external
// pins; an omitted list falls back to node list order.
//
type ModuleDoc struct {
	ID          string    `yaml:"id" validate:"required,max=128"`
	Name        string    `yaml:"name" validate:"required,max=128"`
	Nodes       []NodeDoc `yaml:"nodes,omitempty" validate:"dive"`
	Connections []ConnDoc `yaml:"connections,omitempty" validate:"dive"`
	InputIDs    []string  `yaml:"input_ids,omitempty"`
	OutputIDs   []string  `yaml:"output_ids,omitempty"`
}

// Load decodes a document from r. Unknown fields are rejected, defaults
// are applied and the result is validated.
//
func Load(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	d := new(Document)
	if err := dec.Decode(d); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty circuit document")
		}
		return nil, errors.Wrap(err, "decode circuit document")
	}
	applyDefaults(d)
	if err := Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadFile reads and decodes the document at path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open circuit document")
	}
	defer f.Close()
	d, err := Load(f)
	return d, errors.Wrapf(err, "load %s", path)
}

// Save validates d, applying defaults first, and encodes it to w.
func Save(w io.Writer, d *Document) error {
	applyDefaults(d)
	if err := Validate(d); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		enc.Close()
		return errors.Wrap(err, "encode circuit document")
	}
	return errors.Wrap(enc.Close(), "encode circuit document")
}

// SaveFile writes the document to path, replacing any existing file.
func SaveFile(path string, d *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create circuit document")
	}
	if err := Save(f, d); err != nil {
		f.Close()
		return errors.Wrapf(err, "save %s", path)
	}
	return errors.Wrapf(f.Close(), "save %s", path)
}

// applyDefaults normalizes a document in place: the version is set when
// absent, fixed pin layouts are filled in, input bars grow to fit their
// declared values and module instances take their size from the
// definitions present in the document.
func applyDefaults(d *Document) {
	if d.Version == 0 {
		d.Version = Version
	}
	nodeDefaults(d.Nodes)
	for i := range d.Modules {
		nodeDefaults(d.Modules[i].Nodes)
	}
	type span struct{ in, out int }
	spans := make(map[string]span, len(d.Modules))
	for i := range d.Modules {
		def := d.Modules[i].def()
		spans[def.ID] = span{in: def.InputPins, out: def.OutputPins}
	}
	fill := func(nodes []NodeDoc) {
		for i := range nodes {
			n := &nodes[i]
			if n.Kind != string(bb.KindModule) || n.Inputs != 0 || n.Outputs != 0 {
				continue
			}
			if s, ok := spans[n.Module]; ok {
				n.Inputs, n.Outputs = s.in, s.out
			}
		}
	}
	fill(d.Nodes)
	for i := range d.Modules {
		fill(d.Modules[i].Nodes)
	}
}

func nodeDefaults(nodes []NodeDoc) {
	for i := range nodes {
		n := &nodes[i]
		if in, out, fixed := bb.PinCounts(bb.Kind(n.Kind)); fixed {
			if n.Inputs == 0 {
				n.Inputs = in
			}
			if n.Outputs == 0 {
				n.Outputs = out
			}
			continue
		}
		if n.Kind == string(bb.KindPinBar) && n.Mode == string(bb.BarInput) && n.Outputs == 0 {
			n.Outputs = len(n.Values)
		}
	}
}

// Circuit converts the document into evaluator form.
func (d *Document) Circuit() ([]bb.Node, []bb.Connection, bb.Library) {
	nodes := make([]bb.Node, len(d.Nodes))
	for i := range d.Nodes {
		nodes[i] = d.Nodes[i].node()
	}
	conns := make([]bb.Connection, len(d.Connections))
	for i := range d.Connections {
		conns[i] = d.Connections[i].conn()
	}
	lib := make(bb.Library, len(d.Modules))
	for i := range d.Modules {
		def := d.Modules[i].def()
		lib[def.ID] = def
	}
	return nodes, conns, lib
}

// Board restores the document onto a fresh board. A nil logger disables
// logging.
func (d *Document) Board(logger *slog.Logger) *board.Board {
	nodes, conns, lib := d.Circuit()
	return board.Restore(logger, nodes, conns, lib)
}

// FromBoard captures the state of a board as a document ready to save.
func FromBoard(name string, b *board.Board) *Document {
	d := &Document{Version: Version, Name: name}
	for _, n := range b.Nodes() {
		d.Nodes = append(d.Nodes, nodeDoc(n))
	}
	for _, w := range b.Connections() {
		d.Connections = append(d.Connections, connDoc(w))
	}
	for _, def := range b.Modules() {
		d.Modules = append(d.Modules, moduleDoc(def))
	}
	return d
}

func (nd *NodeDoc) node() bb.Node {
	return bb.Node{
		ID:      nd.ID,
		Kind:    bb.Kind(nd.Kind),
		Inputs:  nd.Inputs,
		Outputs: nd.Outputs,
		Value:   nd.Value,
		Values:  append([]bool(nil), nd.Values...),
		Mode:    bb.BarMode(nd.Mode),
		Module:  nd.Module,
	}
}

func (cd *ConnDoc) conn() bb.Connection {
	return bb.Connection{ID: cd.ID, From: cd.From, FromPin: cd.FromPin, To: cd.To, ToPin: cd.ToPin}
}

func (md *ModuleDoc) def() *bb.ModuleDef {
	nodes := make([]bb.Node, len(md.Nodes))
	for i := range md.Nodes {
		nodes[i] = md.Nodes[i].node()
	}
	conns := make([]bb.Connection, len(md.Connections))
	for i := range md.Connections {
		conns[i] = md.Connections[i].conn()
	}
	def := bb.NewModuleDef(md.ID, md.Name, nodes, conns)
	if len(md.InputIDs) == 0 && len(md.OutputIDs) == 0 {
		return def
	}
	byID := make(map[string]*bb.Node, len(nodes))
	for i := range nodes {
		if _, ok := byID[nodes[i].ID]; !ok {
			byID[nodes[i].ID] = &nodes[i]
		}
	}
	if len(md.InputIDs) > 0 {
		def.InputIDs = append([]string(nil), md.InputIDs...)
		def.InputPins = 0
		for _, id := range def.InputIDs {
			def.InputPins += pinSpan(byID[id], true)
		}
	}
	if len(md.OutputIDs) > 0 {
		def.OutputIDs = append([]string(nil), md.OutputIDs...)
		def.OutputPins = 0
		for _, id := range def.OutputIDs {
			def.OutputPins += pinSpan(byID[id], false)
		}
	}
	return def
}

// pinSpan is the number of external pins a terminal node contributes to
// a module boundary.
func pinSpan(n *bb.Node, input bool) int {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case bb.KindInput, bb.KindButton, bb.KindOutput, bb.KindLED:
		return 1
	case bb.KindPinBar:
		if input {
			return n.OutputCount()
		}
		return n.InputCount()
	}
	return 0
}

func nodeDoc(n bb.Node) NodeDoc {
	return NodeDoc{
		ID:      n.ID,
		Kind:    string(n.Kind),
		Inputs:  n.Inputs,
		Outputs: n.Outputs,
		Value:   n.Value,
		Values:  append([]bool(nil), n.Values...),
		Mode:    string(n.Mode),
		Module:  n.Module,
	}
}

func connDoc(w bb.Connection) ConnDoc {
	return ConnDoc{ID: w.ID, From: w.From, FromPin: w.FromPin, To: w.To, ToPin: w.ToPin}
}

func moduleDoc(def *bb.ModuleDef) ModuleDoc {
	md := ModuleDoc{
		ID:        def.ID,
		Name:      def.Name,
		InputIDs:  append([]string(nil), def.InputIDs...),
		OutputIDs: append([]string(nil), def.OutputIDs...),
	}
	for _, n := range def.Nodes {
		md.Nodes = append(md.Nodes, nodeDoc(n))
	}
	for _, w := range def.Connections {
		md.Connections = append(md.Connections, connDoc(w))
	}
	return md
}
