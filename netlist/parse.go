// Copyright 2025 The Breadboard Authors.
// Licensed under the MIT license. See license text in the LICENSE file.

// Package netlist reads and writes circuits in the classic bench netlist
// dialect:
//
//	# half adder
//	INPUT(a)
//	INPUT(b)
//	s = OR(x1, x2)
//	x1 = AND(a, nb)
//	x2 = AND(na, b)
//	na = NOT(a)
//	nb = NOT(b)
//	c = AND(a, b)
//	OUTPUT(s)
//	OUTPUT(c)
//
// Each gate statement defines one signal and may reference signals
// defined further down, so feedback loops can be written directly.
// INPUT and BUTTON declare source signals, OUTPUT and LED mark signals
// to observe. The operands true and false denote constant sources
// unless a signal of the same name exists.
//
package netlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	bb "github.com/dwyrd/breadboard"
)

// gateRE matches statements of the form y = AND(a, b) and n = NOT(x),
// capturing the defined signal, the gate kind and one or two operands.
// inOutRE matches declarations of the form INPUT(a) and OUTPUT(s).
var (
	gateRE  = regexp.MustCompile(`^(\w+)\s*=\s*(\w+)\s*\((\w+)\s*(?:,\s*(\w+))?\)$`)
	inOutRE = regexp.MustCompile(`^(\w+)\s*\((\w+)\)$`)
)

type stmt struct {
	line int
	sig  string
	op   string
	args []string
}

// Parse decodes a netlist into evaluator form. Node IDs are the signal
// names from the file; OUTPUT and LED declarations synthesize observer
// nodes named after their signal with a ".out" or ".led" suffix, which
// keeps them clear of the signal namespace.
//
func Parse(r io.Reader) ([]bb.Node, []bb.Connection, error) {
	var gates, decls []stmt
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := gateRE.FindStringSubmatch(line); m != nil {
			s := stmt{line: ln, sig: m[1], op: m[2], args: []string{m[3]}}
			if m[4] != "" {
				s.args = append(s.args, m[4])
			}
			gates = append(gates, s)
			continue
		}
		if m := inOutRE.FindStringSubmatch(line); m != nil {
			decls = append(decls, stmt{line: ln, sig: m[2], op: m[1]})
			continue
		}
		return nil, nil, errors.Errorf("line %d: cannot parse %q", ln, line)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "read netlist")
	}
	p := &parser{index: make(map[string]int)}
	if err := p.declare(gates, decls); err != nil {
		return nil, nil, err
	}
	if err := p.wire(gates, decls); err != nil {
		return nil, nil, err
	}
	return p.nodes, p.conns, nil
}

// ParseFile reads and decodes the netlist at path.
func ParseFile(path string) ([]bb.Node, []bb.Connection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open netlist")
	}
	defer f.Close()
	nodes, conns, err := Parse(f)
	return nodes, conns, errors.Wrapf(err, "parse %s", path)
}

type parser struct {
	nodes []bb.Node
	conns []bb.Connection
	index map[string]int
}

// declare creates a node per defined signal so that the wiring pass can
// resolve references in any order.
func (p *parser) declare(gates, decls []stmt) error {
	for _, g := range gates {
		k, arity, ok := gateKind(g.op)
		if !ok {
			return errors.Errorf("line %d: unknown gate %q", g.line, g.op)
		}
		if len(g.args) != arity {
			if arity == 1 {
				return errors.Errorf("line %d: %s takes one operand", g.line, g.op)
			}
			return errors.Errorf("line %d: %s takes two operands", g.line, g.op)
		}
		if err := p.add(g.line, g.sig, k); err != nil {
			return err
		}
	}
	for _, d := range decls {
		switch d.op {
		case "INPUT":
			if err := p.add(d.line, d.sig, bb.KindInput); err != nil {
				return err
			}
		case "BUTTON":
			if err := p.add(d.line, d.sig, bb.KindButton); err != nil {
				return err
			}
		case "OUTPUT", "LED":
			// wired in the second pass once every signal is known
		default:
			return errors.Errorf("line %d: unknown declaration %q", d.line, d.op)
		}
	}
	return nil
}

func (p *parser) wire(gates, decls []stmt) error {
	for _, g := range gates {
		for pin, arg := range g.args {
			from, err := p.source(g.line, arg)
			if err != nil {
				return err
			}
			p.connect(from, g.sig, pin)
		}
	}
	seen := make(map[string]bool)
	for _, d := range decls {
		if d.op != "OUTPUT" && d.op != "LED" {
			continue
		}
		i, ok := p.index[d.sig]
		if !ok {
			return errors.Errorf("line %d: unknown signal %q", d.line, d.sig)
		}
		key := d.op + "(" + d.sig + ")"
		if seen[key] {
			return errors.Errorf("line %d: duplicate %s", d.line, key)
		}
		seen[key] = true
		id, kind := d.sig+".out", bb.KindOutput
		if d.op == "LED" {
			id, kind = d.sig+".led", bb.KindLED
		}
		p.nodes = append(p.nodes, bb.Node{ID: id, Kind: kind, Inputs: 1, Outputs: 1})
		p.connect(p.nodes[i].ID, id, 0)
	}
	return nil
}

func (p *parser) add(line int, sig string, k bb.Kind) error {
	if i, ok := p.index[sig]; ok {
		return errors.Errorf("line %d: signal %q already defined as %s", line, sig, p.nodes[i].Kind)
	}
	in, out, _ := bb.PinCounts(k)
	p.index[sig] = len(p.nodes)
	p.nodes = append(p.nodes, bb.Node{ID: sig, Kind: k, Inputs: in, Outputs: out})
	return nil
}

// source resolves a gate operand to a node ID, synthesizing a constant
// source for the literals true and false. A signal of the same name
// shadows the literal.
func (p *parser) source(line int, arg string) (string, error) {
	if i, ok := p.index[arg]; ok {
		return p.nodes[i].ID, nil
	}
	if arg == "true" || arg == "false" {
		id := "const." + arg
		if i, ok := p.index[id]; ok {
			return p.nodes[i].ID, nil
		}
		p.index[id] = len(p.nodes)
		p.nodes = append(p.nodes, bb.Node{ID: id, Kind: bb.KindInput, Outputs: 1, Value: arg == "true"})
		return id, nil
	}
	return "", errors.Errorf("line %d: unknown signal %q", line, arg)
}

func (p *parser) connect(from, to string, pin int) {
	p.conns = append(p.conns, bb.Connection{
		ID:    fmt.Sprintf("w%04d", len(p.conns)),
		From:  from,
		To:    to,
		ToPin: pin,
	})
}

func gateKind(op string) (k bb.Kind, arity int, ok bool) {
	switch op {
	case "AND":
		return bb.KindAnd, 2, true
	case "OR":
		return bb.KindOr, 2, true
	case "NOT":
		return bb.KindNot, 1, true
	}
	return "", 0, false
}
