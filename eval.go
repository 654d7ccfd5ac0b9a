// Copyright 2025 The Breadboard Authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard

// Evaluate computes the output pin values of every node in the circuit.
//
// nodes and conns are the circuit snapshot. lib resolves MODULE nodes and is
// only read. prev is the Result of the previous pass, or nil on the first
// one; it seeds the values that feedback loops start the pass from, so a
// caller that wants loops to advance must hold on to each Result and pass it
// back in.
//
// Nodes on a feedback loop are evaluated against a frozen snapshot of the
// circuit: within one pass they all see the same one step old state, which
// makes the outcome independent of declaration order and advances every loop
// by exactly one step per pass. Acyclic nodes always settle in the same
// pass.
//
// Malformed circuits degrade instead of failing: dangling connections are
// ignored, unwired input pins read false, MODULE nodes without a definition
// output all false pins and unrecognized kinds output a single false pin.
// The one exception is a module definition that instantiates itself,
// directly or through other definitions, which aborts the pass with
// ErrCyclicModule.
//
func Evaluate(nodes []Node, conns []Connection, lib Library, prev Result) (Result, error) {
	return evaluate(nodes, conns, lib, prev, nil)
}

// evaluate runs one pass. visited carries the chain of module definition IDs
// currently being expanded, used to refuse self-instantiating definitions.
func evaluate(nodes []Node, conns []Connection, lib Library, prev Result, visited []string) (Result, error) {
	c := newCircuit(nodes, conns)
	seq, cycleStart := c.order()

	inCycle := make([]bool, len(c.nodes))
	for _, h := range seq[cycleStart:] {
		inCycle[h] = true
	}

	// the frozen snapshot starts out as the previous pass's values for the
	// nodes still present, which is all the memory feedback loops have.
	frozen := make(Result, len(c.nodes))
	for h := range c.nodes {
		if v, ok := prev[c.nodes[h].ID]; ok {
			frozen[c.nodes[h].ID] = v
		}
	}

	p := &pass{
		c:       c,
		out:     make(Result, len(c.nodes)),
		frozen:  frozen,
		inCycle: inCycle,
		lib:     lib,
		visited: visited,
	}

	// phase 1: acyclic nodes in dependency order. Feeders that sit on a
	// loop are read from the snapshot; everything else is read live.
	for _, h := range seq[:cycleStart] {
		v, err := p.eval(h)
		if err != nil {
			return nil, err
		}
		p.out[c.nodes[h].ID] = v
	}

	// phase 2: fold the settled values into the snapshot, then evaluate the
	// cycle set against the snapshot alone.
	for _, h := range seq[:cycleStart] {
		frozen[c.nodes[h].ID] = p.out[c.nodes[h].ID]
	}
	p.frozenOnly = true
	for _, h := range seq[cycleStart:] {
		v, err := p.eval(h)
		if err != nil {
			return nil, err
		}
		p.out[c.nodes[h].ID] = v
	}

	return p.out, nil
}

// A pass holds the state of one evaluation pass over one circuit.
type pass struct {
	c          *circuit
	out        Result // values settled so far in this pass
	frozen     Result // snapshot loop members read from
	inCycle    []bool
	frozenOnly bool // set for phase 2: all reads go to the snapshot
	lib        Library
	visited    []string
}

// read resolves the value arriving over one wired input pin.
func (p *pass) read(s pinSource) bool {
	id := p.c.nodes[s.node].ID
	if p.frozenOnly || p.inCycle[s.node] {
		return p.frozen.Bit(id, s.pin)
	}
	return p.out.Bit(id, s.pin)
}

// pin reads input pin i of node h, false when the pin is unwired or out of
// range.
func (p *pass) pin(h, i int) bool {
	ins := p.c.ins[h]
	if i < 0 || i >= len(ins) || ins[i].node < 0 {
		return false
	}
	return p.read(ins[i])
}

// pins reads every declared input pin of node h, unwired pins as false.
func (p *pass) pins(h int) []bool {
	ins := p.c.ins[h]
	v := make([]bool, len(ins))
	for i := range ins {
		if ins[i].node >= 0 {
			v[i] = p.read(ins[i])
		}
	}
	return v
}

// gate reads the first n input pins of node h and reports whether all of
// them are wired. A gate with any unwired pin outputs false rather than
// computing on phantom values.
func (p *pass) gate(h, n int) ([]bool, bool) {
	ins := p.c.ins[h]
	v := make([]bool, n)
	for i := 0; i < n; i++ {
		if i >= len(ins) || ins[i].node < 0 {
			return v, false
		}
		v[i] = p.read(ins[i])
	}
	return v, true
}

// eval computes the output pin vector of a single node.
func (p *pass) eval(h int) ([]bool, error) {
	n := &p.c.nodes[h]
	switch n.Kind {
	case KindAnd:
		if in, wired := p.gate(h, 2); wired {
			return []bool{in[0] && in[1]}, nil
		}
	case KindOr:
		if in, wired := p.gate(h, 2); wired {
			return []bool{in[0] || in[1]}, nil
		}
	case KindNot:
		if in, wired := p.gate(h, 1); wired {
			return []bool{!in[0]}, nil
		}
	case KindInput, KindButton:
		// held state; anything wired into these is ignored
		return []bool{n.Value}, nil
	case KindOutput, KindLED:
		return []bool{p.pin(h, 0)}, nil
	case KindPinBar:
		if n.Mode == BarInput {
			v := make([]bool, n.OutputCount())
			copy(v, n.Values)
			return v, nil
		}
		return p.pins(h), nil
	case KindModule:
		return p.module(h)
	}
	// unrecognized kinds and gates with unwired pins settle to false
	return []bool{false}, nil
}
