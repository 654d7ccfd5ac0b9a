package breadboard

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrCyclicModule is reported when a module definition instantiates itself,
// directly or through a chain of other definitions. Test for it with
// errors.Is.
//
var ErrCyclicModule = errors.New("cyclic module definition")

// module expands a MODULE node. The definition's nodes are copied, the bits
// arriving on the instance's input pins are loaded into the copy's input
// terminals, the copy is evaluated as a circuit of its own and the external
// output vector is assembled from the definition's output terminals.
//
// The inner evaluation starts from a nil previous result: feedback loops
// inside a module are reborn on every pass of the enclosing circuit and
// cannot carry state across passes. Module state that must persist has to
// live in the enclosing circuit.
func (p *pass) module(h int) ([]bool, error) {
	n := &p.c.nodes[h]
	def := p.lib[n.Module]
	if def == nil {
		return make([]bool, n.OutputCount()), nil
	}

	chain := make([]string, 0, len(p.visited)+1)
	chain = append(chain, p.visited...)
	chain = append(chain, def.ID)
	for _, id := range p.visited {
		if id == def.ID {
			return nil, errors.Wrapf(ErrCyclicModule, "%q via %s", def.Name, strings.Join(chain, " -> "))
		}
	}

	work := make([]Node, len(def.Nodes))
	copy(work, def.Nodes)
	pos := make(map[string]int, len(work))
	for i := range work {
		if _, dup := pos[work[i].ID]; !dup {
			pos[work[i].ID] = i
		}
	}

	loadInputs(work, pos, def.InputIDs, p.pins(h))

	sub, err := evaluate(work, def.Connections, p.lib, nil, chain)
	if err != nil {
		return nil, err
	}
	return assemble(def, work, pos, sub), nil
}

// loadInputs distributes the flat external input vector over the
// definition's input terminals in boundary order. INPUT and BUTTON terminals
// take one slot each, input bars take one slot per bar pin. Slots beyond the
// vector read false, surplus bits are dropped.
func loadInputs(work []Node, pos map[string]int, inputIDs []string, ext []bool) {
	at := func(k int) bool { return k >= 0 && k < len(ext) && ext[k] }
	k := 0
	for _, id := range inputIDs {
		i, ok := pos[id]
		if !ok {
			continue
		}
		t := &work[i]
		switch t.Kind {
		case KindInput, KindButton:
			t.Value = at(k)
			k++
		case KindPinBar:
			v := make([]bool, t.OutputCount())
			for j := range v {
				v[j] = at(k + j)
			}
			t.Values = v
			k += len(v)
		}
	}
}

// assemble builds the instance's external output vector by walking the
// definition's output terminals in boundary order. OUTPUT and LED terminals
// contribute their single pin. An output bar contributes one bit per bar
// pin, traced through the definition's connection feeding that pin, false
// where nothing does.
func assemble(def *ModuleDef, work []Node, pos map[string]int, sub Result) []bool {
	out := make([]bool, 0, def.OutputPins)
	for _, id := range def.OutputIDs {
		i, ok := pos[id]
		if !ok {
			continue
		}
		t := &work[i]
		switch t.Kind {
		case KindOutput, KindLED:
			out = append(out, sub.Bit(t.ID, 0))
		case KindPinBar:
			for j := 0; j < t.InputCount(); j++ {
				out = append(out, tracePin(def.Connections, t.ID, j, sub))
			}
		}
	}
	return out
}

// tracePin resolves the bit arriving at input pin (id, pin) by following the
// connection feeding it back to its source node's result. Competing
// connections resolve the way the evaluator resolves them: smallest ID wins.
func tracePin(conns []Connection, id string, pin int, r Result) bool {
	best := -1
	for i := range conns {
		if conns[i].To != id || conns[i].ToPin != pin {
			continue
		}
		if best < 0 || conns[i].ID < conns[best].ID {
			best = i
		}
	}
	if best < 0 {
		return false
	}
	return r.Bit(conns[best].From, conns[best].FromPin)
}
