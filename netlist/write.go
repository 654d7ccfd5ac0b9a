package netlist

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	bb "github.com/dwyrd/breadboard"
)

// nameRE matches node IDs that can appear verbatim in a netlist.
var nameRE = regexp.MustCompile(`^\w+$`)

type pinKey struct {
	to  string
	pin int
}

// Write encodes a circuit as a netlist: source declarations first,
// observer declarations next, one gate statement per gate last. Node IDs
// the format cannot carry, generated UUIDs among them, are renamed n1,
// n2 and so on in node order. When several wires compete for one input
// pin only the one the evaluator honors is written. Pin bars and module
// instances have no netlist form, every gate and observer pin must be
// wired, and held INPUT and BUTTON values are not part of the format.
//
func Write(w io.Writer, nodes []bb.Node, conns []bb.Connection) error {
	names := signalNames(nodes)
	kinds := make(map[string]bb.Kind, len(nodes))
	for i := range nodes {
		kinds[nodes[i].ID] = nodes[i].Kind
	}

	// Effective source per input pin: dangling and out of range wires
	// carry nothing, and the lowest wire ID wins a contested pin.
	best := make(map[pinKey]bb.Connection, len(conns))
	for _, c := range conns {
		if c.FromPin != 0 {
			continue
		}
		if _, ok := kinds[c.From]; !ok {
			continue
		}
		if _, ok := kinds[c.To]; !ok {
			continue
		}
		k := pinKey{c.To, c.ToPin}
		if b, ok := best[k]; !ok || c.ID < b.ID {
			best[k] = c
		}
	}

	for i := range nodes {
		n := &nodes[i]
		switch n.Kind {
		case bb.KindInput, bb.KindButton:
		case bb.KindAnd, bb.KindOr, bb.KindNot, bb.KindOutput, bb.KindLED:
			for pin := 0; pin < n.InputCount(); pin++ {
				c, ok := best[pinKey{n.ID, pin}]
				if !ok {
					return errors.Errorf("pin %d of %s %q is not wired", pin, n.Kind, n.ID)
				}
				if k := kinds[c.From]; k == bb.KindOutput || k == bb.KindLED {
					return errors.Errorf("wire from observer %q has no netlist form", c.From)
				}
			}
		default:
			return errors.Errorf("netlists cannot express %s nodes", n.Kind)
		}
	}

	bw := bufio.NewWriter(w)
	for i := range nodes {
		n := &nodes[i]
		switch n.Kind {
		case bb.KindInput:
			fmt.Fprintf(bw, "INPUT(%s)\n", names[n.ID])
		case bb.KindButton:
			fmt.Fprintf(bw, "BUTTON(%s)\n", names[n.ID])
		}
	}
	for i := range nodes {
		n := &nodes[i]
		if n.Kind != bb.KindOutput && n.Kind != bb.KindLED {
			continue
		}
		op := "OUTPUT"
		if n.Kind == bb.KindLED {
			op = "LED"
		}
		fmt.Fprintf(bw, "%s(%s)\n", op, names[best[pinKey{n.ID, 0}].From])
	}
	for i := range nodes {
		n := &nodes[i]
		var op string
		switch n.Kind {
		case bb.KindAnd:
			op = "AND"
		case bb.KindOr:
			op = "OR"
		case bb.KindNot:
			op = "NOT"
		default:
			continue
		}
		args := make([]string, n.InputCount())
		for pin := range args {
			args[pin] = names[best[pinKey{n.ID, pin}].From]
		}
		fmt.Fprintf(bw, "%s = %s(%s)\n", names[n.ID], op, strings.Join(args, ", "))
	}
	return errors.Wrap(bw.Flush(), "write netlist")
}

// signalNames maps node IDs to netlist signal names, renaming IDs that
// cannot appear in the format.
func signalNames(nodes []bb.Node) map[string]string {
	names := make(map[string]string, len(nodes))
	taken := make(map[string]bool, len(nodes))
	for i := range nodes {
		if id := nodes[i].ID; nameRE.MatchString(id) {
			names[id] = id
			taken[id] = true
		}
	}
	k := 0
	for i := range nodes {
		id := nodes[i].ID
		if _, ok := names[id]; ok {
			continue
		}
		for {
			k++
			cand := fmt.Sprintf("n%d", k)
			if !taken[cand] {
				names[id] = cand
				taken[cand] = true
				break
			}
		}
	}
	return names
}
