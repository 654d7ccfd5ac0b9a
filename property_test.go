package breadboard_test

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	bb "github.com/dwyrd/breadboard"
)

// randomCircuit derives a gate circuit from seed. Node IDs are unique;
// connections may dangle on out of range pins and may form loops unless
// acyclic is set, in which case wires only ever run forward through the
// node list.
func randomCircuit(seed int64, acyclic bool) ([]bb.Node, []bb.Connection) {
	rng := rand.New(rand.NewSource(seed))
	kinds := []bb.Kind{
		bb.KindAnd, bb.KindOr, bb.KindNot,
		bb.KindInput, bb.KindButton, bb.KindOutput, bb.KindLED,
	}

	n := 2 + rng.Intn(14)
	nodes := make([]bb.Node, n)
	for i := range nodes {
		nodes[i] = bb.Node{
			ID:    fmt.Sprintf("n%02d", i),
			Kind:  kinds[rng.Intn(len(kinds))],
			Value: rng.Intn(2) == 0,
		}
	}

	m := rng.Intn(2 * n)
	conns := make([]bb.Connection, 0, m)
	for i := 0; i < m; i++ {
		from, to := rng.Intn(n), rng.Intn(n)
		if acyclic {
			if from == to {
				continue
			}
			if from > to {
				from, to = to, from
			}
		}
		conns = append(conns, bb.Connection{
			ID:      fmt.Sprintf("w%02d", i),
			From:    nodes[from].ID,
			FromPin: 0,
			To:      nodes[to].ID,
			ToPin:   rng.Intn(2),
		})
	}
	return nodes, conns
}

func mustEvaluate(nodes []bb.Node, conns []bb.Connection, prev bb.Result) bb.Result {
	res, err := bb.Evaluate(nodes, conns, nil, prev)
	if err != nil {
		panic(err)
	}
	return res
}

// TestCircuitInvariants verifies properties that must hold for every circuit
// the generator can produce, loops and dangling pins included.
func TestCircuitInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("declaration order never changes results", prop.ForAll(
		func(seed int64) bool {
			nodes, conns := randomCircuit(seed, false)
			want := mustEvaluate(nodes, conns, nil)

			shuf := rand.New(rand.NewSource(seed + 1))
			pn := make([]bb.Node, len(nodes))
			copy(pn, nodes)
			shuf.Shuffle(len(pn), func(i, j int) { pn[i], pn[j] = pn[j], pn[i] })
			pc := make([]bb.Connection, len(conns))
			copy(pc, conns)
			shuf.Shuffle(len(pc), func(i, j int) { pc[i], pc[j] = pc[j], pc[i] })

			return reflect.DeepEqual(mustEvaluate(pn, pc, nil), want)
		},
		gen.Int64(),
	))

	properties.Property("every node gets exactly one single pin vector", prop.ForAll(
		func(seed int64) bool {
			nodes, conns := randomCircuit(seed, false)
			res := mustEvaluate(nodes, conns, nil)
			if len(res) != len(nodes) {
				return false
			}
			for _, n := range nodes {
				if len(res[n.ID]) != 1 {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("a second pass over an acyclic circuit is a fixed point", prop.ForAll(
		func(seed int64) bool {
			nodes, conns := randomCircuit(seed, true)
			first := mustEvaluate(nodes, conns, nil)
			second := mustEvaluate(nodes, conns, first)
			return reflect.DeepEqual(first, second)
		},
		gen.Int64(),
	))

	properties.Property("acyclic circuits have no cycle connections", prop.ForAll(
		func(seed int64) bool {
			nodes, conns := randomCircuit(seed, true)
			return bb.DetectCycleConnections(nodes, conns) == nil
		},
		gen.Int64(),
	))

	properties.Property("connecting a node to itself always loops", prop.ForAll(
		func(seed int64, id string) bool {
			_, conns := randomCircuit(seed, false)
			return bb.WouldCreateCycle(conns, id, id)
		},
		gen.Int64(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
