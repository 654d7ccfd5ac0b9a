package breadboard_test

import (
	"testing"

	bb "github.com/dwyrd/breadboard"
)

// A NOT gate wired to itself is the smallest feedback loop. Each pass must
// flip it exactly once, forever, without erroring or hanging.
func Test_not_loop_oscillates(t *testing.T) {
	nodes := []bb.Node{gate("n", bb.KindNot), sink("o")}
	conns := []bb.Connection{
		wire("w0", "n", 0, "n", 0),
		wire("w1", "n", 0, "o", 0),
	}

	var prev bb.Result
	want := true
	for pass := 0; pass < 16; pass++ {
		res := eval(t, nodes, conns, nil, prev)
		if got := res.Bit("n", 0); got != want {
			t.Fatalf("pass %d: loop = %v, want %v", pass, got, want)
		}
		// the sink hangs off the loop, so it also sits in the cycle set and
		// reports the loop's previous value, one pass behind.
		if got := res.Bit("o", 0); got != !want {
			t.Fatalf("pass %d: sink behind loop = %v, want %v", pass, got, !want)
		}
		prev = res
		want = !want
	}
}

// A one bit latch built from the three gate kinds:
//
//	q = OR(set, AND(q, NOT(reset)))
//
// Holding the previous result across passes is what gives it memory.
func Test_latch_remembers_set_bit(t *testing.T) {
	nodes := []bb.Node{
		source("set", false),
		source("reset", false),
		gate("notR", bb.KindNot),
		gate("hold", bb.KindAnd),
		gate("q", bb.KindOr),
	}
	conns := []bb.Connection{
		wire("w0", "reset", 0, "notR", 0),
		wire("w1", "q", 0, "hold", 0),
		wire("w2", "notR", 0, "hold", 1),
		wire("w3", "set", 0, "q", 0),
		wire("w4", "hold", 0, "q", 1),
	}

	run := func(prev bb.Result, passes int) bb.Result {
		t.Helper()
		for ; passes > 0; passes-- {
			prev = eval(t, nodes, conns, nil, prev)
		}
		return prev
	}

	res := run(nil, 3)
	if res.Bit("q", 0) {
		t.Fatal("latch reads set before any set pulse")
	}

	nodes[0].Value = true // press set
	res = run(res, 3)
	if !res.Bit("q", 0) {
		t.Fatal("latch did not set")
	}

	nodes[0].Value = false // release set
	res = run(res, 3)
	if !res.Bit("q", 0) {
		t.Error("latch dropped its bit after set was released")
	}

	nodes[1].Value = true // press reset
	res = run(res, 3)
	if res.Bit("q", 0) {
		t.Error("latch did not reset")
	}
}

// Nodes in front of a loop settle normally; only the loop and what it feeds
// advance one step per pass.
func Test_loop_does_not_disturb_upstream_nodes(t *testing.T) {
	nodes := []bb.Node{
		source("a", true),
		gate("nUp", bb.KindNot), // upstream of the loop
		gate("n", bb.KindNot),   // the loop
	}
	conns := []bb.Connection{
		wire("w0", "a", 0, "nUp", 0),
		wire("w1", "n", 0, "n", 0),
	}

	var prev bb.Result
	for pass := 0; pass < 4; pass++ {
		res := eval(t, nodes, conns, nil, prev)
		if res.Bit("nUp", 0) {
			t.Fatalf("pass %d: upstream NOT(true) = true, want false", pass)
		}
		prev = res
	}
}

// Members of one loop all read the same frozen snapshot: a ring of two NOT
// gates moves in lockstep instead of chasing its own tail within a pass.
func Test_ring_members_step_together(t *testing.T) {
	nodes := []bb.Node{gate("x", bb.KindNot), gate("y", bb.KindNot)}
	conns := []bb.Connection{
		wire("w0", "x", 0, "y", 0),
		wire("w1", "y", 0, "x", 0),
	}

	var prev bb.Result
	want := true
	for pass := 0; pass < 6; pass++ {
		res := eval(t, nodes, conns, nil, prev)
		if x, y := res.Bit("x", 0), res.Bit("y", 0); x != want || y != want {
			t.Fatalf("pass %d: ring = (%v, %v), want (%v, %v)", pass, x, y, want, want)
		}
		prev = res
		want = !want
	}
}

// The state of one loop never leaks into another: an oscillator and a latch
// coexist in the same circuit.
func Test_independent_loops(t *testing.T) {
	nodes := []bb.Node{
		gate("osc", bb.KindNot),
		source("s", true),
		gate("keep", bb.KindOr),
	}
	conns := []bb.Connection{
		wire("w0", "osc", 0, "osc", 0),
		wire("w1", "s", 0, "keep", 0),
		wire("w2", "keep", 0, "keep", 1),
	}

	var prev bb.Result
	want := true
	for pass := 0; pass < 6; pass++ {
		res := eval(t, nodes, conns, nil, prev)
		if got := res.Bit("osc", 0); got != want {
			t.Fatalf("pass %d: oscillator = %v, want %v", pass, got, want)
		}
		if !res.Bit("keep", 0) {
			t.Fatalf("pass %d: OR latch lost its bit", pass)
		}
		prev = res
		want = !want
	}
}
