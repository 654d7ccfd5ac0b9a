package breadboard_test

import (
	"strconv"
	"testing"

	bb "github.com/dwyrd/breadboard"
)

// notChain builds in -> NOT -> NOT -> ... -> NOT, n gates long.
func notChain(n int) ([]bb.Node, []bb.Connection) {
	nodes := make([]bb.Node, 0, n+1)
	conns := make([]bb.Connection, 0, n)
	nodes = append(nodes, source("in", true))
	prev := "in"
	for i := 0; i < n; i++ {
		id := "n" + strconv.Itoa(i)
		nodes = append(nodes, gate(id, bb.KindNot))
		conns = append(conns, wire("w"+strconv.Itoa(i), prev, 0, id, 0))
		prev = id
	}
	return nodes, conns
}

// notRing closes n NOT gates into a loop.
func notRing(n int) ([]bb.Node, []bb.Connection) {
	nodes := make([]bb.Node, n)
	conns := make([]bb.Connection, n)
	for i := 0; i < n; i++ {
		nodes[i] = gate("n"+strconv.Itoa(i), bb.KindNot)
		conns[i] = wire("w"+strconv.Itoa(i), "n"+strconv.Itoa(i), 0, "n"+strconv.Itoa((i+1)%n), 0)
	}
	return nodes, conns
}

func Test_long_chain_settles_in_one_pass(t *testing.T) {
	const n = 512
	nodes, conns := notChain(n)
	res := eval(t, nodes, conns, nil, nil)
	want := n%2 == 0 // even number of inversions gives the input back
	if got := res.Bit("n"+strconv.Itoa(n-1), 0); got != want {
		t.Errorf("chain of %d NOTs = %v, want %v", n, got, want)
	}
}

func Benchmark_evaluate_chain(b *testing.B) {
	nodes, conns := notChain(256)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := bb.Evaluate(nodes, conns, nil, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_evaluate_ring(b *testing.B) {
	nodes, conns := notRing(256)
	var prev bb.Result
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := bb.Evaluate(nodes, conns, nil, prev)
		if err != nil {
			b.Fatal(err)
		}
		prev = r
	}
}

func Benchmark_detect_cycle_connections(b *testing.B) {
	nodes, conns := notRing(256)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bb.DetectCycleConnections(nodes, conns)
	}
}

func Benchmark_would_create_cycle(b *testing.B) {
	_, conns := notChain(256)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bb.WouldCreateCycle(conns, "n255", "in")
	}
}
