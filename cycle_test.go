package breadboard_test

import (
	"reflect"
	"testing"

	bb "github.com/dwyrd/breadboard"
)

func Test_detect_cycle_connections(t *testing.T) {
	td := []struct {
		name  string
		nodes []bb.Node
		conns []bb.Connection
		want  []string
	}{
		{
			name: "three gate ring beside an acyclic chain",
			nodes: []bb.Node{
				gate("r1", bb.KindNot), gate("r2", bb.KindNot), gate("r3", bb.KindNot),
				source("in", true), sink("out"),
			},
			conns: []bb.Connection{
				wire("w0", "r1", 0, "r2", 0),
				wire("w1", "r2", 0, "r3", 0),
				wire("w2", "r3", 0, "r1", 0),
				wire("w3", "in", 0, "out", 0),
			},
			want: []string{"w0", "w1", "w2"},
		},
		{
			name:  "self loop",
			nodes: []bb.Node{gate("n", bb.KindNot)},
			conns: []bb.Connection{wire("w0", "n", 0, "n", 0)},
			want:  []string{"w0"},
		},
		{
			name:  "acyclic circuit has none",
			nodes: []bb.Node{source("a", false), gate("n", bb.KindNot), sink("o")},
			conns: []bb.Connection{
				wire("w0", "a", 0, "n", 0),
				wire("w1", "n", 0, "o", 0),
			},
			want: nil,
		},
		{
			// the wire from the ring to the sink has only one endpoint in
			// the loop proper, but the sink never leaves the cycle set
			// either, so the wire counts
			name: "tail hanging off a ring",
			nodes: []bb.Node{
				gate("r1", bb.KindNot), gate("r2", bb.KindNot), sink("tail"),
			},
			conns: []bb.Connection{
				wire("w0", "r1", 0, "r2", 0),
				wire("w1", "r2", 0, "r1", 0),
				wire("w2", "r2", 0, "tail", 0),
			},
			want: []string{"w0", "w1", "w2"},
		},
		{
			name:  "dangling wires never count",
			nodes: []bb.Node{gate("n", bb.KindNot)},
			conns: []bb.Connection{
				wire("w0", "n", 0, "n", 0),
				wire("w1", "ghost", 0, "n", 0),
			},
			want: []string{"w0"},
		},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			got := bb.DetectCycleConnections(d.nodes, d.conns)
			if !reflect.DeepEqual(got, d.want) {
				t.Errorf("got %v, want %v", got, d.want)
			}
		})
	}
}

func Test_would_create_cycle(t *testing.T) {
	chain := []bb.Connection{
		wire("w0", "a", 0, "b", 0),
		wire("w1", "b", 0, "c", 0),
	}
	diamond := []bb.Connection{
		wire("w0", "a", 0, "b", 0),
		wire("w1", "a", 0, "c", 0),
	}
	td := []struct {
		name     string
		conns    []bb.Connection
		from, to string
		want     bool
	}{
		{"self connection", nil, "x", "x", true},
		{"closing a chain", chain, "c", "a", true},
		{"closing the middle of a chain", chain, "c", "b", true},
		{"extending a chain", chain, "a", "c", false},
		{"parallel wire", chain, "a", "b", false},
		{"joining diamond arms", diamond, "b", "c", false},
		{"unknown endpoints", chain, "x", "y", false},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			if got := bb.WouldCreateCycle(d.conns, d.from, d.to); got != d.want {
				t.Errorf("WouldCreateCycle(%s -> %s) = %v, want %v", d.from, d.to, got, d.want)
			}
		})
	}
}
