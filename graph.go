package breadboard

// pinSource records the winning connection into one input pin: the handle of
// the node driving it and the output pin on that node. node is -1 while the
// pin is unwired.
type pinSource struct {
	node int
	pin  int
	conn int // index of the winning connection
}

// A circuit is the working form of a node list: nodes pinned in an arena and
// addressed by dense integer handles, with every ID lookup done once up
// front. The arena is frozen after newCircuit returns.
type circuit struct {
	nodes   []Node
	index   map[string]int // node ID -> handle, first occurrence wins
	feeds   [][]int        // handle -> set of handles fed by its outputs
	feeders [][]int        // handle -> set of handles feeding its inputs
	ins     [][]pinSource  // handle -> input pin sources
}

// newCircuit indexes nodes and connections into a circuit. Connections with
// an endpoint that names no node are dropped here, which is the only place
// dangling wires are ever looked at. Competing connections into the same
// input pin resolve to the one with the smallest ID.
func newCircuit(nodes []Node, conns []Connection) *circuit {
	c := &circuit{
		nodes:   nodes,
		index:   make(map[string]int, len(nodes)),
		feeds:   make([][]int, len(nodes)),
		feeders: make([][]int, len(nodes)),
		ins:     make([][]pinSource, len(nodes)),
	}
	for h := range nodes {
		if _, dup := c.index[nodes[h].ID]; !dup {
			c.index[nodes[h].ID] = h
		}
	}
	for h := range nodes {
		in := make([]pinSource, nodes[h].InputCount())
		for i := range in {
			in[i] = pinSource{node: -1, conn: -1}
		}
		c.ins[h] = in
	}

	seen := make(map[[2]int]bool, len(conns))
	for i := range conns {
		w := &conns[i]
		from, ok := c.index[w.From]
		if !ok {
			continue
		}
		to, ok := c.index[w.To]
		if !ok {
			continue
		}
		if 0 <= w.ToPin && w.ToPin < len(c.ins[to]) {
			s := &c.ins[to][w.ToPin]
			if s.conn < 0 || w.ID < conns[s.conn].ID {
				*s = pinSource{node: from, pin: w.FromPin, conn: i}
			}
		}
		// adjacency keeps every wire between known nodes, even ones aimed
		// at pins the destination never reads: they still order the nodes.
		e := [2]int{from, to}
		if !seen[e] {
			seen[e] = true
			c.feeds[from] = append(c.feeds[from], to)
			c.feeders[to] = append(c.feeders[to], from)
		}
	}
	return c
}

// order returns every handle exactly once: first the acyclic nodes in
// dependency order (Kahn's algorithm), then from index cycleStart on the
// cycle set, the nodes that never reach in-degree zero because they sit on
// or behind a feedback loop. Ties and the residual order follow arena order,
// so the sequence is deterministic for a given circuit.
func (c *circuit) order() (seq []int, cycleStart int) {
	indeg := make([]int, len(c.nodes))
	for h := range c.nodes {
		indeg[h] = len(c.feeders[h])
	}

	queue := make([]int, 0, len(c.nodes))
	for h := range c.nodes {
		if indeg[h] == 0 {
			queue = append(queue, h)
		}
	}

	seq = make([]int, 0, len(c.nodes))
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		seq = append(seq, h)
		for _, m := range c.feeds[h] {
			indeg[m]--
			if indeg[m] == 0 {
				queue = append(queue, m)
			}
		}
	}

	cycleStart = len(seq)
	for h := range c.nodes {
		if indeg[h] > 0 {
			seq = append(seq, h)
		}
	}
	return seq, cycleStart
}
