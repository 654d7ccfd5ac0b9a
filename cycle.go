package breadboard

// DetectCycleConnections returns the IDs of the connections that are part of
// a feedback loop, meaning both endpoints belong to the circuit's cycle set.
// IDs come back in the order the connections were given. The result is
// purely informational, for highlighting loops in an editor or report;
// evaluation handles loops by itself.
//
func DetectCycleConnections(nodes []Node, conns []Connection) []string {
	c := newCircuit(nodes, conns)
	seq, cycleStart := c.order()
	in := make([]bool, len(c.nodes))
	for _, h := range seq[cycleStart:] {
		in[h] = true
	}

	var ids []string
	for i := range conns {
		from, ok := c.index[conns[i].From]
		if !ok {
			continue
		}
		to, ok := c.index[conns[i].To]
		if !ok {
			continue
		}
		if in[from] && in[to] {
			ids = append(ids, conns[i].ID)
		}
	}
	return ids
}

// WouldCreateCycle reports whether adding a connection from an output pin of
// fromID to an input pin of toID would close a feedback loop over the
// existing connections: true when fromID is already reachable from toID, or
// when the two are the same node. Editors that refuse feedback call this
// before committing a wire; the evaluator itself is perfectly happy with
// loops.
//
func WouldCreateCycle(conns []Connection, fromID, toID string) bool {
	if fromID == toID {
		return true
	}

	next := make(map[string][]string, len(conns))
	for i := range conns {
		next[conns[i].From] = append(next[conns[i].From], conns[i].To)
	}

	visited := map[string]bool{toID: true}
	queue := []string{toID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, m := range next[cur] {
			if m == fromID {
				return true
			}
			if !visited[m] {
				visited[m] = true
				queue = append(queue, m)
			}
		}
	}
	return false
}
