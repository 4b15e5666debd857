package resolve

import "strings"

// graph maps a type name to the names it references, deduplicated in
// first-reference order.
type graph map[string][]string

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in the given order so the SCC output - and everything
// lowered from it - is deterministic. Components come out dependencies
// first, which is exactly the lowering order.
func tarjanSCC(g graph, nodes []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack into one SCC.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, g graph) bool {
	for _, neighbor := range g[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// cyclePath reconstructs a readable cycle traversal through an SCC for
// diagnostics, e.g. "a → b → a".
func cyclePath(scc []string, g graph) string {
	if len(scc) == 1 {
		return scc[0] + " → " + scc[0]
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range g[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return strings.Join(path, " → ")
}
