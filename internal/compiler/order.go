package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mapbind/internal/host"
	"github.com/roach88/mapbind/internal/nodes"
)

// OrderWarning reports a layer ordering the engine will reject at attach.
type OrderWarning struct {
	Path    []string `json:"path"`    // Layer ids: ["a", "b", "a"] for a cycle
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "error"
}

// AnalyzeOrder checks the before references of every layer in tree order.
//
// Layers attach in tree order and before must name a layer that is already
// attached, so:
//   - a before pointing at a later layer is a warning: attach fails unless
//     the later layer was mounted by an earlier render
//   - before references that form a cycle can never attach and are errors
//
// Cycles are found with Tarjan's algorithm over the layer -> before graph.
func AnalyzeOrder(root *host.Node) []OrderWarning {
	var (
		order []string
		graph = make(dependencyGraph)
	)
	collectLayers(root, &order, graph)
	if len(order) == 0 {
		return []OrderWarning{}
	}

	index := make(map[string]int, len(order))
	for i, id := range order {
		index[id] = i
	}

	var warnings []OrderWarning
	for _, scc := range tarjanSCC(graph, order) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleWarning(scc, graph))
		}
	}

	inCycle := map[string]bool{}
	for _, w := range warnings {
		for _, id := range w.Path {
			inCycle[id] = true
		}
	}
	for _, id := range order {
		for _, before := range graph[id] {
			j, ok := index[before]
			if !ok || inCycle[id] || j < index[id] {
				continue
			}
			warnings = append(warnings, OrderWarning{
				Path:    []string{id, before},
				Message: fmt.Sprintf("layer %s is placed before %s, which attaches later", id, before),
				Level:   "warning",
			})
		}
	}
	return warnings
}

// dependencyGraph maps layer id -> the layer it is placed before.
type dependencyGraph map[string][]string

func collectLayers(n *host.Node, order *[]string, graph dependencyGraph) {
	if n.Kind == nodes.KindLayer {
		if id, ok := n.Props.String("id"); ok && id != "" {
			*order = append(*order, id)
			if graph[id] == nil {
				graph[id] = []string{}
			}
			if before, ok := n.Props.String("before"); ok && before != "" {
				graph[id] = append(graph[id], before)
			}
		}
	}
	for _, c := range n.Children {
		collectLayers(c, order, graph)
	}
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in the given order so results are deterministic.
func tarjanSCC(graph dependencyGraph, order []string) [][]string {
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

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

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
			slices.Reverse(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func cycleWarning(scc []string, graph dependencyGraph) OrderWarning {
	path := reconstructCyclePath(scc, graph)
	return OrderWarning{
		Path:    path,
		Message: fmt.Sprintf("before references form a cycle: %s", strings.Join(path, " → ")),
		Level:   "error",
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns there.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
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

	return path
}
