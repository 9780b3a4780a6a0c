package exchange

import (
	"errors"
	"fmt"
)

// ErrFullyExploredVertex is returned when the cycle search reaches a vertex
// in a state that contradicts the search stack.
var ErrFullyExploredVertex = errors.New("cycle search reached an inconsistent vertex")

// FindCycle returns a cycle of strict edges as the ordered list of its
// households, each preferring the house of the next one (the last prefers
// the first's). It returns nil when the strict subgraph is acyclic.
//
// The search is a white/gray/black depth-first search over vertices and
// edges in insertion order. Nil is a dead end and never part of a cycle.
func FindCycle(g *Graph) ([]int, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[int]int, len(g.vertices))
	var stack []int
	pos := make(map[int]int)

	var dfs func(v int) ([]int, error)
	dfs = func(v int) ([]int, error) {
		color[v] = gray
		pos[v] = len(stack)
		stack = append(stack, v)
		for _, e := range g.out[v] {
			if e.Label != Strict || e.To == Nil {
				continue
			}
			switch color[e.To] {
			case white:
				cycle, err := dfs(e.To)
				if cycle != nil || err != nil {
					return cycle, err
				}
			case gray:
				i, ok := pos[e.To]
				if !ok || stack[i] != e.To {
					return nil, fmt.Errorf("%w: household %d", ErrFullyExploredVertex, e.To)
				}
				return append([]int(nil), stack[i:]...), nil
			}
		}
		stack = stack[:len(stack)-1]
		delete(pos, v)
		color[v] = black
		return nil, nil
	}

	for _, v := range g.vertices {
		if color[v] != white {
			continue
		}
		cycle, err := dfs(v)
		if cycle != nil || err != nil {
			return cycle, err
		}
	}
	return nil, nil
}
