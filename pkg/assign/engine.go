// Package assign implements the weighted assignment engine: a
// successive-shortest-augmenting-path solver for maximum-weight complete
// bipartite matchings.
//
// The free houses and households of a matching are put into an improvement
// [Graph], padded with dummy vertices until both sides have equal size, and
// solved with [Engine.Solve]. Every round finds the cheapest augmenting path
// in the residual graph under reduced costs (Dijkstra over a binary heap)
// and flips it, after which vertex [Prices] are raised by the shortest-path
// distances. Each round matches one more household, so n rounds yield a
// complete matching of maximum total weight in O(n^3 log n).
//
// [Improve] wraps the whole procedure for a market.Matching.
package assign

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnequalSides is returned by NewEngine when the graph's house and
	// household counts (dummies included) differ.
	ErrUnequalSides = errors.New("house and household sides differ in size")

	// ErrNoAugmentingPath is returned when the residual graph has no path
	// to an unmatched house before every household is matched. It cannot
	// happen on a balanced complete graph and indicates a construction bug.
	ErrNoAugmentingPath = errors.New("no augmenting path")
)

// Edge is one pair of a solution, given as indexes into Graph.Houses and
// Graph.Households.
type Edge struct {
	House     int
	Household int
	Weight    float64
}

// Solution is a complete assignment of a graph.
type Solution struct {
	Pairs         []Edge // ordered by household index
	Weight        float64
	Augmentations int
}

// Engine solves one improvement graph.
type Engine struct {
	g *Graph
}

// NewEngine validates g and returns an engine for it.
func NewEngine(g *Graph) (*Engine, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	return &Engine{g: g}, nil
}

// state is the partial assignment plus prices of a running solve.
type state struct {
	g           *Graph
	n           int
	houseOf     []int // house index per household, or -1
	householdOf []int // household index per house, or -1
	prices      *Prices
}

func (s *state) reduced(u, v int, cost float64) float64 {
	return max(cost+s.prices.Of(u)-s.prices.Of(v), 0)
}

// Solve computes a maximum-weight complete matching. The context is checked
// before every augmentation.
func (e *Engine) Solve(ctx context.Context) (Solution, error) {
	n := len(e.g.Households)
	s := &state{
		g:           e.g,
		n:           n,
		houseOf:     make([]int, n),
		householdOf: make([]int, n),
		prices:      newPrices(e.g),
	}
	for i := range n {
		s.houseOf[i] = -1
		s.householdOf[i] = -1
	}

	augmentations := 0
	for matched := 0; matched < n; matched++ {
		if err := ctx.Err(); err != nil {
			return Solution{}, err
		}
		r := s.residual()
		dist, prev := r.shortestPath()
		d := dist[r.sink()]
		if math.IsInf(d, 1) {
			return Solution{}, fmt.Errorf("%w after %d of %d households", ErrNoAugmentingPath, matched, n)
		}
		s.augment(r, prev)
		s.prices.raise(dist, d)
		augmentations++
	}

	sol := Solution{Pairs: make([]Edge, 0, n), Augmentations: augmentations}
	for w, h := range s.houseOf {
		wt := e.g.Weights[w][h]
		sol.Pairs = append(sol.Pairs, Edge{House: h, Household: w, Weight: wt})
		sol.Weight += wt
	}
	return sol, nil
}

// augment flips the path ending at the sink.
func (s *state) augment(r *residualGraph, prev []int) {
	n := s.n
	v := prev[r.sink()]
	for v != r.source() {
		u := prev[v]
		if v >= n && v < 2*n && u < n {
			// household u takes house v
			h := v - n
			s.houseOf[u] = h
			s.householdOf[h] = u
		}
		v = u
	}
}
