package exchange

import (
	"fmt"

	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/score"
)

// Nil is the virtual sink. An edge a -> Nil means household a prefers a
// currently empty house to its own.
const Nil = -1

// Label tells whether a preference is strict.
type Label int

const (
	// Strict edges point to a house the household likes strictly better.
	Strict Label = iota
	// NonStrict edges point to a house the household likes equally well.
	NonStrict
)

func (l Label) String() string {
	if l == Strict {
		return "strict"
	}
	return "non-strict"
}

// Edge is a labeled preference between two households.
type Edge struct {
	From  int
	To    int // household ID or Nil
	Label Label
}

// Graph is a two-labeled preference graph over matched households.
type Graph struct {
	vertices []int
	out      map[int][]Edge
}

// Build computes the preference graph of m.
//
// Only matched households take part. Edge a -> b exists when a would score b's
// house at least as high as its own: strict when higher, non-strict when
// equal. Households in resting contribute no strict edges. Non-strict edges
// are added only for households in moved. Ineligible targets never produce
// an edge, and an ineligible current assignment counts as 0.
func Build(m *market.Matching, scorer score.Scorer, resting, moved map[int]bool) (*Graph, error) {
	g := &Graph{out: make(map[int][]Edge)}
	type member struct{ household, house int }
	var members []member
	for _, w := range m.Households() {
		if h, ok := m.HouseOf(w.ID); ok {
			members = append(members, member{household: w.ID, house: h})
		}
	}

	empty := m.HouseholdlessHouses()
	for _, a := range members {
		g.vertices = append(g.vertices, a.household)
		own, err := current(m, scorer, a.house, a.household)
		if err != nil {
			return nil, err
		}
		for _, b := range members {
			if b.household == a.household {
				continue
			}
			s, err := scorer.Score(m, b.house, a.household)
			if score.IsIneligible(err) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("score house %d / household %d: %w", b.house, a.household, err)
			}
			g.admit(a.household, b.household, s, own, resting[a.household], moved[a.household])
		}
		if resting[a.household] {
			continue
		}
		for _, h := range empty {
			s, err := scorer.Score(m, h.ID, a.household)
			if score.IsIneligible(err) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("score house %d / household %d: %w", h.ID, a.household, err)
			}
			if s > own {
				g.out[a.household] = append(g.out[a.household], Edge{From: a.household, To: Nil, Label: Strict})
				break
			}
		}
	}
	return g, nil
}

func (g *Graph) admit(from, to int, s, own float64, resting, moved bool) {
	switch {
	case s > own && !resting:
		g.out[from] = append(g.out[from], Edge{From: from, To: to, Label: Strict})
	case s == own && moved:
		g.out[from] = append(g.out[from], Edge{From: from, To: to, Label: NonStrict})
	}
}

func current(m *market.Matching, scorer score.Scorer, houseID, householdID int) (float64, error) {
	s, err := scorer.Score(m, houseID, householdID)
	if score.IsIneligible(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("score house %d / household %d: %w", houseID, householdID, err)
	}
	return s, nil
}

// Vertices returns the household IDs in the graph, Nil excluded.
func (g *Graph) Vertices() []int { return g.vertices }

// Edges returns the out-edges of a household in insertion order.
func (g *Graph) Edges(from int) []Edge { return g.out[from] }

// EdgeCount returns the number of edges with the given label.
func (g *Graph) EdgeCount(l Label) int {
	n := 0
	for _, edges := range g.out {
		for _, e := range edges {
			if e.Label == l {
				n++
			}
		}
	}
	return n
}

// HasEdge reports whether an edge from -> to with label l exists.
func (g *Graph) HasEdge(from, to int, l Label) bool {
	for _, e := range g.out[from] {
		if e.To == to && e.Label == l {
			return true
		}
	}
	return false
}
