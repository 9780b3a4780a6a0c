package assign

import (
	"errors"
	"fmt"

	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/score"
)

// DummyHouse pads the house side of an improvement graph. A household
// assigned to a dummy house stays houseless.
type DummyHouse struct{ ID int }

// VertexID implements market.Vertex.
func (d DummyHouse) VertexID() int { return d.ID }

// Side implements market.Vertex.
func (DummyHouse) Side() market.Side { return market.SideHouse }

// DummyHousehold pads the household side of an improvement graph. A house
// assigned to a dummy household stays empty.
type DummyHousehold struct{ ID int }

// VertexID implements market.Vertex.
func (d DummyHousehold) VertexID() int { return d.ID }

// Side implements market.Vertex.
func (DummyHousehold) Side() market.Side { return market.SideHousehold }

// IsDummy reports whether v is a padding vertex.
func IsDummy(v market.Vertex) bool {
	switch v.(type) {
	case DummyHouse, DummyHousehold:
		return true
	}
	return false
}

// Graph is a complete weighted bipartite graph between houses and
// households. Weights are indexed [household][house].
//
// Graphs built with NewGraph or FromMatching are balanced: dummies are added
// to the smaller side so both sides have the same size. A hand-built Graph
// may be unbalanced, in which case NewEngine rejects it.
type Graph struct {
	Houses     []market.Vertex
	Households []market.Vertex
	Weights    [][]float64

	// Forbidden marks ineligible real pairs. They keep weight 0 so a complete
	// matching exists, but are never materialized.
	Forbidden [][]bool
}

// NewGraph builds a balanced graph over the given houses and households.
// Pairs involving a dummy weigh 0.
func NewGraph(houses []market.House, households []market.Household, weight func(market.House, market.Household) float64) *Graph {
	g := pad(houses, households)
	for i, w := range households {
		for j, h := range houses {
			g.Weights[i][j] = weight(h, w)
		}
	}
	return g
}

// FromMatching builds a balanced graph whose real weights come from scorer,
// evaluated against m. Ineligible pairs get weight 0 and are marked
// forbidden, except under score.PolicyFail where the scorer's error is
// returned.
func FromMatching(m *market.Matching, scorer score.Scorer, policy score.Policy, houses []market.House, households []market.Household) (*Graph, error) {
	g := pad(houses, households)
	for i, w := range households {
		for j, h := range houses {
			s, err := scorer.Score(m, h.ID, w.ID)
			switch {
			case err == nil:
				g.Weights[i][j] = s
			case score.IsIneligible(err) && policy != score.PolicyFail:
				g.Forbidden[i][j] = true
			default:
				return nil, fmt.Errorf("score house %d / household %d: %w", h.ID, w.ID, err)
			}
		}
	}
	return g, nil
}

func pad(houses []market.House, households []market.Household) *Graph {
	n := max(len(houses), len(households))
	g := &Graph{
		Houses:     make([]market.Vertex, 0, n),
		Households: make([]market.Vertex, 0, n),
		Weights:    make([][]float64, n),
		Forbidden:  make([][]bool, n),
	}
	for _, h := range houses {
		g.Houses = append(g.Houses, h)
	}
	for i := len(houses); i < n; i++ {
		g.Houses = append(g.Houses, DummyHouse{ID: i})
	}
	for _, w := range households {
		g.Households = append(g.Households, w)
	}
	for i := len(households); i < n; i++ {
		g.Households = append(g.Households, DummyHousehold{ID: i})
	}
	for i := range n {
		g.Weights[i] = make([]float64, n)
		g.Forbidden[i] = make([]bool, n)
	}
	return g
}

// Dummies returns the number of dummy houses and dummy households.
func (g *Graph) Dummies() (houses, households int) {
	for _, v := range g.Houses {
		if IsDummy(v) {
			houses++
		}
	}
	for _, v := range g.Households {
		if IsDummy(v) {
			households++
		}
	}
	return houses, households
}

func (g *Graph) forbidden(w, h int) bool {
	return g.Forbidden != nil && g.Forbidden[w] != nil && g.Forbidden[w][h]
}

func (g *Graph) validate() error {
	if len(g.Houses) != len(g.Households) {
		return fmt.Errorf("%w: %d houses, %d households", ErrUnequalSides, len(g.Houses), len(g.Households))
	}
	if len(g.Weights) != len(g.Households) {
		return errors.New("weight matrix does not match household count")
	}
	for _, row := range g.Weights {
		if len(row) != len(g.Houses) {
			return errors.New("weight matrix does not match house count")
		}
	}
	return nil
}
