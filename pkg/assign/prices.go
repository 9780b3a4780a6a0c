package assign

import "math"

// Prices holds one dual value per residual vertex. With cost(w, h) =
// -weight(w, h), every residual arc u->v keeps a non-negative reduced cost
// cost(u, v) + p(u) - p(v). Prices never decrease.
type Prices struct {
	p []float64
}

// newPrices initialises prices for n households and n houses: households
// start at 0 and every house at its cheapest incoming cost, which makes all
// initial reduced costs non-negative. The sink starts below every house.
func newPrices(g *Graph) *Prices {
	n := len(g.Households)
	p := make([]float64, 2*n+2)
	sink := math.Inf(1)
	for h := range n {
		least := math.Inf(1)
		for w := range n {
			least = min(least, -g.Weights[w][h])
		}
		if n == 0 {
			least = 0
		}
		p[n+h] = least
		sink = min(sink, least)
	}
	if n == 0 {
		sink = 0
	}
	p[2*n+1] = sink
	return &Prices{p: p}
}

// Of returns the price of residual vertex v.
func (p *Prices) Of(v int) float64 { return p.p[v] }

// Len returns the number of priced vertices.
func (p *Prices) Len() int { return len(p.p) }

// raise adds min(dist[v], cap) to every price. Unreached vertices get cap.
func (p *Prices) raise(dist []float64, limit float64) {
	for v := range p.p {
		p.p[v] += min(dist[v], limit)
	}
}
