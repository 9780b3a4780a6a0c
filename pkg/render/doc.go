// Package render draws matchings and exchange graphs with Graphviz.
//
// # Matchings
//
// [MatchingDOT] lays a market out as a bipartite diagram: houses in the left
// column, households in the right one, one edge per connection. Unmatched
// vertices are drawn dashed so the rewiring candidates stand out:
//
//	dot, err := render.MatchingDOT(m, scorer, render.Options{Scores: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Exchange graphs
//
// [ExchangeDOT] draws the two-labeled preference graph used by the cycle
// exchange engine. Strict edges are solid, non-strict edges dashed, and the
// virtual sink is a single "empty house" node. A cycle passed in
// [ExchangeOptions.Cycle] is highlighted.
//
// # Dependencies
//
// SVG output uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly, so no system installation is required.
package render
