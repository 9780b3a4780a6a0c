package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/homematch/pkg/exchange"
	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/score"
)

// Options configures matching diagrams.
type Options struct {
	// Scores labels each connection with its score. Requires a scorer.
	Scores bool

	// Detailed adds rent, rooms, income and members to vertex labels.
	Detailed bool
}

// ExchangeOptions configures exchange graph diagrams.
type ExchangeOptions struct {
	// Cycle is a household cycle to highlight, as returned by
	// exchange.FindCycle.
	Cycle []int
}

// MatchingDOT converts a matching to Graphviz DOT source.
//
// Ineligible connections are drawn in red; their score label reads
// "ineligible". Any other scorer error is returned.
func MatchingDOT(m *market.Matching, scorer score.Scorer, opts Options) (string, error) {
	if opts.Scores && scorer == nil {
		return "", fmt.Errorf("render scores: no scorer")
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  ranksep=2;\n")
	buf.WriteString("\n")

	buf.WriteString("  subgraph houses {\n    rank=same;\n")
	for _, h := range m.Houses() {
		_, matched := m.HouseholdOf(h.ID)
		fmt.Fprintf(&buf, "    %s [%s];\n", houseNode(h.ID), strings.Join(vertexAttrs(houseLabel(h, opts.Detailed), matched), ", "))
	}
	buf.WriteString("  }\n")

	buf.WriteString("  subgraph households {\n    rank=same;\n")
	for _, hh := range m.Households() {
		_, matched := m.HouseOf(hh.ID)
		fmt.Fprintf(&buf, "    %s [%s];\n", householdNode(hh.ID), strings.Join(vertexAttrs(householdLabel(hh, opts.Detailed), matched), ", "))
	}
	buf.WriteString("  }\n\n")

	for _, p := range m.Pairs() {
		var attrs []string
		if opts.Scores {
			s, err := scorer.Score(m, p.HouseID, p.HouseholdID)
			switch {
			case score.IsIneligible(err):
				attrs = append(attrs, `label="ineligible"`, "color=red", "fontcolor=red")
			case err != nil:
				return "", fmt.Errorf("render house %d / household %d: %w", p.HouseID, p.HouseholdID, err)
			default:
				attrs = append(attrs, fmt.Sprintf("label=%q", formatScore(s)))
			}
		}
		fmt.Fprintf(&buf, "  %s -- %s", houseNode(p.HouseID), householdNode(p.HouseholdID))
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, " [%s]", strings.Join(attrs, ", "))
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

// ExchangeDOT converts an exchange graph to Graphviz DOT source.
func ExchangeDOT(g *exchange.Graph, opts ExchangeOptions) string {
	onCycle := make(map[[2]int]bool, len(opts.Cycle))
	for i, v := range opts.Cycle {
		onCycle[[2]int{v, opts.Cycle[(i+1)%len(opts.Cycle)]}] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	hasSink := false
	for _, v := range g.Vertices() {
		fmt.Fprintf(&buf, "  %s [label=\"%d\"];\n", householdNode(v), v)
		for _, e := range g.Edges(v) {
			if e.To == exchange.Nil {
				hasSink = true
			}
		}
	}
	if hasSink {
		buf.WriteString("  nil [label=\"empty house\", shape=box, style=\"rounded,dashed\"];\n")
	}

	buf.WriteString("\n")
	for _, v := range g.Vertices() {
		for _, e := range g.Edges(v) {
			to := "nil"
			if e.To != exchange.Nil {
				to = householdNode(e.To)
			}
			attrs := edgeAttrs(e, onCycle[[2]int{e.From, e.To}])
			fmt.Fprintf(&buf, "  %s -> %s [%s];\n", householdNode(e.From), to, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func houseNode(id int) string     { return fmt.Sprintf("h%d", id) }
func householdNode(id int) string { return fmt.Sprintf("hh%d", id) }

func houseLabel(h market.House, detailed bool) string {
	label := fmt.Sprintf("house %d", h.ID)
	if h.Label != "" {
		label = h.Label
	}
	if !detailed {
		return label
	}
	parts := []string{label, fmt.Sprintf("rent: %d", h.Rent), fmt.Sprintf("rooms: %d", h.Rooms)}
	if h.Municipality != "" {
		parts = append(parts, h.Municipality)
	}
	if h.Accessible {
		parts = append(parts, "accessible")
	}
	return strings.Join(parts, "\n")
}

func householdLabel(hh market.Household, detailed bool) string {
	label := fmt.Sprintf("household %d", hh.ID)
	if hh.Label != "" {
		label = hh.Label
	}
	if !detailed {
		return label
	}
	parts := []string{label, fmt.Sprintf("income: %d", hh.Income), fmt.Sprintf("members: %d", hh.Members), hh.Type.String()}
	if hh.Municipality != "" {
		parts = append(parts, hh.Municipality)
	}
	if hh.Priority {
		parts = append(parts, "priority")
	}
	return strings.Join(parts, "\n")
}

func vertexAttrs(label string, matched bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if !matched {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

func edgeAttrs(e exchange.Edge, highlight bool) []string {
	var attrs []string
	if e.Label == exchange.NonStrict {
		attrs = append(attrs, "style=dashed", "color=gray")
	}
	if highlight {
		attrs = append(attrs, "color=red", "penwidth=2")
	}
	if len(attrs) == 0 {
		attrs = append(attrs, "style=solid")
	}
	return attrs
}

func formatScore(s float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", s), "0"), ".")
}
