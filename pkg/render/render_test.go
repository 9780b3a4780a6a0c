package render

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/homematch/pkg/exchange"
	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/score"
)

func sampleMarket(t *testing.T) *market.Matching {
	t.Helper()
	m := market.New()
	for _, h := range []market.House{{ID: 1, Label: "Kerkstraat 4"}, {ID: 2, Rent: 700, Rooms: 3}, {ID: 3}} {
		if err := m.AddHouse(h); err != nil {
			t.Fatal(err)
		}
	}
	for _, hh := range []market.Household{{ID: 11}, {ID: 12, Income: 30000, Members: 2}, {ID: 13}} {
		if err := m.AddHousehold(hh); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Connect(1, 11); err != nil {
		t.Fatal(err)
	}
	if err := m.Connect(2, 12); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestMatchingDOT(t *testing.T) {
	m := sampleMarket(t)
	tbl := score.NewTable()
	tbl.Set(1, 11, 4.5)
	tbl.SetIneligible(2, 12)

	dot, err := MatchingDOT(m, tbl, Options{Scores: true})
	if err != nil {
		t.Fatalf("MatchingDOT() error: %v", err)
	}

	for _, want := range []string{
		"graph G {",
		`h1 [label="Kerkstraat 4"]`,
		`h2 [label="house 2"]`,
		`h3 [label="house 3", style="rounded,filled,dashed"`,
		`hh13 [label="household 13", style="rounded,filled,dashed"`,
		`h1 -- hh11 [label="4.5"]`,
		`h2 -- hh12 [label="ineligible", color=red`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("MatchingDOT() missing %q in:\n%s", want, dot)
		}
	}
}

func TestMatchingDOTDetailed(t *testing.T) {
	dot, err := MatchingDOT(sampleMarket(t), nil, Options{Detailed: true})
	if err != nil {
		t.Fatalf("MatchingDOT() error: %v", err)
	}
	if !strings.Contains(dot, `rent: 700\nrooms: 3`) {
		t.Errorf("detailed house label missing attributes:\n%s", dot)
	}
	if !strings.Contains(dot, `income: 30000\nmembers: 2`) {
		t.Errorf("detailed household label missing attributes:\n%s", dot)
	}
	if strings.Contains(dot, "label=\"4") {
		t.Error("scores should not be rendered without Options.Scores")
	}
}

func TestMatchingDOTRequiresScorer(t *testing.T) {
	if _, err := MatchingDOT(sampleMarket(t), nil, Options{Scores: true}); err == nil {
		t.Error("MatchingDOT() with Scores and no scorer should fail")
	}
}

func TestExchangeDOT(t *testing.T) {
	m := market.New()
	for _, id := range []int{1, 2, 3} {
		if err := m.AddHouse(market.House{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, id := range []int{11, 12} {
		if err := m.AddHousehold(market.Household{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	_ = m.Connect(1, 11)
	_ = m.Connect(2, 12)

	// Each household prefers the other's house; 11 also prefers the empty house 3.
	tbl := score.NewTable()
	tbl.Set(1, 11, 1)
	tbl.Set(2, 11, 5)
	tbl.Set(3, 11, 2)
	tbl.Set(2, 12, 1)
	tbl.Set(1, 12, 5)
	tbl.Set(3, 12, 0)

	g, err := exchange.Build(m, tbl, nil, nil)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	cycle, err := exchange.FindCycle(g)
	if err != nil {
		t.Fatalf("FindCycle() error: %v", err)
	}

	dot := ExchangeDOT(g, ExchangeOptions{Cycle: cycle})
	for _, want := range []string{
		"digraph G {",
		`hh11 [label="11"]`,
		`nil [label="empty house"`,
		"hh11 -> hh12 [color=red, penwidth=2]",
		"hh12 -> hh11 [color=red, penwidth=2]",
		"hh11 -> nil [style=solid]",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ExchangeDOT() missing %q in:\n%s", want, dot)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	dot, err := MatchingDOT(sampleMarket(t), nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	svg, err := RenderSVG(context.Background(), dot)
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(svg)), "<") || !strings.Contains(string(svg), "<svg") {
		t.Errorf("RenderSVG() did not produce SVG: %.80s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("normalizeViewBox() should leave SVG without viewBox untouched")
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{13, "13"},
		{4.5, "4.5"},
		{0, "0"},
		{2.125, "2.12"},
	}
	for _, tt := range tests {
		if got := formatScore(tt.in); got != tt.want {
			t.Errorf("formatScore(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
