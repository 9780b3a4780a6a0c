package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/homematch/pkg/exchange"
	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/score"
	"github.com/matzehuels/homematch/pkg/store"
)

func testRuns(n int) []store.Run {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := make([]store.Run, n)
	for i := range runs {
		runs[i] = store.Run{
			ID:         "run-" + strings.Repeat("x", 10) + string(rune('a'+i)),
			Engine:     "exhaustive",
			Houses:     3,
			Households: 4,
			Report:     score.NewReport(10, 12, 3, 3, market.SideHouse),
			CreatedAt:  now.Add(-time.Duration(i) * time.Hour),
		}
	}
	return runs
}

func press(m RunListModel, key tea.KeyType) RunListModel {
	next, _ := m.Update(tea.KeyMsg{Type: key})
	return next.(RunListModel)
}

func TestRunListModelNavigation(t *testing.T) {
	m := NewRunListModel(testRuns(3))
	m.Height = 2

	m = press(m, tea.KeyUp)
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after up at top, want 0", m.Cursor)
	}

	m = press(m, tea.KeyDown)
	m = press(m, tea.KeyDown)
	if m.Cursor != 2 || m.Offset != 1 {
		t.Errorf("Cursor, Offset = %d, %d, want 2, 1", m.Cursor, m.Offset)
	}
	m = press(m, tea.KeyDown)
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d after down at bottom, want 2", m.Cursor)
	}

	m = press(m, tea.KeyUp)
	m = press(m, tea.KeyUp)
	if m.Cursor != 0 || m.Offset != 0 {
		t.Errorf("Cursor, Offset = %d, %d, want 0, 0", m.Cursor, m.Offset)
	}
}

func TestRunListModelSelect(t *testing.T) {
	runs := testRuns(2)
	m := NewRunListModel(runs)
	m = press(m, tea.KeyDown)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(RunListModel)
	if m.Selected == nil || m.Selected.ID != runs[1].ID {
		t.Errorf("Selected = %v, want run %s", m.Selected, runs[1].ID)
	}
	if cmd == nil {
		t.Error("enter should quit the browser")
	}

	empty := NewRunListModel(nil)
	next, _ = empty.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if next.(RunListModel).Selected != nil {
		t.Error("enter on an empty list should not select anything")
	}
}

func TestRunListModelWindowSize(t *testing.T) {
	m := NewRunListModel(testRuns(1))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	if h := next.(RunListModel).Height; h != 5 {
		t.Errorf("Height = %d, want the minimum of 5", h)
	}
	next, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	if h := next.(RunListModel).Height; h != 34 {
		t.Errorf("Height = %d, want 34", h)
	}
}

func TestRunListModelView(t *testing.T) {
	runs := testRuns(2)
	m := NewRunListModel(runs)
	m.now = func() time.Time { return runs[0].CreatedAt.Add(5 * time.Minute) }

	view := m.View()
	for _, want := range []string{"Optimization Runs", "run-xxxx", "exhaustive", "3×4", "+20.00%", "5m ago", "1h ago", "[1/2]"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() should contain %q:\n%s", want, view)
		}
	}
}

func TestRunRow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := store.Run{ID: "0123456789abcdef", Engine: "assign", Houses: 2, Households: 2, Report: score.NoOpReport(), CacheHit: true, CreatedAt: now}

	got := runRow(r, now)
	want := []string{"01234567", "assign (cached)", "2×2", "no-op", "just now"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("runRow()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{15 * time.Minute, "15m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "Feb 8, 2026"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestReportTable(t *testing.T) {
	r := score.NewReport(10, 15, 2, 4, market.SideHousehold)
	out := reportTable("exchange", r, &exchange.Stats{Cycles: 1, Moved: 2})
	for _, want := range []string{"exchange", "10", "15", "+50.00%", "2 households (50.0%)", "cycles", "moved"} {
		if !strings.Contains(out, want) {
			t.Errorf("reportTable() should contain %q:\n%s", want, out)
		}
	}

	zero := reportTable("exhaustive", score.NewReport(0, 13, 2, 2, market.SideHouse), nil)
	if !strings.Contains(zero, "zero baseline") {
		t.Errorf("reportTable() should mark a zero baseline:\n%s", zero)
	}
	if strings.Contains(zero, "cycles") {
		t.Errorf("reportTable() without exchange stats should not list cycles:\n%s", zero)
	}
}

func TestDerivedPath(t *testing.T) {
	tests := []struct {
		input, suffix, want string
	}{
		{"market.json", ".optimized.json", "market.optimized.json"},
		{"data/export.csv", ".json", "data/export.json"},
		{"noext", ".svg", "noext.svg"},
	}
	for _, tt := range tests {
		if got := derivedPath(tt.input, tt.suffix); got != tt.want {
			t.Errorf("derivedPath(%q, %q) = %q, want %q", tt.input, tt.suffix, got, tt.want)
		}
	}
}
