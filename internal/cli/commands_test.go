package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/homematch/pkg/errors"
	"github.com/matzehuels/homematch/pkg/marketdoc"
)

// execute runs the root command with args in an isolated config and cache
// environment and returns what the command wrote to its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(t.TempDir(), "cache"))

	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeMarket writes a two-by-two market whose best matching is
// {1-11, 2-12} with score 13.
func writeMarket(t *testing.T, dir string) string {
	t.Helper()
	doc := marketdoc.Document{
		Houses:     []marketdoc.House{{ID: 1}, {ID: 2}},
		Households: []marketdoc.Household{{ID: 11}, {ID: 12}},
		Scores: []marketdoc.Score{
			{House: 1, Household: 11, Score: 6},
			{House: 1, Household: 12, Score: 2},
			{House: 2, Household: 11, Score: 3},
			{House: 2, Household: 12, Score: 7},
		},
	}
	path := filepath.Join(dir, "market.json")
	if err := marketdoc.WriteFile(doc, path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func TestOptimizeCommand(t *testing.T) {
	for _, engine := range []string{"exhaustive", "assign", "auto"} {
		t.Run(engine, func(t *testing.T) {
			dir := t.TempDir()
			input := writeMarket(t, dir)
			output := filepath.Join(dir, "out.json")

			if _, err := execute(t, "optimize", input, "--engine", engine, "-o", output); err != nil {
				t.Fatalf("optimize error: %v", err)
			}

			doc, err := marketdoc.ReadFile(output)
			if err != nil {
				t.Fatalf("ReadFile() error: %v", err)
			}
			want := []marketdoc.Connection{{House: 1, Household: 11}, {House: 2, Household: 12}}
			if len(doc.Connections) != len(want) {
				t.Fatalf("connections = %v, want %v", doc.Connections, want)
			}
			for i := range want {
				if doc.Connections[i] != want[i] {
					t.Errorf("connection %d = %v, want %v", i, doc.Connections[i], want[i])
				}
			}
			if len(doc.Scores) != 4 {
				t.Errorf("scores = %d, want the 4 input scores preserved", len(doc.Scores))
			}
		})
	}
}

func TestOptimizeDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeMarket(t, dir)

	if _, err := execute(t, "optimize", input, "--no-cache"); err != nil {
		t.Fatalf("optimize error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "market.optimized.json")); err != nil {
		t.Errorf("default output not written: %v", err)
	}
}

func TestOptimizeErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeMarket(t, dir)

	tests := []struct {
		name string
		args []string
		want errors.Code
	}{
		{"unknown engine", []string{"optimize", input, "--engine", "greedy"}, errors.ErrCodeInvalidEngine},
		{"bad policy", []string{"optimize", input, "--ineligible", "maybe"}, errors.ErrCodeInvalidInput},
		{"search space", []string{"optimize", input, "--engine", "exhaustive", "--max-leaves", "1"}, errors.ErrCodeSearchSpace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("optimize error = nil, want error")
			}
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q (err: %v)", got, tt.want, err)
			}
		})
	}

	if _, err := execute(t, "optimize", filepath.Join(dir, "missing.json")); err == nil {
		t.Error("optimize of a missing file should fail")
	}
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "export.csv")
	rows := []string{
		"gemeente;label;huur;x;kamers;verdieping;lift;hh_gemeente;postcode;hh_label;inkomen;x;leeftijd;x;type;personen;urgentie",
		"Delft;flat;640;;3;1e;Nee;Delft;2611AA;starter;30000;;41;;hh-1 kind;3;",
		"Delft;flat;520;;2;2e;Ja;Delft;2611AB;starter;21000;;77;;1-persoons;1;",
		"Delft;flat;700;;4;3e;Nee;Delft;2611AC;starter;90000;;35;;2-persoons;2;",
	}
	if err := os.WriteFile(input, []byte(strings.Join(rows, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "import", input, "--connect-prob", "1"); err != nil {
		t.Fatalf("import error: %v", err)
	}

	doc, err := marketdoc.ReadFile(filepath.Join(dir, "export.json"))
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if len(doc.Houses) != 2 || len(doc.Households) != 2 {
		t.Errorf("market = %d/%d, want 2/2 with the high income skipped", len(doc.Houses), len(doc.Households))
	}
	if len(doc.Connections) != 2 {
		t.Errorf("connections = %d, want 2 with connect probability 1", len(doc.Connections))
	}
}

func TestImportValidation(t *testing.T) {
	input := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(input, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "import", input, "--ratio", "-1")
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidInput {
		t.Errorf("negative ratio: GetCode() = %q, want %q", got, errors.ErrCodeInvalidInput)
	}
	_, err = execute(t, "import", input, "--connect-prob", "1.5")
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidInput {
		t.Errorf("connect probability: GetCode() = %q, want %q", got, errors.ErrCodeInvalidInput)
	}
}

func TestInspectCommand(t *testing.T) {
	input := writeMarket(t, t.TempDir())

	out, err := execute(t, "inspect", input, "--json")
	if err != nil {
		t.Fatalf("inspect error: %v", err)
	}

	var got struct {
		marketSummary
		Pairs []pairScore `json:"pairs"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if got.Houses != 2 || got.FreeHouseholds != 2 || got.Connected != 0 {
		t.Errorf("summary = %+v, want 2 houses, 2 free households, no connections", got.marketSummary)
	}
	if got.SearchSpace != 2 {
		t.Errorf("SearchSpace = %d, want 2", got.SearchSpace)
	}
	if got.AutoEngine != "exhaustive" {
		t.Errorf("AutoEngine = %q, want exhaustive", got.AutoEngine)
	}
	if !got.ExplicitScores {
		t.Error("ExplicitScores = false, want true")
	}
	if got.Pairs != nil {
		t.Errorf("Pairs = %v, want none without --pairs", got.Pairs)
	}
}

func TestInspectPairs(t *testing.T) {
	dir := t.TempDir()
	doc := marketdoc.Document{
		Houses:      []marketdoc.House{{ID: 1}, {ID: 2}},
		Households:  []marketdoc.Household{{ID: 11}, {ID: 12}},
		Connections: []marketdoc.Connection{{House: 1, Household: 11}, {House: 2, Household: 12}},
		Scores: []marketdoc.Score{
			{House: 1, Household: 11, Score: 4.5},
			{House: 2, Household: 12, Ineligible: true},
		},
	}
	input := filepath.Join(dir, "market.json")
	if err := marketdoc.WriteFile(doc, input); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "inspect", input, "--json", "--pairs")
	if err != nil {
		t.Fatalf("inspect error: %v", err)
	}
	var got struct {
		marketSummary
		Pairs []pairScore `json:"pairs"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got.Score != 4.5 || got.IneligiblePairs != 1 {
		t.Errorf("Score = %v, IneligiblePairs = %d, want 4.5 and 1", got.Score, got.IneligiblePairs)
	}
	if len(got.Pairs) != 2 || !got.Pairs[1].Ineligible {
		t.Errorf("Pairs = %+v, want the second pair ineligible", got.Pairs)
	}

	text, err := execute(t, "inspect", input, "--pairs")
	if err != nil {
		t.Fatalf("inspect error: %v", err)
	}
	if !strings.Contains(text, "ineligible") {
		t.Errorf("text output should list the ineligible pair:\n%s", text)
	}
}

func TestVisualizeCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeMarket(t, dir)

	t.Run("matching dot", func(t *testing.T) {
		output := filepath.Join(dir, "m.dot")
		if _, err := execute(t, "visualize", input, "-f", "DOT", "-o", output); err != nil {
			t.Fatalf("visualize error: %v", err)
		}
		data, err := os.ReadFile(output)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(data), "graph G {") {
			t.Errorf("output should be an undirected DOT graph:\n%s", data)
		}
	})

	t.Run("exchange dot", func(t *testing.T) {
		if _, err := execute(t, "visualize", input, "--exchange", "--format", "dot"); err != nil {
			t.Fatalf("visualize error: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "market.dot"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(data), "digraph G {") {
			t.Errorf("output should be a directed DOT graph:\n%s", data)
		}
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := execute(t, "visualize", input, "--format", "png")
		if got := errors.GetCode(err); got != errors.ErrCodeInvalidFormat {
			t.Errorf("GetCode() = %q, want %q", got, errors.ErrCodeInvalidFormat)
		}
	})
}

func TestRunsCommand(t *testing.T) {
	if _, err := execute(t, "runs"); err != nil {
		t.Errorf("runs with history disabled should not fail: %v", err)
	}

	_, err := execute(t, "runs", "--limit", "-1")
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidInput {
		t.Errorf("GetCode() = %q, want %q", got, errors.ErrCodeInvalidInput)
	}
}

func TestRunsCommandMemoryStore(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfg, []byte("[store]\nbackend = \"memory\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "--config", cfg, "runs"); err != nil {
		t.Errorf("runs error: %v", err)
	}
	_, err := execute(t, "--config", cfg, "runs", "no-such-run")
	if got := errors.GetCode(err); got != errors.ErrCodeRunNotFound {
		t.Errorf("GetCode() = %q, want %q", got, errors.ErrCodeRunNotFound)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[optimize]\nspeed = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "--config", bad, "cache", "path")
	if err == nil || !strings.Contains(err.Error(), "unknown config keys") {
		t.Errorf("error = %v, want unknown config keys", err)
	}

	if _, err := execute(t, "--config", filepath.Join(dir, "missing.toml"), "cache", "path"); err == nil {
		t.Error("a missing --config file should fail")
	}
}

func TestConfigDefaultsApplyToFlags(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfg, []byte("[optimize]\nengine = \"greedy\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	input := writeMarket(t, t.TempDir())

	// The config engine is used when --engine is not given.
	_, err := execute(t, "--config", cfg, "optimize", input)
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidEngine {
		t.Errorf("GetCode() = %q, want %q", got, errors.ErrCodeInvalidEngine)
	}
	// The flag overrides it.
	if _, err := execute(t, "--config", cfg, "optimize", input, "--engine", "assign", "--no-cache"); err != nil {
		t.Errorf("optimize with --engine error: %v", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := execute(t, "completion", shell)
		if err != nil {
			t.Fatalf("completion %s error: %v", shell, err)
		}
		if !strings.Contains(out, "homematch") {
			t.Errorf("completion %s should mention the binary name", shell)
		}
	}
	if _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("completion tcsh should fail")
	}
}

func TestFlagValueCompletion(t *testing.T) {
	tests := []struct {
		args []string
		want []string
		not  []string
	}{
		{[]string{"optimize", "--engine", "ex"}, []string{"exhaustive", "exchange"}, []string{"assign"}},
		{[]string{"optimize", "--ineligible", ""}, []string{"reject", "zero", "fail"}, nil},
		{[]string{"visualize", "--format", "s"}, []string{"svg"}, []string{"dot"}},
	}
	for _, tt := range tests {
		out, err := execute(t, append([]string{"__complete"}, tt.args...)...)
		if err != nil {
			t.Fatalf("__complete %v error: %v", tt.args, err)
		}
		lines := strings.Split(out, "\n")
		for _, want := range tt.want {
			if !slices.Contains(lines, want) {
				t.Errorf("completions for %v = %q, want %q", tt.args, lines, want)
			}
		}
		for _, not := range tt.not {
			if slices.Contains(lines, not) {
				t.Errorf("completions for %v = %q, should not offer %q", tt.args, lines, not)
			}
		}
	}
}
