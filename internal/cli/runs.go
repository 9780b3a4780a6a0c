package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/homematch/pkg/config"
	"github.com/matzehuels/homematch/pkg/errors"
	"github.com/matzehuels/homematch/pkg/pipeline"
	"github.com/matzehuels/homematch/pkg/store"
)

// runsCommand creates the runs command for browsing the run history.
func (c *CLI) runsCommand() *cobra.Command {
	var (
		limit       int
		interactive bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "List recorded optimization runs",
		Long: `List recorded optimization runs, newest first, or show one run by ID.

Runs are recorded by the store configured in the [store] section of the
config file. With the default "none" backend nothing is recorded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateRunLimit(limit); err != nil {
				return err
			}
			if c.Config.Store.Backend == config.StoreNone {
				printInfo("Run history is disabled")
				printDetail("Set [store] backend = \"mongo\" in %s", configHint(c.configPath))
				return nil
			}

			runner, err := c.newRunner(cmd.Context(), true)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			if len(args) == 1 {
				return c.showRun(cmd.Context(), cmd.OutOrStdout(), runner, args[0], asJSON)
			}
			return c.listRuns(cmd.Context(), cmd.OutOrStdout(), runner, limit, interactive, asJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultListLimit, "maximum number of runs to list")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse runs interactively")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func (c *CLI) listRuns(ctx context.Context, w io.Writer, runner *pipeline.Runner, limit int, interactive, asJSON bool) error {
	runs, err := runner.Runs(ctx, limit)
	if err != nil {
		return pipeline.Classify(err)
	}
	if asJSON {
		return writeJSON(w, runs)
	}
	if len(runs) == 0 {
		printInfo("No runs recorded yet")
		return nil
	}
	if !interactive {
		fmt.Fprintln(w, runsTable(runs, time.Now()))
		return nil
	}

	final, err := tea.NewProgram(NewRunListModel(runs), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	if sel := final.(RunListModel).Selected; sel != nil {
		printRun(w, *sel)
	}
	return nil
}

func (c *CLI) showRun(ctx context.Context, w io.Writer, runner *pipeline.Runner, id string, asJSON bool) error {
	run, err := runner.Run(ctx, id)
	if err != nil {
		return pipeline.Classify(err)
	}
	if asJSON {
		return writeJSON(w, run)
	}
	printRun(w, run)
	return nil
}

// runsTable renders runs as a bordered table.
func runsTable(runs []store.Run, now time.Time) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = runRow(r, now)
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Run", "Engine", "Market", "Improvement", "When").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 4:
				return lipgloss.NewStyle().Foreground(colorDim)
			case col == 3 && row < len(runs) && runs[row].Report.Regressed:
				return lipgloss.NewStyle().Foreground(colorRed)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// printRun prints the details of one run.
func printRun(w io.Writer, r store.Run) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	line := func(k, v string) {
		fmt.Fprintln(w, keyStyle.Render(k)+" "+StyleValue.Render(v))
	}
	line("Run", r.ID)
	line("Created", r.CreatedAt.Local().Format(time.DateTime))
	line("Market", fmt.Sprintf("%d houses, %d households (%s)", r.Houses, r.Households, shortHash(r.MarketHash)))
	line("Policy", r.Policy)
	line("Duration", r.Duration.Round(time.Millisecond).String())
	if r.CacheHit {
		line("Cache", iconCached)
	}
	if r.Report.IsNoOp() {
		line("Engine", r.Engine)
		line("Report", "nothing to rewire")
		return
	}
	fmt.Fprintln(w, reportTable(r.Engine, r.Report, r.Exchange))
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func configHint(path string) string {
	if path != "" {
		return path
	}
	if p, err := config.DefaultPath(); err == nil {
		return p
	}
	return "the config file"
}
