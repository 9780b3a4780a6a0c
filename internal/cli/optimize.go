package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/homematch/pkg/marketdoc"
	"github.com/matzehuels/homematch/pkg/pipeline"
)

// optimizeFlags holds flags that override configuration values. Only flags
// set on the command line are applied.
type optimizeFlags struct {
	engine     string
	workers    int
	maxLeaves  int
	ineligible string
	timeout    time.Duration
	refresh    bool
}

func (f *optimizeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.engine, "engine", "e", "", "engine: auto, exhaustive, assign, exchange (default from config)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "parallel workers for the exhaustive search (0 = all CPUs)")
	cmd.Flags().IntVar(&f.maxLeaves, "max-leaves", 0, "largest exhaustive search space; auto switches engines above it (-1 = unlimited)")
	cmd.Flags().StringVar(&f.ineligible, "ineligible", "", "ineligible pairings: reject, zero, fail")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "abort the optimization after this long (0 = no limit)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")
}

func (f *optimizeFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	changed := cmd.Flags().Changed
	if changed("engine") {
		opts.Engine = f.engine
	}
	if changed("workers") {
		opts.Workers = f.workers
	}
	if changed("max-leaves") {
		opts.MaxLeaves = f.maxLeaves
	}
	if changed("ineligible") {
		opts.Policy = f.ineligible
	}
	if changed("timeout") {
		opts.Timeout = f.timeout
	}
	opts.Refresh = f.refresh
}

// optimizeCommand creates the optimize command.
func (c *CLI) optimizeCommand() *cobra.Command {
	var (
		flags   optimizeFlags
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "optimize [market.json]",
		Short: "Rewire the unmatched part of a market",
		Long: `Rewire the unmatched part of a market.

The optimize command reads a market document (produced by 'import' or written
by hand), matches the houses and households that are currently unmatched and
writes the improved market next to the input. Existing pairs are never
touched, except by the exchange engine which moves households only when every
household in the exchange strictly gains.

The auto engine uses the exhaustive search while the number of rewirings fits
within --max-leaves and the assignment solver above it.

Results are cached by market content and options.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			flags.apply(cmd, &opts)
			if _, err := pipeline.ParseEngine(opts.Engine); err != nil {
				return err
			}
			return c.runOptimize(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	flags.register(cmd)
	registerOptimizeCompletions(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.optimized.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runOptimize loads the market, optimizes it and writes the result.
func (c *CLI) runOptimize(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	prog := newProgress(c.Logger)
	doc, err := marketdoc.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load market %s: %w", input, err)
	}
	prog.step("market loaded", "houses", len(doc.Houses), "households", len(doc.Households))

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Optimizing %d houses and %d households...", len(doc.Houses), len(doc.Households)))
	opts.Progress = func(done, total int) {
		spinner.SetProgress("Evaluated", done, total, "rewirings")
	}
	spinner.Start()

	res, err := runner.Optimize(ctx, doc, opts)
	if err != nil {
		spinner.StopWithError("Optimization failed")
		return pipeline.Classify(err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Optimized with %s", res.Engine))

	if output == "" {
		output = derivedPath(input, ".optimized.json")
	}
	if err := marketdoc.WriteFile(res.Document, output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Optimized %s", input)
	printCacheStatus(res.Duration, res.CacheHit)
	printReport(res.Engine, res.Report, res.Exchange)
	printFile(output)
	printKeyValue("Run", res.RunID)
	printNextStep("Render the result", "homematch visualize "+output)
	return nil
}

// derivedPath replaces the extension of input with suffix.
func derivedPath(input, suffix string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}
