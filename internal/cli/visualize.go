package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/homematch/pkg/errors"
	"github.com/matzehuels/homematch/pkg/exchange"
	"github.com/matzehuels/homematch/pkg/marketdoc"
	"github.com/matzehuels/homematch/pkg/pipeline"
	"github.com/matzehuels/homematch/pkg/render"
)

// Output formats of the visualize command.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// visualizeOpts holds the command-line flags for the visualize command.
type visualizeOpts struct {
	output   string
	format   string
	scores   bool
	detailed bool
	exchange bool
}

// visualizeCommand creates the visualize command for rendering markets.
func (c *CLI) visualizeCommand() *cobra.Command {
	opts := visualizeOpts{format: formatSVG, scores: true}

	cmd := &cobra.Command{
		Use:   "visualize [market.json]",
		Short: "Render a matching or its exchange graph",
		Long: `Render a matching or its exchange graph.

By default the bipartite matching is drawn with houses on the left and
households on the right. Unmatched vertices are dashed and ineligible
connections red.

With --exchange the household preference graph is drawn instead: an edge
from household a to household b means a prefers b's house to its own. Dashed
gray edges are ties, and the first improving cycle is highlighted in red.

SVG output is rendered with Graphviz; use --format dot for the DOT source.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateFormat(opts.format, formatDOT, formatSVG); err != nil {
				return err
			}
			opts.format = strings.ToLower(opts.format)
			return c.runVisualize(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, dot")
	cmd.Flags().BoolVar(&opts.scores, "scores", opts.scores, "label connections with their score")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show rent, rooms, income and members on vertices")
	cmd.Flags().BoolVar(&opts.exchange, "exchange", false, "draw the household exchange graph")
	_ = cmd.RegisterFlagCompletionFunc("format", completeValues(formatSVG, formatDOT))

	return cmd
}

// runVisualize loads the market and renders it.
func (c *CLI) runVisualize(ctx context.Context, input string, opts visualizeOpts) error {
	doc, err := marketdoc.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load market %s: %w", input, err)
	}
	m, err := doc.Matching()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMarket, err, "load market")
	}
	scorer := doc.Scorer(c.Config.Scorer())

	var dot string
	if opts.exchange {
		// Every household counts as moved so ties are drawn too.
		ties := make(map[int]bool, m.HouseholdCount())
		for _, w := range m.Households() {
			ties[w.ID] = true
		}
		g, err := exchange.Build(m, scorer, nil, ties)
		if err != nil {
			return pipeline.Classify(err)
		}
		cycle, err := exchange.FindCycle(g)
		if err != nil {
			return pipeline.Classify(err)
		}
		c.Logger.Debug("exchange graph", "strict", g.EdgeCount(exchange.Strict), "cycle", cycle)
		dot = render.ExchangeDOT(g, render.ExchangeOptions{Cycle: cycle})
	} else {
		dot, err = render.MatchingDOT(m, scorer, render.Options{Scores: opts.scores, Detailed: opts.detailed})
		if err != nil {
			return pipeline.Classify(err)
		}
	}

	data := []byte(dot)
	if opts.format == formatSVG {
		spinner := newSpinnerWithContext(ctx, "Rendering SVG...")
		spinner.Start()
		data, err = render.RenderSVG(ctx, dot)
		if err != nil {
			spinner.StopWithError("Rendering failed")
			return fmt.Errorf("render svg: %w", err)
		}
		spinner.Stop()
	}

	output := opts.output
	if output == "" {
		output = derivedPath(input, "."+opts.format)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Rendered %s", input)
	printFile(output)
	return nil
}
