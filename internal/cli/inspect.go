package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/homematch/pkg/errors"
	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/marketdoc"
	"github.com/matzehuels/homematch/pkg/pipeline"
	"github.com/matzehuels/homematch/pkg/rewire"
	"github.com/matzehuels/homematch/pkg/score"
)

// marketSummary describes a market document.
type marketSummary struct {
	Houses          int     `json:"houses"`
	Households      int     `json:"households"`
	Connected       int     `json:"connected"`
	FreeHouses      int     `json:"free_houses"`
	FreeHouseholds  int     `json:"free_households"`
	Score           float64 `json:"score"`
	IneligiblePairs int     `json:"ineligible_pairs"`
	ExplicitScores  bool    `json:"explicit_scores"`
	SearchSpace     int     `json:"search_space"`
	AutoEngine      string  `json:"auto_engine"`
}

// pairScore is one connection with its score.
type pairScore struct {
	House      int     `json:"house"`
	Household  int     `json:"household"`
	Score      float64 `json:"score"`
	Ineligible bool    `json:"ineligible,omitempty"`
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		asJSON bool
		pairs  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [market.json]",
		Short: "Summarize a market document",
		Long: `Summarize a market document.

Prints the size of both sides, how many vertices are unmatched, the current
total score and the engine that auto would choose for the configured
--max-leaves limit. With --pairs every connection is listed with its score.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := marketdoc.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("load market %s: %w", args[0], err)
			}
			m, err := doc.Matching()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidMarket, err, "load market")
			}
			scorer := doc.Scorer(c.Config.Scorer())

			sum, scores, err := summarize(m, scorer, len(doc.Scores) > 0, c.Config.Optimize.MaxLeaves)
			if err != nil {
				return pipeline.Classify(err)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				out := struct {
					marketSummary
					Pairs []pairScore `json:"pairs,omitempty"`
				}{marketSummary: sum}
				if pairs {
					out.Pairs = scores
				}
				return writeJSON(w, out)
			}
			printSummary(w, args[0], sum)
			if pairs {
				fmt.Fprintln(w, pairsTable(scores))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	cmd.Flags().BoolVar(&pairs, "pairs", false, "list every connection with its score")

	return cmd
}

// summarize computes the market summary and per-connection scores.
// Ineligible connections count as 0.
func summarize(m *market.Matching, scorer score.Scorer, explicit bool, maxLeaves int) (marketSummary, []pairScore, error) {
	free, freeHH := len(m.HouseholdlessHouses()), len(m.HouselessHouseholds())
	sum := marketSummary{
		Houses:         m.HouseCount(),
		Households:     m.HouseholdCount(),
		Connected:      m.EdgeCount(),
		FreeHouses:     free,
		FreeHouseholds: freeHH,
		ExplicitScores: explicit,
		SearchSpace:    rewire.SearchSpace(min(free, freeHH), max(free, freeHH)),
		AutoEngine:     pipeline.AutoEngine(m, maxLeaves),
	}

	var scores []pairScore
	for _, p := range m.Pairs() {
		ps := pairScore{House: p.HouseID, Household: p.HouseholdID}
		s, err := scorer.Score(m, p.HouseID, p.HouseholdID)
		switch {
		case score.IsIneligible(err):
			ps.Ineligible = true
			sum.IneligiblePairs++
		case err != nil:
			return marketSummary{}, nil, err
		default:
			ps.Score = s
			sum.Score += s
		}
		scores = append(scores, ps)
	}
	return sum, scores, nil
}

func printSummary(w io.Writer, name string, s marketSummary) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(16)
	line := func(k, v string) {
		fmt.Fprintln(w, keyStyle.Render(k)+" "+StyleValue.Render(v))
	}
	fmt.Fprintln(w, StyleTitle.Render(name))
	line("Houses", fmt.Sprintf("%d (%d free)", s.Houses, s.FreeHouses))
	line("Households", fmt.Sprintf("%d (%d free)", s.Households, s.FreeHouseholds))
	line("Connected", strconv.Itoa(s.Connected))
	line("Score", formatFloat(s.Score))
	if s.IneligiblePairs > 0 {
		line("Ineligible", StyleWarning.Render(strconv.Itoa(s.IneligiblePairs)))
	}
	scoring := "fit"
	if s.ExplicitScores {
		scoring = "table"
	}
	line("Scoring", scoring)
	line("Search space", formatSearchSpace(s.SearchSpace))
	line("Auto engine", StyleHighlight.Render(s.AutoEngine))
}

func pairsTable(scores []pairScore) string {
	rows := make([][]string, len(scores))
	for i, p := range scores {
		s := formatFloat(p.Score)
		if p.Ineligible {
			s = "ineligible"
		}
		rows[i] = []string{strconv.Itoa(p.House), strconv.Itoa(p.Household), s}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("House", "Household", "Score").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < len(scores) && scores[row].Ineligible {
				return lipgloss.NewStyle().Foreground(colorRed)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func formatSearchSpace(n int) string {
	if n == math.MaxInt {
		return "overflow"
	}
	return strconv.Itoa(n)
}
