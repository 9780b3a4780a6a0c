package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/homematch/pkg/assign"
	"github.com/matzehuels/homematch/pkg/exchange"
	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/rewire"
	"github.com/matzehuels/homematch/pkg/score"
)

// resolveEngine replaces auto with a concrete engine.
func resolveEngine(m *market.Matching, opts Options) string {
	if opts.Engine != EngineAuto {
		return opts.Engine
	}
	return AutoEngine(m, opts.MaxLeaves)
}

// AutoEngine picks the engine auto resolves to: exhaustive when the search
// space over the free vertices fits maxLeaves (or maxLeaves is negative),
// assign otherwise.
func AutoEngine(m *market.Matching, maxLeaves int) string {
	if maxLeaves < 0 {
		return EngineExhaustive
	}
	if rewire.SearchSpace(freeCounts(m)) <= maxLeaves {
		return EngineExhaustive
	}
	return EngineAssign
}

// freeCounts returns the sizes of the smaller and larger free side.
func freeCounts(m *market.Matching) (l, n int) {
	houses, households := len(m.HouseholdlessHouses()), len(m.HouselessHouseholds())
	return min(houses, households), max(houses, households)
}

// runEngine runs res.Engine on m and fills in the report.
func runEngine(ctx context.Context, m *market.Matching, scorer score.Scorer, opts Options, res *Result) (*market.Matching, error) {
	switch res.Engine {
	case EngineExhaustive:
		o := &rewire.Optimizer{
			Scorer:    scorer,
			Policy:    opts.policy,
			Workers:   opts.Workers,
			MaxLeaves: opts.MaxLeaves,
			Logger:    opts.Logger,
			Progress:  opts.Progress,
		}
		out, report, err := o.OptimizeAvailable(ctx, m)
		res.Report = report
		return out, err

	case EngineAssign:
		out, report, err := assign.Improve(ctx, m, scorer, assign.Options{
			Policy: opts.policy,
			Logger: opts.Logger,
		}, m.HouseholdlessHouses(), m.HouselessHouseholds())
		res.Report = report
		return out, err

	case EngineExchange:
		e := &exchange.Engine{Scorer: scorer, Logger: opts.Logger}
		out, stats, err := e.Run(ctx, m)
		if err != nil {
			return nil, err
		}
		res.Exchange = &stats
		matched := m.HouseholdCount() - len(m.HouselessHouseholds())
		res.Report = score.NewReport(stats.ScoreBefore, stats.ScoreAfter, stats.Moved, matched, market.SideHousehold)
		return out, nil
	}
	return nil, fmt.Errorf("unknown engine %q", res.Engine)
}

// scoringKey describes the scorer for cache keys. Scorers without a stable
// description make results uncacheable.
func scoringKey(s score.Scorer) (string, bool) {
	switch s := s.(type) {
	case *score.Table:
		// The table comes from the document, which is already hashed.
		return "table", true
	case score.Fit:
		return fmt.Sprintf("fit:%+v:%d:%d", s.Weights, s.IncomeThreshold, s.ElderlyAge), true
	}
	return "", false
}
