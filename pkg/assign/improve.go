package assign

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/score"
)

// Options configures Improve.
type Options struct {
	Policy score.Policy
	Logger *log.Logger
}

// Improve reassigns the given free houses and households of m to a
// maximum-weight matching. m is not modified.
//
// Connections touching a free vertex are removed first. Pairs with a dummy
// and forbidden pairs stay unconnected. If either list is empty, m is
// returned with score.NoOpReport.
func Improve(ctx context.Context, m *market.Matching, scorer score.Scorer, opts Options, houses []market.House, households []market.Household) (*market.Matching, score.Report, error) {
	if len(houses) == 0 || len(households) == 0 {
		return m, score.NoOpReport(), nil
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ev := score.Evaluator{Scorer: scorer}

	oldTotal, err := ev.Total(m, false)
	if err != nil {
		return nil, score.Report{}, err
	}
	work := m.Clone()
	if err := work.Isolate(houses, households); err != nil {
		return nil, score.Report{}, err
	}

	g, err := FromMatching(work, scorer, opts.Policy, houses, households)
	if err != nil {
		return nil, score.Report{}, err
	}
	dh, dw := g.Dummies()
	logger.Debug("built improvement graph", "houses", len(houses), "households", len(households),
		"dummy_houses", dh, "dummy_households", dw)

	eng, err := NewEngine(g)
	if err != nil {
		return nil, score.Report{}, err
	}
	sol, err := eng.Solve(ctx)
	if err != nil {
		return nil, score.Report{}, err
	}

	for _, e := range sol.Pairs {
		h, w := g.Houses[e.House], g.Households[e.Household]
		if IsDummy(h) || IsDummy(w) || g.forbidden(e.Household, e.House) {
			continue
		}
		if err := work.Link(h, w); err != nil {
			return nil, score.Report{}, err
		}
	}

	newTotal, err := ev.Total(work, false)
	if err != nil {
		return nil, score.Report{}, err
	}
	rewired, side, sideTotal := len(houses), market.SideHouse, m.HouseCount()
	if len(households) < len(houses) {
		rewired, side, sideTotal = len(households), market.SideHousehold, m.HouseholdCount()
	}
	report := score.NewReport(oldTotal, newTotal, rewired, sideTotal, side)
	logger.Debug("assignment solved", "augmentations", sol.Augmentations, "weight", sol.Weight)
	if report.Regressed {
		logger.Error("assignment scores below the original", "old", oldTotal, "new", newTotal)
	}
	return work, report, nil
}
