// Package rewire implements the exhaustive rewiring optimizer.
//
// Given a matching and its free houses and households, the optimizer tears
// down every connection touching a free vertex and tries all injective
// pairings of the smaller free side into the larger one. The pairing with the
// highest total score wins; since the search is complete, the result is
// provably optimal over the free set.
//
// The search space grows as P(M, L) = M!/(M-L)!, so the optimizer is only
// useful for small free sets. [Optimizer.MaxLeaves] rejects larger inputs with
// [ErrSearchSpaceTooLarge]; callers route those to the assignment engine.
//
// # Parallelism
//
// With Workers > 1 the first-level branches of the enumeration tree are
// evaluated on a worker pool. Every branch works on its own clone of the
// matching and writes to its own result slot. The slots are merged in branch
// order, so the outcome is identical to a sequential run.
package rewire

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/score"
)

// DefaultMaxLeaves bounds the number of complete assignments evaluated by a
// single optimization. 9!/(9-9)! = 362,880 fits comfortably.
const DefaultMaxLeaves = 1_000_000

// checkEvery is the number of leaves (or tree nodes while enumerating)
// between two context checks.
const checkEvery = 1024

var (
	// ErrSearchSpaceTooLarge is returned when P(M, L) exceeds MaxLeaves.
	ErrSearchSpaceTooLarge = errors.New("search space too large")

	// ErrNoScorer is returned when the optimizer has no scorer.
	ErrNoScorer = errors.New("no scorer configured")
)

// Optimizer performs exhaustive rewiring over free sets.
//
// The zero value is not usable because Scorer is required. All other fields
// have sensible defaults.
type Optimizer struct {
	// Scorer scores house/household pairs. Required.
	Scorer score.Scorer

	// Policy decides what happens to paths containing an ineligible pair.
	Policy score.Policy

	// Workers is the number of concurrent branch evaluators. Values <= 1
	// evaluate sequentially.
	Workers int

	// MaxLeaves caps the search space. 0 uses DefaultMaxLeaves, negative
	// values disable the cap.
	MaxLeaves int

	// Logger receives diagnostics. Nil disables logging.
	Logger *log.Logger

	// Progress, if set, is called with the number of evaluated leaves and the
	// total. It may be called from several goroutines but never concurrently.
	Progress func(done, total int)
}

// OptimizeAvailable optimizes over the matching's own householdless houses
// and houseless households.
func (o *Optimizer) OptimizeAvailable(ctx context.Context, m *market.Matching) (*market.Matching, score.Report, error) {
	return o.Optimize(ctx, m, m.HouseholdlessHouses(), m.HouselessHouseholds())
}

// Optimize rewires the given free houses and households of m.
//
// If either list is empty, m itself is returned with [score.NoOpReport].
// Otherwise the result is a new matching; m is never modified. If the best
// total found is below the original total, the report is flagged as
// regressed and an error is logged, but the matching is still returned.
func (o *Optimizer) Optimize(ctx context.Context, m *market.Matching, houses []market.House, households []market.Household) (*market.Matching, score.Report, error) {
	if len(houses) == 0 || len(households) == 0 {
		return m, score.NoOpReport(), nil
	}
	if o.Scorer == nil {
		return nil, score.Report{}, ErrNoScorer
	}
	ev := score.Evaluator{Scorer: o.Scorer}

	oldTotal, err := ev.Total(m, false)
	if err != nil {
		return nil, score.Report{}, err
	}

	work := m.Clone()
	if err := work.Isolate(houses, households); err != nil {
		return nil, score.Report{}, err
	}

	sources, targets, side := split(houses, households)
	sideTotal := m.HouseCount()
	if side == market.SideHousehold {
		sideTotal = m.HouseholdCount()
	}
	leaves := SearchSpace(len(sources), len(targets))
	if limit := o.maxLeaves(); limit > 0 && leaves > limit {
		return nil, score.Report{}, fmt.Errorf("%w: P(%d, %d) = %d exceeds %d", ErrSearchSpaceTooLarge, len(targets), len(sources), leaves, limit)
	}

	o.logger().Debug("rewiring free set", "sources", side, "L", len(sources), "M", len(targets), "leaves", leaves)

	base, err := ev.Total(work, false)
	if err != nil {
		return nil, score.Report{}, err
	}
	root, err := Enumerate(ctx, sources, targets, side)
	if err != nil {
		return nil, score.Report{}, err
	}

	s := &search{
		ev:       ev,
		policy:   o.Policy,
		base:     base,
		total:    leaves,
		progress: o.Progress,
	}
	var best branchResult
	if o.Workers > 1 && len(root.Children()) > 1 {
		best, err = s.parallel(ctx, work, root, o.Workers)
	} else {
		best, err = s.sequential(ctx, work, root)
	}
	if err != nil {
		return nil, score.Report{}, err
	}

	result := work.Clone()
	newTotal := base
	if best.found {
		for _, p := range best.path {
			if err := result.Connect(p.HouseID, p.HouseholdID); err != nil {
				return nil, score.Report{}, err
			}
		}
		newTotal = best.score
	}

	report := score.NewReport(oldTotal, newTotal, len(sources), sideTotal, side)
	if report.Regressed {
		o.logger().Error("best-found matching scores below the original",
			"old", oldTotal, "new", newTotal, "L", len(sources))
	}
	return result, report, nil
}

func (o *Optimizer) maxLeaves() int {
	if o.MaxLeaves == 0 {
		return DefaultMaxLeaves
	}
	return o.MaxLeaves
}

func (o *Optimizer) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard)
	}
	return o.Logger
}

// split picks the smaller free list as sources; ties go to houses.
func split(houses []market.House, households []market.Household) (sources, targets []int, side market.Side) {
	hIDs := make([]int, len(houses))
	for i, h := range houses {
		hIDs[i] = h.ID
	}
	wIDs := make([]int, len(households))
	for i, w := range households {
		wIDs[i] = w.ID
	}
	if len(hIDs) <= len(wIDs) {
		return hIDs, wIDs, market.SideHouse
	}
	return wIDs, hIDs, market.SideHousehold
}
