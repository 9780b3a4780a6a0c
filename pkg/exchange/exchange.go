// Package exchange implements the stable-matching cycle-exchange engine.
//
// Starting from an existing matching, the engine repeatedly looks for a ring
// of households in which everybody strictly prefers the next household's
// house, and rotates the houses along the ring. Every executed ring is a
// strict Pareto improvement for its members. The result approximates a
// worker-optimal stable matching; it is not guaranteed to be stable because
// the search starts from the incumbent instead of from scratch.
//
// Households that took part in a ring rest for the following round: they
// start no strict edge in it, and from then on their non-strict preferences
// are part of the graph. The run ends only when no strict ring exists with
// every household active, so running the engine on its own result changes
// nothing. Every ring strictly raises the total score, which bounds the
// number of rounds.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/score"
)

// ErrNotImproving is returned when an executed ring would not strictly
// improve one of its members. It indicates an inconsistent scorer.
var ErrNotImproving = errors.New("exchange does not strictly improve every participant")

// Stats summarises a run.
type Stats struct {
	Cycles      int     `json:"cycles" bson:"cycles"`
	Moved       int     `json:"moved" bson:"moved"`
	ScoreBefore float64 `json:"score_before" bson:"score_before"`
	ScoreAfter  float64 `json:"score_after" bson:"score_after"`
}

// Engine runs cycle exchanges with a scorer.
type Engine struct {
	Scorer score.Scorer
	Logger *log.Logger

	// OnCycle, if set, is called after every executed ring with the ring's
	// households and the graph it was found in.
	OnCycle func(cycle []int, g *Graph)
}

// Run executes strict exchange rings on a copy of m until none is left and
// returns the copy. m is not modified.
func (e *Engine) Run(ctx context.Context, m *market.Matching) (*market.Matching, Stats, error) {
	logger := e.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ev := score.Evaluator{Scorer: e.Scorer}

	var stats Stats
	before, err := ev.Total(m, false)
	if err != nil {
		return nil, Stats{}, err
	}
	stats.ScoreBefore = before

	cur := m.Clone()
	moved := make(map[int]bool)
	var resting map[int]bool
	for {
		if err := ctx.Err(); err != nil {
			return nil, Stats{}, err
		}
		g, err := Build(cur, e.Scorer, resting, moved)
		if err != nil {
			return nil, Stats{}, err
		}
		cycle, err := FindCycle(g)
		if err != nil {
			return nil, Stats{}, err
		}
		if cycle == nil {
			if len(resting) == 0 {
				break
			}
			resting = nil
			continue
		}
		next, err := e.rotate(cur, cycle)
		if err != nil {
			return nil, Stats{}, err
		}
		cur = next
		resting = make(map[int]bool, len(cycle))
		for _, w := range cycle {
			resting[w] = true
			moved[w] = true
		}
		stats.Cycles++
		stats.Moved += len(cycle)
		logger.Debug("executed exchange cycle", "round", stats.Cycles, "households", cycle)
		if e.OnCycle != nil {
			e.OnCycle(cycle, g)
		}
	}

	after, err := ev.Total(cur, false)
	if err != nil {
		return nil, Stats{}, err
	}
	stats.ScoreAfter = after
	return cur, stats, nil
}

// rotate moves every household of the cycle into the next one's house at
// once, on a clone of m.
func (e *Engine) rotate(m *market.Matching, cycle []int) (*market.Matching, error) {
	houses := make([]int, len(cycle))
	owns := make([]float64, len(cycle))
	for i, w := range cycle {
		h, ok := m.HouseOf(w)
		if !ok {
			return nil, fmt.Errorf("%w: household %d", market.ErrHouseholdNotFound, w)
		}
		houses[i] = h
		own, err := current(m, e.Scorer, h, w)
		if err != nil {
			return nil, err
		}
		owns[i] = own
	}

	next := m.Clone()
	for i, w := range cycle {
		if err := next.Disconnect(houses[i], w); err != nil {
			return nil, err
		}
	}
	for i, w := range cycle {
		target := houses[(i+1)%len(cycle)]
		if err := next.Connect(target, w); err != nil {
			return nil, err
		}
		s, err := e.Scorer.Score(next, target, w)
		if err != nil {
			return nil, fmt.Errorf("household %d into house %d: %w", w, target, err)
		}
		if s <= owns[i] {
			return nil, fmt.Errorf("%w: household %d scores %g in house %d, had %g", ErrNotImproving, w, s, target, owns[i])
		}
	}
	return next, nil
}
