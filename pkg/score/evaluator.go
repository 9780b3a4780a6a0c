package score

import (
	"fmt"

	"github.com/matzehuels/homematch/pkg/market"
)

// Evaluator aggregates per-pair scores over a matching.
type Evaluator struct {
	Scorer Scorer
}

// Total sums the scores of all connections in m.
//
// With validateAll set, an ineligible connection aborts the evaluation with
// ErrIncomeTooHigh. Without it, ineligible connections contribute 0. Any other
// scorer error is always returned.
func (e Evaluator) Total(m *market.Matching, validateAll bool) (float64, error) {
	total := 0.0
	for _, p := range m.Pairs() {
		s, err := e.Scorer.Score(m, p.HouseID, p.HouseholdID)
		if err != nil {
			if IsIneligible(err) && !validateAll {
				continue
			}
			return 0, fmt.Errorf("score house %d / household %d: %w", p.HouseID, p.HouseholdID, err)
		}
		total += s
	}
	return total, nil
}

// Individual returns the score of a household's current assignment.
// Houseless households and ineligible assignments score 0.
func (e Evaluator) Individual(m *market.Matching, householdID int) (float64, error) {
	houseID, ok := m.HouseOf(householdID)
	if !ok {
		return 0, nil
	}
	s, err := e.Scorer.Score(m, houseID, householdID)
	if IsIneligible(err) {
		return 0, nil
	}
	return s, err
}

// Pair scores a single hypothetical pairing under the given policy.
// The boolean is false when the pairing is ineligible and the policy
// rejects it; PolicyFail returns the error instead.
func (e Evaluator) Pair(m *market.Matching, houseID, householdID int, p Policy) (float64, bool, error) {
	s, err := e.Scorer.Score(m, houseID, householdID)
	if err == nil {
		return s, true, nil
	}
	if !IsIneligible(err) {
		return 0, false, err
	}
	switch p {
	case PolicyZero:
		return 0, true, nil
	case PolicyFail:
		return 0, false, err
	default:
		return 0, false, nil
	}
}
