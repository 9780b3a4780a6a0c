// Package score defines the fit-quality scoring strategy consumed by the
// optimization engines, together with the evaluators and the improvement
// report they share.
//
// A [Scorer] maps a (house, household) pair to a non-negative score or to
// [ErrIncomeTooHigh] when the pairing is categorically disallowed. The
// matching is always passed explicitly so a scorer never depends on captured
// mutable state.
package score

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/homematch/pkg/market"
)

// ErrIncomeTooHigh signals that a household is not eligible for a house.
var ErrIncomeTooHigh = errors.New("household income too high")

// Scorer computes the fit of a household in a house.
type Scorer interface {
	Score(m *market.Matching, houseID, householdID int) (float64, error)
}

// Func adapts a plain function to the Scorer interface.
type Func func(m *market.Matching, houseID, householdID int) (float64, error)

// Score implements Scorer.
func (f Func) Score(m *market.Matching, houseID, householdID int) (float64, error) {
	return f(m, houseID, householdID)
}

// IsIneligible reports whether err signals an ineligible pairing.
func IsIneligible(err error) bool {
	return errors.Is(err, ErrIncomeTooHigh)
}

// Policy decides how an engine treats an ineligible pairing.
type Policy int

const (
	// PolicyRejectPath discards the candidate that contains the pairing.
	PolicyRejectPath Policy = iota
	// PolicyZero scores the pairing 0; it stays searchable but is never preferred.
	PolicyZero
	// PolicyFail aborts the whole optimization with the scorer's error.
	PolicyFail
)

// String returns the flag/config spelling of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyZero:
		return "zero"
	case PolicyFail:
		return "fail"
	default:
		return "reject"
	}
}

// ParsePolicy parses "reject", "zero" or "fail". The empty string selects
// PolicyRejectPath.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return PolicyRejectPath, nil
	case "zero":
		return PolicyZero, nil
	case "fail":
		return PolicyFail, nil
	}
	return PolicyRejectPath, fmt.Errorf("unknown ineligibility policy %q (want reject, zero or fail)", s)
}

// Table is a scorer backed by an explicit score table. Pairs without an
// entry score Default.
type Table struct {
	Default    float64
	scores     map[market.Pair]float64
	ineligible map[market.Pair]bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		scores:     make(map[market.Pair]float64),
		ineligible: make(map[market.Pair]bool),
	}
}

// Set records the score of a pair.
func (t *Table) Set(houseID, householdID int, s float64) {
	t.scores[market.Pair{HouseID: houseID, HouseholdID: householdID}] = s
}

// SetIneligible marks a pair as categorically disallowed.
func (t *Table) SetIneligible(houseID, householdID int) {
	t.ineligible[market.Pair{HouseID: houseID, HouseholdID: householdID}] = true
}

// Len returns the number of explicit entries, eligible or not.
func (t *Table) Len() int { return len(t.scores) + len(t.ineligible) }

// Score implements Scorer.
func (t *Table) Score(_ *market.Matching, houseID, householdID int) (float64, error) {
	p := market.Pair{HouseID: houseID, HouseholdID: householdID}
	if t.ineligible[p] {
		return 0, fmt.Errorf("%w: household %d for house %d", ErrIncomeTooHigh, householdID, houseID)
	}
	if s, ok := t.scores[p]; ok {
		return s, nil
	}
	return t.Default, nil
}

var _ Scorer = (*Table)(nil)
