package score

import (
	"fmt"
	"strings"

	"github.com/matzehuels/homematch/pkg/market"
)

// DefaultIncomeThreshold is the yearly income above which a household does
// not qualify for social housing.
const DefaultIncomeThreshold = 42436

// DefaultElderlyAge is the age from which a household needs an accessible house.
const DefaultElderlyAge = 65

// Weights scales the individual fit components. All weights must be
// non-negative so that scores stay non-negative.
type Weights struct {
	Affordability float64 `toml:"affordability" json:"affordability"`
	Rooms         float64 `toml:"rooms" json:"rooms"`
	Accessibility float64 `toml:"accessibility" json:"accessibility"`
	Municipality  float64 `toml:"municipality" json:"municipality"`
	Priority      float64 `toml:"priority" json:"priority"`
}

// DefaultWeights favours affordability and room fit.
func DefaultWeights() Weights {
	return Weights{
		Affordability: 4,
		Rooms:         3,
		Accessibility: 2,
		Municipality:  1,
		Priority:      1,
	}
}

// Validate rejects negative weights.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"affordability": w.Affordability,
		"rooms":         w.Rooms,
		"accessibility": w.Accessibility,
		"municipality":  w.Municipality,
		"priority":      w.Priority,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative (got %g)", name, v)
		}
	}
	return nil
}

// Max returns the highest score a pair can reach with these weights.
func (w Weights) Max() float64 {
	return w.Affordability + w.Rooms + w.Accessibility + w.Municipality + w.Priority
}

// Fit scores a pair from house and household attributes.
//
// Each component lies in [0, 1] and is multiplied by its weight:
//   - affordability: 1 while yearly rent stays below 25% of income, 0 from 50%
//   - rooms: 1 minus the relative difference between rooms and members
//   - accessibility: elderly households need an accessible house
//   - municipality: 1 when house and household are in the same municipality
//   - priority: 1 for urgent households
type Fit struct {
	Weights         Weights
	IncomeThreshold int // 0 disables the eligibility check
	ElderlyAge      int
}

// NewFit creates a Fit scorer with default weights and thresholds.
func NewFit() Fit {
	return Fit{
		Weights:         DefaultWeights(),
		IncomeThreshold: DefaultIncomeThreshold,
		ElderlyAge:      DefaultElderlyAge,
	}
}

// Score implements Scorer.
func (f Fit) Score(m *market.Matching, houseID, householdID int) (float64, error) {
	house, err := m.House(houseID)
	if err != nil {
		return 0, err
	}
	hh, err := m.Household(householdID)
	if err != nil {
		return 0, err
	}
	if f.IncomeThreshold > 0 && hh.Income > f.IncomeThreshold {
		return 0, fmt.Errorf("%w: household %d earns %d (threshold %d)", ErrIncomeTooHigh, hh.ID, hh.Income, f.IncomeThreshold)
	}

	s := f.Weights.Affordability*affordability(house, hh) +
		f.Weights.Rooms*roomFit(house, hh) +
		f.Weights.Accessibility*f.accessibility(house, hh) +
		f.Weights.Municipality*municipality(house, hh)
	if hh.Priority {
		s += f.Weights.Priority
	}
	return s, nil
}

func affordability(h market.House, hh market.Household) float64 {
	if hh.Income <= 0 {
		return 1
	}
	share := float64(h.Rent*12) / float64(hh.Income)
	switch {
	case share <= 0.25:
		return 1
	case share >= 0.5:
		return 0
	default:
		return (0.5 - share) / 0.25
	}
}

func roomFit(h market.House, hh market.Household) float64 {
	if hh.Members <= 0 || h.Rooms <= 0 {
		return 1
	}
	diff := h.Rooms - hh.Members
	if diff < 0 {
		diff = -diff
	}
	return 1 - float64(diff)/float64(max(h.Rooms, hh.Members))
}

func (f Fit) accessibility(h market.House, hh market.Household) float64 {
	if f.ElderlyAge <= 0 || hh.Age < f.ElderlyAge || h.Accessible {
		return 1
	}
	return 0
}

func municipality(h market.House, hh market.Household) float64 {
	if h.Municipality != "" && strings.EqualFold(h.Municipality, hh.Municipality) {
		return 1
	}
	return 0
}

var _ Scorer = Fit{}
