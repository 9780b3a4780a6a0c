package market

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Side identifies which half of the bipartite graph a vertex belongs to.
type Side int

const (
	// SideHouse is the house side (H).
	SideHouse Side = iota
	// SideHousehold is the household side (W).
	SideHousehold
)

// String returns "houses" or "households".
func (s Side) String() string {
	if s == SideHouse {
		return "houses"
	}
	return "households"
}

// MarshalText encodes the side by name.
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts "houses" or "households".
func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "houses":
		*s = SideHouse
	case "households":
		*s = SideHousehold
	default:
		return fmt.Errorf("unknown side %q", b)
	}
	return nil
}

// Vertex is implemented by every vertex that can take part in a matching,
// including the synthetic dummy vertices used by the assignment engine.
type Vertex interface {
	VertexID() int
	Side() Side
}

// HouseholdType classifies a household's composition.
type HouseholdType int

const (
	HouseholdOne HouseholdType = iota
	HouseholdTwo
	HouseholdHH1
	HouseholdHH2
	HouseholdHH3Plus
	HouseholdOther
)

var householdTypeNames = [...]string{"one", "two", "hh1", "hh2", "hh3plus", "other"}

// String returns the canonical lowercase name of the type.
func (t HouseholdType) String() string {
	if t < 0 || int(t) >= len(householdTypeNames) {
		return "other"
	}
	return householdTypeNames[t]
}

// ParseHouseholdType parses a canonical type name. Unknown names map to
// HouseholdOther together with an error so callers can decide to be lenient.
func ParseHouseholdType(s string) (HouseholdType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range householdTypeNames {
		if s == name {
			return HouseholdType(i), nil
		}
	}
	return HouseholdOther, fmt.Errorf("unknown household type %q", s)
}

// House is a dwelling that can be assigned to at most one household.
type House struct {
	ID           int
	Municipality string
	Label        string
	Rent         int // monthly rent
	Rooms        int
	Accessible   bool
}

// VertexID implements Vertex.
func (h House) VertexID() int { return h.ID }

// Side implements Vertex.
func (House) Side() Side { return SideHouse }

// Household is a group of people looking for (or living in) a house.
type Household struct {
	ID           int
	Municipality string
	PostalCode   string
	Label        string
	Income       int // yearly income
	Age          int // age of the eldest member
	Type         HouseholdType
	Members      int
	Priority     bool // urgent (e.g. social-medical) case
}

// VertexID implements Vertex.
func (h Household) VertexID() int { return h.ID }

// Side implements Vertex.
func (Household) Side() Side { return SideHousehold }

// Pair is a single connection between a house and a household.
type Pair struct {
	HouseID     int
	HouseholdID int
}

var idCounter atomic.Int64

// NewID returns a process-unique vertex ID.
func NewID() int {
	return int(idCounter.Add(1))
}

// ReserveID guarantees that subsequent NewID calls return values greater than id.
func ReserveID(id int) {
	for {
		cur := idCounter.Load()
		if int64(id) <= cur {
			return
		}
		if idCounter.CompareAndSwap(cur, int64(id)) {
			return
		}
	}
}
