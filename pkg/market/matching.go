package market

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"
)

var (
	// ErrDuplicateHouseID is returned by [Matching.AddHouse] when a house with
	// the same ID is already present.
	ErrDuplicateHouseID = errors.New("house ID already present")

	// ErrDuplicateHouseholdID is returned by [Matching.AddHousehold] when a
	// household with the same ID is already present.
	ErrDuplicateHouseholdID = errors.New("household ID already present")

	// ErrInvalidID is returned when a vertex ID is negative.
	ErrInvalidID = errors.New("vertex ID must not be negative")

	// ErrHouseNotFound is returned when a house ID is unknown.
	ErrHouseNotFound = errors.New("house not found")

	// ErrHouseholdNotFound is returned when a household ID is unknown.
	ErrHouseholdNotFound = errors.New("household not found")

	// ErrHouseAlreadyMatched is returned by [Matching.Connect] when the house
	// already has a household.
	ErrHouseAlreadyMatched = errors.New("house already matched")

	// ErrHouseholdAlreadyMatched is returned by [Matching.Connect] when the
	// household already has a house.
	ErrHouseholdAlreadyMatched = errors.New("household already matched")

	// ErrSameSide is returned by [Matching.Link] when both endpoints are on the
	// same side of the bipartite graph.
	ErrSameSide = errors.New("cannot link two vertices of the same side")

	// ErrNotConnected is returned by [Matching.Disconnect] when the house and
	// household are not connected to each other.
	ErrNotConnected = errors.New("house and household are not connected")

	// ErrBrokenInvariant is returned by [Matching.Validate] when the partner
	// arrays disagree with each other.
	ErrBrokenInvariant = errors.New("matching invariant violated")
)

// none marks a vertex without partner.
const none = -1

// vertexSet holds the vertex attributes and ID indexes. It is shared between
// clones and must not be mutated once frozen.
type vertexSet struct {
	houses       []House
	households   []Household
	houseIdx     map[int]int
	householdIdx map[int]int
	frozen       atomic.Bool
}

func (vs *vertexSet) copy() *vertexSet {
	return &vertexSet{
		houses:       slices.Clone(vs.houses),
		households:   slices.Clone(vs.households),
		houseIdx:     maps.Clone(vs.houseIdx),
		householdIdx: maps.Clone(vs.householdIdx),
	}
}

// Matching is a bipartite graph between houses and households in which every
// vertex has at most one incident edge.
//
// The zero value is not usable; use New. A Matching is not safe for concurrent
// mutation, but distinct clones may be used from different goroutines.
type Matching struct {
	vs          *vertexSet
	houseTo     []int // household ID per house index, or none
	householdTo []int // house ID per household index, or none
}

// New creates an empty matching.
func New() *Matching {
	return &Matching{
		vs: &vertexSet{
			houseIdx:     make(map[int]int),
			householdIdx: make(map[int]int),
		},
	}
}

// Clone returns an independent copy. Connections of the copy can be changed
// without affecting m and vice versa.
func (m *Matching) Clone() *Matching {
	m.vs.frozen.Store(true)
	return &Matching{
		vs:          m.vs,
		houseTo:     slices.Clone(m.houseTo),
		householdTo: slices.Clone(m.householdTo),
	}
}

// own detaches the vertex set before a structural change if it is shared.
func (m *Matching) own() {
	if m.vs.frozen.Load() {
		m.vs = m.vs.copy()
	}
}

// AddHouse adds a house without connections.
func (m *Matching) AddHouse(h House) error {
	if h.ID < 0 {
		return ErrInvalidID
	}
	if _, ok := m.vs.houseIdx[h.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateHouseID, h.ID)
	}
	m.own()
	m.vs.houseIdx[h.ID] = len(m.vs.houses)
	m.vs.houses = append(m.vs.houses, h)
	m.houseTo = append(m.houseTo, none)
	return nil
}

// AddHousehold adds a household without connections.
func (m *Matching) AddHousehold(h Household) error {
	if h.ID < 0 {
		return ErrInvalidID
	}
	if _, ok := m.vs.householdIdx[h.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateHouseholdID, h.ID)
	}
	m.own()
	m.vs.householdIdx[h.ID] = len(m.vs.households)
	m.vs.households = append(m.vs.households, h)
	m.householdTo = append(m.householdTo, none)
	return nil
}

// RemoveHouse deletes a house together with its connection, if any.
func (m *Matching) RemoveHouse(id int) error {
	i, ok := m.vs.houseIdx[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrHouseNotFound, id)
	}
	if partner := m.houseTo[i]; partner != none {
		m.householdTo[m.vs.householdIdx[partner]] = none
	}
	m.own()
	m.vs.houses = slices.Delete(m.vs.houses, i, i+1)
	m.houseTo = slices.Delete(m.houseTo, i, i+1)
	delete(m.vs.houseIdx, id)
	for j := i; j < len(m.vs.houses); j++ {
		m.vs.houseIdx[m.vs.houses[j].ID] = j
	}
	return nil
}

// RemoveHousehold deletes a household together with its connection, if any.
func (m *Matching) RemoveHousehold(id int) error {
	i, ok := m.vs.householdIdx[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrHouseholdNotFound, id)
	}
	if partner := m.householdTo[i]; partner != none {
		m.houseTo[m.vs.houseIdx[partner]] = none
	}
	m.own()
	m.vs.households = slices.Delete(m.vs.households, i, i+1)
	m.householdTo = slices.Delete(m.householdTo, i, i+1)
	delete(m.vs.householdIdx, id)
	for j := i; j < len(m.vs.households); j++ {
		m.vs.householdIdx[m.vs.households[j].ID] = j
	}
	return nil
}

// House returns the house with the given ID.
func (m *Matching) House(id int) (House, error) {
	i, ok := m.vs.houseIdx[id]
	if !ok {
		return House{}, fmt.Errorf("%w: %d", ErrHouseNotFound, id)
	}
	return m.vs.houses[i], nil
}

// Household returns the household with the given ID.
func (m *Matching) Household(id int) (Household, error) {
	i, ok := m.vs.householdIdx[id]
	if !ok {
		return Household{}, fmt.Errorf("%w: %d", ErrHouseholdNotFound, id)
	}
	return m.vs.households[i], nil
}

// HasHouse reports whether a house with the given ID exists.
func (m *Matching) HasHouse(id int) bool {
	_, ok := m.vs.houseIdx[id]
	return ok
}

// HasHousehold reports whether a household with the given ID exists.
func (m *Matching) HasHousehold(id int) bool {
	_, ok := m.vs.householdIdx[id]
	return ok
}

// Houses returns all houses in insertion order.
func (m *Matching) Houses() []House { return slices.Clone(m.vs.houses) }

// Households returns all households in insertion order.
func (m *Matching) Households() []Household { return slices.Clone(m.vs.households) }

// HouseCount returns the number of houses.
func (m *Matching) HouseCount() int { return len(m.vs.houses) }

// HouseholdCount returns the number of households.
func (m *Matching) HouseholdCount() int { return len(m.vs.households) }

// Connect assigns a house to a household. Both must exist and be unmatched.
func (m *Matching) Connect(houseID, householdID int) error {
	hi, ok := m.vs.houseIdx[houseID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrHouseNotFound, houseID)
	}
	wi, ok := m.vs.householdIdx[householdID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrHouseholdNotFound, householdID)
	}
	if m.houseTo[hi] != none {
		return fmt.Errorf("%w: house %d", ErrHouseAlreadyMatched, houseID)
	}
	if m.householdTo[wi] != none {
		return fmt.Errorf("%w: household %d", ErrHouseholdAlreadyMatched, householdID)
	}
	m.houseTo[hi] = householdID
	m.householdTo[wi] = houseID
	return nil
}

// Link connects two vertices given in any order. It fails with ErrSameSide
// when both vertices are on the same side.
func (m *Matching) Link(a, b Vertex) error {
	if a.Side() == b.Side() {
		return fmt.Errorf("%w: %s %d and %d", ErrSameSide, a.Side(), a.VertexID(), b.VertexID())
	}
	if a.Side() == SideHousehold {
		a, b = b, a
	}
	return m.Connect(a.VertexID(), b.VertexID())
}

// Disconnect removes the connection between a house and a household.
func (m *Matching) Disconnect(houseID, householdID int) error {
	hi, ok := m.vs.houseIdx[houseID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrHouseNotFound, houseID)
	}
	wi, ok := m.vs.householdIdx[householdID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrHouseholdNotFound, householdID)
	}
	if m.houseTo[hi] != householdID {
		return fmt.Errorf("%w: house %d, household %d", ErrNotConnected, houseID, householdID)
	}
	m.houseTo[hi] = none
	m.householdTo[wi] = none
	return nil
}

// Isolate disconnects every connection incident to one of the given houses
// or households. Vertices without a partner are skipped; unknown vertices
// are an error and leave m partially changed, so callers isolate clones.
func (m *Matching) Isolate(houses []House, households []Household) error {
	for _, h := range houses {
		i, ok := m.vs.houseIdx[h.ID]
		if !ok {
			return fmt.Errorf("%w: %d", ErrHouseNotFound, h.ID)
		}
		if partner := m.houseTo[i]; partner != none {
			m.householdTo[m.vs.householdIdx[partner]] = none
			m.houseTo[i] = none
		}
	}
	for _, w := range households {
		i, ok := m.vs.householdIdx[w.ID]
		if !ok {
			return fmt.Errorf("%w: %d", ErrHouseholdNotFound, w.ID)
		}
		if partner := m.householdTo[i]; partner != none {
			m.houseTo[m.vs.houseIdx[partner]] = none
			m.householdTo[i] = none
		}
	}
	return nil
}

// HouseholdOf returns the household living in the given house.
// The boolean is false if the house is unknown or empty.
func (m *Matching) HouseholdOf(houseID int) (int, bool) {
	i, ok := m.vs.houseIdx[houseID]
	if !ok || m.houseTo[i] == none {
		return 0, false
	}
	return m.houseTo[i], true
}

// HouseOf returns the house assigned to the given household.
// The boolean is false if the household is unknown or houseless.
func (m *Matching) HouseOf(householdID int) (int, bool) {
	i, ok := m.vs.householdIdx[householdID]
	if !ok || m.householdTo[i] == none {
		return 0, false
	}
	return m.householdTo[i], true
}

// HouseholdlessHouses returns the unmatched houses in insertion order.
func (m *Matching) HouseholdlessHouses() []House {
	var out []House
	for i, h := range m.vs.houses {
		if m.houseTo[i] == none {
			out = append(out, h)
		}
	}
	return out
}

// HouselessHouseholds returns the unmatched households in insertion order.
func (m *Matching) HouselessHouseholds() []Household {
	var out []Household
	for i, h := range m.vs.households {
		if m.householdTo[i] == none {
			out = append(out, h)
		}
	}
	return out
}

// Pairs returns all connections ordered by house insertion order.
func (m *Matching) Pairs() []Pair {
	out := make([]Pair, 0, len(m.houseTo))
	for i, partner := range m.houseTo {
		if partner != none {
			out = append(out, Pair{HouseID: m.vs.houses[i].ID, HouseholdID: partner})
		}
	}
	return out
}

// EdgeCount returns the number of connections.
func (m *Matching) EdgeCount() int {
	n := 0
	for _, partner := range m.houseTo {
		if partner != none {
			n++
		}
	}
	return n
}

// Validate checks that both partner arrays describe the same one-to-one
// relation between existing vertices.
func (m *Matching) Validate() error {
	for i, partner := range m.houseTo {
		if partner == none {
			continue
		}
		wi, ok := m.vs.householdIdx[partner]
		if !ok {
			return fmt.Errorf("%w: house %d points to unknown household %d", ErrBrokenInvariant, m.vs.houses[i].ID, partner)
		}
		if m.householdTo[wi] != m.vs.houses[i].ID {
			return fmt.Errorf("%w: house %d and household %d disagree", ErrBrokenInvariant, m.vs.houses[i].ID, partner)
		}
	}
	matched := 0
	for _, partner := range m.householdTo {
		if partner != none {
			matched++
		}
	}
	if matched != m.EdgeCount() {
		return fmt.Errorf("%w: %d matched households for %d matched houses", ErrBrokenInvariant, matched, m.EdgeCount())
	}
	return nil
}
