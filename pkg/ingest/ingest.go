// Package ingest loads housing markets from semicolon-separated registry
// exports.
//
// Every record describes one allocated house together with the household
// that received it, so a file with n usable records yields n houses and n
// households. Households above the income cap are skipped together with
// their house. Loaded pairs are connected with a configurable probability,
// and [Balance] trims the market to a target house:household ratio.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/score"
)

// Column positions of a registry record.
const (
	colHouseMunicipality = 0
	colHouseLabel        = 1
	colRent              = 2
	colRooms             = 4
	colFloor             = 5
	colLift              = 6
	colMunicipality      = 7
	colPostalCode        = 8
	colHouseholdLabel    = 9
	colIncome            = 10
	colAge               = 12
	colType              = 14
	colMembers           = 15
	colUrgency           = 16

	minColumns = colUrgency + 1
)

// ErrIncomeAboveCap marks a record whose household exceeds the income cap.
var ErrIncomeAboveCap = errors.New("household income above cap")

var householdTypes = map[string]market.HouseholdType{
	"1-persoons":        market.HouseholdOne,
	"2-persoons":        market.HouseholdTwo,
	"hh-1 kind":         market.HouseholdHH1,
	"hh-2 kind":         market.HouseholdHH2,
	"hh-3 of meer kind": market.HouseholdHH3Plus,
}

var accessibleLabels = map[string]bool{
	"senioren woning": true,
	"seniorenwoning":  true,
	"Miva-woning":     true,
}

// Options controls how a file is read.
type Options struct {
	// StartLine is the number of lines skipped before reading. When it is 0
	// the first line is a header and skipped as well.
	StartLine int

	// Count is the number of usable records to read. 0 reads everything.
	Count int

	// IncomeCap skips households earning more. 0 disables the cap.
	IncomeCap int

	// ConnectProb is the probability that a loaded pair starts connected.
	ConnectProb float64

	// Seed makes the connection draw reproducible.
	Seed uint64

	// Ratio is the target house:household ratio applied after loading.
	// 0 keeps the market as read.
	Ratio float64

	Logger *log.Logger
}

// DefaultOptions reads a whole file with the default income cap and no
// initial connections.
func DefaultOptions() Options {
	return Options{IncomeCap: score.DefaultIncomeThreshold}
}

// Stats reports what happened during a load.
type Stats struct {
	Records           int `json:"records"`
	Skipped           int `json:"skipped"`
	Connected         int `json:"connected"` // after balancing
	RemovedHouses     int `json:"removed_houses"`
	RemovedHouseholds int `json:"removed_households"`
}

// ReadFile loads a market from a file.
func ReadFile(path string, opts Options) (*market.Matching, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, opts)
}

// Read loads a market from r.
func Read(r io.Reader, opts Options) (*market.Matching, Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	skip := opts.StartLine
	if skip == 0 {
		skip = 1
	}
	for i := 0; i < skip; i++ {
		if _, err := cr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return market.New(), Stats{}, nil
			}
			return nil, Stats{}, fmt.Errorf("skip line %d: %w", i+1, err)
		}
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	m := market.New()
	var stats Stats
	for opts.Count == 0 || stats.Records < opts.Count {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)

		house, household, err := ParseRecord(row, opts.IncomeCap)
		if errors.Is(err, ErrIncomeAboveCap) {
			stats.Skipped++
			logger.Debug("skipping record", "line", line, "reason", err)
			continue
		}
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: %w", line, err)
		}

		house.ID = market.NewID()
		household.ID = market.NewID()
		if err := m.AddHouse(house); err != nil {
			return nil, stats, err
		}
		if err := m.AddHousehold(household); err != nil {
			return nil, stats, err
		}
		stats.Records++
		if opts.ConnectProb > 0 && rng.Float64() <= opts.ConnectProb {
			if err := m.Connect(house.ID, household.ID); err != nil {
				return nil, stats, err
			}
			stats.Connected++
		}
	}

	removedH, removedW, err := Balance(m, opts.Ratio)
	if err != nil {
		return nil, stats, err
	}
	stats.RemovedHouses, stats.RemovedHouseholds = removedH, removedW
	stats.Connected = m.EdgeCount()
	return m, stats, nil
}

// ParseRecord converts one registry record into a house and a household
// without IDs. Households earning more than incomeCap yield
// ErrIncomeAboveCap; a cap of 0 disables the check.
func ParseRecord(row []string, incomeCap int) (market.House, market.Household, error) {
	if len(row) < minColumns {
		return market.House{}, market.Household{}, fmt.Errorf("record has %d columns, want at least %d", len(row), minColumns)
	}
	field := func(i int) string { return strings.TrimSpace(row[i]) }
	num := func(i int, name string) (int, error) {
		v, err := strconv.Atoi(field(i))
		if err != nil {
			return 0, fmt.Errorf("column %d (%s): %w", i, name, err)
		}
		return v, nil
	}

	rent, err := num(colRent, "rent")
	if err != nil {
		return market.House{}, market.Household{}, err
	}
	rooms, err := leadingDigit(field(colRooms))
	if err != nil {
		return market.House{}, market.Household{}, fmt.Errorf("column %d (rooms): %w", colRooms, err)
	}
	house := market.House{
		Municipality: field(colHouseMunicipality),
		Label:        field(colHouseLabel),
		Rent:         rent,
		Rooms:        rooms,
		Accessible: accessibleLabels[field(colHouseLabel)] ||
			field(colFloor) == "Begane grond" ||
			field(colLift) == "Ja",
	}

	income, err := num(colIncome, "income")
	if err != nil {
		return market.House{}, market.Household{}, err
	}
	if incomeCap > 0 && income > incomeCap {
		return market.House{}, market.Household{}, fmt.Errorf("%w: %d > %d", ErrIncomeAboveCap, income, incomeCap)
	}
	age, err := num(colAge, "age")
	if err != nil {
		return market.House{}, market.Household{}, err
	}
	members, err := num(colMembers, "members")
	if err != nil {
		return market.House{}, market.Household{}, err
	}
	typ, ok := householdTypes[field(colType)]
	if !ok {
		typ = market.HouseholdOther
	}
	household := market.Household{
		Municipality: field(colMunicipality),
		PostalCode:   field(colPostalCode),
		Label:        field(colHouseholdLabel),
		Income:       income,
		Age:          age,
		Type:         typ,
		Members:      members,
		Priority:     field(colUrgency) == "sociaal-medisch urgent",
	}
	return house, household, nil
}

func leadingDigit(s string) (int, error) {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, fmt.Errorf("no leading digit in %q", s)
	}
	return int(s[0] - '0'), nil
}

// Balance trims m to the given house:household ratio by removing houses or
// households from the end of their insertion order. A ratio <= 0 or an
// empty side leaves m unchanged.
func Balance(m *market.Matching, ratio float64) (removedHouses, removedHouseholds int, err error) {
	houses, households := m.HouseCount(), m.HouseholdCount()
	if ratio <= 0 || houses == 0 || households == 0 {
		return 0, 0, nil
	}
	current := float64(houses) / float64(households)
	switch {
	case current < ratio:
		need := int(float64(houses) / ratio)
		all := m.Households()
		for i := len(all) - 1; i >= need; i-- {
			if err := m.RemoveHousehold(all[i].ID); err != nil {
				return removedHouses, removedHouseholds, err
			}
			removedHouseholds++
		}
	case current > ratio:
		need := int(float64(households) * ratio)
		all := m.Houses()
		for i := len(all) - 1; i >= need; i-- {
			if err := m.RemoveHouse(all[i].ID); err != nil {
				return removedHouses, removedHouseholds, err
			}
			removedHouses++
		}
	}
	return removedHouses, removedHouseholds, nil
}
