// Package marketdoc provides the canonical serialization format for housing
// markets.
//
// A [Document] holds houses, households, their current connections and an
// optional explicit score table. It is used for JSON files, API requests,
// cache entries and stored runs:
//
//	{
//	  "houses":      [{"id": 1, "rooms": 3, "rent": 640}],
//	  "households":  [{"id": 11, "members": 2, "income": 31000}],
//	  "connections": [{"house": 1, "household": 11}],
//	  "scores":      [{"house": 1, "household": 11, "score": 5}]
//	}
//
// Use [FromMatching] and [Document.Matching] to convert between documents
// and market.Matching values, and [ReadFile]/[WriteFile] for files.
package marketdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/score"
)

// =============================================================================
// Types
// =============================================================================

// Document is the serialized form of a market.
type Document struct {
	Houses      []House      `json:"houses" bson:"houses"`
	Households  []Household  `json:"households" bson:"households"`
	Connections []Connection `json:"connections,omitempty" bson:"connections,omitempty"`
	Scores      []Score      `json:"scores,omitempty" bson:"scores,omitempty"`
}

// House is a serialized market.House.
type House struct {
	ID           int    `json:"id" bson:"id"`
	Municipality string `json:"municipality,omitempty" bson:"municipality,omitempty"`
	Label        string `json:"label,omitempty" bson:"label,omitempty"`
	Rent         int    `json:"rent,omitempty" bson:"rent,omitempty"`
	Rooms        int    `json:"rooms,omitempty" bson:"rooms,omitempty"`
	Accessible   bool   `json:"accessible,omitempty" bson:"accessible,omitempty"`
}

// Household is a serialized market.Household.
type Household struct {
	ID           int    `json:"id" bson:"id"`
	Municipality string `json:"municipality,omitempty" bson:"municipality,omitempty"`
	PostalCode   string `json:"postal_code,omitempty" bson:"postal_code,omitempty"`
	Label        string `json:"label,omitempty" bson:"label,omitempty"`
	Income       int    `json:"income,omitempty" bson:"income,omitempty"`
	Age          int    `json:"age,omitempty" bson:"age,omitempty"`
	Type         string `json:"type,omitempty" bson:"type,omitempty"`
	Members      int    `json:"members,omitempty" bson:"members,omitempty"`
	Priority     bool   `json:"priority,omitempty" bson:"priority,omitempty"`
}

// Connection is an assignment of a house to a household.
type Connection struct {
	House     int `json:"house" bson:"house"`
	Household int `json:"household" bson:"household"`
}

// Score is an explicit score table entry. Ineligible entries ignore Score.
type Score struct {
	House      int     `json:"house" bson:"house"`
	Household  int     `json:"household" bson:"household"`
	Score      float64 `json:"score" bson:"score"`
	Ineligible bool    `json:"ineligible,omitempty" bson:"ineligible,omitempty"`
}

// =============================================================================
// Conversion
// =============================================================================

// FromMatching serializes m. Vertices keep their insertion order and
// connections are ordered by house.
func FromMatching(m *market.Matching) Document {
	var d Document
	for _, h := range m.Houses() {
		d.Houses = append(d.Houses, House{
			ID:           h.ID,
			Municipality: h.Municipality,
			Label:        h.Label,
			Rent:         h.Rent,
			Rooms:        h.Rooms,
			Accessible:   h.Accessible,
		})
	}
	for _, w := range m.Households() {
		d.Households = append(d.Households, Household{
			ID:           w.ID,
			Municipality: w.Municipality,
			PostalCode:   w.PostalCode,
			Label:        w.Label,
			Income:       w.Income,
			Age:          w.Age,
			Type:         w.Type.String(),
			Members:      w.Members,
			Priority:     w.Priority,
		})
	}
	for _, p := range m.Pairs() {
		d.Connections = append(d.Connections, Connection{House: p.HouseID, Household: p.HouseholdID})
	}
	return d
}

// Matching builds a market.Matching from d. IDs are reserved so that
// market.NewID never hands them out again.
func (d Document) Matching() (*market.Matching, error) {
	m := market.New()
	for _, h := range d.Houses {
		if err := m.AddHouse(market.House{
			ID:           h.ID,
			Municipality: h.Municipality,
			Label:        h.Label,
			Rent:         h.Rent,
			Rooms:        h.Rooms,
			Accessible:   h.Accessible,
		}); err != nil {
			return nil, fmt.Errorf("house %d: %w", h.ID, err)
		}
		market.ReserveID(h.ID)
	}
	for _, w := range d.Households {
		typ := market.HouseholdOther
		if w.Type != "" {
			parsed, err := market.ParseHouseholdType(w.Type)
			if err != nil {
				return nil, fmt.Errorf("household %d: %w", w.ID, err)
			}
			typ = parsed
		}
		if err := m.AddHousehold(market.Household{
			ID:           w.ID,
			Municipality: w.Municipality,
			PostalCode:   w.PostalCode,
			Label:        w.Label,
			Income:       w.Income,
			Age:          w.Age,
			Type:         typ,
			Members:      w.Members,
			Priority:     w.Priority,
		}); err != nil {
			return nil, fmt.Errorf("household %d: %w", w.ID, err)
		}
		market.ReserveID(w.ID)
	}
	for _, c := range d.Connections {
		if err := m.Connect(c.House, c.Household); err != nil {
			return nil, fmt.Errorf("connection %d-%d: %w", c.House, c.Household, err)
		}
	}
	return m, nil
}

// Scorer returns a table scorer when d carries explicit scores and fallback
// otherwise.
func (d Document) Scorer(fallback score.Scorer) score.Scorer {
	if len(d.Scores) == 0 {
		return fallback
	}
	t := score.NewTable()
	for _, s := range d.Scores {
		if s.Ineligible {
			t.SetIneligible(s.House, s.Household)
			continue
		}
		t.Set(s.House, s.Household, s.Score)
	}
	return t
}

// =============================================================================
// Encoding
// =============================================================================

// Marshal encodes d as indented JSON.
func Marshal(d Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a JSON document.
func Unmarshal(data []byte) (Document, error) {
	return Read(bytes.NewReader(data))
}

// Write encodes d as indented JSON to w.
func Write(d Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a JSON document from r.
func Read(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, fmt.Errorf("decode: %w", err)
	}
	return d, nil
}

// WriteFile writes d to path.
func WriteFile(d Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(d, f)
}

// ReadFile reads a document from path.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
