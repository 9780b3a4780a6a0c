// Package store records optimization runs.
//
// A [Run] captures what was optimized, by which engine, and the resulting
// report. Backends implement [Store]:
//   - [MongoStore]: MongoDB collection, used by `homematch serve` and the CLI
//     when [store] backend = "mongo"
//   - [MemoryStore]: process-local history, used by tests and the API default
//   - [NullStore]: discards runs
package store

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/homematch/pkg/exchange"
	"github.com/matzehuels/homematch/pkg/score"
)

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 20

// ErrNotFound is returned by Get for unknown run IDs.
var ErrNotFound = errors.New("run not found")

// Run is one recorded optimization.
type Run struct {
	ID         string          `json:"id" bson:"_id"`
	Engine     string          `json:"engine" bson:"engine"`
	Policy     string          `json:"policy" bson:"policy"`
	MarketHash string          `json:"market_hash" bson:"market_hash"`
	Houses     int             `json:"houses" bson:"houses"`
	Households int             `json:"households" bson:"households"`
	Report     score.Report    `json:"report" bson:"report"`
	Exchange   *exchange.Stats `json:"exchange,omitempty" bson:"exchange,omitempty"`
	CacheHit   bool            `json:"cache_hit,omitempty" bson:"cache_hit,omitempty"`
	Duration   time.Duration   `json:"duration" bson:"duration"`
	CreatedAt  time.Time       `json:"created_at" bson:"created_at"`
}

// Store persists runs.
type Store interface {
	// Save records a run. Saving an existing ID is an error.
	Save(ctx context.Context, run Run) error

	// Get returns the run with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (Run, error)

	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]Run, error)

	// Close releases the backend.
	Close() error
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
