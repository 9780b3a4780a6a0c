// Package pipeline provides the load → optimize → cache → record pipeline
// shared by the CLI and the HTTP API.
//
// By centralizing this logic, both entry points select engines, key the
// result cache, report to observability hooks and record runs the same way.
//
// # Engines
//
//   - exhaustive: [rewire.Optimizer], provably optimal over the free vertices
//   - assign: [assign.Improve], maximum-weight assignment of the free vertices
//   - exchange: [exchange.Engine], strict exchange rings among matched households
//   - auto: exhaustive when its search space fits MaxLeaves, assign otherwise
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, store, logger)
//	res, err := runner.Optimize(ctx, doc, pipeline.Options{Engine: "auto"})
//	if err != nil {
//	    return pipeline.Classify(err)
//	}
//	fmt.Println(res.Report.Improvement)
package pipeline

import (
	"io"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/homematch/pkg/cache"
	"github.com/matzehuels/homematch/pkg/errors"
	"github.com/matzehuels/homematch/pkg/exchange"
	"github.com/matzehuels/homematch/pkg/marketdoc"
	"github.com/matzehuels/homematch/pkg/rewire"
	"github.com/matzehuels/homematch/pkg/score"
)

// =============================================================================
// Engines
// =============================================================================

// Engine names.
const (
	EngineAuto       = "auto"
	EngineExhaustive = "exhaustive"
	EngineAssign     = "assign"
	EngineExchange   = "exchange"
)

// Engines lists the accepted engine names.
var Engines = []string{EngineAuto, EngineExhaustive, EngineAssign, EngineExchange}

// ParseEngine normalizes an engine name. The empty string selects auto.
func ParseEngine(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return EngineAuto, nil
	}
	if !slices.Contains(Engines, name) {
		return "", errors.New(errors.ErrCodeInvalidEngine, "unknown engine %q (want %s)", name, strings.Join(Engines, ", "))
	}
	return name, nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one optimization. It supports JSON for API requests.
type Options struct {
	Engine    string `json:"engine,omitempty"`
	Workers   int    `json:"workers,omitempty"`
	MaxLeaves int    `json:"max_leaves,omitempty"`
	Policy    string `json:"ineligible,omitempty"`
	Refresh   bool   `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Timeout  time.Duration         `json:"-"`
	TTL      time.Duration         `json:"-"`
	Scorer   score.Scorer          `json:"-"` // used when the document has no scores
	Logger   *log.Logger           `json:"-"`
	Progress func(done, total int) `json:"-"`

	policy    score.Policy
	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	engine, err := ParseEngine(o.Engine)
	if err != nil {
		return err
	}
	o.Engine = engine

	if err := errors.ValidateWorkers(o.Workers); err != nil {
		return err
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.MaxLeaves == 0 {
		o.MaxLeaves = rewire.DefaultMaxLeaves
	}

	p, err := score.ParsePolicy(o.Policy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid ineligibility policy")
	}
	o.policy = p
	o.Policy = p.String()

	if o.TTL == 0 {
		o.TTL = cache.DefaultTTL
	}
	if o.Scorer == nil {
		o.Scorer = score.NewFit()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of one optimization.
type Result struct {
	// RunID identifies the recorded run.
	RunID string `json:"run_id"`

	// Engine is the engine that ran; auto is resolved.
	Engine string `json:"engine"`

	// MarketHash is the content hash of the input document.
	MarketHash string `json:"market_hash"`

	Report   score.Report       `json:"report"`
	Exchange *exchange.Stats    `json:"exchange,omitempty"`
	Document marketdoc.Document `json:"document"`

	CacheHit bool          `json:"cache_hit"`
	Duration time.Duration `json:"duration"`
}

// cached is the cache entry of a result.
type cached struct {
	Engine   string             `json:"engine"`
	Report   score.Report       `json:"report"`
	Exchange *exchange.Stats    `json:"exchange,omitempty"`
	Document marketdoc.Document `json:"document"`
}
