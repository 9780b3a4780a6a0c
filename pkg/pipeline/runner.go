package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/homematch/pkg/cache"
	"github.com/matzehuels/homematch/pkg/errors"
	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/marketdoc"
	"github.com/matzehuels/homematch/pkg/observability"
	"github.com/matzehuels/homematch/pkg/score"
	"github.com/matzehuels/homematch/pkg/store"
)

// Runner encapsulates pipeline execution with caching and run history.
// Both CLI and API use it to avoid duplicating that logic.
//
// The Runner is stateless except for its backends; multiple goroutines can
// safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer selects the DefaultKeyer, a nil
// cache the NullCache and a nil store the NullStore.
func NewRunner(c cache.Cache, keyer cache.Keyer, st store.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if st == nil {
		st = store.NewNullStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  st,
		Logger: logger,
	}
}

// Optimize improves the matching described by doc.
//
// Results are cached by market content, engine and scoring configuration;
// opts.Refresh bypasses the lookup. Every call, cache hit or not, is
// recorded in the run store. A store failure is logged and does not fail the
// optimization.
func (r *Runner) Optimize(ctx context.Context, doc marketdoc.Document, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	start := time.Now()

	m, err := doc.Matching()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMarket, err, "load market")
	}
	scorer := doc.Scorer(opts.Scorer)

	data, err := marketdoc.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("hash market: %w", err)
	}
	res := &Result{
		RunID:      uuid.NewString(),
		Engine:     resolveEngine(m, opts),
		MarketHash: cache.Hash(data),
	}

	scoring, cacheable := scoringKey(scorer)
	key := r.Keyer.ResultKey(res.MarketHash, cache.ResultKeyOpts{
		Engine:    res.Engine,
		Policy:    opts.Policy,
		MaxLeaves: opts.MaxLeaves,
		Scoring:   scoring,
	})

	if cacheable && !opts.Refresh {
		if hit, ok := r.lookup(ctx, key); ok {
			res.Report, res.Exchange, res.Document = hit.Report, hit.Exchange, hit.Document
			res.CacheHit = true
		}
	}

	if !res.CacheHit {
		if err := r.run(ctx, m, scorer, opts, res); err != nil {
			return nil, err
		}
		res.Document.Scores = doc.Scores
		if cacheable {
			r.remember(ctx, key, res, opts.TTL)
		}
	}
	res.Duration = time.Since(start)

	r.record(ctx, m, opts, res)
	opts.Logger.Info("optimized",
		"engine", res.Engine,
		"improvement", fmt.Sprintf("%.2f%%", res.Report.Improvement),
		"cached", res.CacheHit,
		"duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

// run executes the selected engine and reports to the optimizer hooks.
func (r *Runner) run(ctx context.Context, m *market.Matching, scorer score.Scorer, opts Options, res *Result) error {
	hooks := observability.Optimizer()
	hooks.OnOptimizeStart(ctx, res.Engine, m.HouseCount(), m.HouseholdCount())
	start := time.Now()

	out, err := runEngine(ctx, m, scorer, opts, res)
	hooks.OnOptimizeComplete(ctx, res.Engine, res.Report.Improvement, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s: %w", res.Engine, err)
	}
	res.Document = marketdoc.FromMatching(out)
	return nil
}

func (r *Runner) lookup(ctx context.Context, key string) (cached, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache lookup failed", "err", err)
		return cached{}, false
	}
	if !hit {
		return cached{}, false
	}
	var c cached
	if err := json.Unmarshal(data, &c); err != nil {
		r.Logger.Debug("discarding unreadable cache entry", "key", key, "err", err)
		return cached{}, false
	}
	return c, true
}

func (r *Runner) remember(ctx context.Context, key string, res *Result, ttl time.Duration) {
	data, err := json.Marshal(cached{
		Engine:   res.Engine,
		Report:   res.Report,
		Exchange: res.Exchange,
		Document: res.Document,
	})
	if err != nil {
		r.Logger.Warn("cache encode failed", "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache store failed", "err", err)
	}
}

func (r *Runner) record(ctx context.Context, m *market.Matching, opts Options, res *Result) {
	run := store.Run{
		ID:         res.RunID,
		Engine:     res.Engine,
		Policy:     opts.Policy,
		MarketHash: res.MarketHash,
		Houses:     m.HouseCount(),
		Households: m.HouseholdCount(),
		Report:     res.Report,
		Exchange:   res.Exchange,
		CacheHit:   res.CacheHit,
		Duration:   res.Duration,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.Store.Save(ctx, run); err != nil {
		r.Logger.Warn("run not recorded", "run", res.RunID, "err", err)
	}
}

// Runs lists recorded runs, newest first.
func (r *Runner) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	if err := errors.ValidateRunLimit(limit); err != nil {
		return nil, err
	}
	return r.Store.List(ctx, limit)
}

// Run returns one recorded run.
func (r *Runner) Run(ctx context.Context, id string) (store.Run, error) {
	return r.Store.Get(ctx, id)
}

// Close releases the cache and the store.
func (r *Runner) Close() error {
	cerr := r.Cache.Close()
	if err := r.Store.Close(); err != nil {
		return err
	}
	return cerr
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
