package rewire

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/score"
	"github.com/matzehuels/homematch/pkg/tree"
)

// branchResult is the best leaf found below one first-level branch.
type branchResult struct {
	found bool
	score float64
	path  []market.Pair
	err   error
}

// better reports whether r beats the current best. The first complete path
// wins over the cleared baseline when it scores at least as much, so free
// vertices are paired even when pairing adds nothing. Later ties keep the
// incumbent.
func (r branchResult) better(best branchResult, base float64) bool {
	if !r.found {
		return false
	}
	if !best.found {
		return r.score >= base
	}
	return r.score > best.score
}

type search struct {
	ev       score.Evaluator
	policy   score.Policy
	base     float64
	total    int
	progress func(done, total int)

	mu   sync.Mutex
	done int
}

// sequential walks the whole tree on a single clone.
func (s *search) sequential(ctx context.Context, work *market.Matching, root *tree.Node[market.Pair]) (branchResult, error) {
	best := branchResult{}
	for _, child := range root.Children() {
		if err := ctx.Err(); err != nil {
			return branchResult{}, err
		}
		r := s.branch(ctx, work.Clone(), child)
		if r.err != nil {
			return branchResult{}, r.err
		}
		if r.better(best, s.base) {
			best = r
		}
	}
	return best, nil
}

type branchTask struct {
	ctx     context.Context
	s       *search
	work    *market.Matching
	node    *tree.Node[market.Pair]
	idx     int
	results []branchResult
	wg      *sync.WaitGroup
}

// parallel evaluates the first-level branches on an ants pool. Every branch
// gets its own clone and result slot; the slots are merged in branch order.
func (s *search) parallel(ctx context.Context, work *market.Matching, root *tree.Node[market.Pair], workers int) (branchResult, error) {
	children := root.Children()
	pool, err := ants.NewPoolWithFunc(min(workers, len(children)), func(arg any) {
		t := arg.(*branchTask)
		defer t.wg.Done()
		if err := t.ctx.Err(); err != nil {
			t.results[t.idx] = branchResult{err: err}
			return
		}
		t.results[t.idx] = t.s.branch(t.ctx, t.work, t.node)
	})
	if err != nil {
		return branchResult{}, fmt.Errorf("create branch pool: %w", err)
	}
	defer pool.Release()

	results := make([]branchResult, len(children))
	var wg sync.WaitGroup
	for i, child := range children {
		wg.Add(1)
		task := &branchTask{ctx: ctx, s: s, work: work.Clone(), node: child, idx: i, results: results, wg: &wg}
		if err := pool.Invoke(task); err != nil {
			wg.Done()
			results[i] = branchResult{err: fmt.Errorf("submit branch %d: %w", i, err)}
		}
	}
	wg.Wait()

	best := branchResult{}
	for _, r := range results {
		if r.err != nil {
			return branchResult{}, r.err
		}
		if r.better(best, s.base) {
			best = r
		}
	}
	return best, nil
}

// branch evaluates every complete path below child on work, which must be
// owned by the caller.
func (s *search) branch(ctx context.Context, work *market.Matching, child *tree.Node[market.Pair]) branchResult {
	best := branchResult{}
	full := make([]market.Pair, 0, 8)
	seen := 0
	err := child.Walk(func(sub []market.Pair) error {
		seen++
		if seen%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.report(checkEvery)
		}
		full = append(append(full[:0], child.Data), sub...)
		total, ok, err := s.leaf(work, full)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if best.found && total <= best.score {
			return nil
		}
		best = branchResult{found: true, score: total, path: slices.Clone(full)}
		return nil
	})
	s.report(seen % checkEvery)
	if err != nil {
		return branchResult{err: err}
	}
	return best
}

// leaf applies path to work, scores the result and undoes the change. The
// boolean is false when the path was rejected by the ineligibility policy.
func (s *search) leaf(work *market.Matching, path []market.Pair) (float64, bool, error) {
	applied := 0
	defer func() {
		for _, p := range path[:applied] {
			_ = work.Disconnect(p.HouseID, p.HouseholdID)
		}
	}()
	for _, p := range path {
		if err := work.Connect(p.HouseID, p.HouseholdID); err != nil {
			return 0, false, err
		}
		applied++
	}

	total := s.base
	for _, p := range path {
		v, ok, err := s.ev.Pair(work, p.HouseID, p.HouseholdID, s.policy)
		if err != nil {
			return 0, false, fmt.Errorf("score house %d / household %d: %w", p.HouseID, p.HouseholdID, err)
		}
		if !ok {
			return 0, false, nil
		}
		total += v
	}
	return total, true, nil
}

func (s *search) report(n int) {
	if s.progress == nil || n == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done += n
	s.progress(s.done, s.total)
}
