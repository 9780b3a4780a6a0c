package assign

import (
	"container/heap"
	"math"
)

// epsilon absorbs floating-point drift in reduced costs.
const epsilon = 1e-9

type arc struct {
	to   int
	cost float64 // reduced cost
}

// residualGraph is the residual network of the current partial assignment.
//
// Vertex layout for n households and n houses: households 0..n-1, houses
// n..2n-1, source 2n, sink 2n+1. Arcs run source -> unmatched household,
// household -> house for non-matching pairs, house -> household for matching
// pairs and unmatched house -> sink.
type residualGraph struct {
	n   int
	adj [][]arc
}

func (s *state) residual() *residualGraph {
	n := s.n
	r := &residualGraph{n: n, adj: make([][]arc, 2*n+2)}
	src, sink := 2*n, 2*n+1
	for w := range n {
		if s.houseOf[w] < 0 {
			r.add(src, w, s.reduced(src, w, 0))
		}
		for h := range n {
			if s.houseOf[w] == h {
				continue
			}
			r.add(w, n+h, s.reduced(w, n+h, -s.g.Weights[w][h]))
		}
	}
	for h := range n {
		if w := s.householdOf[h]; w >= 0 {
			r.add(n+h, w, s.reduced(n+h, w, s.g.Weights[w][h]))
		} else {
			r.add(n+h, sink, s.reduced(n+h, sink, 0))
		}
	}
	return r
}

func (r *residualGraph) add(from, to int, cost float64) {
	r.adj[from] = append(r.adj[from], arc{to: to, cost: cost})
}

func (r *residualGraph) source() int { return 2 * r.n }
func (r *residualGraph) sink() int   { return 2*r.n + 1 }

// shortestPath runs Dijkstra from the source and stops once the sink is
// settled. It returns the distance labels and predecessors; the sink is
// unreachable when its distance is +Inf. Equal distances are settled in
// vertex index order.
func (r *residualGraph) shortestPath() (dist []float64, prev []int) {
	size := len(r.adj)
	dist = make([]float64, size)
	prev = make([]int, size)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	done := make([]bool, size)

	src := r.source()
	dist[src] = 0
	pq := &queue{{v: src, d: 0}}
	for pq.Len() > 0 {
		it := heap.Pop(pq).(item)
		if done[it.v] || it.d > dist[it.v] {
			continue
		}
		done[it.v] = true
		if it.v == r.sink() {
			break
		}
		for _, a := range r.adj[it.v] {
			nd := dist[it.v] + a.cost
			if nd < dist[a.to] || (nd == dist[a.to] && !done[a.to] && prev[a.to] > it.v) {
				dist[a.to] = nd
				prev[a.to] = it.v
				heap.Push(pq, item{v: a.to, d: nd})
			}
		}
	}
	return dist, prev
}

type item struct {
	v int
	d float64
}

// queue is a binary min-heap of items ordered by distance, then vertex.
type queue []item

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].d != q[j].d {
		return q[i].d < q[j].d
	}
	return q[i].v < q[j].v
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(item)) }
func (q *queue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}
