package rewire

import (
	"context"
	"math"

	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/tree"
)

// Root is the datum stored in the root of an enumeration tree.
var Root = market.Pair{HouseID: -1, HouseholdID: -1}

// Enumerate builds the tree of all injective assignments of sources to
// targets. Level i of the tree pairs sources[i] with every target not yet
// used on the path, so the tree has exactly SearchSpace(len(sources),
// len(targets)) leaves when len(sources) <= len(targets).
//
// sourceSide tells which side the source IDs belong to; the node data are
// always (house, household) pairs. ctx is checked while the tree grows.
func Enumerate(ctx context.Context, sources, targets []int, sourceSide market.Side) (*tree.Node[market.Pair], error) {
	root := tree.New(Root)
	used := make([]bool, len(targets))
	nodes := 0
	var grow func(n *tree.Node[market.Pair], level int) error
	grow = func(n *tree.Node[market.Pair], level int) error {
		if level == len(sources) {
			return nil
		}
		for j, t := range targets {
			if used[j] {
				continue
			}
			nodes++
			if nodes%checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			used[j] = true
			child := n.AddChild(pairOf(sources[level], t, sourceSide))
			if err := grow(child, level+1); err != nil {
				return err
			}
			used[j] = false
		}
		return nil
	}
	if err := grow(root, 0); err != nil {
		return nil, err
	}
	return root, nil
}

func pairOf(source, target int, sourceSide market.Side) market.Pair {
	if sourceSide == market.SideHouse {
		return market.Pair{HouseID: source, HouseholdID: target}
	}
	return market.Pair{HouseID: target, HouseholdID: source}
}

// SearchSpace returns P(m, l) = m!/(m-l)!, the number of complete injective
// assignments of l sources to m targets. It saturates at math.MaxInt and
// returns 0 when l > m.
func SearchSpace(l, m int) int {
	if l < 0 || m < 0 || l > m {
		return 0
	}
	result := 1
	for i := 0; i < l; i++ {
		f := m - i
		if result > math.MaxInt/f {
			return math.MaxInt
		}
		result *= f
	}
	return result
}
