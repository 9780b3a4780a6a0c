package tree

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Node[int] {
	root := New(-1)
	a := root.AddChild(1)
	a.AddChild(2)
	a.AddChild(4)
	root.AddChild(3)
	return root
}

func TestWalkPaths(t *testing.T) {
	var got [][]int
	err := sample().Walk(func(path []int) error {
		got = append(got, slices.Clone(path))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {1, 4}, {3}}, got)
}

func TestWalkEmptyRoot(t *testing.T) {
	calls := 0
	err := New("root").Walk(func(path []string) error {
		calls++
		assert.Empty(t, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWalkStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := sample().Walk(func([]int) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestCounts(t *testing.T) {
	root := sample()
	assert.Equal(t, 3, root.Leaves())
	assert.Equal(t, 5, root.Size())
	assert.True(t, root.HasChildren())
	assert.Len(t, root.Children(), 2)
	assert.Equal(t, 1, New(0).Leaves())
}
