// Package tree provides a small generic n-ary tree used to enumerate search
// spaces.
//
// Every root-to-leaf path of a [Node] describes one candidate. The root datum is
// a placeholder and is never part of a path, so a tree whose root has no
// children yields exactly one empty path.
//
//	root := tree.New(-1)
//	a := root.AddChild(1)
//	a.AddChild(2)
//	root.AddChild(3)
//
//	root.Walk(func(path []int) error {
//	    fmt.Println(path) // [1 2], then [3]
//	    return nil
//	})
package tree

// Node is a tree node carrying a datum of type T.
//
// Node is not safe for concurrent mutation. A fully built tree may be walked
// from several goroutines at once.
type Node[T any] struct {
	Data     T
	children []*Node[T]
}

// New creates a root node.
func New[T any](data T) *Node[T] {
	return &Node[T]{Data: data}
}

// AddChild appends a child holding data and returns it.
func (n *Node[T]) AddChild(data T) *Node[T] {
	child := &Node[T]{Data: data}
	n.children = append(n.children, child)
	return child
}

// Children returns the children in insertion order. The slice must not be
// modified.
func (n *Node[T]) Children() []*Node[T] { return n.children }

// HasChildren reports whether n is an inner node.
func (n *Node[T]) HasChildren() bool { return len(n.children) > 0 }

// Walk calls fn for every root-to-leaf path in depth-first, insertion order.
// The root datum is excluded from the path. The path slice is reused between
// calls; fn must copy it to retain it. A non-nil error from fn stops the walk
// and is returned.
func (n *Node[T]) Walk(fn func(path []T) error) error {
	path := make([]T, 0, 8)
	var visit func(*Node[T]) error
	visit = func(cur *Node[T]) error {
		if !cur.HasChildren() {
			return fn(path)
		}
		for _, c := range cur.children {
			path = append(path, c.Data)
			if err := visit(c); err != nil {
				return err
			}
			path = path[:len(path)-1]
		}
		return nil
	}
	return visit(n)
}

// Leaves returns the number of leaves below n, counting n itself when it has
// no children.
func (n *Node[T]) Leaves() int {
	if !n.HasChildren() {
		return 1
	}
	total := 0
	for _, c := range n.children {
		total += c.Leaves()
	}
	return total
}

// Size returns the number of nodes in the subtree rooted at n, n included.
func (n *Node[T]) Size() int {
	total := 1
	for _, c := range n.children {
		total += c.Size()
	}
	return total
}
