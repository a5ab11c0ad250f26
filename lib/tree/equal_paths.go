package tree

// BinaryNode is a plain binary tree node without any balance metadata.
type BinaryNode[T any] struct {
	Val   T
	Left  *BinaryNode[T]
	Right *BinaryNode[T]
}

type leafDepth struct {
	depth int
	seen  bool
}

// EqualPaths reports whether all the leaves are at the same depth.
// The first leaf found by the preorder traversal is the reference.
// An empty tree is trivially equal.
func EqualPaths[T any](root *BinaryNode[T]) bool {
	ref := leafDepth{}
	return equalPaths[T](root, 0, &ref)
}

func equalPaths[T any](node *BinaryNode[T], depth int, ref *leafDepth) bool {
	if node == nil {
		return true
	}
	if node.Left == nil && node.Right == nil {
		if !ref.seen {
			ref.depth, ref.seen = depth, true
		}
		return depth == ref.depth
	}
	return equalPaths[T](node.Left, depth+1, ref) && equalPaths[T](node.Right, depth+1, ref)
}
