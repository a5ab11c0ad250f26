package tree

import (
	"github.com/benz9527/xavl/lib/infra"
)

// avlNode is the only node type. It always carries the balance factor,
// so the base search tree and the AVL layer share it without casts.
type avlNode[K infra.OrderedKey, V any] struct {
	parent  *avlNode[K, V]
	left    *avlNode[K, V]
	right   *avlNode[K, V]
	key     K
	val     V
	balance int8
}

func (node *avlNode[K, V]) Key() K {
	return node.key
}

func (node *avlNode[K, V]) Val() V {
	return node.val
}

func (node *avlNode[K, V]) Balance() int8 {
	return node.balance
}

func (node *avlNode[K, V]) Left() AVLNode[K, V] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *avlNode[K, V]) Right() AVLNode[K, V] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *avlNode[K, V]) Parent() AVLNode[K, V] {
	if node == nil || node.parent == nil {
		return nil
	}
	return node.parent
}

func (node *avlNode[K, V]) isRoot() bool {
	return node != nil && node.parent == nil
}

func (node *avlNode[K, V]) Direction() Direction {
	if node == nil {
		// impossible run to here
		panic( /* debug assertion */ "[avltree] nil node without direction")
	}

	if node.isRoot() {
		return Root
	}
	if node == node.parent.left {
		return Left
	}
	return Right
}

func (node *avlNode[K, V]) fixLink() {
	if node.left != nil {
		node.left.parent = node
	}
	if node.right != nil {
		node.right.parent = node
	}
}

func (node *avlNode[K, V]) minimum() *avlNode[K, V] {
	aux := node
	for ; aux != nil && aux.left != nil; aux = aux.left {
	}
	return aux
}

func (node *avlNode[K, V]) maximum() *avlNode[K, V] {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

// The pred node of the current node is its previous node in tree order.
func (node *avlNode[K, V]) pred() *avlNode[K, V] {
	x := node
	if x == nil {
		return nil
	}
	if x.left != nil {
		return x.left.maximum()
	}

	aux := x.parent
	// Backtrack to the first ancestor that x is in the right subtree of.
	for aux != nil && x == aux.left {
		x = aux
		aux = aux.parent
	}
	return aux
}

// The succ node of the current node is its next node in tree order.
func (node *avlNode[K, V]) succ() *avlNode[K, V] {
	x := node
	if x == nil {
		return nil
	}
	if x.right != nil {
		return x.right.minimum()
	}

	aux := x.parent
	for aux != nil && x == aux.right {
		x = aux
		aux = aux.parent
	}
	return aux
}

// bst is the plain binary search tree without any rebalancing.
// It owns the root, compares the keys and moves nodes around, the
// AVL layer embeds it and maintains the balance factors.
type bst[K infra.OrderedKey, V any] struct {
	root       *avlNode[K, V]
	count      int64
	keyCompare infra.OrderedKeyComparator[K]
}

func (t *bst[K, V]) Len() int64 {
	return t.count
}

func (t *bst[K, V]) Root() AVLNode[K, V] {
	if t.root == nil {
		return nil
	}
	return t.root
}

func (t *bst[K, V]) internalFind(key K) *avlNode[K, V] {
	for aux := t.root; aux != nil; {
		res := t.keyCompare(key, aux.key)
		if res == 0 {
			return aux
		} else if res > 0 {
			aux = aux.right
		} else {
			aux = aux.left
		}
	}
	return nil
}

func (t *bst[K, V]) predecessor(node *avlNode[K, V]) *avlNode[K, V] {
	return node.pred()
}

func (t *bst[K, V]) successor(node *avlNode[K, V]) *avlNode[K, V] {
	return node.succ()
}

// relink puts node into the slot of parent selected by dir.
// Root direction replaces the tree root.
func (t *bst[K, V]) relink(parent *avlNode[K, V], dir Direction, node *avlNode[K, V]) {
	switch dir {
	case Root:
		t.root = node
	case Left:
		parent.left = node
	case Right:
		parent.right = node
	default:
		// impossible run to here
		panic( /* debug assertion */ "[avltree] unknown node direction to relink")
	}
}

/*
nodeSwap exchanges the tree positions of n1 and n2. The key and value
stay with the node identity, only the parent and children links (and
the root pointer) are exchanged.

Adjacent nodes, n2 is the left child of n1:

	   |                |
	   n1               n2
	  /  \     swap    /  \
	 n2   R  =======> n1   R
	/  \             /  \
   a    b           a    b
*/
func (t *bst[K, V]) nodeSwap(n1, n2 *avlNode[K, V]) {
	if n1 == nil || n2 == nil || n1 == n2 {
		return
	}
	if n1.parent == n2 {
		n1, n2 = n2, n1
	}

	dir1, dir2 := n1.Direction(), n2.Direction()
	p1, l1, r1 := n1.parent, n1.left, n1.right
	p2, l2, r2 := n2.parent, n2.left, n2.right

	if /* adjacent */ p2 == n1 {
		n2.parent = p1
		n1.parent = n2
		n1.left, n1.right = l2, r2
		if dir2 == Left {
			n2.left, n2.right = n1, r1
		} else {
			n2.left, n2.right = l1, n1
		}
		t.relink(p1, dir1, n2)
	} else {
		n1.parent, n1.left, n1.right = p2, l2, r2
		n2.parent, n2.left, n2.right = p1, l1, r1
		t.relink(p1, dir1, n2)
		t.relink(p2, dir2, n1)
	}
	n1.fixLink()
	n2.fixLink()
}

func (t *bst[K, V]) Find(key K) (AVLNode[K, V], bool) {
	if node := t.internalFind(key); node != nil {
		return node, true
	}
	return nil, false
}

func (t *bst[K, V]) Contains(key K) bool {
	return t.internalFind(key) != nil
}

func (t *bst[K, V]) Min() AVLNode[K, V] {
	if node := t.root.minimum(); node != nil {
		return node
	}
	return nil
}

func (t *bst[K, V]) Max() AVLNode[K, V] {
	if node := t.root.maximum(); node != nil {
		return node
	}
	return nil
}

// Height follows the taller child recorded by the balance factors,
// so it costs O(log n) instead of a full traversal.
func (t *bst[K, V]) Height() int {
	h := 0
	for aux := t.root; aux != nil; h++ {
		if aux.balance < 0 {
			aux = aux.left
		} else {
			aux = aux.right
		}
	}
	return h
}

// Inorder traversal to implement the DFS.
func (t *bst[K, V]) Foreach(action func(idx int64, key K, val V) bool) {
	size := t.count
	aux := t.root
	if size <= 0 || aux == nil {
		return
	}

	stack := make([]*avlNode[K, V], 0, size>>1+1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size = int64(len(stack)); size > 0; size = int64(len(stack)) {
		if aux = stack[size-1]; !action(idx, aux.key, aux.val) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = aux.right; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
	}
}

func (t *bst[K, V]) Begin() Iterator[K, V] {
	return &bstIterator[K, V]{node: t.root.minimum()}
}

func (t *bst[K, V]) End() Iterator[K, V] {
	return &bstIterator[K, V]{}
}

// Release unlinks all the nodes, so the iterators and nodes still held
// by the callers don't keep the whole tree alive.
func (t *bst[K, V]) Release() {
	aux := t.root
	t.root = nil
	if aux == nil {
		t.count = 0
		return
	}

	stack := make([]*avlNode[K, V], 0, t.count>>1+1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		r := aux.right
		aux.left, aux.right, aux.parent = nil, nil, nil
		t.count--
		for aux = r; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
	}
}
