package tree

import (
	"go.uber.org/zap"

	"github.com/benz9527/xavl/lib/infra"
	"github.com/benz9527/xavl/lib/xlog"
)

var _ AVLTree[int, struct{}] = (*avlTree[int, struct{}])(nil)

type avlTree[K infra.OrderedKey, V any] struct {
	bst[K, V]
	isDesc    bool
	statsName string
	stats     *avlTreeStats
	logger    xlog.XLogger
}

// References:
// https://en.wikipedia.org/wiki/AVL_tree
// AVL tree properties:
// p1. balance(X) = height(X.right) - height(X.left), an empty subtree
//   contributes nothing to the height differential.
// p2. Every node's balance is in [-1, 1]. (height-violation)
// p3. The stored balance equals the real height differential.
// So the height of a tree with n nodes is at most ~1.44 * log2(n+2).

/*
		 |                         |
		 X                         S
		/ \     rotateLeft(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc

X' = X - 1 - max(0, S)
S' = S - 1 + min(0, X')
*/
func (tree *avlTree[K, V]) rotateLeft(x *avlNode[K, V]) {
	if x == nil || x.right == nil {
		// impossible run to here
		panic( /* debug assertion */ "[avltree] left rotate node x is nil or x.right is nil")
	}

	p, y := x.parent, x.right
	dir := x.Direction()
	x.right, y.left = y.left, x

	x.fixLink()
	y.fixLink()
	tree.relink(p, dir, y)
	y.parent = p

	x.balance = x.balance - 1 - max(0, y.balance)
	y.balance = y.balance - 1 + min(0, x.balance)

	tree.stats.IncreaseRotationCount(Left)
	if tree.logger != nil {
		tree.logger.Debug("[avltree] left rotate",
			zap.Any("key", x.key),
			zap.Int8("balance", x.balance),
			zap.Any("promoted", y.key),
			zap.Int8("promotedBalance", y.balance),
		)
	}
}

/*
		 |                         |
		 X                         L
		/ \     rotateRight(X)    / \
	   L   R    ============>    Ld  X
	  / \                           / \
	Ld   Lc                       Lc   R

X' = X + 1 - min(0, L)
L' = L + 1 + max(0, X')
*/
func (tree *avlTree[K, V]) rotateRight(x *avlNode[K, V]) {
	if x == nil || x.left == nil {
		// impossible run to here
		panic( /* debug assertion */ "[avltree] right rotate node x is nil or x.left is nil")
	}

	p, y := x.parent, x.left
	dir := x.Direction()
	x.left, y.right = y.right, x

	x.fixLink()
	y.fixLink()
	tree.relink(p, dir, y)
	y.parent = p

	x.balance = x.balance + 1 - min(0, y.balance)
	y.balance = y.balance + 1 + max(0, x.balance)

	tree.stats.IncreaseRotationCount(Right)
	if tree.logger != nil {
		tree.logger.Debug("[avltree] right rotate",
			zap.Any("key", x.key),
			zap.Int8("balance", x.balance),
			zap.Any("promoted", y.key),
			zap.Int8("promotedBalance", y.balance),
		)
	}
}

// The balance is a property of the tree position, so it moves together
// with the position instead of the node identity.
func (tree *avlTree[K, V]) nodeSwap(n1, n2 *avlNode[K, V]) {
	tree.bst.nodeSwap(n1, n2)
	n1.balance, n2.balance = n2.balance, n1.balance
}

// i1: Empty tree, the new node becomes the root.
// i2: The key exists, overwrite the value without touching the shape.
// i3: The parent was heavy, the new node fills the lighter side.
// The subtree height is unchanged.
// i4: The parent was balanced, it becomes heavy to the new node side.
// The subtree grows by one level, propagate upward.
func (tree *avlTree[K, V]) Insert(key K, val V, ifNotPresent ...bool) error {
	if /* i1 */ tree.root == nil {
		tree.root = &avlNode[K, V]{
			key: key,
			val: val,
		}
		tree.count++
		tree.stats.RecordNodeCount(1)
		tree.stats.IncreaseInsertCount()
		return nil
	}

	var x, y *avlNode[K, V] = tree.root, nil
	for x != nil {
		y = x
		res := tree.keyCompare(key, x.key)
		if /* i2 */ res == 0 {
			if /* disabled */ len(ifNotPresent) > 0 && ifNotPresent[0] {
				return infra.WrapErrorStack(ErrReplaceDisabled)
			}
			x.val = val
			return nil
		} else /* less */ if res < 0 {
			x = x.left
		} else /* greater */ {
			x = x.right
		}
	}

	z := &avlNode[K, V]{
		key:    key,
		val:    val,
		parent: y,
	}
	if tree.keyCompare(key, y.key) < 0 {
		y.left = z
	} else {
		y.right = z
	}
	tree.count++
	tree.stats.RecordNodeCount(1)
	tree.stats.IncreaseInsertCount()

	if /* i3 */ y.balance != 0 {
		y.balance = 0
		return nil
	}
	/* i4 */
	y.balance = int8(z.Direction())
	tree.insRecursive(y, z)
	return nil
}

/*
<X> is the grown subtree root, G is the grandpa.

im1: G was heavy to the other side, now balanced. Stop.

im2: G was balanced, now heavy to p side. G grows, recursive to G.

im3: G is heavy by 2 and x is the same direction as p (left-left).

	      G(-2)              P(0)
	      /     rotateRight   / \
	    P(-1)   =========>  X   G(0)
	    /
	  X

im4: G is heavy by 2 and x is the opposite direction to p (left-right).

	     G(-2)                  G               X(0)
	     /      rotateLeft(P)   /  rotateRight   / \
	   P(+1)    ==========>   X    =========>  P   G
	     \                   /
	      X                P

The balances of P and G depend on the X's balance before rotations.
The right heavy cases are the mirror.
*/
func (tree *avlTree[K, V]) insRecursive(p, x *avlNode[K, V]) {
	if p == nil || p.parent == nil {
		return
	}
	g := p.parent

	g.balance += int8(p.Direction())
	switch g.balance {
	case /* im1 */ 0:
		return
	case /* im2 */ -1, 1:
		tree.insRecursive(g, p)
	case -2:
		if /* im3 */ x == p.left {
			tree.rotateRight(g)
			p.balance, g.balance = 0, 0
			return
		}
		/* im4 */
		b := x.balance
		tree.rotateLeft(p)
		tree.rotateRight(g)
		switch b {
		case -1:
			p.balance, g.balance = 0, 1
		case 0:
			p.balance, g.balance = 0, 0
		case 1:
			p.balance, g.balance = -1, 0
		default:
			// impossible run to here
			panic( /* debug assertion */ "[avltree] insert violate (im4), unknown balance")
		}
		x.balance = 0
	case 2:
		if /* im3 */ x == p.right {
			tree.rotateLeft(g)
			p.balance, g.balance = 0, 0
			return
		}
		/* im4 */
		b := x.balance
		tree.rotateRight(p)
		tree.rotateLeft(g)
		switch b {
		case 1:
			p.balance, g.balance = 0, -1
		case 0:
			p.balance, g.balance = 0, 0
		case -1:
			p.balance, g.balance = 1, 0
		default:
			// impossible run to here
			panic( /* debug assertion */ "[avltree] insert violate (im4), unknown balance")
		}
		x.balance = 0
	default:
		// impossible run to here
		panic( /* debug assertion */ "[avltree] insert violate, unknown grandpa balance")
	}
}

/*
r1: The key is absent, nothing to do.

r2: Current node Z has left and right node.
Swap Z's tree position with its pred L, the key & value stay with
the node identity. Then Z has at most one (left) child.

	  |                    |
	  Z                    L
	 / \                  / \
	..  R   swap(Z, L)  ..   R
	 \      =========>   \
	  L                   Z
	 /                   /
	Lc                  Lc

r3: Splice the only child (or nil) of Z into Z's slot and unlink Z.
The subtree of Z's parent lost one level on Z's side.
*/
func (tree *avlTree[K, V]) Remove(key K) (AVLNode[K, V], bool) {
	z := tree.internalFind(key)
	if /* r1 */ z == nil {
		return nil, false
	}

	res := &avlNode[K, V]{
		key: z.key,
		val: z.val,
	}

	if /* r2 */ z.left != nil && z.right != nil {
		pred := tree.predecessor(z)
		if tree.logger != nil {
			tree.logger.Debug("[avltree] remove swap with pred",
				zap.Any("key", z.key),
				zap.Any("pred", pred.key),
			)
		}
		tree.nodeSwap(z, pred)
	}

	/* r3 */
	p, child := z.parent, z.left
	if child == nil {
		child = z.right
	}
	dir := z.Direction()
	tree.relink(p, dir, child)
	if child != nil {
		child.parent = p
	}
	z.parent, z.left, z.right = nil, nil, nil
	tree.count--
	tree.stats.RecordNodeCount(-1)
	tree.stats.IncreaseRemoveCount()

	if p != nil {
		tree.remRecursive(p, -int8(dir))
	}
	return res, true
}

/*
diff is +1 if the X's left subtree lost one level, -1 for the right one.

rm1: X becomes heavy by 1. The subtree height is unchanged. Stop.

rm2: X becomes balanced. The subtree lost one level, recursive to parent.

rm3: X becomes heavy by 2 (left heavy here, C is the left child).
(1) C is heavy to the same side. Rotate X right, both balanced.
The subtree lost one level, recursive to parent.

	      X(-2)              C(0)
	      /     rotateRight   / \
	    C(-1)   =========>  Cl   X(0)
	    /
	  Cl

(2) C is balanced. Rotate X right, X stays left heavy and C becomes
right heavy. The subtree height is unchanged. Stop.

	      X(-2)              C(+1)
	      /     rotateRight   / \
	    C(0)    =========>  Cl   X(-1)
	    / \                      /
	  Cl   Cr                  Cr

(3) C is heavy to the opposite side. Rotate C left then X right,
the balances depend on the grandchild G's balance before rotations.
The subtree lost one level, recursive to parent.

	      X(-2)                  G(0)
	      /     rotateLeft(C)    / \
	    C(+1)   rotateRight(X)  C   X
	      \     ============>
	       G

The right heavy cases are the mirror.
*/
func (tree *avlTree[K, V]) remRecursive(x *avlNode[K, V], diff int8) {
	if x == nil {
		return
	}

	p := x.parent
	var pdiff int8
	if p != nil {
		pdiff = -int8(x.Direction())
	}

	switch nb := x.balance + diff; nb {
	case /* rm1 */ -1, 1:
		x.balance = nb
	case /* rm2 */ 0:
		x.balance = 0
		tree.remRecursive(p, pdiff)
	case /* rm3 */ -2:
		x.balance = nb
		c := x.left
		switch c.balance {
		case /* rm3 (1) */ -1:
			tree.rotateRight(x)
			x.balance, c.balance = 0, 0
			tree.remRecursive(p, pdiff)
		case /* rm3 (2) */ 0:
			tree.rotateRight(x)
			x.balance, c.balance = -1, 1
		case /* rm3 (3) */ 1:
			g := c.right
			gb := g.balance
			tree.rotateLeft(c)
			tree.rotateRight(x)
			switch gb {
			case 1:
				x.balance, c.balance = 0, -1
			case 0:
				x.balance, c.balance = 0, 0
			case -1:
				x.balance, c.balance = 1, 0
			default:
				// impossible run to here
				panic( /* debug assertion */ "[avltree] remove violate (rm3-3), unknown balance")
			}
			g.balance = 0
			tree.remRecursive(p, pdiff)
		default:
			// impossible run to here
			panic( /* debug assertion */ "[avltree] remove violate (rm3), unknown child balance")
		}
	case /* rm3 */ 2:
		x.balance = nb
		c := x.right
		switch c.balance {
		case /* rm3 (1) */ 1:
			tree.rotateLeft(x)
			x.balance, c.balance = 0, 0
			tree.remRecursive(p, pdiff)
		case /* rm3 (2) */ 0:
			tree.rotateLeft(x)
			x.balance, c.balance = 1, -1
		case /* rm3 (3) */ -1:
			g := c.left
			gb := g.balance
			tree.rotateRight(c)
			tree.rotateLeft(x)
			switch gb {
			case -1:
				x.balance, c.balance = 0, 1
			case 0:
				x.balance, c.balance = 0, 0
			case 1:
				x.balance, c.balance = -1, 0
			default:
				// impossible run to here
				panic( /* debug assertion */ "[avltree] remove violate (rm3-3), unknown balance")
			}
			g.balance = 0
			tree.remRecursive(p, pdiff)
		default:
			// impossible run to here
			panic( /* debug assertion */ "[avltree] remove violate (rm3), unknown child balance")
		}
	default:
		// impossible run to here
		panic( /* debug assertion */ "[avltree] remove violate, unknown balance")
	}
}

func (tree *avlTree[K, V]) Release() {
	count := tree.count
	tree.bst.Release()
	tree.stats.RecordNodeCount(-count)
}

type AVLTreeOpt[K infra.OrderedKey, V any] func(*avlTree[K, V])

func WithAVLTreeDesc[K infra.OrderedKey, V any]() AVLTreeOpt[K, V] {
	return func(tree *avlTree[K, V]) {
		tree.isDesc = true
	}
}

// WithAVLTreeStats records the tree metrics by the global otel meter provider.
func WithAVLTreeStats[K infra.OrderedKey, V any](name string) AVLTreeOpt[K, V] {
	return func(tree *avlTree[K, V]) {
		tree.statsName = name
		if len(tree.statsName) == 0 {
			tree.statsName = "default"
		}
	}
}

// WithAVLTreeLogger traces the rotations at debug level.
func WithAVLTreeLogger[K infra.OrderedKey, V any](logger xlog.XLogger) AVLTreeOpt[K, V] {
	return func(tree *avlTree[K, V]) {
		tree.logger = logger
	}
}

func NewAVLTree[K infra.OrderedKey, V any](opts ...AVLTreeOpt[K, V]) AVLTree[K, V] {
	tree := &avlTree[K, V]{
		isDesc: false,
	}

	for _, o := range opts {
		o(tree)
	}

	tree.keyCompare = infra.AscKeyCompare[K]
	if tree.isDesc {
		tree.keyCompare = infra.DescKeyCompare[K]
	}
	if len(tree.statsName) > 0 {
		tree.stats = newAVLTreeStats(tree.statsName)
	}
	return tree
}
