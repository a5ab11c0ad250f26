package tree

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xavl/lib/infra"
)

// avl tree rule validation utilities.

// Height counts the levels of the longest root-to-leaf path by a full
// traversal. It doesn't trust the stored balance factors.
func Height[K infra.OrderedKey, V any](tree AVLTree[K, V]) int {
	return heightOf[K, V](tree.Root())
}

func heightOf[K infra.OrderedKey, V any](node AVLNode[K, V]) int {
	if node == nil {
		return 0
	}
	return 1 + max(heightOf[K, V](node.Left()), heightOf[K, V](node.Right()))
}

// AVLViolationValidate checks by postorder traversal that every stored
// balance equals the real height differential and stays in [-1, 1].
func AVLViolationValidate[K infra.OrderedKey, V any](tree AVLTree[K, V]) error {
	_, err := avlViolationValidate[K, V](tree.Root())
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "avltree balance violation")
	}
	return nil
}

func avlViolationValidate[K infra.OrderedKey, V any](node AVLNode[K, V]) (int, error) {
	if node == nil {
		return 0, nil
	}
	lh, lerr := avlViolationValidate[K, V](node.Left())
	rh, rerr := avlViolationValidate[K, V](node.Right())
	merr := multierr.Combine(lerr, rerr)

	if diff := rh - lh; diff != int(node.Balance()) {
		merr = multierr.Append(merr, fmt.Errorf("key %v stored balance %d, real %d", node.Key(), node.Balance(), diff))
	}
	if b := node.Balance(); b < -1 || b > 1 {
		merr = multierr.Append(merr, fmt.Errorf("key %v balance %d out of range", node.Key(), b))
	}
	return 1 + max(lh, rh), merr
}

// ParentLinkValidate checks that every child points back to its parent
// and the root has no parent.
func ParentLinkValidate[K infra.OrderedKey, V any](tree AVLTree[K, V]) error {
	root := tree.Root()
	if root == nil {
		return nil
	}
	var merr error
	if root.Parent() != nil {
		merr = multierr.Append(merr, fmt.Errorf("root key %v has parent", root.Key()))
	}

	stack := []AVLNode[K, V]{root}
	defer func() {
		clear(stack)
	}()
	for len(stack) > 0 {
		aux := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range []AVLNode[K, V]{aux.Left(), aux.Right()} {
			if child == nil {
				continue
			}
			if child.Parent() != aux {
				merr = multierr.Append(merr, fmt.Errorf("key %v parent link broken", child.Key()))
			}
			stack = append(stack, child)
		}
	}
	if merr != nil {
		return infra.WrapErrorStackWithMessage(merr, "avltree parent link violation")
	}
	return nil
}

// OrderViolationValidate checks that the inorder keys are strictly ordered
// by the tree's own comparator, so a reversed ascending tree is rejected.
// Trees of other implementations are only checked to be strictly monotonic.
func OrderViolationValidate[K infra.OrderedKey, V any](tree AVLTree[K, V]) error {
	var keyCompare infra.OrderedKeyComparator[K]
	if t, ok := tree.(*avlTree[K, V]); ok && t.keyCompare != nil {
		keyCompare = t.keyCompare
	}

	var (
		prev       K
		asc, desc  = true, true
		violated   bool
		violateKey K
	)
	tree.Foreach(func(idx int64, key K, val V) bool {
		if idx > 0 {
			if keyCompare != nil {
				violated = keyCompare(prev, key) >= 0
			} else {
				asc = asc && prev < key
				desc = desc && prev > key
				violated = !asc && !desc
			}
			if violated {
				violateKey = key
				return false
			}
		}
		prev = key
		return true
	})
	if violated {
		return infra.NewErrorStack(fmt.Sprintf("avltree order violation at key %v", violateKey))
	}
	return nil
}
