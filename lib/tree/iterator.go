package tree

import (
	"github.com/benz9527/xavl/lib/infra"
)

var _ Iterator[int, struct{}] = (*bstIterator[int, struct{}])(nil)

// bstIterator with a nil node is the end iterator.
type bstIterator[K infra.OrderedKey, V any] struct {
	node *avlNode[K, V]
}

func (it *bstIterator[K, V]) Valid() bool {
	return it.node != nil
}

// Next on the end iterator is a no-op.
func (it *bstIterator[K, V]) Next() {
	if it.node == nil {
		return
	}
	it.node = it.node.succ()
}

func (it *bstIterator[K, V]) Key() (K, error) {
	if it.node == nil {
		var k K
		return k, infra.WrapErrorStackWithMessage(ErrKeyError, "[avltree] dereference the end iterator key")
	}
	return it.node.key, nil
}

func (it *bstIterator[K, V]) Val() (V, error) {
	if it.node == nil {
		var v V
		return v, infra.WrapErrorStackWithMessage(ErrKeyError, "[avltree] dereference the end iterator value")
	}
	return it.node.val, nil
}

func (it *bstIterator[K, V]) Equal(other Iterator[K, V]) bool {
	o, ok := other.(*bstIterator[K, V])
	return ok && o != nil && o.node == it.node
}
