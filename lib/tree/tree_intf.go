package tree

import (
	"errors"

	"github.com/benz9527/xavl/lib/infra"
)

type Direction int8

const (
	Left Direction = -1 + iota
	Root
	Right
)

func (dir Direction) String() string {
	switch dir {
	case Left:
		return "Left"
	case Root:
		return "Root"
	case Right:
		return "Right"
	default:
	}
	return "Unknown"
}

var (
	// ErrKeyError is returned when an iterator is dereferenced past the end.
	ErrKeyError = errors.New("[avltree] key error")
	// ErrReplaceDisabled is returned by Insert(key, val, true) on an existing key.
	ErrReplaceDisabled = errors.New("[avltree] replace disabled")
)

type AVLNode[K infra.OrderedKey, V any] interface {
	Key() K
	Val() V
	// Balance is height(right) - height(left), in [-1, 1] once an
	// operation returns.
	Balance() int8
	Left() AVLNode[K, V]
	Right() AVLNode[K, V]
	Parent() AVLNode[K, V]
}

// Iterator walks the keys in tree order.
// Nodes never exchange their key and value (removal swaps node positions
// instead), so an iterator survives inserts and removes of other keys.
// Removing the key it currently points to invalidates it.
type Iterator[K infra.OrderedKey, V any] interface {
	Valid() bool
	Next()
	Key() (K, error)
	Val() (V, error)
	Equal(other Iterator[K, V]) bool
}

// AVLTree is not thread safe. Callers have to serialize the access.
type AVLTree[K infra.OrderedKey, V any] interface {
	Len() int64
	Height() int
	Root() AVLNode[K, V]
	// Insert overwrites the value of an existing key unless ifNotPresent is true.
	Insert(key K, val V, ifNotPresent ...bool) error
	// Remove returns a detached copy of the removed node, or false if the
	// key is absent.
	Remove(key K) (AVLNode[K, V], bool)
	Find(key K) (AVLNode[K, V], bool)
	Contains(key K) bool
	Min() AVLNode[K, V]
	Max() AVLNode[K, V]
	Begin() Iterator[K, V]
	End() Iterator[K, V]
	Foreach(action func(idx int64, key K, val V) bool)
	Release()
}
