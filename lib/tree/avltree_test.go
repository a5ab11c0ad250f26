package tree

import (
	"math"
	randv2 "math/rand"
	"sort"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xavl/lib/infra"
	"github.com/benz9527/xavl/lib/xlog"
)

type checkData[K infra.OrderedKey] struct {
	key     K
	balance int8
}

func preorder[K infra.OrderedKey, V any](node AVLNode[K, V]) []checkData[K] {
	if node == nil {
		return []checkData[K]{}
	}
	res := []checkData[K]{{node.Key(), node.Balance()}}
	res = append(res, preorder[K, V](node.Left())...)
	return append(res, preorder[K, V](node.Right())...)
}

func requireAVLValid[K infra.OrderedKey, V any](t *testing.T, tree AVLTree[K, V]) {
	require.NoError(t, AVLViolationValidate[K, V](tree))
	require.NoError(t, ParentLinkValidate[K, V](tree))
	require.NoError(t, OrderViolationValidate[K, V](tree))
	require.Equal(t, Height[K, V](tree), tree.Height())
}

func newTestAVLTree(keys ...int) AVLTree[int, int] {
	tree := NewAVLTree[int, int]()
	for _, k := range keys {
		_ = tree.Insert(k, k*10)
	}
	return tree
}

func TestNilNode(t *testing.T) {
	var nilNode AVLNode[uint64, uint64] = nil
	require.True(t, nilNode == nil)

	var nilNode2 *avlNode[uint64, uint64] = nil
	nilNode = nilNode2
	require.True(t, nilNode != nil)
	require.Nil(t, nilNode)

	tree := NewAVLTree[uint64, uint64]()
	require.True(t, tree.Root() == nil)
	require.True(t, tree.Min() == nil)
	require.True(t, tree.Max() == nil)
	require.Equal(t, 0, tree.Height())
	require.Equal(t, int64(0), tree.Len())
}

func TestAVLTreeInsertSequential(t *testing.T) {
	tree := newTestAVLTree(1, 2, 3, 4, 5, 6, 7)
	requireAVLValid(t, tree)
	require.Equal(t, int64(7), tree.Len())
	require.Equal(t, 3, tree.Height())
	require.Equal(t, []checkData[int]{
		{4, 0}, {2, 0}, {1, 0}, {3, 0}, {6, 0}, {5, 0}, {7, 0},
	}, preorder[int, int](tree.Root()))

	keys := make([]int, 0, 7)
	tree.Foreach(func(idx int64, key int, val int) bool {
		require.Equal(t, key*10, val)
		keys = append(keys, key)
		return true
	})
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, keys)
}

func TestAVLTreeInsertRotations(t *testing.T) {
	testcases := []struct {
		name     string
		keys     []int
		expected []checkData[int]
	}{
		{
			name:     "single root",
			keys:     []int{1},
			expected: []checkData[int]{{1, 0}},
		},
		{
			name:     "parent was heavy",
			keys:     []int{2, 1, 3},
			expected: []checkData[int]{{2, 0}, {1, 0}, {3, 0}},
		},
		{
			name:     "left heavy",
			keys:     []int{2, 1},
			expected: []checkData[int]{{2, -1}, {1, 0}},
		},
		{
			name:     "left-left",
			keys:     []int{3, 2, 1},
			expected: []checkData[int]{{2, 0}, {1, 0}, {3, 0}},
		},
		{
			name:     "right-right",
			keys:     []int{1, 2, 3},
			expected: []checkData[int]{{2, 0}, {1, 0}, {3, 0}},
		},
		{
			name:     "left-right new node",
			keys:     []int{3, 1, 2},
			expected: []checkData[int]{{2, 0}, {1, 0}, {3, 0}},
		},
		{
			name:     "right-left new node",
			keys:     []int{1, 3, 2},
			expected: []checkData[int]{{2, 0}, {1, 0}, {3, 0}},
		},
		{
			name:     "left-right left heavy pivot",
			keys:     []int{50, 30, 70, 20, 40, 35},
			expected: []checkData[int]{{40, 0}, {30, 0}, {20, 0}, {35, 0}, {50, 1}, {70, 0}},
		},
		{
			name:     "left-right right heavy pivot",
			keys:     []int{50, 30, 70, 20, 40, 45},
			expected: []checkData[int]{{40, 0}, {30, -1}, {20, 0}, {50, 0}, {45, 0}, {70, 0}},
		},
		{
			name:     "right-left right heavy pivot",
			keys:     []int{50, 30, 70, 60, 80, 65},
			expected: []checkData[int]{{60, 0}, {50, -1}, {30, 0}, {70, 0}, {65, 0}, {80, 0}},
		},
		{
			name:     "right-left left heavy pivot",
			keys:     []int{50, 30, 70, 60, 80, 55},
			expected: []checkData[int]{{60, 0}, {50, 0}, {30, 0}, {55, 0}, {70, 1}, {80, 0}},
		},
		{
			name:     "propagate then stop",
			keys:     []int{4, 2, 6, 1},
			expected: []checkData[int]{{4, -1}, {2, -1}, {1, 0}, {6, 0}},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := newTestAVLTree(tc.keys...)
			requireAVLValid(tt, tree)
			require.Equal(tt, tc.expected, preorder[int, int](tree.Root()))
			require.Equal(tt, int64(len(tc.keys)), tree.Len())
		})
	}
}

func TestAVLTreeRemoveRotations(t *testing.T) {
	testcases := []struct {
		name     string
		keys     []int
		remove   int
		expected []checkData[int]
	}{
		{
			name:     "only root",
			keys:     []int{1},
			remove:   1,
			expected: []checkData[int]{},
		},
		{
			name:     "root with one child",
			keys:     []int{1, 2},
			remove:   1,
			expected: []checkData[int]{{2, 0}},
		},
		{
			name:     "heavy by one then stop",
			keys:     []int{2, 1, 3},
			remove:   3,
			expected: []checkData[int]{{2, -1}, {1, 0}},
		},
		{
			name:     "child same direction",
			keys:     []int{5, 3, 8, 2},
			remove:   8,
			expected: []checkData[int]{{3, 0}, {2, 0}, {5, 0}},
		},
		{
			name:     "child balanced",
			keys:     []int{5, 3, 8, 2, 4},
			remove:   8,
			expected: []checkData[int]{{3, 1}, {2, 0}, {5, -1}, {4, 0}},
		},
		{
			name:     "child opposite direction",
			keys:     []int{5, 3, 8, 4},
			remove:   8,
			expected: []checkData[int]{{4, 0}, {3, 0}, {5, 0}},
		},
		{
			name:     "mirror child same direction",
			keys:     []int{5, 3, 8, 9},
			remove:   3,
			expected: []checkData[int]{{8, 0}, {5, 0}, {9, 0}},
		},
		{
			name:     "mirror child balanced",
			keys:     []int{5, 3, 8, 7, 9},
			remove:   3,
			expected: []checkData[int]{{8, -1}, {5, 1}, {7, 0}, {9, 0}},
		},
		{
			name:     "mirror child opposite direction",
			keys:     []int{5, 3, 8, 7},
			remove:   3,
			expected: []checkData[int]{{7, 0}, {5, 0}, {8, 0}},
		},
		{
			name:     "two children swap with pred",
			keys:     []int{1, 2, 3, 4, 5, 6, 7},
			remove:   4,
			expected: []checkData[int]{{3, 0}, {2, -1}, {1, 0}, {6, 0}, {5, 0}, {7, 0}},
		},
		{
			name:     "two children pred is the left child",
			keys:     []int{2, 1, 3},
			remove:   2,
			expected: []checkData[int]{{1, 1}, {3, 0}},
		},
		{
			name:   "rotate then cascade to parent",
			keys:   []int{8, 5, 11, 3, 7, 10, 12, 2, 4, 6, 9, 1},
			remove: 12,
			expected: []checkData[int]{
				{5, 0}, {3, -1}, {2, -1}, {1, 0}, {4, 0},
				{8, 0}, {7, -1}, {6, 0}, {10, 0}, {9, 0}, {11, 0},
			},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := newTestAVLTree(tc.keys...)
			requireAVLValid(tt, tree)

			x, ok := tree.Remove(tc.remove)
			require.True(tt, ok)
			require.Equal(tt, tc.remove, x.Key())
			require.Equal(tt, tc.remove*10, x.Val())
			require.Nil(tt, x.Parent())
			require.Nil(tt, x.Left())
			require.Nil(tt, x.Right())

			requireAVLValid(tt, tree)
			require.Equal(tt, int64(len(tc.keys)-1), tree.Len())
			require.False(tt, tree.Contains(tc.remove))
			require.Equal(tt, tc.expected, preorder[int, int](tree.Root()))
		})
	}
}

func TestAVLTreeRemoveKeepsNodeIdentity(t *testing.T) {
	tree := newTestAVLTree(1, 2, 3, 4, 5, 6, 7)
	pred, ok := tree.Find(3)
	require.True(t, ok)

	_, ok = tree.Remove(4)
	require.True(t, ok)
	requireAVLValid(t, tree)

	x, ok := tree.Find(3)
	require.True(t, ok)
	require.Same(t, pred.(*avlNode[int, int]), x.(*avlNode[int, int]))
	require.Equal(t, 30, x.Val())
	require.True(t, tree.Root() == x)
}

func TestAVLTreeRemoveAbsent(t *testing.T) {
	tree := newTestAVLTree(1, 2, 3, 4, 5)
	before := preorder[int, int](tree.Root())

	x, ok := tree.Remove(100)
	require.False(t, ok)
	require.Nil(t, x)
	require.Equal(t, before, preorder[int, int](tree.Root()))
	require.Equal(t, int64(5), tree.Len())

	empty := NewAVLTree[int, int]()
	_, ok = empty.Remove(1)
	require.False(t, ok)
	require.True(t, empty.Root() == nil)
}

func TestAVLTreeInsertExistingKey(t *testing.T) {
	tree := newTestAVLTree(5, 3, 8, 2, 4)
	before := preorder[int, int](tree.Root())

	require.NoError(t, tree.Insert(3, 333))
	require.Equal(t, before, preorder[int, int](tree.Root()))
	require.Equal(t, int64(5), tree.Len())
	x, ok := tree.Find(3)
	require.True(t, ok)
	require.Equal(t, 333, x.Val())

	err := tree.Insert(3, 444, true)
	require.ErrorIs(t, err, ErrReplaceDisabled)
	x, _ = tree.Find(3)
	require.Equal(t, 333, x.Val())

	require.NoError(t, tree.Insert(9, 90, true))
	require.True(t, tree.Contains(9))
	requireAVLValid(t, tree)
}

func TestAVLTreeInsertThenRemoveRoundTrip(t *testing.T) {
	tree := NewAVLTree[string, string]()
	require.NoError(t, tree.Insert("k", "v"))
	x, ok := tree.Remove("k")
	require.True(t, ok)
	require.Equal(t, "v", x.Val())
	require.True(t, tree.Root() == nil)
	require.Equal(t, int64(0), tree.Len())

	tree = NewAVLTree[string, string]()
	for _, k := range []string{"m", "c", "x", "a"} {
		require.NoError(t, tree.Insert(k, k))
	}
	before := preorder[string, string](tree.Root())
	require.NoError(t, tree.Insert("e", "e"))
	_, ok = tree.Remove("e")
	require.True(t, ok)
	require.Equal(t, before, preorder[string, string](tree.Root()))
}

func TestAVLTreeMinMaxFind(t *testing.T) {
	tree := newTestAVLTree(lo.Shuffle(lo.Range(100))...)
	requireAVLValid(t, tree)
	require.Equal(t, 0, tree.Min().Key())
	require.Equal(t, 99, tree.Max().Key())

	for i := 0; i < 100; i++ {
		x, ok := tree.Find(i)
		require.True(t, ok)
		require.Equal(t, i*10, x.Val())
	}
	x, ok := tree.Find(100)
	require.False(t, ok)
	require.True(t, x == nil)
}

func TestAVLTreeDesc(t *testing.T) {
	tree := NewAVLTree[int64, struct{}](WithAVLTreeDesc[int64, struct{}]())
	for i := int64(0); i < 1000; i++ {
		require.NoError(t, tree.Insert(i, struct{}{}))
	}
	requireAVLValid(t, tree)
	require.Equal(t, int64(999), tree.Min().Key())
	require.Equal(t, int64(0), tree.Max().Key())

	for i := int64(0); i < 1000; i += 3 {
		_, ok := tree.Remove(i)
		require.True(t, ok)
	}
	requireAVLValid(t, tree)

	prev := int64(math.MaxInt64)
	tree.Foreach(func(idx int64, key int64, val struct{}) bool {
		require.Less(t, key, prev)
		require.NotZero(t, key%3)
		prev = key
		return true
	})
}

func TestAVLTreeForeachStop(t *testing.T) {
	tree := newTestAVLTree(lo.Range(20)...)
	visited := 0
	tree.Foreach(func(idx int64, key int, val int) bool {
		require.Equal(t, int64(key), idx)
		visited++
		return idx < 4
	})
	require.Equal(t, 5, visited)
}

func TestAVLTreeRelease(t *testing.T) {
	tree := newTestAVLTree(lo.Range(10_000)...)
	first, ok := tree.Find(0)
	require.True(t, ok)

	tree.Release()
	require.Equal(t, int64(0), tree.Len())
	require.True(t, tree.Root() == nil)
	require.Equal(t, 0, tree.Height())
	require.Nil(t, first.Parent())

	// Reusable after release.
	require.NoError(t, tree.Insert(1, 1))
	require.Equal(t, int64(1), tree.Len())
	requireAVLValid(t, tree)
}

func avlTreeRandomInsertAndRemoveRunCore(t *testing.T, total int, violationCheck bool) {
	tree := NewAVLTree[int, int]()
	model := make(map[int]int, total)

	for i := 0; i < total; i++ {
		key := randv2.Intn(total)
		switch op := randv2.Intn(3); op {
		case 0, 1:
			require.NoError(t, tree.Insert(key, i))
			model[key] = i
		default:
			_, ok := tree.Remove(key)
			_, exists := model[key]
			require.Equal(t, exists, ok)
			delete(model, key)
		}
		if violationCheck {
			requireAVLValid(t, tree)
		}
	}
	requireAVLValid(t, tree)
	require.Equal(t, int64(len(model)), tree.Len())

	keys := make([]int, 0, len(model))
	for k := range model {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	tree.Foreach(func(idx int64, key int, val int) bool {
		require.Equal(t, keys[idx], key)
		require.Equal(t, model[key], val)
		return true
	})

	// Drain the tree by random order.
	for _, k := range lo.Shuffle(keys) {
		_, ok := tree.Remove(k)
		require.True(t, ok)
	}
	require.Equal(t, int64(0), tree.Len())
	require.True(t, tree.Root() == nil)
}

func TestAVLTreeRandomInsertAndRemove(t *testing.T) {
	testcases := []struct {
		name           string
		total          int
		violationCheck bool
	}{
		{
			name:           "violation check 2000",
			total:          2000,
			violationCheck: true,
		},
		{
			name:  "100000",
			total: 100_000,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			avlTreeRandomInsertAndRemoveRunCore(tt, tc.total, tc.violationCheck)
		})
	}
}

func TestAVLTreeHeightBound(t *testing.T) {
	testcases := []struct {
		name string
		keys []int
	}{
		{"sequential", lo.Range(50_000)},
		{"reverse sequential", lo.RangeWithSteps(50_000, 0, -1)},
		{"random", lo.Uniq(lo.Times(50_000, func(int) int { return randv2.Int() }))},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := NewAVLTree[int, struct{}]()
			for i, k := range tc.keys {
				require.NoError(tt, tree.Insert(k, struct{}{}))
				if i&(i+1) == 0 {
					n := float64(tree.Len())
					require.LessOrEqual(tt, float64(tree.Height()), 1.4405*math.Log2(n+2))
				}
			}
			requireAVLValid(tt, tree)
		})
	}
}

type testTraceLogger struct {
	xlog.XLogger
	msgs []string
	keys []any
}

func (l *testTraceLogger) Debug(msg string, fields ...zap.Field) {
	l.msgs = append(l.msgs, msg)
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	l.keys = append(l.keys, enc.Fields["key"])
}

func TestAVLTreeTraceLogger(t *testing.T) {
	logger := &testTraceLogger{}
	tree := NewAVLTree[int, int](WithAVLTreeLogger[int, int](logger))
	for _, k := range []int{3, 1, 2} {
		require.NoError(t, tree.Insert(k, k))
	}
	require.Equal(t, []string{"[avltree] left rotate", "[avltree] right rotate"}, logger.msgs)

	logger.msgs = logger.msgs[:0]
	_, ok := tree.Remove(2)
	require.True(t, ok)
	require.Equal(t, []string{"[avltree] remove swap with pred"}, logger.msgs)
}

func TestAVLTreeRemoveCascadeRotations(t *testing.T) {
	logger := &testTraceLogger{}
	tree := NewAVLTree[int, int](WithAVLTreeLogger[int, int](logger))
	for _, k := range []int{8, 5, 11, 3, 7, 10, 12, 2, 4, 6, 9, 1} {
		require.NoError(t, tree.Insert(k, k))
	}
	requireAVLValid(t, tree)
	require.Equal(t, 5, tree.Height())

	logger.msgs, logger.keys = logger.msgs[:0], logger.keys[:0]
	_, ok := tree.Remove(12)
	require.True(t, ok)
	requireAVLValid(t, tree)
	require.Equal(t, 4, tree.Height())

	// 11 rotates first, its subtree shrinks and 8 becomes heavy by 2.
	require.Equal(t, []string{"[avltree] right rotate", "[avltree] right rotate"}, logger.msgs)
	require.Equal(t, []any{int64(11), int64(8)}, logger.keys)
	require.Equal(t, 5, tree.Root().Key())
}

func BenchmarkAVLTree_Random(b *testing.B) {
	testByBytes := []byte(`abc`)

	b.StopTimer()
	tree := NewAVLTree[int, []byte]()

	rngArr := make([]int, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, randv2.Int())
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		err := tree.Insert(rngArr[i], testByBytes)
		if err != nil {
			panic(err)
		}
	}
}

func BenchmarkAVLTree_Serial(b *testing.B) {
	testByBytes := []byte(`abc`)

	b.StopTimer()
	tree := NewAVLTree[int, []byte]()

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		_ = tree.Insert(i, testByBytes)
	}
}
