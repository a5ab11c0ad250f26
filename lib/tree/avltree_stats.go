package tree

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	AVLTreeStatsName = "xboot/xavl"
)

// avlTreeStats methods are no-op on a nil receiver, the tree calls
// them unconditionally.
type avlTreeStats struct {
	nodeCount     metric.Int64UpDownCounter
	insertCount   metric.Int64Counter
	removeCount   metric.Int64Counter
	rotationCount metric.Int64Counter
}

func (stats *avlTreeStats) RecordNodeCount(delta int64) {
	if stats == nil || delta == 0 {
		return
	}
	stats.nodeCount.Add(context.Background(), delta)
}

func (stats *avlTreeStats) IncreaseInsertCount() {
	if stats == nil {
		return
	}
	stats.insertCount.Add(context.Background(), 1)
}

func (stats *avlTreeStats) IncreaseRemoveCount() {
	if stats == nil {
		return
	}
	stats.removeCount.Add(context.Background(), 1)
}

func (stats *avlTreeStats) IncreaseRotationCount(dir Direction) {
	if stats == nil {
		return
	}
	as := attribute.NewSet(
		attribute.String("xavl.rotation.dir", dir.String()),
	)
	stats.rotationCount.Add(context.Background(), 1, metric.WithAttributeSet(as))
}

func newAVLTreeStats(name string) *avlTreeStats {
	meterName := fmt.Sprintf("%s/%s", AVLTreeStatsName, name)
	return &avlTreeStats{
		nodeCount: lo.Must[metric.Int64UpDownCounter](otel.Meter(meterName).
			Int64UpDownCounter(
				"xavl.node.count",
				metric.WithDescription("The number of nodes in the avl tree."),
			),
		),
		insertCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xavl.insert.count",
				metric.WithDescription("The number of new keys inserted into the avl tree."),
			),
		),
		removeCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xavl.remove.count",
				metric.WithDescription("The number of keys removed from the avl tree."),
			),
		),
		rotationCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xavl.rotation.count",
				metric.WithDescription("The number of single rotations, a double rotation counts twice."),
			),
		),
	}
}
