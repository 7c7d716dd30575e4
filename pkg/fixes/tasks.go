package fixes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bim2twin/dtpfix/pkg/config"
	"github.com/bim2twin/dtpfix/pkg/dtp"
	"github.com/bim2twin/dtpfix/pkg/types"
)

// Tasks fixes task-level nodes: as-planned tasks and as-performed
// actions whose type still lives in a literal hasTaskType field instead
// of a typed edge.
type Tasks struct {
	migrator
	taskTypeURI string
}

// NewTasks builds the task-level fixer.
func NewTasks(cfg *config.Config, client *dtp.Client, logger *slog.Logger) *Tasks {
	return &Tasks{
		migrator:    migrator{client: client, logger: logger},
		taskTypeURI: cfg.MustOntologyURI("hasTaskType"),
	}
}

// Update fetches task and action nodes and re-links their type fields as
// typed edges. The value carries over unchanged; there is no conversion
// map at this level.
func (t *Tasks) Update(ctx context.Context, side types.Side) (types.UpdateCounts, error) {
	var counts types.UpdateCounts

	t.logger.Info("fetching task/action nodes")
	planned, err := t.client.QueryAllPages(ctx, t.client.FetchTaskNodes)
	if err != nil {
		return counts, fmt.Errorf("failed to fetch task nodes: %w", err)
	}
	perf, err := t.client.QueryAllPages(ctx, t.client.FetchActionNodes)
	if err != nil {
		return counts, fmt.Errorf("failed to fetch action nodes: %w", err)
	}
	buckets := types.SideBuckets{
		AsPlanned: ClassifyTyped(planned, t.taskTypeURI),
		AsPerf:    ClassifyTyped(perf, t.taskTypeURI),
	}

	if side == types.SideAsBuilt || side == types.SideAll {
		t.logger.Info("updating action nodes", "count", len(buckets.AsPerf))
		n, err := t.relink(ctx, buckets.AsPerf)
		if err != nil {
			return counts, err
		}
		counts.AsPerf = n
	}
	if side == types.SideAsDesigned || side == types.SideAll {
		t.logger.Info("updating task nodes", "count", len(buckets.AsPlanned))
		n, err := t.relink(ctx, buckets.AsPlanned)
		if err != nil {
			return counts, err
		}
		counts.AsPlanned = n
	}
	return counts, nil
}

func (t *Tasks) relink(ctx context.Context, targets []types.TypedValue) (int, error) {
	num := 0
	for _, tv := range targets {
		updated, err := t.migrateType(ctx, tv.IRI, t.taskTypeURI, tv.OldValue, nil, t.taskTypeURI, "")
		if err != nil {
			return num, err
		}
		if updated {
			num++
		}
	}
	return num, nil
}
