package fixes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bim2twin/dtpfix/pkg/config"
	"github.com/bim2twin/dtpfix/pkg/dtp"
	"github.com/bim2twin/dtpfix/pkg/types"
)

// Activities fixes activity-level nodes: as-planned activities and
// as-performed operations, same hasTaskType re-link as the task level.
type Activities struct {
	migrator
	taskTypeURI string
}

// NewActivities builds the activity-level fixer.
func NewActivities(cfg *config.Config, client *dtp.Client, logger *slog.Logger) *Activities {
	return &Activities{
		migrator:    migrator{client: client, logger: logger},
		taskTypeURI: cfg.MustOntologyURI("hasTaskType"),
	}
}

// Update fetches activity and operation nodes and re-links their type
// fields as typed edges.
func (a *Activities) Update(ctx context.Context, side types.Side) (types.UpdateCounts, error) {
	var counts types.UpdateCounts

	a.logger.Info("fetching activity/operation nodes")
	planned, err := a.client.QueryAllPages(ctx, a.client.FetchActivityNodes)
	if err != nil {
		return counts, fmt.Errorf("failed to fetch activity nodes: %w", err)
	}
	perf, err := a.client.QueryAllPages(ctx, a.client.FetchOperationNodes)
	if err != nil {
		return counts, fmt.Errorf("failed to fetch operation nodes: %w", err)
	}
	buckets := types.SideBuckets{
		AsPlanned: ClassifyTyped(planned, a.taskTypeURI),
		AsPerf:    ClassifyTyped(perf, a.taskTypeURI),
	}

	if side == types.SideAsBuilt || side == types.SideAll {
		a.logger.Info("updating operation nodes", "count", len(buckets.AsPerf))
		n, err := a.relink(ctx, buckets.AsPerf)
		if err != nil {
			return counts, err
		}
		counts.AsPerf = n
	}
	if side == types.SideAsDesigned || side == types.SideAll {
		a.logger.Info("updating activity nodes", "count", len(buckets.AsPlanned))
		n, err := a.relink(ctx, buckets.AsPlanned)
		if err != nil {
			return counts, err
		}
		counts.AsPlanned = n
	}
	return counts, nil
}

func (a *Activities) relink(ctx context.Context, targets []types.TypedValue) (int, error) {
	num := 0
	for _, tv := range targets {
		updated, err := a.migrateType(ctx, tv.IRI, a.taskTypeURI, tv.OldValue, nil, a.taskTypeURI, "")
		if err != nil {
			return num, err
		}
		if updated {
			num++
		}
	}
	return num, nil
}
