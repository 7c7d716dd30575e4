package fixes_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bim2twin/dtpfix/pkg/dtp/dtptest"
	"github.com/bim2twin/dtpfix/pkg/fixes"
	"github.com/bim2twin/dtpfix/pkg/logger"
	"github.com/bim2twin/dtpfix/pkg/types"
)

func TestTasksRelink(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()
	server.AddNode("task", "https://example.org/task/t-1",
		map[string]any{taskTypeURI: "https://example.org/types/pour"}, nil)
	server.AddNode("action", "https://example.org/action/a-1",
		map[string]any{taskTypeURI: "https://example.org/types/pour"}, nil)
	// Already migrated: no literal field, nothing to do.
	server.AddNode("task", "https://example.org/task/t-2", nil,
		[]types.Edge{{Label: taskTypeURI, TargetIRI: "https://example.org/types/pour"}})

	client := newTestClient(t, server, false)
	tasks := fixes.NewTasks(testConfig(), client, logger.New(io.Discard, slog.LevelError))

	counts, err := tasks.Update(context.Background(), types.SideAll)
	require.NoError(t, err)
	assert.Equal(t, types.UpdateCounts{AsPlanned: 1, AsPerf: 1}, counts)

	for _, iri := range []string{"https://example.org/task/t-1", "https://example.org/action/a-1"} {
		fields, edges, ok := server.Node(iri)
		require.True(t, ok)
		assert.NotContains(t, fields, taskTypeURI)
		require.Len(t, edges, 1)
		assert.Equal(t, types.Edge{Label: taskTypeURI, TargetIRI: "https://example.org/types/pour"}, edges[0])
	}
}

func TestTasksSideFilter(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()
	server.AddNode("task", "https://example.org/task/t-1",
		map[string]any{taskTypeURI: "https://example.org/types/pour"}, nil)
	server.AddNode("action", "https://example.org/action/a-1",
		map[string]any{taskTypeURI: "https://example.org/types/pour"}, nil)

	client := newTestClient(t, server, false)
	tasks := fixes.NewTasks(testConfig(), client, logger.New(io.Discard, slog.LevelError))

	counts, err := tasks.Update(context.Background(), types.SideAsBuilt)
	require.NoError(t, err)
	assert.Equal(t, types.UpdateCounts{AsPerf: 1}, counts)

	fields, _, _ := server.Node("https://example.org/task/t-1")
	assert.Contains(t, fields, taskTypeURI, "as-planned side untouched")
}

func TestActivitiesRelink(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()
	server.AddNode("activity", "https://example.org/activity/ac-1",
		map[string]any{taskTypeURI: "https://example.org/types/frame"}, nil)
	server.AddNode("operation", "https://example.org/operation/op-1",
		map[string]any{taskTypeURI: "https://example.org/types/frame"}, nil)

	client := newTestClient(t, server, false)
	activities := fixes.NewActivities(testConfig(), client, logger.New(io.Discard, slog.LevelError))

	counts, err := activities.Update(context.Background(), types.SideAll)
	require.NoError(t, err)
	assert.Equal(t, types.UpdateCounts{AsPlanned: 1, AsPerf: 1}, counts)

	fields, edges, ok := server.Node("https://example.org/operation/op-1")
	require.True(t, ok)
	assert.NotContains(t, fields, taskTypeURI)
	require.Len(t, edges, 1)
	assert.Equal(t, "https://example.org/types/frame", edges[0].TargetIRI)
}
