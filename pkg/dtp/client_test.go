package dtp_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bim2twin/dtpfix/pkg/config"
	"github.com/bim2twin/dtpfix/pkg/dtp"
	"github.com/bim2twin/dtpfix/pkg/dtp/dtptest"
	"github.com/bim2twin/dtpfix/pkg/logger"
)

func newClient(t *testing.T, server *dtptest.Server, simulate bool) *dtp.Client {
	t.Helper()
	return dtp.NewClient(config.DTPConfig{URL: server.URL()}, &dtp.Options{
		Simulation: simulate,
		Logger:     logger.New(io.Discard, slog.LevelError),
	})
}

func TestQueryAllPagesDrainsPagination(t *testing.T) {
	server := dtptest.NewServer(2)
	defer server.Close()
	for i := 0; i < 5; i++ {
		server.AddNode("element", fmt.Sprintf("https://example.org/element/e-%d", i),
			map[string]any{"n": float64(i)}, nil)
	}
	// A different kind must not leak into the element query.
	server.AddNode("task", "https://example.org/task/t-1", nil, nil)

	client := newClient(t, server, false)
	set, err := client.QueryAllPages(context.Background(), client.FetchElementNodes)
	require.NoError(t, err)
	require.Len(t, set.Items, 5)
	for i, node := range set.Items {
		assert.Equal(t, fmt.Sprintf("https://example.org/element/e-%d", i), node.IRI(), "fetch order is preserved across pages")
	}
}

func TestFetchNodeMissing(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()

	client := newClient(t, server, false)
	set, err := client.FetchNode(context.Background(), "https://example.org/element/nope")
	require.NoError(t, err)
	assert.Empty(t, set.Items)
}

func TestMutationsAppendToSession(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()
	server.AddNode("element", "https://example.org/element/e-1",
		map[string]any{"a": "old"}, nil)

	client := newClient(t, server, false)
	require.NoError(t, client.BeginSession(t.TempDir()))
	path := client.SessionPath()
	require.NotEmpty(t, path)

	ctx := context.Background()
	ok, err := client.DeleteField(ctx, "https://example.org/element/e-1", "a", "old")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = client.AddField(ctx, "https://example.org/element/e-1", "b", float64(2))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = client.LinkEdge(ctx, "https://example.org/element/e-1", "rel", "https://example.org/t")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, client.EndSession())
	assert.Empty(t, client.SessionPath(), "no session after EndSession")

	entries, err := dtp.ReadSessionLog(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, dtp.OpDeleteField, entries[0].Op)
	assert.Equal(t, dtp.OpAddField, entries[1].Op)
	assert.Equal(t, dtp.OpLinkEdge, entries[2].Op)
	for _, entry := range entries {
		assert.Equal(t, "https://example.org/element/e-1", entry.IRI)
		assert.False(t, entry.Simulated)
	}
}

func TestRefusedMutationNotLogged(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()
	server.AddNode("element", "https://example.org/element/e-1",
		map[string]any{"a": "current"}, nil)

	client := newClient(t, server, false)
	require.NoError(t, client.BeginSession(t.TempDir()))
	path := client.SessionPath()

	ok, err := client.DeleteField(context.Background(), "https://example.org/element/e-1", "a", "stale")
	require.NoError(t, err)
	assert.False(t, ok, "guard value mismatch is a refusal, not an error")

	fields, _, _ := server.Node("https://example.org/element/e-1")
	assert.Equal(t, "current", fields["a"], "refused delete leaves the field alone")

	require.NoError(t, client.EndSession())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "refusals are not logged, so the session stays empty")
}

func TestDeleteNodeMissing(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()

	client := newClient(t, server, false)
	ok, err := client.DeleteNode(context.Background(), "https://example.org/element/nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, server.MutationCount())
}

func TestSimulationLogsWithoutTouchingStore(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()
	server.AddNode("element", "https://example.org/element/e-1", nil, nil)

	client := newClient(t, server, true)
	require.NoError(t, client.BeginSession(t.TempDir()))
	path := client.SessionPath()

	ok, err := client.AddField(context.Background(), "https://example.org/element/e-1", "a", "v")
	require.NoError(t, err)
	assert.True(t, ok, "simulated mutations report success")
	assert.Equal(t, 0, server.MutationCount())

	require.NoError(t, client.EndSession())
	entries, err := dtp.ReadSessionLog(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Simulated)
}
