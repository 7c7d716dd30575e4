package dtp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bim2twin/dtpfix/pkg/dtp"
	"github.com/bim2twin/dtpfix/pkg/dtp/dtptest"
	"github.com/bim2twin/dtpfix/pkg/types"
)

func TestRevertInvertsFieldAndEdgeOps(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()
	iri := "https://example.org/element/e-1"
	server.AddNode("element", iri,
		map[string]any{"a": "one"},
		[]types.Edge{{Label: "rel", TargetIRI: "https://example.org/x"}})

	client := newClient(t, server, false)
	require.NoError(t, client.BeginSession(t.TempDir()))
	path := client.SessionPath()

	ctx := context.Background()
	mustMutate := func(ok bool, err error) {
		t.Helper()
		require.NoError(t, err)
		require.True(t, ok)
	}
	mustMutate(client.DeleteField(ctx, iri, "a", "one"))
	mustMutate(client.AddField(ctx, iri, "b", float64(2)))
	mustMutate(client.LinkEdge(ctx, iri, "rel", "https://example.org/y"))
	mustMutate(client.UnlinkEdge(ctx, iri, "rel", "https://example.org/x"))
	require.NoError(t, client.EndSession())

	require.NoError(t, client.RevertLog(ctx, path))

	fields, edges, ok := server.Node(iri)
	require.True(t, ok)
	assert.Equal(t, "one", fields["a"])
	assert.NotContains(t, fields, "b")
	require.Len(t, edges, 1)
	assert.Equal(t, types.Edge{Label: "rel", TargetIRI: "https://example.org/x"}, edges[0])
}

func TestRevertNodeLifecycle(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()
	oldIRI := "https://example.org/element/old"
	newIRI := "https://example.org/element/new"
	server.AddNode("element", oldIRI,
		map[string]any{"f": "v"},
		[]types.Edge{{Label: "rel", TargetIRI: "https://example.org/x"}})

	client := newClient(t, server, false)
	require.NoError(t, client.BeginSession(t.TempDir()))
	path := client.SessionPath()

	ctx := context.Background()
	ok, err := client.DeleteNode(ctx, oldIRI)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = client.CreateNode(ctx, newIRI, map[string]any{"f": "v"}, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, client.EndSession())

	require.NoError(t, client.RevertLog(ctx, path))

	_, _, ok = server.Node(newIRI)
	assert.False(t, ok, "created node must be deleted again")

	fields, edges, ok := server.Node(oldIRI)
	require.True(t, ok, "deleted node must be rebuilt from its snapshot")
	assert.Equal(t, "v", fields["f"])
	require.Len(t, edges, 1)
	assert.Equal(t, "rel", edges[0].Label)

	// Replaying the same log again resolves every refusal as already done.
	require.NoError(t, client.RevertLog(ctx, path))
}

func TestRevertSkipsSimulatedEntries(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()
	iri := "https://example.org/element/e-1"
	server.AddNode("element", iri, nil, nil)

	simClient := newClient(t, server, true)
	require.NoError(t, simClient.BeginSession(t.TempDir()))
	path := simClient.SessionPath()
	ok, err := simClient.AddField(context.Background(), iri, "a", "v")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, simClient.EndSession())

	require.NoError(t, newClient(t, server, false).RevertLog(context.Background(), path))
	assert.Equal(t, 0, server.MutationCount(), "simulated entries never reach the store")
}

func writeSessionLog(t *testing.T, path string, entries []dtp.SessionEntry) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	enc := json.NewEncoder(file)
	for i := range entries {
		entries[i].Seq = i + 1
		entries[i].Timestamp = time.Now().UTC()
		require.NoError(t, enc.Encode(entries[i]))
	}
}

// Two logged sessions touching the same field: the older one added it,
// the newer one deleted it again. Directory revert walks the files in
// filename, hence chronological, order, so the older add is undone first
// (already absent, resolved as done) and the newer delete is re-added
// last, leaving the field present.
func TestRevertDirChronologicalOrder(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()
	iri := "https://example.org/element/e-1"
	server.AddNode("element", iri, nil, nil)

	dir := t.TempDir()
	writeSessionLog(t, filepath.Join(dir, "session-20240101T100000-aaaaaaaa.jsonl"), []dtp.SessionEntry{
		{Op: dtp.OpAddField, IRI: iri, Field: "x", NewValue: float64(1)},
	})
	writeSessionLog(t, filepath.Join(dir, "session-20240102T100000-bbbbbbbb.jsonl"), []dtp.SessionEntry{
		{Op: dtp.OpDeleteField, IRI: iri, Field: "x", OldValue: float64(1)},
	})

	client := newClient(t, server, false)
	require.NoError(t, client.RevertLogsInDir(context.Background(), dir))

	fields, _, ok := server.Node(iri)
	require.True(t, ok)
	assert.Equal(t, float64(1), fields["x"], "files replay in filename order")
}

func TestRevertDirEmpty(t *testing.T) {
	server := dtptest.NewServer(10)
	defer server.Close()

	client := newClient(t, server, false)
	assert.NoError(t, client.RevertLogsInDir(context.Background(), t.TempDir()))
}
