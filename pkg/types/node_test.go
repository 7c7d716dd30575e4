package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bim2twin/dtpfix/pkg/types"
)

func TestNodeAccessors(t *testing.T) {
	node := types.NewNode(map[string]any{
		"_iri":      "https://example.org/element/as_built-1",
		"ifc:Class": "IfcWall",
		"https://example.org/onto#isAsDesigned": false,
		"https://example.org/onto#progress":     float64(60),
		"_outE": []any{
			map[string]any{"_label": "hasElementType", "_targetIRI": "https://example.org/types/wall"},
		},
	})

	assert.Equal(t, "https://example.org/element/as_built-1", node.IRI())

	class, ok := node.StringField("ifc:Class")
	require.True(t, ok)
	assert.Equal(t, "IfcWall", class)

	designed, ok := node.BoolField("https://example.org/onto#isAsDesigned")
	require.True(t, ok)
	assert.False(t, designed)

	_, ok = node.BoolField("https://example.org/onto#progress")
	assert.False(t, ok, "numbers must not coerce to booleans")

	assert.True(t, node.HasField("ifc:Class"))
	assert.False(t, node.HasField("_iri"), "system fields are not ontology fields")
	assert.False(t, node.HasField("_outE"))

	edges := node.OutEdges()
	require.Len(t, edges, 1)
	assert.Equal(t, "hasElementType", edges[0].Label)
	assert.Equal(t, "https://example.org/types/wall", edges[0].TargetIRI)
}

func TestNodeFieldsExcludesSystemKeys(t *testing.T) {
	node := types.NewNode(map[string]any{
		"_iri":  "https://example.org/n1",
		"_outE": []any{},
		"a":     "b",
	})

	fields := node.Fields()
	assert.Equal(t, map[string]any{"a": "b"}, fields)
}

func TestNodeSnapshotRoundTrip(t *testing.T) {
	node := types.NewNode(map[string]any{
		"_iri": "https://example.org/n1",
		"a":    "b",
		"_outE": []any{
			map[string]any{"_label": "l", "_targetIRI": "t"},
		},
	})

	data, err := json.Marshal(node)
	require.NoError(t, err)

	var restored types.Node
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, "https://example.org/n1", restored.IRI())
	assert.Equal(t, node.Fields(), restored.Fields())
	assert.Equal(t, node.OutEdges(), restored.OutEdges())
}

func TestParseEnums(t *testing.T) {
	_, err := types.ParseSide("asbuilt")
	assert.NoError(t, err)
	_, err = types.ParseSide("sideways")
	assert.Error(t, err)

	_, err = types.ParseLevel("activity")
	assert.NoError(t, err)
	_, err = types.ParseLevel("floor")
	assert.Error(t, err)

	_, err = types.ParseFix("progress")
	assert.NoError(t, err)
	_, err = types.ParseFix("everything")
	assert.Error(t, err)

	assert.True(t, types.FixAll.Includes(types.FixIRI))
	assert.True(t, types.FixType.Includes(types.FixType))
	assert.False(t, types.FixType.Includes(types.FixIRI))
}

func TestUpdateCountsAdd(t *testing.T) {
	total := types.UpdateCounts{AsPlanned: 1, AsPerf: 2}
	total.Add(types.UpdateCounts{AsPlanned: 3})
	total.Add(types.UpdateCounts{AsPerf: 4})
	assert.Equal(t, types.UpdateCounts{AsPlanned: 4, AsPerf: 6}, total)
}
