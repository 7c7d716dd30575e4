package ontology_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bim2twin/dtpfix/pkg/ontology"
)

func TestResolve(t *testing.T) {
	cm := ontology.ConversionMap{
		"OldWall":   "NewWallType",
		"OldColumn": "ignore",
	}

	tests := []struct {
		name     string
		legacy   string
		wantKind ontology.ResolutionKind
		wantVal  string
	}{
		{
			name:     "mapped label",
			legacy:   "OldWall",
			wantKind: ontology.Mapped,
			wantVal:  "NewWallType",
		},
		{
			name:     "explicitly ignored label",
			legacy:   "OldColumn",
			wantKind: ontology.Ignore,
		},
		{
			name:     "unknown label",
			legacy:   "OldBeam",
			wantKind: ontology.MissingMapping,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := cm.Resolve(tt.legacy)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.wantVal, res.Value)
		})
	}
}

func TestLoadConversionMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "element_type_map.yaml")
	content := "OldWall: NewWallType\nOldColumn: ignore\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cm, err := ontology.LoadConversionMap(path)
	require.NoError(t, err)
	assert.Equal(t, "NewWallType", cm["OldWall"])
	assert.Equal(t, ontology.Ignore, cm.Resolve("OldColumn").Kind)
}

func TestLoadConversionMapRejectsNonStringValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad_map.yaml")
	require.NoError(t, os.WriteFile(path, []byte("OldWall:\n  nested: true\n"), 0o644))

	_, err := ontology.LoadConversionMap(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OldWall")
}

func TestLoadConversionMapMissingFile(t *testing.T) {
	_, err := ontology.LoadConversionMap(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
