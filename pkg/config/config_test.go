package config_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bim2twin/dtpfix/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://api.bim2twin.eu", cfg.DTP.URL)
	assert.Equal(t, "https://dtc-ontology.cms.ed.tum.de/ontology", cfg.Ontology.BaseURL)
	assert.Equal(t, "https://www.bim2twin.eu/ontology/Core#isAsDesigned", cfg.Ontology.LegacyFlagURI)
	assert.Equal(t, "sessions", cfg.Session.LogDir)
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("DTP_URL", "https://staging.example.org")
	t.Setenv("DTP_TOKEN", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.org", cfg.DTP.URL)
	assert.Equal(t, "secret", cfg.DTP.Token)
}

func TestOntologyURI(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := config.Load()
	require.NoError(t, err)

	uri, err := cfg.OntologyURI("hasElementType")
	require.NoError(t, err)
	assert.Equal(t, "https://dtc-ontology.cms.ed.tum.de/ontology/Core#hasElementType", uri)

	_, err = cfg.OntologyURI("hasUnknownThing")
	assert.Error(t, err)

	assert.Panics(t, func() { cfg.MustOntologyURI("hasUnknownThing") })
	assert.NotPanics(t, func() { cfg.MustOntologyURI("progress") })
}
