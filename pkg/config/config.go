// Package config loads the runtime configuration for the fix tool. The
// resulting Config is immutable and passed explicitly into the client and
// the fix passes; nothing reads viper after Load returns.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for a fix run.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// DTP endpoint configuration
	DTP DTPConfig `mapstructure:"dtp"`

	// Ontology schema configuration
	Ontology OntologyConfig `mapstructure:"ontology"`

	// Session log configuration
	Session SessionConfig `mapstructure:"session"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DTPConfig holds the remote graph store endpoint and credentials.
type DTPConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// OntologyConfig holds the schema namespaces and the short-name to
// field-URI lookup table.
type OntologyConfig struct {
	// BaseURL is the current ontology namespace. Type values already
	// under this namespace are treated as migrated.
	BaseURL string `mapstructure:"base_url"`
	// LegacyFlagURI is the isAsDesigned field URI under the retired
	// namespace, migrated away by the progress fix.
	LegacyFlagURI string `mapstructure:"legacy_flag_uri"`
	// URIs maps logical names to fully-qualified field URIs.
	URIs map[string]string `mapstructure:"uris"`
}

// SessionConfig holds session log settings.
type SessionConfig struct {
	LogDir string `mapstructure:"log_dir"`
}

// Load loads configuration from the config file (if viper has one set)
// and environment variables.
func Load() (*Config, error) {
	setDefaults()

	// A missing config file is fine; defaults and env cover a full run.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("unable to read config: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("log.level", "info")

	viper.SetDefault("dtp.url", "https://api.bim2twin.eu")

	viper.SetDefault("ontology.base_url", "https://dtc-ontology.cms.ed.tum.de/ontology")
	viper.SetDefault("ontology.legacy_flag_uri", "https://www.bim2twin.eu/ontology/Core#isAsDesigned")
	viper.SetDefault("ontology.uris", map[string]string{
		"isAsDesigned":         "https://dtc-ontology.cms.ed.tum.de/ontology/Core#isAsDesigned",
		"hasElementType":       "https://dtc-ontology.cms.ed.tum.de/ontology/Core#hasElementType",
		"hasTaskType":          "https://dtc-ontology.cms.ed.tum.de/ontology/Core#hasTaskType",
		"intentStatusRelation": "https://dtc-ontology.cms.ed.tum.de/ontology/Core#intentStatusRelation",
		"hasGeometricDefect":   "https://dtc-ontology.cms.ed.tum.de/ontology/Core#hasGeometricDefect",
		"progress":             "https://dtc-ontology.cms.ed.tum.de/ontology/Core#progress",
		"timeStamp":            "https://dtc-ontology.cms.ed.tum.de/ontology/Core#timeStamp",
	})

	viper.SetDefault("session.log_dir", "sessions")

	viper.AutomaticEnv()
	viper.BindEnv("dtp.url", "DTP_URL")
	viper.BindEnv("dtp.token", "DTP_TOKEN")
}

// OntologyURI resolves a logical field name to its fully-qualified URI.
// Unknown names are a configuration error: every field the fix passes
// touch must be declared.
func (c *Config) OntologyURI(name string) (string, error) {
	uri, ok := c.Ontology.URIs[name]
	if !ok {
		return "", fmt.Errorf("ontology URI for %q not configured", name)
	}
	return uri, nil
}

// MustOntologyURI is OntologyURI for names guaranteed by setDefaults;
// it panics on a miss, which can only happen with a broken config file.
func (c *Config) MustOntologyURI(name string) string {
	uri, err := c.OntologyURI(name)
	if err != nil {
		panic(err)
	}
	return uri
}
