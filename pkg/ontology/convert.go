// Package ontology handles the legacy-to-new type-label conversion maps
// used during schema migration.
package ontology

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IgnoreSentinel marks a legacy label that must be skipped, not migrated.
const IgnoreSentinel = "ignore"

// ConversionMap maps legacy type labels to new ontology labels, or to the
// ignore sentinel.
type ConversionMap map[string]string

// LoadConversionMap reads a YAML conversion map from path. Values must be
// strings; anything else means the map file is broken.
func LoadConversionMap(path string) (ConversionMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversion map: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse conversion map %s: %w", path, err)
	}
	cm := make(ConversionMap, len(raw))
	for key, value := range raw {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("conversion map %s: value for %q is not a string", path, key)
		}
		cm[key] = s
	}
	return cm, nil
}

// ResolutionKind tags the outcome of a conversion-map lookup.
type ResolutionKind int

const (
	// Mapped means the legacy label has a new-ontology replacement.
	Mapped ResolutionKind = iota
	// Ignore means the legacy label is explicitly skipped.
	Ignore
	// MissingMapping means the map has no entry for the label. The map
	// is expected to be complete, so callers treat this as fatal.
	MissingMapping
)

// Resolution is the tagged result of resolving a legacy label. Callers
// must handle all three kinds; there is no silent fallback.
type Resolution struct {
	Kind  ResolutionKind
	Value string // set only for Mapped
}

// Resolve looks up a legacy label in the map.
func (cm ConversionMap) Resolve(legacy string) Resolution {
	value, ok := cm[legacy]
	if !ok {
		return Resolution{Kind: MissingMapping}
	}
	if value == IgnoreSentinel {
		return Resolution{Kind: Ignore}
	}
	return Resolution{Kind: Mapped, Value: value}
}
