// Package types holds the node model and the classification vocabulary
// shared by the DTP client and the fix passes.
package types

import "fmt"

// Side selects which half of the twin a run touches.
type Side string

const (
	SideAsDesigned Side = "asdesigned"
	SideAsBuilt    Side = "asbuilt"
	SideAll        Side = "all"
)

// ParseSide validates a CLI/node-side value.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideAsDesigned, SideAsBuilt, SideAll:
		return Side(s), nil
	}
	return "", fmt.Errorf("invalid node side %q (want asbuilt, asdesigned or all)", s)
}

// Level selects the node level a run targets.
type Level string

const (
	LevelElement  Level = "element"
	LevelTask     Level = "task"
	LevelActivity Level = "activity"
	LevelAll      Level = "all"
)

// ParseLevel validates a CLI target-level value.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelElement, LevelTask, LevelActivity, LevelAll:
		return Level(s), nil
	}
	return "", fmt.Errorf("invalid target level %q (want element, task, activity or all)", s)
}

// Fix selects which fix category a run applies.
type Fix string

const (
	FixAsDesigned Fix = "asdesigned"
	FixType       Fix = "type"
	FixIRI        Fix = "iri"
	FixProgress   Fix = "progress"
	FixAll        Fix = "all"
)

// ParseFix validates a CLI fix-category value.
func ParseFix(s string) (Fix, error) {
	switch Fix(s) {
	case FixAsDesigned, FixType, FixIRI, FixProgress, FixAll:
		return Fix(s), nil
	}
	return "", fmt.Errorf("invalid fix category %q (want asdesigned, type, iri, progress or all)", s)
}

// Includes reports whether category c is selected by f. The progress
// category is a standalone migration campaign: it removes fields the
// other fixes still read, so "all" does not select it and it only runs
// when requested explicitly.
func (f Fix) Includes(c Fix) bool {
	if f == FixAll {
		return c != FixProgress
	}
	return f == c
}

// TypedValue is an (iri, old value) pair collected during classification.
type TypedValue struct {
	IRI      string
	OldValue string
}

// FlaggedValue is an (iri, boolean value) pair used by the namespace
// migration of the isAsDesigned flag.
type FlaggedValue struct {
	IRI   string
	Value bool
}

// FieldValue is an (iri, raw value) pair for fields whose values are not
// necessarily strings, e.g. progress percentages.
type FieldValue struct {
	IRI   string
	Value any
}

// ElementBuckets is the fine-grained classification of one side of the
// element level. The slices preserve fetch order.
type ElementBuckets struct {
	// AsDesigned lists nodes missing the isAsDesigned flag.
	AsDesigned []string
	// Type lists nodes carrying a legacy type field to be re-linked.
	Type []TypedValue
	// IRI lists nodes whose identifier matches a legacy naming pattern.
	IRI []string
	// Flag lists nodes carrying the flag under the legacy namespace URI.
	Flag []FlaggedValue
	// Progress lists nodes carrying a progress field to be removed.
	Progress []FieldValue
}

// ElementClassification groups element buckets per side.
type ElementClassification struct {
	AsPlanned ElementBuckets
	AsPerf    ElementBuckets
}

// SideBuckets is the coarse classification used by the task and activity
// levels: (iri, old type value) pairs per side.
type SideBuckets struct {
	AsPlanned []TypedValue
	AsPerf    []TypedValue
}

// UpdateCounts tallies applied fixes per side.
type UpdateCounts struct {
	AsPlanned int
	AsPerf    int
}

// Add accumulates other into c.
func (c *UpdateCounts) Add(other UpdateCounts) {
	c.AsPlanned += other.AsPlanned
	c.AsPerf += other.AsPerf
}
