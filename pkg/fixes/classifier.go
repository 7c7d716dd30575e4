// Package fixes holds the node classification rules and the migrators
// that bring legacy nodes up to the current ontology schema. The rules
// are legacy-migration logic: any change here silently corrupts graph
// data, so they mirror the historical field layouts exactly.
package fixes

import (
	"strings"

	"github.com/bim2twin/dtpfix/pkg/config"
	"github.com/bim2twin/dtpfix/pkg/dtp"
	"github.com/bim2twin/dtpfix/pkg/types"
)

// Legacy field and IRI markers.
const (
	// legacyClassField held the element type before typed edges existed.
	legacyClassField = "ifc:Class"
	// Legacy IRI naming patterns, both renamed to the current one.
	legacyPlannedIRIPattern = "/ifcas_built-"
	legacyPerfIRIPattern    = "/as_builtifc-"
	currentIRIPattern       = "/as_built-"
	// IRI markers used only when the isAsDesigned flag is absent.
	designedIRIMarker  = "/ifc"
	performedIRIMarker = "/asbuilt"
)

// sideDecision is the outcome of the side rule for one node.
type sideDecision int

const (
	sideUnknown sideDecision = iota
	sideDesigned
	sidePerformed
)

// ElementClassifier buckets raw element nodes into fix categories.
// Classification is a pure function of each node's current field set.
type ElementClassifier struct {
	asDesignedURI  string
	elementTypeURI string
	progressURI    string
	legacyFlagURI  string
}

// NewElementClassifier builds a classifier from the configured ontology.
func NewElementClassifier(cfg *config.Config) *ElementClassifier {
	return &ElementClassifier{
		asDesignedURI:  cfg.MustOntologyURI("isAsDesigned"),
		elementTypeURI: cfg.MustOntologyURI("hasElementType"),
		progressURI:    cfg.MustOntologyURI("progress"),
		legacyFlagURI:  cfg.Ontology.LegacyFlagURI,
	}
}

// side decides which half of the twin a node belongs to. The boolean
// flag, when present, always wins; the IRI substrings only matter for
// legacy nodes that never got the flag.
func (c *ElementClassifier) side(node *types.Node) sideDecision {
	if designed, ok := node.BoolField(c.asDesignedURI); ok {
		if designed {
			return sideDesigned
		}
		return sidePerformed
	}
	iri := node.IRI()
	if strings.Contains(iri, designedIRIMarker) {
		return sideDesigned
	}
	if strings.Contains(iri, performedIRIMarker) {
		return sidePerformed
	}
	return sideUnknown
}

// Classify buckets all fetched element nodes, restricted to the selected
// fix category. No side effects; the node set is not modified.
func (c *ElementClassifier) Classify(set *dtp.NodeSet, fix types.Fix) types.ElementClassification {
	var out types.ElementClassification
	for _, node := range set.Items {
		iri := node.IRI()
		if iri == "" {
			continue
		}

		// The flag namespace migration buckets by the legacy flag's own
		// value, independent of the side rule.
		if fix.Includes(types.FixProgress) {
			if val, ok := node.BoolField(c.legacyFlagURI); ok {
				if val {
					out.AsPlanned.Flag = append(out.AsPlanned.Flag, types.FlaggedValue{IRI: iri, Value: val})
				} else {
					out.AsPerf.Flag = append(out.AsPerf.Flag, types.FlaggedValue{IRI: iri, Value: val})
				}
			}
		}

		switch c.side(node) {
		case sideDesigned:
			if fix.Includes(types.FixAsDesigned) && !node.HasField(c.asDesignedURI) {
				out.AsPlanned.AsDesigned = append(out.AsPlanned.AsDesigned, iri)
			}
			if fix.Includes(types.FixType) {
				if class, ok := node.StringField(legacyClassField); ok {
					out.AsPlanned.Type = append(out.AsPlanned.Type, types.TypedValue{IRI: iri, OldValue: class})
				}
			}
			if fix.Includes(types.FixIRI) && strings.Contains(iri, legacyPlannedIRIPattern) {
				out.AsPlanned.IRI = append(out.AsPlanned.IRI, iri)
			}
			if fix.Includes(types.FixProgress) {
				if val, ok := node.Field(c.progressURI); ok {
					out.AsPlanned.Progress = append(out.AsPlanned.Progress, types.FieldValue{IRI: iri, Value: val})
				}
			}
		case sidePerformed:
			if fix.Includes(types.FixAsDesigned) && !node.HasField(c.asDesignedURI) {
				out.AsPerf.AsDesigned = append(out.AsPerf.AsDesigned, iri)
			}
			if fix.Includes(types.FixType) {
				// Element type held as a literal field instead of a
				// typed edge.
				if elemType, ok := node.StringField(c.elementTypeURI); ok {
					out.AsPerf.Type = append(out.AsPerf.Type, types.TypedValue{IRI: iri, OldValue: elemType})
				}
			}
			if fix.Includes(types.FixIRI) && strings.Contains(iri, legacyPerfIRIPattern) {
				out.AsPerf.IRI = append(out.AsPerf.IRI, iri)
			}
		}
	}
	return out
}

// ClassifyTyped collects (iri, old value) pairs for nodes carrying the
// given type field. Used by the task and activity levels.
func ClassifyTyped(set *dtp.NodeSet, typeFieldURI string) []types.TypedValue {
	var out []types.TypedValue
	for _, node := range set.Items {
		if value, ok := node.StringField(typeFieldURI); ok {
			out = append(out, types.TypedValue{IRI: node.IRI(), OldValue: value})
		}
	}
	return out
}
