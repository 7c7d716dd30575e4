package fixes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bim2twin/dtpfix/pkg/config"
	"github.com/bim2twin/dtpfix/pkg/dtp"
	"github.com/bim2twin/dtpfix/pkg/ontology"
	"github.com/bim2twin/dtpfix/pkg/types"
)

// Elements fixes building element nodes: the isAsDesigned flag, the
// legacy type fields, legacy IRI patterns, and the retired flag/progress
// namespace migration.
type Elements struct {
	migrator
	classifier *ElementClassifier

	baseURL        string
	asDesignedURI  string
	elementTypeURI string
	intentURI      string
	defectURI      string
	progressURI    string
	timeStampURI   string
	legacyFlagURI  string
}

// NewElements builds the element-level fixer.
func NewElements(cfg *config.Config, client *dtp.Client, logger *slog.Logger) *Elements {
	return &Elements{
		migrator:       migrator{client: client, logger: logger},
		classifier:     NewElementClassifier(cfg),
		baseURL:        cfg.Ontology.BaseURL,
		asDesignedURI:  cfg.MustOntologyURI("isAsDesigned"),
		elementTypeURI: cfg.MustOntologyURI("hasElementType"),
		intentURI:      cfg.MustOntologyURI("intentStatusRelation"),
		defectURI:      cfg.MustOntologyURI("hasGeometricDefect"),
		progressURI:    cfg.MustOntologyURI("progress"),
		timeStampURI:   cfg.MustOntologyURI("timeStamp"),
		legacyFlagURI:  cfg.Ontology.LegacyFlagURI,
	}
}

// Update fetches all element nodes, classifies them, and applies the
// selected fixes to the selected side. Returns per-side update counts.
func (e *Elements) Update(ctx context.Context, side types.Side, fix types.Fix, convertMap ontology.ConversionMap) (types.UpdateCounts, error) {
	var counts types.UpdateCounts

	e.logger.Info("fetching element nodes")
	all, err := e.client.QueryAllPages(ctx, e.client.FetchElementNodes)
	if err != nil {
		return counts, fmt.Errorf("failed to fetch element nodes: %w", err)
	}
	e.logger.Info("classifying element nodes", "count", len(all.Items))
	classified := e.classifier.Classify(all, fix)

	if side == types.SideAsBuilt || side == types.SideAll {
		n, err := e.updateAsPerf(ctx, classified.AsPerf, convertMap)
		if err != nil {
			return counts, err
		}
		counts.AsPerf = n
	}
	if side == types.SideAsDesigned || side == types.SideAll {
		n, err := e.updateAsPlanned(ctx, classified.AsPlanned, convertMap)
		if err != nil {
			return counts, err
		}
		counts.AsPlanned = n
	}
	return counts, nil
}

func (e *Elements) updateAsPlanned(ctx context.Context, buckets types.ElementBuckets, convertMap ontology.ConversionMap) (int, error) {
	e.logger.Info("updating as-designed element nodes")
	num := 0

	for _, tv := range buckets.Type {
		updated, err := e.migrateType(ctx, tv.IRI, legacyClassField, tv.OldValue, convertMap, e.elementTypeURI, e.baseURL)
		if err != nil {
			return num, err
		}
		if updated {
			num++
		}
	}

	for _, iri := range buckets.AsDesigned {
		if err := e.setAsDesigned(ctx, iri, true); err != nil {
			return num, err
		}
		num++
	}

	for _, iri := range buckets.IRI {
		if err := e.migrateIRI(ctx, iri, strings.Replace(iri, legacyPlannedIRIPattern, currentIRIPattern, 1)); err != nil {
			return num, err
		}
		num++
	}

	n, err := e.migrateLegacyNamespace(ctx, buckets)
	num += n
	return num, err
}

func (e *Elements) updateAsPerf(ctx context.Context, buckets types.ElementBuckets, convertMap ontology.ConversionMap) (int, error) {
	e.logger.Info("updating as-built element nodes")
	num := 0

	for _, tv := range buckets.Type {
		updated, err := e.migrateType(ctx, tv.IRI, e.elementTypeURI, tv.OldValue, convertMap, e.elementTypeURI, e.baseURL)
		if err != nil {
			return num, err
		}
		if updated {
			num++
		}
	}

	for _, iri := range buckets.AsDesigned {
		if err := e.setAsDesigned(ctx, iri, false); err != nil {
			return num, err
		}
		num++
	}

	for _, iri := range buckets.IRI {
		if err := e.migrateIRI(ctx, iri, strings.Replace(iri, legacyPerfIRIPattern, currentIRIPattern, 1)); err != nil {
			return num, err
		}
		num++
	}

	n, err := e.migrateLegacyNamespace(ctx, buckets)
	num += n
	return num, err
}

// setAsDesigned stamps the boolean ontology flag on a node.
func (e *Elements) setAsDesigned(ctx context.Context, iri string, value bool) error {
	if err := e.addFieldChecked(ctx, iri, e.asDesignedURI, value); err != nil {
		return err
	}
	e.logger.Debug("isAsDesigned updated", "iri", iri, "value", value)
	return nil
}

// migrateLegacyNamespace moves the isAsDesigned flag out of the retired
// namespace and strips the progress field from as-planned nodes.
func (e *Elements) migrateLegacyNamespace(ctx context.Context, buckets types.ElementBuckets) (int, error) {
	num := 0
	for _, fv := range buckets.Flag {
		if err := e.deleteFieldChecked(ctx, fv.IRI, e.legacyFlagURI, fv.Value); err != nil {
			return num, err
		}
		if err := e.addFieldChecked(ctx, fv.IRI, e.asDesignedURI, fv.Value); err != nil {
			return num, err
		}
		num++
	}
	for _, pv := range buckets.Progress {
		if err := e.deleteFieldChecked(ctx, pv.IRI, e.progressURI, pv.Value); err != nil {
			return num, err
		}
		num++
	}
	return num, nil
}

// migrateIRI renames a node by rebuilding it at the new IRI. Destructive
// and not atomic: a crash between delete and create leaves the node
// missing, with the session log as the recovery path.
func (e *Elements) migrateIRI(ctx context.Context, oldIRI, newIRI string) error {
	set, err := e.client.FetchNode(ctx, oldIRI)
	if err != nil {
		return err
	}
	if len(set.Items) == 0 {
		return &dtp.RemoteOperationError{Op: "fetch", IRI: oldIRI}
	}
	node := set.Items[0]

	progress, ok := node.Field(e.progressURI)
	if !ok {
		return fmt.Errorf("node %s has no %s field, cannot rebuild", oldIRI, e.progressURI)
	}
	timestamp, ok := node.Field(e.timeStampURI)
	if !ok {
		return fmt.Errorf("node %s has no %s field, cannot rebuild", oldIRI, e.timeStampURI)
	}

	var elementType, intentTarget, defect string
	for _, edge := range node.OutEdges() {
		switch edge.Label {
		case e.elementTypeURI:
			elementType = edge.TargetIRI
		case e.intentURI:
			intentTarget = edge.TargetIRI
		case e.defectURI:
			defect = edge.TargetIRI
		default:
			return &dtp.SchemaAssumptionError{IRI: oldIRI, Label: edge.Label}
		}
	}
	if elementType == "" || intentTarget == "" {
		return fmt.Errorf("node %s is missing its element type or intent status edge, cannot rebuild", oldIRI)
	}

	ok, err = e.client.DeleteNode(ctx, oldIRI)
	if err != nil {
		return err
	}
	if !ok {
		return &dtp.RemoteOperationError{Op: "delete", IRI: oldIRI}
	}

	fields := map[string]any{
		e.progressURI:  progress,
		e.timeStampURI: timestamp,
	}
	edges := []types.Edge{
		{Label: e.elementTypeURI, TargetIRI: elementType},
		{Label: e.intentURI, TargetIRI: intentTarget},
	}
	ok, err = e.client.CreateNode(ctx, newIRI, fields, edges)
	if err != nil {
		return err
	}
	if !ok {
		return &dtp.RemoteOperationError{Op: "create", IRI: newIRI}
	}

	if defect != "" {
		if err := e.linkEdgeChecked(ctx, newIRI, e.defectURI, defect); err != nil {
			return err
		}
	}
	e.logger.Debug("iri updated", "old", oldIRI, "new", newIRI)
	return nil
}
