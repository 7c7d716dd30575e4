package fixes

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bim2twin/dtpfix/pkg/dtp"
	"github.com/bim2twin/dtpfix/pkg/ontology"
)

// migrator wraps the client calls every fix pass shares: each primitive
// treats a remote refusal that re-fetching explains as an already-applied
// change (recovery from a partial prior run), and anything else as fatal.
type migrator struct {
	client *dtp.Client
	logger *slog.Logger
}

// deleteFieldChecked removes a field with the old value as guard. A
// refusal is accepted only when the field turns out to be gone already.
func (m *migrator) deleteFieldChecked(ctx context.Context, iri, field string, prev any) error {
	ok, err := m.client.DeleteField(ctx, iri, field, prev)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	set, err := m.client.FetchNode(ctx, iri)
	if err != nil {
		return err
	}
	if len(set.Items) == 1 && !set.Items[0].HasField(field) {
		return nil
	}
	return &dtp.RemoteOperationError{Op: "delete", IRI: iri, Field: field}
}

// addFieldChecked adds a field; a refusal is accepted when the field is
// already present.
func (m *migrator) addFieldChecked(ctx context.Context, iri, field string, value any) error {
	ok, err := m.client.AddField(ctx, iri, field, value)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	set, err := m.client.FetchNode(ctx, iri)
	if err != nil {
		return err
	}
	if len(set.Items) == 1 && set.Items[0].HasField(field) {
		return nil
	}
	return &dtp.RemoteOperationError{Op: "add", IRI: iri, Field: field}
}

// linkEdgeChecked links a typed edge; a refusal is accepted when the
// identical edge already exists.
func (m *migrator) linkEdgeChecked(ctx context.Context, iri, label, target string) error {
	ok, err := m.client.LinkEdge(ctx, iri, label, target)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	set, err := m.client.FetchNode(ctx, iri)
	if err != nil {
		return err
	}
	if len(set.Items) == 1 {
		for _, edge := range set.Items[0].OutEdges() {
			if edge.Label == label && edge.TargetIRI == target {
				return nil
			}
		}
	}
	return &dtp.RemoteOperationError{Op: "link", IRI: iri, Field: label}
}

// migrateType replaces a legacy type field with the canonical typed edge.
// Values already under the current ontology namespace skip the conversion
// map and are re-linked as-is; a nil map (task/activity levels) carries
// the value over unchanged. The returned bool reports whether the node
// counts as updated; explicitly ignored values do not.
func (m *migrator) migrateType(ctx context.Context, iri, sourceField, oldValue string, convertMap ontology.ConversionMap, edgeLabel, baseURL string) (bool, error) {
	newValue := oldValue
	if convertMap != nil && !strings.Contains(oldValue, baseURL) {
		switch res := convertMap.Resolve(oldValue); res.Kind {
		case ontology.Ignore:
			return false, nil
		case ontology.MissingMapping:
			return false, &dtp.ConfigurationError{IRI: iri, Value: oldValue}
		case ontology.Mapped:
			newValue = res.Value
		}
	}

	if err := m.deleteFieldChecked(ctx, iri, sourceField, oldValue); err != nil {
		return false, err
	}
	if err := m.linkEdgeChecked(ctx, iri, edgeLabel, newValue); err != nil {
		return false, err
	}
	m.logger.Debug("type updated", "iri", iri, "old", oldValue, "new", newValue)
	return true, nil
}
