package dtp

import "fmt"

// ConfigurationError reports a conversion map that has no entry for a
// legacy value. The map is expected to cover every legacy label, so this
// aborts the run rather than skipping the node.
type ConfigurationError struct {
	IRI   string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("'%s' in node %s not found in ontology conversion map", e.Value, e.IRI)
}

// RemoteOperationError reports a mutating DTP call that failed and could
// not be explained as an already-applied change.
type RemoteOperationError struct {
	Op    string
	IRI   string
	Field string
}

func (e *RemoteOperationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("failed to %s %s on node %s", e.Op, e.Field, e.IRI)
	}
	return fmt.Sprintf("failed to %s node %s", e.Op, e.IRI)
}

// SchemaAssumptionError reports an outgoing edge label the IRI-rename
// migration does not know how to carry over. Rebuilding the node would
// silently drop the edge, so the migration aborts instead.
type SchemaAssumptionError struct {
	IRI   string
	Label string
}

func (e *SchemaAssumptionError) Error() string {
	return fmt.Sprintf("unexpected outgoing edge %s on node %s", e.Label, e.IRI)
}
