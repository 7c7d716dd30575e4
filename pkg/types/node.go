package types

import "encoding/json"

// System field names used by the DTP graph API. Every node payload carries
// its IRI and outgoing typed edges under these keys, next to an arbitrary
// set of ontology field URIs.
const (
	FieldIRI      = "_iri"
	FieldOutEdges = "_outE"
	EdgeLabelKey  = "_label"
	EdgeTargetKey = "_targetIRI"
)

// Edge is a single outgoing typed edge of a node.
type Edge struct {
	Label     string `json:"_label"`
	TargetIRI string `json:"_targetIRI"`
}

// Node wraps a raw DTP node record. The DTP returns schemaless JSON
// objects, so the record stays map-backed; all field-presence checks go
// through the accessors below rather than ad hoc map lookups.
type Node struct {
	fields map[string]any
}

// NewNode builds a node from a raw DTP record. The map is not copied;
// callers hand over ownership.
func NewNode(fields map[string]any) *Node {
	if fields == nil {
		fields = map[string]any{}
	}
	return &Node{fields: fields}
}

// IRI returns the node's identifier, or "" if the record is malformed.
func (n *Node) IRI() string {
	iri, _ := n.fields[FieldIRI].(string)
	return iri
}

// HasField reports whether the node carries the given field URI.
// System fields (_iri, _outE) are not ontology fields.
func (n *Node) HasField(uri string) bool {
	if uri == FieldIRI || uri == FieldOutEdges {
		return false
	}
	_, ok := n.fields[uri]
	return ok
}

// StringField returns the field value as a string and whether it exists.
func (n *Node) StringField(uri string) (string, bool) {
	v, ok := n.fields[uri]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// BoolField returns the field value as a bool and whether it exists.
// JSON numbers are not coerced; only real booleans count.
func (n *Node) BoolField(uri string) (bool, bool) {
	v, ok := n.fields[uri]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Field returns the raw field value and whether it exists.
func (n *Node) Field(uri string) (any, bool) {
	v, ok := n.fields[uri]
	return v, ok
}

// Fields returns a copy of the node's ontology fields, system fields
// excluded.
func (n *Node) Fields() map[string]any {
	out := make(map[string]any, len(n.fields))
	for k, v := range n.fields {
		if k == FieldIRI || k == FieldOutEdges {
			continue
		}
		out[k] = v
	}
	return out
}

// OutEdges returns the node's outgoing typed edges. Records fetched from
// the DTP encode them as a list of {_label, _targetIRI} objects.
func (n *Node) OutEdges() []Edge {
	raw, ok := n.fields[FieldOutEdges]
	if !ok {
		return nil
	}
	switch list := raw.(type) {
	case []Edge:
		return list
	case []any:
		edges := make([]Edge, 0, len(list))
		for _, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			label, _ := obj[EdgeLabelKey].(string)
			target, _ := obj[EdgeTargetKey].(string)
			edges = append(edges, Edge{Label: label, TargetIRI: target})
		}
		return edges
	default:
		return nil
	}
}

// MarshalJSON emits the raw record so snapshots round-trip through the
// session log unchanged.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.fields)
}

// UnmarshalJSON restores a node from a logged snapshot.
func (n *Node) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &n.fields)
}
