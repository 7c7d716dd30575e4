package dtp

import (
	"context"
	"fmt"

	"github.com/bim2twin/dtpfix/pkg/types"
)

type deleteFieldRequest struct {
	IRI       string `json:"iri"`
	Field     string `json:"field"`
	PrevValue any    `json:"prev_value"`
}

type addFieldRequest struct {
	IRI   string `json:"iri"`
	Field string `json:"field"`
	Value any    `json:"value"`
}

type edgeRequest struct {
	IRI    string `json:"iri"`
	Label  string `json:"label"`
	Target string `json:"target"`
}

type deleteNodeRequest struct {
	IRI string `json:"iri"`
}

type createNodeRequest struct {
	IRI    string         `json:"iri"`
	Fields map[string]any `json:"fields"`
	Edges  []types.Edge   `json:"edges"`
}

// mutate runs a mutating call unless the client is in simulation mode,
// and appends the session entry on (possibly simulated) success. The
// returned bool mirrors the remote success flag; callers own the
// idempotent-recovery logic for refusals.
func (c *Client) mutate(ctx context.Context, path string, body any, entry SessionEntry) (bool, error) {
	if c.simulation {
		if err := c.record(entry); err != nil {
			return false, err
		}
		c.logger.Debug("simulated "+entry.Op, "iri", entry.IRI)
		return true, nil
	}
	var resp mutateResponse
	if err := c.postJSON(ctx, path, body, &resp); err != nil {
		return false, err
	}
	if !resp.Success {
		return false, nil
	}
	if err := c.record(entry); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteField removes a field from a node, guarded by the expected old
// value. The remote refuses when the field is absent or the value does
// not match.
func (c *Client) DeleteField(ctx context.Context, iri, field string, prevValue any) (bool, error) {
	return c.mutate(ctx, "/api/fields/delete",
		deleteFieldRequest{IRI: iri, Field: field, PrevValue: prevValue},
		SessionEntry{Op: OpDeleteField, IRI: iri, Field: field, OldValue: prevValue})
}

// AddField adds a field to a node. The remote refuses when the field is
// already present.
func (c *Client) AddField(ctx context.Context, iri, field string, value any) (bool, error) {
	return c.mutate(ctx, "/api/fields/add",
		addFieldRequest{IRI: iri, Field: field, Value: value},
		SessionEntry{Op: OpAddField, IRI: iri, Field: field, NewValue: value})
}

// LinkEdge creates an outgoing typed edge from iri to target.
func (c *Client) LinkEdge(ctx context.Context, iri, label, target string) (bool, error) {
	return c.mutate(ctx, "/api/edges/link",
		edgeRequest{IRI: iri, Label: label, Target: target},
		SessionEntry{Op: OpLinkEdge, IRI: iri, Label: label, Target: target})
}

// UnlinkEdge removes an outgoing typed edge.
func (c *Client) UnlinkEdge(ctx context.Context, iri, label, target string) (bool, error) {
	return c.mutate(ctx, "/api/edges/unlink",
		edgeRequest{IRI: iri, Label: label, Target: target},
		SessionEntry{Op: OpUnlinkEdge, IRI: iri, Label: label, Target: target})
}

// DeleteNode removes a node entirely. A pre-delete snapshot goes into the
// session log so the reverter can rebuild the node.
func (c *Client) DeleteNode(ctx context.Context, iri string) (bool, error) {
	set, err := c.FetchNode(ctx, iri)
	if err != nil {
		return false, fmt.Errorf("failed to snapshot node %s before delete: %w", iri, err)
	}
	if len(set.Items) == 0 {
		return false, nil
	}
	return c.mutate(ctx, "/api/nodes/delete",
		deleteNodeRequest{IRI: iri},
		SessionEntry{Op: OpDeleteNode, IRI: iri, Node: set.Items[0]})
}

// CreateNode creates a node at iri with the given ontology fields and
// outgoing edges.
func (c *Client) CreateNode(ctx context.Context, iri string, fields map[string]any, edges []types.Edge) (bool, error) {
	return c.mutate(ctx, "/api/nodes/create",
		createNodeRequest{IRI: iri, Fields: fields, Edges: edges},
		SessionEntry{Op: OpCreateNode, IRI: iri})
}
