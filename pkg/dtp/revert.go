package dtp

import (
	"context"
	"fmt"

	"github.com/bim2twin/dtpfix/pkg/types"
)

// RevertLog replays the structural inverse of every entry in a session
// log, most recent mutation first, so dependent changes unwind in order.
// A target that is already in the reverted state counts as success, which
// makes re-reverting a log harmless. Reverts are not themselves logged.
func (c *Client) RevertLog(ctx context.Context, path string) error {
	entries, err := ReadSessionLog(path)
	if err != nil {
		return err
	}
	c.logger.Info("reverting session", "path", path, "entries", len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if err := c.revertEntry(ctx, entries[i]); err != nil {
			return fmt.Errorf("revert of %s entry %d: %w", path, entries[i].Seq, err)
		}
	}
	c.logger.Info("session reverted", "path", path)
	return nil
}

// RevertLogsInDir reverts every session log under dir in filename (hence
// chronological) order, each file fully reverted before the next.
func (c *Client) RevertLogsInDir(ctx context.Context, dir string) error {
	paths, err := ListSessionLogs(dir)
	if err != nil {
		return fmt.Errorf("failed to list session logs in %s: %w", dir, err)
	}
	if len(paths) == 0 {
		c.logger.Warn("no session logs found", "dir", dir)
		return nil
	}
	for _, path := range paths {
		if err := c.RevertLog(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) revertEntry(ctx context.Context, entry SessionEntry) error {
	if entry.Simulated {
		c.logger.Debug("skipping simulated entry", "op", entry.Op, "iri", entry.IRI)
		return nil
	}

	switch entry.Op {
	case OpDeleteField:
		ok, err := c.AddField(ctx, entry.IRI, entry.Field, entry.OldValue)
		if err != nil {
			return err
		}
		if !ok {
			return c.confirmFieldState(ctx, entry, "re-add", true)
		}
	case OpAddField:
		ok, err := c.DeleteField(ctx, entry.IRI, entry.Field, entry.NewValue)
		if err != nil {
			return err
		}
		if !ok {
			return c.confirmFieldState(ctx, entry, "re-delete", false)
		}
	case OpLinkEdge:
		ok, err := c.UnlinkEdge(ctx, entry.IRI, entry.Label, entry.Target)
		if err != nil {
			return err
		}
		if !ok {
			return c.confirmEdgeState(ctx, entry, "unlink", false)
		}
	case OpUnlinkEdge:
		ok, err := c.LinkEdge(ctx, entry.IRI, entry.Label, entry.Target)
		if err != nil {
			return err
		}
		if !ok {
			return c.confirmEdgeState(ctx, entry, "re-link", true)
		}
	case OpDeleteNode:
		if entry.Node == nil {
			return fmt.Errorf("delete_node entry for %s carries no snapshot", entry.IRI)
		}
		ok, err := c.CreateNode(ctx, entry.IRI, entry.Node.Fields(), entry.Node.OutEdges())
		if err != nil {
			return err
		}
		if !ok {
			exists, err := c.nodeExists(ctx, entry.IRI)
			if err != nil {
				return err
			}
			if !exists {
				return &RemoteOperationError{Op: "recreate", IRI: entry.IRI}
			}
		}
	case OpCreateNode:
		ok, err := c.DeleteNode(ctx, entry.IRI)
		if err != nil {
			return err
		}
		if !ok {
			exists, err := c.nodeExists(ctx, entry.IRI)
			if err != nil {
				return err
			}
			if exists {
				return &RemoteOperationError{Op: "re-delete", IRI: entry.IRI}
			}
		}
	default:
		return fmt.Errorf("unknown session op %q for node %s", entry.Op, entry.IRI)
	}
	return nil
}

// confirmFieldState resolves a refused field mutation: if the node is gone
// or the field already has the wanted presence, the revert has effectively
// happened; anything else is a real failure.
func (c *Client) confirmFieldState(ctx context.Context, entry SessionEntry, op string, wantPresent bool) error {
	set, err := c.FetchNode(ctx, entry.IRI)
	if err != nil {
		return err
	}
	if len(set.Items) == 0 {
		return nil
	}
	if set.Items[0].HasField(entry.Field) == wantPresent {
		return nil
	}
	return &RemoteOperationError{Op: op, IRI: entry.IRI, Field: entry.Field}
}

func (c *Client) confirmEdgeState(ctx context.Context, entry SessionEntry, op string, wantPresent bool) error {
	set, err := c.FetchNode(ctx, entry.IRI)
	if err != nil {
		return err
	}
	if len(set.Items) == 0 {
		return nil
	}
	if hasEdge(set.Items[0], entry.Label, entry.Target) == wantPresent {
		return nil
	}
	return &RemoteOperationError{Op: op, IRI: entry.IRI, Field: entry.Label}
}

func (c *Client) nodeExists(ctx context.Context, iri string) (bool, error) {
	set, err := c.FetchNode(ctx, iri)
	if err != nil {
		return false, err
	}
	return len(set.Items) > 0, nil
}

func hasEdge(node *types.Node, label, target string) bool {
	for _, edge := range node.OutEdges() {
		if edge.Label == label && edge.TargetIRI == target {
			return true
		}
	}
	return false
}
