package dtp

import (
	"context"
	"fmt"

	"github.com/bim2twin/dtpfix/pkg/types"
)

// Node kinds the DTP query endpoint understands.
const (
	KindElement   = "element"
	KindActivity  = "activity"
	KindOperation = "operation"
	KindTask      = "task"
	KindAction    = "action"
)

// NodeSet is a page (or the concatenation of all pages) of query results.
type NodeSet struct {
	Items []*types.Node
}

// FetchFn fetches one page of nodes. Page numbering starts at 1.
type FetchFn func(ctx context.Context, page int) (*NodeSet, int, error)

type queryRequest struct {
	Kind string `json:"kind"`
	Page int    `json:"page"`
}

type fetchRequest struct {
	IRI string `json:"iri"`
}

type queryResponse struct {
	Items    []map[string]any `json:"items"`
	NextPage int              `json:"next_page"`
}

func (r *queryResponse) nodeSet() *NodeSet {
	set := &NodeSet{Items: make([]*types.Node, 0, len(r.Items))}
	for _, raw := range r.Items {
		set.Items = append(set.Items, types.NewNode(raw))
	}
	return set
}

// fetchKind fetches one page of nodes of the given kind, returning the
// page content and the next page number (0 when exhausted).
func (c *Client) fetchKind(kind string) FetchFn {
	return func(ctx context.Context, page int) (*NodeSet, int, error) {
		var resp queryResponse
		if err := c.postJSON(ctx, "/api/nodes/query", queryRequest{Kind: kind, Page: page}, &resp); err != nil {
			return nil, 0, err
		}
		return resp.nodeSet(), resp.NextPage, nil
	}
}

// FetchElementNodes fetches one page of building element nodes.
func (c *Client) FetchElementNodes(ctx context.Context, page int) (*NodeSet, int, error) {
	return c.fetchKind(KindElement)(ctx, page)
}

// FetchActivityNodes fetches one page of as-planned activity nodes.
func (c *Client) FetchActivityNodes(ctx context.Context, page int) (*NodeSet, int, error) {
	return c.fetchKind(KindActivity)(ctx, page)
}

// FetchOperationNodes fetches one page of as-performed operation nodes.
func (c *Client) FetchOperationNodes(ctx context.Context, page int) (*NodeSet, int, error) {
	return c.fetchKind(KindOperation)(ctx, page)
}

// FetchTaskNodes fetches one page of as-planned task nodes.
func (c *Client) FetchTaskNodes(ctx context.Context, page int) (*NodeSet, int, error) {
	return c.fetchKind(KindTask)(ctx, page)
}

// FetchActionNodes fetches one page of as-performed action nodes.
func (c *Client) FetchActionNodes(ctx context.Context, page int) (*NodeSet, int, error) {
	return c.fetchKind(KindAction)(ctx, page)
}

// QueryAllPages drains a paginated fetcher into a single node set.
func (c *Client) QueryAllPages(ctx context.Context, fetch FetchFn) (*NodeSet, error) {
	all := &NodeSet{}
	page := 1
	for {
		set, next, err := fetch(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		all.Items = append(all.Items, set.Items...)
		c.logger.Debug("fetched page", "page", page, "total", len(all.Items))
		if next == 0 {
			return all, nil
		}
		page = next
	}
}

// FetchNode fetches a single node by IRI. The returned set is empty when
// the node does not exist.
func (c *Client) FetchNode(ctx context.Context, iri string) (*NodeSet, error) {
	var resp queryResponse
	if err := c.postJSON(ctx, "/api/nodes/fetch", fetchRequest{IRI: iri}, &resp); err != nil {
		return nil, err
	}
	return resp.nodeSet(), nil
}
