// Package dtptest runs an in-memory stand-in for the DTP graph store,
// exposing the same REST surface the real platform does. Tests point a
// dtp.Client at it and assert on the resulting graph state.
package dtptest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/bim2twin/dtpfix/pkg/types"
)

type nodeRecord struct {
	kind   string
	fields map[string]any
	edges  []types.Edge
}

// Server is an in-memory DTP. All handlers take the store lock, matching
// the single-writer assumption of the tool.
type Server struct {
	mu        sync.Mutex
	nodes     map[string]*nodeRecord
	order     []string
	pageSize  int
	mutations int

	httpServer *httptest.Server
}

// NewServer starts an in-memory DTP with the given query page size.
func NewServer(pageSize int) *Server {
	if pageSize <= 0 {
		pageSize = 50
	}
	s := &Server{
		nodes:    map[string]*nodeRecord{},
		pageSize: pageSize,
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/nodes/query", s.handleQuery)
	router.POST("/api/nodes/fetch", s.handleFetch)
	router.POST("/api/fields/delete", s.handleDeleteField)
	router.POST("/api/fields/add", s.handleAddField)
	router.POST("/api/edges/link", s.handleLinkEdge)
	router.POST("/api/edges/unlink", s.handleUnlinkEdge)
	router.POST("/api/nodes/delete", s.handleDeleteNode)
	router.POST("/api/nodes/create", s.handleCreateNode)

	s.httpServer = httptest.NewServer(router)
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.httpServer.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.httpServer.Close()
}

// AddNode seeds a node of the given kind. Fields must not include the
// system keys; edges are stored separately.
func (s *Server) AddNode(kind, iri string, fields map[string]any, edges []types.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	s.nodes[iri] = &nodeRecord{kind: kind, fields: copied, edges: append([]types.Edge(nil), edges...)}
	s.order = append(s.order, iri)
}

// Node returns a copy of a node's fields and edges for assertions.
func (s *Server) Node(iri string) (map[string]any, []types.Edge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.nodes[iri]
	if !ok {
		return nil, nil, false
	}
	fields := make(map[string]any, len(rec.fields))
	for k, v := range rec.fields {
		fields[k] = v
	}
	return fields, append([]types.Edge(nil), rec.edges...), true
}

// MutationCount returns how many mutating calls succeeded. Simulation
// tests assert this stays zero.
func (s *Server) MutationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutations
}

func (s *Server) render(iri string, rec *nodeRecord) map[string]any {
	out := make(map[string]any, len(rec.fields)+2)
	for k, v := range rec.fields {
		out[k] = v
	}
	out[types.FieldIRI] = iri
	edges := make([]any, 0, len(rec.edges))
	for _, e := range rec.edges {
		edges = append(edges, map[string]any{
			types.EdgeLabelKey:  e.Label,
			types.EdgeTargetKey: e.TargetIRI,
		})
	}
	out[types.FieldOutEdges] = edges
	return out
}

func refuse(c *gin.Context, reason string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "error": reason})
}

func accept(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req struct {
		Kind string `json:"kind"`
		Page int    `json:"page"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []map[string]any
	for _, iri := range s.order {
		rec, ok := s.nodes[iri]
		if !ok || rec.kind != req.Kind {
			continue
		}
		matched = append(matched, s.render(iri, rec))
	}

	start := (req.Page - 1) * s.pageSize
	end := start + s.pageSize
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}
	next := 0
	if end < len(matched) {
		next = req.Page + 1
	}
	c.JSON(http.StatusOK, gin.H{"items": matched[start:end], "next_page": next})
}

func (s *Server) handleFetch(c *gin.Context) {
	var req struct {
		IRI string `json:"iri"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items := []map[string]any{}
	if rec, ok := s.nodes[req.IRI]; ok {
		items = append(items, s.render(req.IRI, rec))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "next_page": 0})
}

// jsonEqual compares a stored value with one that went through a JSON
// round trip (numbers arrive as float64).
func jsonEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(aj) == string(bj)
}

func (s *Server) handleDeleteField(c *gin.Context) {
	var req struct {
		IRI       string `json:"iri"`
		Field     string `json:"field"`
		PrevValue any    `json:"prev_value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.nodes[req.IRI]
	if !ok {
		refuse(c, "node not found")
		return
	}
	current, ok := rec.fields[req.Field]
	if !ok {
		refuse(c, "field not present")
		return
	}
	if !jsonEqual(current, req.PrevValue) {
		refuse(c, "field value mismatch")
		return
	}
	delete(rec.fields, req.Field)
	s.mutations++
	accept(c)
}

func (s *Server) handleAddField(c *gin.Context) {
	var req struct {
		IRI   string `json:"iri"`
		Field string `json:"field"`
		Value any    `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.nodes[req.IRI]
	if !ok {
		refuse(c, "node not found")
		return
	}
	if _, exists := rec.fields[req.Field]; exists {
		refuse(c, "field already present")
		return
	}
	rec.fields[req.Field] = req.Value
	s.mutations++
	accept(c)
}

func (s *Server) handleLinkEdge(c *gin.Context) {
	var req struct {
		IRI    string `json:"iri"`
		Label  string `json:"label"`
		Target string `json:"target"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.nodes[req.IRI]
	if !ok {
		refuse(c, "node not found")
		return
	}
	for _, e := range rec.edges {
		if e.Label == req.Label && e.TargetIRI == req.Target {
			refuse(c, "edge already present")
			return
		}
	}
	rec.edges = append(rec.edges, types.Edge{Label: req.Label, TargetIRI: req.Target})
	s.mutations++
	accept(c)
}

func (s *Server) handleUnlinkEdge(c *gin.Context) {
	var req struct {
		IRI    string `json:"iri"`
		Label  string `json:"label"`
		Target string `json:"target"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.nodes[req.IRI]
	if !ok {
		refuse(c, "node not found")
		return
	}
	for i, e := range rec.edges {
		if e.Label == req.Label && e.TargetIRI == req.Target {
			rec.edges = append(rec.edges[:i], rec.edges[i+1:]...)
			s.mutations++
			accept(c)
			return
		}
	}
	refuse(c, "edge not present")
}

func (s *Server) handleDeleteNode(c *gin.Context) {
	var req struct {
		IRI string `json:"iri"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[req.IRI]; !ok {
		refuse(c, "node not found")
		return
	}
	delete(s.nodes, req.IRI)
	s.mutations++
	accept(c)
}

func (s *Server) handleCreateNode(c *gin.Context) {
	var req struct {
		IRI    string         `json:"iri"`
		Fields map[string]any `json:"fields"`
		Edges  []types.Edge   `json:"edges"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[req.IRI]; ok {
		refuse(c, "node already exists")
		return
	}
	fields := req.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	// Nodes created over the API keep appearing in element queries; the
	// rename fix only rebuilds element-level nodes.
	s.nodes[req.IRI] = &nodeRecord{kind: "element", fields: fields, edges: req.Edges}
	known := false
	for _, iri := range s.order {
		if iri == req.IRI {
			known = true
			break
		}
	}
	if !known {
		s.order = append(s.order, req.IRI)
	}
	s.mutations++
	accept(c)
}
