// Package graph holds the nodes and edges of the workflow being edited and
// applies every mutation to them. The store is single-writer: it is owned by
// one editor session and is not safe for concurrent use.
package graph

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/dukex/stockflow/pkg/branch"
	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/registry"
	"github.com/google/uuid"
)

var defaultDuplicateOffset = models.Position{X: 40, Y: 40}

type Store struct {
	logger   *slog.Logger
	registry *registry.Registry
	resolver *branch.Resolver
	newID    func() string
	offset   models.Position

	nodes []models.Node
	edges []models.Edge

	selectedNode string
	selectedEdge string
}

type Option func(*Store)

// WithIDGenerator replaces the random UUID generator used for nodes and
// non-condition edges.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithDuplicateOffset sets how far a duplicated node is moved from its
// original. A zero offset is ignored.
func WithDuplicateOffset(dx, dy float64) Option {
	return func(s *Store) {
		if dx != 0 || dy != 0 {
			s.offset = models.Position{X: dx, Y: dy}
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func NewStore(reg *registry.Registry, opts ...Option) *Store {
	s := &Store{
		logger:   slog.Default(),
		registry: reg,
		newID:    uuid.NewString,
		offset:   defaultDuplicateOffset,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("module", "graph_store")
	s.resolver = branch.NewResolver(s.newID)

	return s
}

// AddNode creates a node of kind with the registry defaults and returns its
// id.
func (s *Store) AddNode(kind models.NodeKind, position models.Position) (string, error) {
	config, err := s.registry.NewConfig(kind)
	if err != nil {
		return "", err
	}

	node := models.Node{
		ID:       s.newID(),
		Kind:     kind,
		Position: position,
		Label:    kind.DefaultLabel(),
		Config:   config,
	}

	s.nodes = append(s.nodes, node)

	s.logger.Debug("Node added", "node_id", node.ID, "kind", kind)

	return node.ID, nil
}

// UpdateNodeData merges patch into the node label and config. Keys absent
// from patch keep their value. Unknown node ids are ignored.
func (s *Store) UpdateNodeData(nodeID string, patch models.Patch) error {
	i := s.nodeIndex(nodeID)
	if i < 0 {
		s.logger.Debug("Ignoring update of unknown node", "node_id", nodeID)

		return nil
	}

	node := s.nodes[i]
	configPatch := make(models.Patch, len(patch))

	for field, value := range patch {
		if field != models.LabelField {
			configPatch[field] = value

			continue
		}

		// labels are never empty
		switch label := value.(type) {
		case nil:
			node.Label = node.Kind.DefaultLabel()
		case string:
			node.Label = label
			if label == "" {
				node.Label = node.Kind.DefaultLabel()
			}
		default:
			return &registry.FieldError{
				Kind:  node.Kind,
				Field: models.LabelField,
				Msg:   fmt.Sprintf("expected string, got %T", value),
				Err:   registry.ErrInvalidFieldValue,
			}
		}
	}

	if len(configPatch) > 0 {
		config, err := s.registry.ApplyPatch(node.Config, configPatch)
		if err != nil {
			return err
		}

		node.Config = config
	}

	s.nodes[i] = node

	return nil
}

// DeleteNode removes the node and every edge touching it.
func (s *Store) DeleteNode(nodeID string) {
	i := s.nodeIndex(nodeID)
	if i < 0 {
		return
	}

	s.nodes = slices.Delete(s.nodes, i, i+1)

	removed := 0
	s.edges = slices.DeleteFunc(s.edges, func(edge models.Edge) bool {
		touches := edge.Source == nodeID || edge.Target == nodeID
		if touches {
			removed++

			if edge.ID == s.selectedEdge {
				s.selectedEdge = ""
			}
		}

		return touches
	})

	if s.selectedNode == nodeID {
		s.selectedNode = ""
	}

	s.logger.Debug("Node deleted", "node_id", nodeID, "edges_removed", removed)
}

// DuplicateNode copies node under a new id, moved by the duplicate offset.
// The copy is unselected and has no edges.
func (s *Store) DuplicateNode(node models.Node) (string, error) {
	if err := s.checkNode(node); err != nil {
		return "", err
	}

	config, err := s.registry.CloneConfig(node.Config)
	if err != nil {
		return "", err
	}

	duplicate := models.Node{
		ID:   s.newID(),
		Kind: node.Kind,
		Position: models.Position{
			X: node.Position.X + s.offset.X,
			Y: node.Position.Y + s.offset.Y,
		},
		Label:  node.Label,
		Config: config,
	}

	if duplicate.Label == "" {
		duplicate.Label = node.Kind.DefaultLabel()
	}

	s.nodes = append(s.nodes, duplicate)

	s.logger.Debug("Node duplicated", "node_id", node.ID, "duplicate_id", duplicate.ID)

	return duplicate.ID, nil
}

// Connect adds the edge described by conn and returns its id. A condition
// handle that is already connected is moved to the new target. Connecting
// two plain nodes twice the same way returns the existing edge.
func (s *Store) Connect(conn models.Connection) (string, error) {
	source, err := s.endpoint("Store.Connect", conn.Source)
	if err != nil {
		return "", err
	}

	if _, err := s.endpoint("Store.Connect", conn.Target); err != nil {
		return "", err
	}

	if source.IsTerminal() {
		return "", &models.StructuralError{
			Op:     "Store.Connect",
			NodeID: source.ID,
			Msg:    "end nodes cannot have outgoing edges",
			Err:    models.ErrTerminalNode,
		}
	}

	edge, err := s.resolver.Resolve(source, conn)
	if err != nil {
		return "", err
	}

	if source.Kind == models.KindCondition {
		s.upsertBranch(edge)

		s.logger.Debug("Branch connected", "edge_id", edge.ID, "handle", edge.SourceHandle)

		return edge.ID, nil
	}

	for _, existing := range s.edges {
		if existing.Source == edge.Source && existing.Target == edge.Target &&
			existing.SourceHandle == edge.SourceHandle && existing.TargetHandle == edge.TargetHandle {
			return existing.ID, nil
		}
	}

	s.edges = append(s.edges, edge)

	s.logger.Debug("Nodes connected", "edge_id", edge.ID, "source", edge.Source, "target", edge.Target)

	return edge.ID, nil
}

// upsertBranch stores a condition edge in place of whatever edge used the
// same (source, handle) before, keeping its position in the edge list. An
// unrelated edge that still carries the branch id, as stored documents may,
// is renamed rather than dropped.
func (s *Store) upsertBranch(edge models.Edge) {
	replaced := func(existing models.Edge) bool {
		return existing.Source == edge.Source && existing.SourceHandle == edge.SourceHandle
	}

	at := slices.IndexFunc(s.edges, replaced)

	if i := s.edgeIndex(s.selectedEdge); i >= 0 && replaced(s.edges[i]) && s.selectedEdge != edge.ID {
		s.selectedEdge = ""
	}

	s.edges = slices.DeleteFunc(s.edges, replaced)

	if i := s.edgeIndex(edge.ID); i >= 0 {
		renamed := s.newID()

		if s.selectedEdge == edge.ID {
			s.selectedEdge = renamed
		}

		s.edges[i].ID = renamed
	}

	if at < 0 || at > len(s.edges) {
		s.edges = append(s.edges, edge)

		return
	}

	s.edges = slices.Insert(s.edges, at, edge)
}

// UpdateEdgeData merges patch into the edge. Reverse swaps both endpoints
// and their handles in one step and re-applies the branch convention for
// the new source. Unknown edge ids are ignored.
func (s *Store) UpdateEdgeData(edgeID string, patch models.EdgePatch) error {
	i := s.edgeIndex(edgeID)
	if i < 0 {
		s.logger.Debug("Ignoring update of unknown edge", "edge_id", edgeID)

		return nil
	}

	edge := s.edges[i]

	if patch.Reverse {
		reversed, err := s.reverse(edge)
		if err != nil {
			return err
		}

		edge = reversed
	}

	source, _ := s.node(edge.Source)

	if patch.Label != nil {
		if err := checkLabel(source, edge, *patch.Label); err != nil {
			return err
		}

		edge.Label = *patch.Label
	}

	if patch.Style != nil {
		edge.Style = mergeStyle(edge.Style, patch.Style)
	}

	if patch.Animated != nil {
		edge.Animated = *patch.Animated
	}

	if patch.Reverse && source.Kind == models.KindCondition {
		// The reversed edge now occupies a condition handle.
		s.edges = slices.Delete(s.edges, i, i+1)
		s.upsertBranch(edge)
	} else {
		s.edges[i] = edge
	}

	if s.selectedEdge == edgeID {
		s.selectedEdge = edge.ID
	}

	return nil
}

func (s *Store) reverse(edge models.Edge) (models.Edge, error) {
	reversed := edge.Reversed()

	source, err := s.endpoint("Store.UpdateEdgeData", reversed.Source)
	if err != nil {
		return models.Edge{}, err
	}

	if source.IsTerminal() {
		return models.Edge{}, &models.StructuralError{
			Op:     "Store.UpdateEdgeData",
			EdgeID: edge.ID,
			Msg:    "reversing would make an end node the source",
			Err:    models.ErrTerminalNode,
		}
	}

	return s.resolver.Retag(source, reversed)
}

func checkLabel(source models.Node, edge models.Edge, label string) error {
	if !branch.IsReservedLabel(label) {
		return nil
	}

	if source.Kind == models.KindCondition && label == edge.SourceHandle {
		return nil
	}

	return &models.StructuralError{
		Op:     "Store.UpdateEdgeData",
		EdgeID: edge.ID,
		Msg:    fmt.Sprintf("label %q is reserved for the %s branch of a condition", label, label),
		Err:    models.ErrReservedLabel,
	}
}

func mergeStyle(current, patch *models.EdgeStyle) *models.EdgeStyle {
	merged := models.EdgeStyle{}
	if current != nil {
		merged = *current
	}

	if patch.Stroke != "" {
		merged.Stroke = patch.Stroke
	}

	if patch.StrokeWidth != 0 {
		merged.StrokeWidth = patch.StrokeWidth
	}

	if patch.LineType != "" {
		merged.LineType = patch.LineType
	}

	if patch.MarkerStart != "" {
		merged.MarkerStart = patch.MarkerStart
	}

	if patch.MarkerEnd != "" {
		merged.MarkerEnd = patch.MarkerEnd
	}

	return &merged
}

func (s *Store) DeleteEdge(edgeID string) {
	i := s.edgeIndex(edgeID)
	if i < 0 {
		return
	}

	s.edges = slices.Delete(s.edges, i, i+1)

	if s.selectedEdge == edgeID {
		s.selectedEdge = ""
	}
}

// SetSelectedNode selects node and clears the edge selection. Nil clears the
// node selection.
func (s *Store) SetSelectedNode(node *models.Node) error {
	if node == nil {
		s.selectedNode = ""

		return nil
	}

	if s.nodeIndex(node.ID) < 0 {
		return &models.StructuralError{Op: "Store.SetSelectedNode", NodeID: node.ID, Err: models.ErrNodeNotFound}
	}

	s.selectedNode = node.ID
	s.selectedEdge = ""

	return nil
}

// SetSelectedEdge selects edge and clears the node selection. Nil clears the
// edge selection.
func (s *Store) SetSelectedEdge(edge *models.Edge) error {
	if edge == nil {
		s.selectedEdge = ""

		return nil
	}

	if s.edgeIndex(edge.ID) < 0 {
		return &models.StructuralError{Op: "Store.SetSelectedEdge", EdgeID: edge.ID, Err: models.ErrEdgeNotFound}
	}

	s.selectedEdge = edge.ID
	s.selectedNode = ""

	return nil
}

// SetNodes replaces every node. Edges whose endpoints no longer exist are
// dropped. Nothing changes when a node is rejected.
func (s *Store) SetNodes(nodes []models.Node) error {
	prepared, err := s.prepareNodes("Store.SetNodes", nodes)
	if err != nil {
		return err
	}

	ids := nodeIDs(prepared)

	s.nodes = prepared
	s.edges = slices.DeleteFunc(s.edges, func(edge models.Edge) bool {
		return !ids[edge.Source] || !ids[edge.Target]
	})

	if !ids[s.selectedNode] {
		s.selectedNode = ""
	}

	if s.edgeIndex(s.selectedEdge) < 0 {
		s.selectedEdge = ""
	}

	return nil
}

// SetEdges replaces every edge. Nothing changes when an edge is rejected.
func (s *Store) SetEdges(edges []models.Edge) error {
	prepared, err := s.prepareEdges("Store.SetEdges", s.nodes, edges)
	if err != nil {
		return err
	}

	s.edges = prepared

	if s.edgeIndex(s.selectedEdge) < 0 {
		s.selectedEdge = ""
	}

	return nil
}

// Load replaces the whole graph at once and clears the selection.
func (s *Store) Load(graph models.Graph) error {
	nodes, err := s.prepareNodes("Store.Load", graph.Nodes)
	if err != nil {
		return err
	}

	edges, err := s.prepareEdges("Store.Load", nodes, graph.Edges)
	if err != nil {
		return err
	}

	s.nodes = nodes
	s.edges = edges
	s.selectedNode = ""
	s.selectedEdge = ""

	s.logger.Debug("Graph loaded", "nodes", len(nodes), "edges", len(edges))

	return nil
}

// Clear empties the canvas.
func (s *Store) Clear() {
	s.nodes = nil
	s.edges = nil
	s.selectedNode = ""
	s.selectedEdge = ""
}

func (s *Store) prepareNodes(op string, nodes []models.Node) ([]models.Node, error) {
	prepared := make([]models.Node, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))

	for _, node := range nodes {
		if err := s.checkNode(node); err != nil {
			return nil, err
		}

		if seen[node.ID] {
			return nil, &models.StructuralError{Op: op, NodeID: node.ID, Err: models.ErrDuplicateNodeID}
		}

		seen[node.ID] = true

		config, err := s.registry.CloneConfig(node.Config)
		if err != nil {
			return nil, err
		}

		node.Config = config
		node.Selected = false

		if node.Label == "" {
			node.Label = node.Kind.DefaultLabel()
		}

		prepared = append(prepared, node)
	}

	return prepared, nil
}

func (s *Store) prepareEdges(op string, nodes []models.Node, edges []models.Edge) ([]models.Edge, error) {
	byID := make(map[string]models.Node, len(nodes))
	for _, node := range nodes {
		byID[node.ID] = node
	}

	prepared := make([]models.Edge, 0, len(edges))
	seen := make(map[string]bool, len(edges))
	branches := make(map[string]bool)

	for _, edge := range edges {
		if edge.ID == "" {
			return nil, &models.StructuralError{Op: op, Msg: "edge id cannot be empty", Err: models.ErrEmptyID}
		}

		if seen[edge.ID] {
			return nil, &models.StructuralError{Op: op, EdgeID: edge.ID, Err: models.ErrDuplicateEdgeID}
		}

		seen[edge.ID] = true

		source, ok := byID[edge.Source]
		if !ok {
			return nil, danglingEdge(op, edge, edge.Source)
		}

		if _, ok := byID[edge.Target]; !ok {
			return nil, danglingEdge(op, edge, edge.Target)
		}

		if source.IsTerminal() {
			return nil, &models.StructuralError{Op: op, EdgeID: edge.ID, Msg: "edge leaves an end node", Err: models.ErrTerminalNode}
		}

		if source.Kind == models.KindCondition {
			if !branch.IsBranchHandle(edge.SourceHandle) {
				return nil, &models.StructuralError{
					Op:     op,
					EdgeID: edge.ID,
					Msg:    fmt.Sprintf("condition output %q is neither true nor false", edge.SourceHandle),
					Err:    models.ErrInvalidHandle,
				}
			}

			key := edge.Source + "/" + edge.SourceHandle
			if branches[key] {
				return nil, &models.StructuralError{
					Op:     op,
					EdgeID: edge.ID,
					Msg:    fmt.Sprintf("%s branch of %s is connected twice", edge.SourceHandle, edge.Source),
					Err:    models.ErrDuplicateBranch,
				}
			}

			branches[key] = true
		}

		if edge.Style != nil {
			style := *edge.Style
			edge.Style = &style
		}

		prepared = append(prepared, edge)
	}

	return prepared, nil
}

func danglingEdge(op string, edge models.Edge, missing string) error {
	return &models.StructuralError{
		Op:     op,
		EdgeID: edge.ID,
		Msg:    fmt.Sprintf("node %q does not exist", missing),
		Err:    models.ErrDanglingEdge,
	}
}

func (s *Store) checkNode(node models.Node) error {
	if _, err := s.registry.Lookup(node.Kind); err != nil {
		return err
	}

	return node.Validate()
}

func (s *Store) endpoint(op, nodeID string) (models.Node, error) {
	if nodeID == "" {
		return models.Node{}, &models.StructuralError{Op: op, Msg: "node id cannot be empty", Err: models.ErrEmptyID}
	}

	node, ok := s.node(nodeID)
	if !ok {
		return models.Node{}, &models.StructuralError{Op: op, NodeID: nodeID, Err: models.ErrNodeNotFound}
	}

	return node, nil
}

func (s *Store) node(nodeID string) (models.Node, bool) {
	i := s.nodeIndex(nodeID)
	if i < 0 {
		return models.Node{}, false
	}

	return s.nodes[i], true
}

func (s *Store) nodeIndex(nodeID string) int {
	if nodeID == "" {
		return -1
	}

	return slices.IndexFunc(s.nodes, func(node models.Node) bool { return node.ID == nodeID })
}

func (s *Store) edgeIndex(edgeID string) int {
	if edgeID == "" {
		return -1
	}

	return slices.IndexFunc(s.edges, func(edge models.Edge) bool { return edge.ID == edgeID })
}

func nodeIDs(nodes []models.Node) map[string]bool {
	ids := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		ids[node.ID] = true
	}

	return ids
}
