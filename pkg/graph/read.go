package graph

import "github.com/dukex/stockflow/pkg/models"

// Read access returns copies: changing them never changes the store.

func (s *Store) Nodes() []models.Node {
	nodes := make([]models.Node, 0, len(s.nodes))
	for _, node := range s.nodes {
		nodes = append(nodes, s.copyNode(node))
	}

	return nodes
}

func (s *Store) Edges() []models.Edge {
	edges := make([]models.Edge, 0, len(s.edges))
	for _, edge := range s.edges {
		edges = append(edges, copyEdge(edge))
	}

	return edges
}

func (s *Store) Node(nodeID string) (models.Node, bool) {
	node, ok := s.node(nodeID)
	if !ok {
		return models.Node{}, false
	}

	return s.copyNode(node), true
}

func (s *Store) Edge(edgeID string) (models.Edge, bool) {
	i := s.edgeIndex(edgeID)
	if i < 0 {
		return models.Edge{}, false
	}

	return copyEdge(s.edges[i]), true
}

func (s *Store) SelectedNode() (models.Node, bool) {
	return s.Node(s.selectedNode)
}

func (s *Store) SelectedEdge() (models.Edge, bool) {
	return s.Edge(s.selectedEdge)
}

// Snapshot returns the current graph for validation or serialization.
func (s *Store) Snapshot() models.Graph {
	return models.Graph{Nodes: s.Nodes(), Edges: s.Edges()}
}

func (s *Store) copyNode(node models.Node) models.Node {
	node.Selected = node.ID == s.selectedNode

	// Configs in the store always belong to a registered kind.
	if config, err := s.registry.CloneConfig(node.Config); err == nil {
		node.Config = config
	}

	return node
}

func copyEdge(edge models.Edge) models.Edge {
	if edge.Style != nil {
		style := *edge.Style
		edge.Style = &style
	}

	return edge
}
