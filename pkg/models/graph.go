package models

// Graph is a snapshot of the nodes and edges of one workflow.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// NodeByID returns the node with the given id.
func (g Graph) NodeByID(id string) (Node, bool) {
	for _, node := range g.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return Node{}, false
}

// Outgoing returns the edges leaving the given node, in graph order.
func (g Graph) Outgoing(nodeID string) []Edge {
	var edges []Edge

	for _, edge := range g.Edges {
		if edge.Source == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// Incident returns the edges that start or end at the given node.
func (g Graph) Incident(nodeID string) []Edge {
	var edges []Edge

	for _, edge := range g.Edges {
		if edge.Source == nodeID || edge.Target == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}
