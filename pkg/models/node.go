// Package models defines the workflow definition graph: typed nodes, edges
// with conditional branch semantics, and the persisted workflow format.
package models

import "fmt"

// Position is the canvas coordinate of a node. It is owned by the canvas
// and passed through without interpretation.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of the workflow graph.
type Node struct {
	ID       string
	Kind     NodeKind
	Position Position
	Label    string
	Config   NodeConfig
	Selected bool
}

// Validate checks that the node carries an id and a config of its own kind.
func (n *Node) Validate() error {
	if n.ID == "" {
		return &StructuralError{Op: "Node.Validate", Msg: "node id cannot be empty", Err: ErrEmptyID}
	}

	if n.Config == nil {
		return &StructuralError{
			Op:     "Node.Validate",
			NodeID: n.ID,
			Msg:    fmt.Sprintf("node of kind %q has no config", n.Kind),
			Err:    ErrKindMismatch,
		}
	}

	if n.Config.Kind() != n.Kind {
		return &StructuralError{
			Op:     "Node.Validate",
			NodeID: n.ID,
			Msg:    fmt.Sprintf("config of kind %q attached to %q node", n.Config.Kind(), n.Kind),
			Err:    ErrKindMismatch,
		}
	}

	return nil
}

// IsTerminal reports whether the node ends a workflow path.
func (n Node) IsTerminal() bool {
	return n.Kind == KindEnd
}

// IsAnnotation reports whether the node is a canvas annotation that never
// takes part in execution.
func (n Node) IsAnnotation() bool {
	return n.Kind == KindText
}
