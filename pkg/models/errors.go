package models

import (
	"errors"
	"fmt"
)

// Structural errors. These are always fatal for the operation that raised
// them and indicate a bug in the caller rather than an incomplete workflow.
var (
	ErrUnknownNodeKind = errors.New("unknown node kind")
	ErrDuplicateNodeID = errors.New("duplicate node id")
	ErrDuplicateEdgeID = errors.New("duplicate edge id")
	ErrNodeNotFound    = errors.New("node not found")
	ErrEdgeNotFound    = errors.New("edge not found")
	ErrDanglingEdge    = errors.New("edge references a missing node")
	ErrKindMismatch    = errors.New("node config does not match node kind")
	ErrInvalidHandle   = errors.New("invalid source handle for condition node")
	ErrDuplicateBranch = errors.New("condition branch already connected")
	ErrTerminalNode    = errors.New("end nodes cannot have outgoing edges")
	ErrReservedLabel   = errors.New("edge label is reserved for condition branches")
	ErrEmptyID         = errors.New("id cannot be empty")
)

// StructuralError carries the operation and the offending ids of a
// structural violation.
type StructuralError struct {
	Op     string // Operation being performed
	NodeID string // Offending node, if any
	EdgeID string // Offending edge, if any
	Msg    string
	Err    error
}

func (e *StructuralError) Error() string {
	target := ""

	switch {
	case e.NodeID != "":
		target = " (node " + e.NodeID + ")"
	case e.EdgeID != "":
		target = " (edge " + e.EdgeID + ")"
	}

	if e.Msg != "" {
		return fmt.Sprintf("%s%s: %s", e.Op, target, e.Msg)
	}

	return fmt.Sprintf("%s%s: %v", e.Op, target, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// IsStructural reports whether err is one of the structural violations.
func IsStructural(err error) bool {
	var structural *StructuralError
	if errors.As(err, &structural) {
		return true
	}

	return errors.Is(err, ErrUnknownNodeKind) ||
		errors.Is(err, ErrDuplicateNodeID) ||
		errors.Is(err, ErrDuplicateEdgeID) ||
		errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrDanglingEdge) ||
		errors.Is(err, ErrKindMismatch) ||
		errors.Is(err, ErrInvalidHandle) ||
		errors.Is(err, ErrDuplicateBranch) ||
		errors.Is(err, ErrReservedLabel) ||
		errors.Is(err, ErrTerminalNode)
}
