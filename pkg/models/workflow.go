package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, not executable
	WorkflowStatusActive   WorkflowStatus = "active"   // Published, eligible for execution
	WorkflowStatusArchived WorkflowStatus = "archived" // Retired, kept for history
)

// Valid reports whether s is a known status.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowStatusDraft, WorkflowStatusActive, WorkflowStatusArchived:
		return true
	default:
		return false
	}
}

// Workflow is the persisted representation of a workflow definition, the
// format exchanged with the save endpoint and the external runner.
type Workflow struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"                   validate:"required,min=3"`
	Description string         `json:"description"`
	Nodes       []WireNode     `json:"nodes"`
	Edges       []WireEdge     `json:"edges"`
	Status      WorkflowStatus `json:"status"                 validate:"required,oneof=draft active archived"`
	Owner       string         `json:"owner,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
}

// WireNode is a node on the wire. Type is the node kind and Data holds the
// kind-specific config merged with the label.
type WireNode struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data"`
}

// WireEdge is an edge on the wire.
type WireEdge struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	Target       string     `json:"target"`
	Label        string     `json:"label,omitempty"`
	SourceHandle string     `json:"sourceHandle,omitempty"`
	TargetHandle string     `json:"targetHandle,omitempty"`
	Animated     bool       `json:"animated,omitempty"`
	Style        *EdgeStyle `json:"style,omitempty"`
}
