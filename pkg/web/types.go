// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/validation"
)

// CreateWorkflowRequest represents the request body for creating a new workflow.
// Nodes and edges are optional; a workflow may start empty and be built
// through the node and edge endpoints.
type CreateWorkflowRequest struct {
	Name        string                `json:"name"             validate:"required,min=3"`
	Description string                `json:"description"`
	Owner       string                `json:"owner"            validate:"required"`
	Status      models.WorkflowStatus `json:"status,omitempty" validate:"omitempty,oneof=draft active"`
	Nodes       []models.WireNode     `json:"nodes"`
	Edges       []models.WireEdge     `json:"edges"`
}

// UpdateWorkflowRequest represents the request body for updating an existing workflow.
// Absent fields keep their stored value; an empty nodes or edges list
// clears the graph.
type UpdateWorkflowRequest struct {
	Name        *string           `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string           `json:"description,omitempty"`
	Owner       *string           `json:"owner,omitempty"       validate:"omitempty,min=1"`
	Nodes       []models.WireNode `json:"nodes,omitempty"`
	Edges       []models.WireEdge `json:"edges,omitempty"`
}

// CreateNodeRequest represents the request body for adding a node. Data is
// applied over the kind defaults and may carry the label.
type CreateNodeRequest struct {
	Type     string          `json:"type"     validate:"required"`
	Position models.Position `json:"position"`
	Data     map[string]any  `json:"data"`
}

// UpdateNodeRequest patches the label and configuration of a node. A null
// value resets a field to its default.
type UpdateNodeRequest struct {
	Data map[string]any `json:"data" validate:"required"`
}

// CreateEdgeRequest connects two nodes. Edges leaving a condition must name
// the true or false handle.
type CreateEdgeRequest struct {
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

type UpdateEdgeRequest struct {
	Label    *string           `json:"label,omitempty"`
	Style    *models.EdgeStyle `json:"style,omitempty"`
	Animated *bool             `json:"animated,omitempty"`
	Reverse  bool              `json:"reverse,omitempty"`
}

func (r UpdateEdgeRequest) Patch() models.EdgePatch {
	return models.EdgePatch{
		Label:    r.Label,
		Style:    r.Style,
		Animated: r.Animated,
		Reverse:  r.Reverse,
	}
}

// ValidationResponse is a validation report split by severity.
type ValidationResponse struct {
	Valid    bool           `json:"valid"`
	Errors   []models.Issue `json:"errors"`
	Warnings []models.Issue `json:"warnings"`
}

func NewValidationResponse(report validation.Report) ValidationResponse {
	response := ValidationResponse{
		Valid:    !report.HasErrors(),
		Errors:   report.Errors(),
		Warnings: report.Warnings(),
	}

	if response.Errors == nil {
		response.Errors = []models.Issue{}
	}

	if response.Warnings == nil {
		response.Warnings = []models.Issue{}
	}

	return response
}

// WorkflowResponse is a stored workflow with the issues found in it.
type WorkflowResponse struct {
	*models.Workflow

	Validation ValidationResponse `json:"validation"`
}

// EditResponse is returned by node and edge edits. ID names the node or
// edge that was created or changed.
type EditResponse struct {
	ID         string             `json:"id"`
	Workflow   *models.Workflow   `json:"workflow"`
	Validation ValidationResponse `json:"validation"`
}
