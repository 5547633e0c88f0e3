// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/stockflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestWorkflow creates a publishable wire workflow (a manual trigger
// wired to an end node) with default values that can be overridden.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Test Workflow",
		Description: "A workflow for testing",
		Status:      models.WorkflowStatusDraft,
		Owner:       "test-user",
		Nodes: []models.WireNode{
			CreateTestNode("trigger-1", models.KindTrigger, map[string]any{
				"label":       "Start",
				"triggerType": string(models.TriggerManual),
			}),
			CreateTestNode("end-1", models.KindEnd, map[string]any{
				"label":   "Done",
				"outcome": string(models.OutcomeCompleted),
			}),
		},
		Edges: []models.WireEdge{
			CreateTestEdge("trigger-1", "end-1"),
		},
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// CreateTestNode creates a wire node at the origin.
func CreateTestNode(id string, kind models.NodeKind, data map[string]any) models.WireNode {
	if data == nil {
		data = map[string]any{"label": kind.DefaultLabel()}
	}

	return models.WireNode{
		ID:   id,
		Type: string(kind),
		Data: data,
	}
}

// CreateTestEdge creates a plain wire edge between two nodes.
func CreateTestEdge(source, target string) models.WireEdge {
	return models.WireEdge{
		ID:     source + "-" + target,
		Source: source,
		Target: target,
		Style:  &models.EdgeStyle{Stroke: "#94a3b8", StrokeWidth: 2},
	}
}

// WithID sets the workflow ID.
func WithID(id string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.ID = id
	}
}

// WithName sets the workflow name.
func WithName(name string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Name = name
	}
}

// WithStatus sets the workflow status.
func WithStatus(status models.WorkflowStatus) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Status = status
	}
}

// WithOwner sets the workflow owner.
func WithOwner(owner string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Owner = owner
	}
}

// WithIncompleteTrigger removes the trigger type. The workflow still saves
// as a draft but validation reports an error, so it cannot be published.
func WithIncompleteTrigger() func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Nodes[0].Data = map[string]any{"label": "Start"}
	}
}

// WithNode appends a node.
func WithNode(node models.WireNode) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Nodes = append(w.Nodes, node)
	}
}

// WithEdge appends an edge.
func WithEdge(edge models.WireEdge) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Edges = append(w.Edges, edge)
	}
}
