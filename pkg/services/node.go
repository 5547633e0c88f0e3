package services

import (
	"context"

	"github.com/dukex/stockflow/pkg/graph"
	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/otelhelper"
	"github.com/dukex/stockflow/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
)

// Node edits the graph of a stored draft one operation at a time. Every
// edit loads the draft into a fresh graph store, applies the operation and
// saves the result through the workflow service.
type Node struct {
	workflows *Workflow
}

func NewNode(workflows *Workflow) *Node {
	return &Node{workflows: workflows}
}

// EditResult is the stored workflow after an edit. ID names the node or
// edge the edit created or touched.
type EditResult struct {
	ID       string            `json:"id,omitempty"`
	Workflow *models.Workflow  `json:"workflow"`
	Report   validation.Report `json:"report"`
}

// AddNode adds a node of kind at position and applies patch to it.
func (n *Node) AddNode(ctx context.Context, workflowID string, kind models.NodeKind, position models.Position, patch models.Patch) (*EditResult, error) {
	return n.edit(ctx, workflowID, "AddNode", func(store *graph.Store) (string, error) {
		id, err := store.AddNode(kind, position)
		if err != nil {
			return "", err
		}

		if len(patch) > 0 {
			if err := store.UpdateNodeData(id, patch); err != nil {
				return "", err
			}
		}

		return id, nil
	})
}

func (n *Node) UpdateNode(ctx context.Context, workflowID, nodeID string, patch models.Patch) (*EditResult, error) {
	return n.edit(ctx, workflowID, "UpdateNode", func(store *graph.Store) (string, error) {
		if _, err := existingNode(store, "UpdateNode", nodeID); err != nil {
			return "", err
		}

		return nodeID, store.UpdateNodeData(nodeID, patch)
	})
}

// DeleteNode removes a node together with its edges.
func (n *Node) DeleteNode(ctx context.Context, workflowID, nodeID string) (*EditResult, error) {
	return n.edit(ctx, workflowID, "DeleteNode", func(store *graph.Store) (string, error) {
		if _, err := existingNode(store, "DeleteNode", nodeID); err != nil {
			return "", err
		}

		store.DeleteNode(nodeID)

		return nodeID, nil
	})
}

// DuplicateNode copies a node without its edges. The result carries the id
// of the copy.
func (n *Node) DuplicateNode(ctx context.Context, workflowID, nodeID string) (*EditResult, error) {
	return n.edit(ctx, workflowID, "DuplicateNode", func(store *graph.Store) (string, error) {
		node, err := existingNode(store, "DuplicateNode", nodeID)
		if err != nil {
			return "", err
		}

		return store.DuplicateNode(node)
	})
}

// Connect adds an edge. Connecting a condition output that is already in
// use moves that branch to the new target.
func (n *Node) Connect(ctx context.Context, workflowID string, conn models.Connection) (*EditResult, error) {
	return n.edit(ctx, workflowID, "Connect", func(store *graph.Store) (string, error) {
		return store.Connect(conn)
	})
}

func (n *Node) UpdateEdge(ctx context.Context, workflowID, edgeID string, patch models.EdgePatch) (*EditResult, error) {
	return n.edit(ctx, workflowID, "UpdateEdge", func(store *graph.Store) (string, error) {
		edge, ok := store.Edge(edgeID)
		if !ok {
			return "", &models.StructuralError{Op: "Node.UpdateEdge", EdgeID: edgeID, Err: models.ErrEdgeNotFound}
		}

		// the selection follows the edge when reversing re-ids it
		if err := store.SetSelectedEdge(&edge); err != nil {
			return "", err
		}

		if err := store.UpdateEdgeData(edgeID, patch); err != nil {
			return "", err
		}

		updated, _ := store.SelectedEdge()

		return updated.ID, nil
	})
}

func (n *Node) DeleteEdge(ctx context.Context, workflowID, edgeID string) (*EditResult, error) {
	return n.edit(ctx, workflowID, "DeleteEdge", func(store *graph.Store) (string, error) {
		if err := existingEdge(store, "DeleteEdge", edgeID); err != nil {
			return "", err
		}

		store.DeleteEdge(edgeID)

		return edgeID, nil
	})
}

func (n *Node) edit(ctx context.Context, workflowID, op string, apply func(*graph.Store) (string, error)) (*EditResult, error) {
	w := n.workflows

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.node."+op,
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	wf, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	switch wf.Status {
	case models.WorkflowStatusActive:
		return nil, ErrCannotModifyActive
	case models.WorkflowStatusArchived:
		return nil, ErrCannotModifyArchived
	}

	store := graph.NewStore(w.registry, graph.WithLogger(w.logger))

	err = w.serializer.Load(store, wf)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, definitionError(err)
	}

	id, err := apply(store)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	edited, err := w.serializer.Encode(wf, store.Snapshot())
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, definitionError(err)
	}

	result, err := w.save(ctx, op, edited)
	if err != nil {
		return nil, err
	}

	return &EditResult{ID: id, Workflow: result.Workflow, Report: result.Report}, nil
}

func existingNode(store *graph.Store, op, nodeID string) (models.Node, error) {
	node, ok := store.Node(nodeID)
	if !ok {
		return models.Node{}, &models.StructuralError{Op: "Node." + op, NodeID: nodeID, Err: models.ErrNodeNotFound}
	}

	return node, nil
}

func existingEdge(store *graph.Store, op, edgeID string) error {
	if _, ok := store.Edge(edgeID); !ok {
		return &models.StructuralError{Op: "Node." + op, EdgeID: edgeID, Err: models.ErrEdgeNotFound}
	}

	return nil
}
