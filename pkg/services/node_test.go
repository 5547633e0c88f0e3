package services

import (
	"testing"

	"github.com/dukex/stockflow/pkg/branch"
	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/registry"
	"github.com/dukex/stockflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNodeService(t *testing.T, overrides ...func(*models.Workflow)) (*Node, string) {
	t.Helper()

	workflows, _ := newTestService(t)

	created, err := workflows.Create(t.Context(), testutil.CreateTestWorkflow(overrides...))
	require.NoError(t, err)

	return NewNode(workflows), created.Workflow.ID
}

func findNode(wf *models.Workflow, id string) (models.WireNode, bool) {
	for _, node := range wf.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return models.WireNode{}, false
}

func findEdge(wf *models.Workflow, id string) (models.WireEdge, bool) {
	for _, edge := range wf.Edges {
		if edge.ID == id {
			return edge, true
		}
	}

	return models.WireEdge{}, false
}

func TestNode_AddAndConnect(t *testing.T) {
	ctx := t.Context()
	nodes, id := newTestNodeService(t)

	added, err := nodes.AddNode(ctx, id, models.KindCondition, models.Position{X: 120, Y: 80}, models.Patch{
		"expression": "stock < minimum",
	})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)

	condition, ok := findNode(added.Workflow, added.ID)
	require.True(t, ok)
	assert.Equal(t, "condition", condition.Type)
	assert.Equal(t, models.Position{X: 120, Y: 80}, condition.Position)
	assert.Equal(t, "stock < minimum", condition.Data["expression"])
	assert.Len(t, added.Report.WithCode(models.IssueMissingBranch), 2)

	connected, err := nodes.Connect(ctx, id, models.Connection{
		Source:       added.ID,
		Target:       "end-1",
		SourceHandle: models.HandleTrue,
	})
	require.NoError(t, err)
	assert.Equal(t, branch.EdgeID(added.ID, "end-1", models.HandleTrue), connected.ID)

	edge, ok := findEdge(connected.Workflow, connected.ID)
	require.True(t, ok)
	assert.Equal(t, models.HandleTrue, edge.Label)
	assert.Len(t, connected.Report.WithCode(models.IssueMissingBranch), 1)
}

func TestNode_UpdateNode(t *testing.T) {
	ctx := t.Context()
	nodes, id := newTestNodeService(t)

	result, err := nodes.UpdateNode(ctx, id, "trigger-1", models.Patch{
		models.LabelField: "Stock changed",
		"triggerType":     string(models.TriggerProductUpdated),
	})
	require.NoError(t, err)

	trigger, ok := findNode(result.Workflow, "trigger-1")
	require.True(t, ok)
	assert.Equal(t, "Stock changed", trigger.Data[models.LabelField])
	assert.Equal(t, "product", trigger.Data["sourceEntity"])

	_, err = nodes.UpdateNode(ctx, id, "trigger-1", models.Patch{"colour": "red"})
	require.Error(t, err)
	assert.True(t, registry.IsFieldError(err))
	assert.True(t, IsValidationError(err))

	_, err = nodes.UpdateNode(ctx, id, "ghost", models.Patch{models.LabelField: "Boo"})
	require.ErrorIs(t, err, models.ErrNodeNotFound)
	assert.True(t, IsNotFoundError(err))
}

func TestNode_DeleteNode(t *testing.T) {
	ctx := t.Context()
	nodes, id := newTestNodeService(t)

	result, err := nodes.DeleteNode(ctx, id, "trigger-1")
	require.NoError(t, err)

	assert.Len(t, result.Workflow.Nodes, 1)
	assert.Empty(t, result.Workflow.Edges)
	assert.Len(t, result.Report.WithCode(models.IssueNoEntryPoint), 1)

	_, err = nodes.DeleteNode(ctx, id, "trigger-1")
	assert.True(t, IsNotFoundError(err))
}

func TestNode_DuplicateNode(t *testing.T) {
	ctx := t.Context()
	nodes, id := newTestNodeService(t)

	result, err := nodes.DuplicateNode(ctx, id, "end-1")
	require.NoError(t, err)
	require.NotEqual(t, "end-1", result.ID)

	duplicate, ok := findNode(result.Workflow, result.ID)
	require.True(t, ok)
	assert.Equal(t, "Done", duplicate.Data[models.LabelField])
	assert.Equal(t, models.Position{X: 40, Y: 40}, duplicate.Position)
	assert.Len(t, result.Workflow.Edges, 1)
}

func TestNode_UpdateEdge(t *testing.T) {
	ctx := t.Context()
	nodes, id := newTestNodeService(t)

	label := "urgent"

	result, err := nodes.UpdateEdge(ctx, id, "trigger-1-end-1", models.EdgePatch{Label: &label})
	require.NoError(t, err)
	assert.Equal(t, "trigger-1-end-1", result.ID)

	edge, ok := findEdge(result.Workflow, result.ID)
	require.True(t, ok)
	assert.Equal(t, "urgent", edge.Label)

	// an end node cannot become a source
	_, err = nodes.UpdateEdge(ctx, id, "trigger-1-end-1", models.EdgePatch{Reverse: true})
	require.ErrorIs(t, err, models.ErrTerminalNode)
	assert.True(t, IsValidationError(err))

	_, err = nodes.UpdateEdge(ctx, id, "ghost", models.EdgePatch{Label: &label})
	require.ErrorIs(t, err, models.ErrEdgeNotFound)
}

func TestNode_ReverseIntoCondition(t *testing.T) {
	ctx := t.Context()
	nodes, id := newTestNodeService(t)

	added, err := nodes.AddNode(ctx, id, models.KindCondition, models.Position{}, nil)
	require.NoError(t, err)

	connected, err := nodes.Connect(ctx, id, models.Connection{
		Source:       "trigger-1",
		Target:       added.ID,
		TargetHandle: models.HandleFalse,
	})
	require.NoError(t, err)

	reversed, err := nodes.UpdateEdge(ctx, id, connected.ID, models.EdgePatch{Reverse: true})
	require.NoError(t, err)

	assert.Equal(t, branch.EdgeID(added.ID, "trigger-1", models.HandleFalse), reversed.ID)

	edge, ok := findEdge(reversed.Workflow, reversed.ID)
	require.True(t, ok)
	assert.Equal(t, added.ID, edge.Source)
	assert.Equal(t, models.HandleFalse, edge.Label)

	_, ok = findEdge(reversed.Workflow, connected.ID)
	assert.False(t, ok)

	// reversing it back off the condition frees the branch id, so the
	// branch can be connected again without losing the stored edge
	back, err := nodes.UpdateEdge(ctx, id, reversed.ID, models.EdgePatch{Reverse: true})
	require.NoError(t, err)
	assert.NotEqual(t, reversed.ID, back.ID)

	again, err := nodes.Connect(ctx, id, models.Connection{
		Source:       added.ID,
		Target:       "trigger-1",
		SourceHandle: models.HandleFalse,
	})
	require.NoError(t, err)
	assert.Equal(t, reversed.ID, again.ID)

	_, ok = findEdge(again.Workflow, back.ID)
	assert.True(t, ok)
	_, ok = findEdge(again.Workflow, again.ID)
	assert.True(t, ok)
}

func TestNode_DeleteEdge(t *testing.T) {
	ctx := t.Context()
	nodes, id := newTestNodeService(t)

	result, err := nodes.DeleteEdge(ctx, id, "trigger-1-end-1")
	require.NoError(t, err)
	assert.Empty(t, result.Workflow.Edges)

	_, err = nodes.DeleteEdge(ctx, id, "trigger-1-end-1")
	assert.True(t, IsNotFoundError(err))
}

func TestNode_OnlyDraftsAreEditable(t *testing.T) {
	ctx := t.Context()

	tests := []struct {
		name    string
		prepare func(*Workflow, string) error
		wantErr error
	}{
		{
			name: "active",
			prepare: func(w *Workflow, id string) error {
				_, err := w.Publish(ctx, id)

				return err
			},
			wantErr: ErrCannotModifyActive,
		},
		{
			name: "archived",
			prepare: func(w *Workflow, id string) error {
				_, err := w.Archive(ctx, id)

				return err
			},
			wantErr: ErrCannotModifyArchived,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, id := newTestNodeService(t)
			require.NoError(t, tt.prepare(nodes.workflows, id))

			_, err := nodes.DeleteNode(ctx, id, "end-1")
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsConflictError(err))
		})
	}

	nodes, _ := newTestNodeService(t)

	_, err := nodes.AddNode(ctx, "missing", models.KindEnd, models.Position{}, nil)
	assert.True(t, IsNotFoundError(err))
}
