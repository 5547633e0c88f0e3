package workflow

import (
	"testing"

	"github.com/dukex/stockflow/pkg/graph"
	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStore(t *testing.T) *graph.Store {
	t.Helper()

	store := graph.NewStore(registry.Default())

	add := func(kind models.NodeKind, x float64, patch models.Patch) string {
		id, err := store.AddNode(kind, models.Position{X: x, Y: 100})
		require.NoError(t, err)

		if patch != nil {
			require.NoError(t, store.UpdateNodeData(id, patch))
		}

		return id
	}

	trigger := add(models.KindTrigger, 0, models.Patch{
		"triggerType":       "Product Updated",
		"conditionField":    "stock",
		"conditionOperator": "less_than",
		"conditionValue":    "10",
	})
	condition := add(models.KindCondition, 200, models.Patch{"expression": "stock < 5", "conditionType": "Amount"})
	approval := add(models.KindApproval, 400, models.Patch{
		"approverIds":       []int{3, 8},
		"approvers":         []string{"Ana", "Bo"},
		"requiredApprovals": 2,
		models.LabelField:   "Manager sign-off",
	})
	delay := add(models.KindDelay, 400, models.Patch{"delayAmount": 1.5, "delayUnit": "days"})
	action := add(models.KindAction, 600, models.Patch{"actionType": "reorder", "params": map[string]any{"supplier": "ACME"}})
	end := add(models.KindEnd, 800, models.Patch{"outcome": "Approved"})
	add(models.KindText, 0, models.Patch{models.LabelField: "Reorder policy"})

	connect := func(source, target, handle string) {
		_, err := store.Connect(models.Connection{Source: source, Target: target, SourceHandle: handle})
		require.NoError(t, err)
	}

	connect(trigger, condition, "")
	connect(condition, approval, models.HandleTrue)
	connect(condition, delay, models.HandleFalse)
	connect(approval, action, "")
	connect(delay, end, "")
	connect(action, end, "")

	return store
}

func TestRoundTrip(t *testing.T) {
	reg := registry.Default()
	serializer := NewSerializer(reg)
	store := buildStore(t)

	original := store.Snapshot()

	wf, err := serializer.Encode(&models.Workflow{ID: "wf-1", Name: "Low stock reorder"}, original)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusDraft, wf.Status)

	body, err := Marshal(wf)
	require.NoError(t, err)

	parsed, err := Unmarshal(body)
	require.NoError(t, err)

	loaded := graph.NewStore(reg)
	require.NoError(t, serializer.Load(loaded, parsed))

	restored := loaded.Snapshot()

	require.Len(t, restored.Nodes, len(original.Nodes))
	require.Len(t, restored.Edges, len(original.Edges))

	for i := range original.Nodes {
		assert.Equal(t, original.Nodes[i].ID, restored.Nodes[i].ID)
		assert.Equal(t, original.Nodes[i].Kind, restored.Nodes[i].Kind)
		assert.Equal(t, original.Nodes[i].Label, restored.Nodes[i].Label)
		assert.Equal(t, original.Nodes[i].Position, restored.Nodes[i].Position)
		assert.Equal(t, original.Nodes[i].Config, restored.Nodes[i].Config)
	}

	assert.Equal(t, original.Edges, restored.Edges)

	// encoding the restored graph yields the same document
	again, err := serializer.Encode(&models.Workflow{ID: "wf-1", Name: "Low stock reorder"}, restored)
	require.NoError(t, err)

	againBody, err := Marshal(again)
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(againBody))
}

func TestEncode_NodeData(t *testing.T) {
	serializer := NewSerializer(registry.Default())

	wf, err := serializer.Encode(&models.Workflow{Name: "Escalate"}, models.Graph{
		Nodes: []models.Node{{
			ID:     "p1",
			Kind:   models.KindPerson,
			Label:  "Count stock",
			Config: &models.PersonConfig{AssignedToID: 4, Priority: models.PriorityHigh},
		}},
	})
	require.NoError(t, err)

	require.Len(t, wf.Nodes, 1)
	assert.Equal(t, "person", wf.Nodes[0].Type)
	assert.Equal(t, "Count stock", wf.Nodes[0].Data["label"])
	assert.Equal(t, "High", wf.Nodes[0].Data["priority"])
	assert.NotContains(t, wf.Nodes[0].Data, "instructions")
	assert.NotNil(t, wf.Edges)
}

func TestDecode_Rejections(t *testing.T) {
	serializer := NewSerializer(registry.Default())

	tests := []struct {
		name     string
		node     models.WireNode
		expected error
	}{
		{"unknown type", models.WireNode{ID: "x", Type: "robot"}, models.ErrUnknownNodeKind},
		{"capitalised type", models.WireNode{ID: "x", Type: "Person"}, models.ErrUnknownNodeKind},
		{"unknown field", models.WireNode{ID: "x", Type: "end", Data: map[string]any{"colour": "red"}}, registry.ErrUnknownField},
		{"label not a string", models.WireNode{ID: "x", Type: "end", Data: map[string]any{"label": 3.0}}, registry.ErrInvalidFieldValue},
		{"wrong field type", models.WireNode{ID: "x", Type: "person", Data: map[string]any{"assignedToId": "seven"}}, registry.ErrInvalidFieldValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := serializer.Decode(&models.Workflow{Nodes: []models.WireNode{tt.node}})

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestDecode_DefaultsMissingLabel(t *testing.T) {
	serializer := NewSerializer(registry.Default())

	g, err := serializer.Decode(&models.Workflow{Nodes: []models.WireNode{{ID: "e", Type: "end", Data: map[string]any{"outcome": "Rejected"}}}})
	require.NoError(t, err)

	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "New End", g.Nodes[0].Label)
	assert.Equal(t, &models.EndConfig{Outcome: models.OutcomeRejected}, g.Nodes[0].Config)
}

func TestLoad_RejectsDanglingEdges(t *testing.T) {
	serializer := NewSerializer(registry.Default())
	store := graph.NewStore(registry.Default())

	err := serializer.Load(store, &models.Workflow{
		Nodes: []models.WireNode{{ID: "t", Type: "trigger", Data: map[string]any{"triggerType": "Manual"}}},
		Edges: []models.WireEdge{{ID: "t-x", Source: "t", Target: "x"}},
	})

	assert.ErrorIs(t, err, models.ErrDanglingEdge)
	assert.Empty(t, store.Nodes())
}

func TestUnmarshal(t *testing.T) {
	wf, err := Unmarshal([]byte(`{"name":"Restock","nodes":[],"edges":[]}`))
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusDraft, wf.Status)

	_, err = Unmarshal([]byte(`{"name":"Restock","status":"paused"}`))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = Unmarshal([]byte(`{"name":`))
	assert.Error(t, err)
}
