package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/persistence/file"
	"github.com/dukex/stockflow/pkg/registry"
	"github.com/dukex/stockflow/pkg/services"
	"github.com/dukex/stockflow/pkg/testutil"
	"github.com/dukex/stockflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *services.Workflow) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	reg := registry.Default()
	workflowService := services.NewWorkflow(logger, file.NewPersistence(t.TempDir()), reg)
	nodeService := services.NewNode(workflowService)
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(workflowService, nodeService, validate, reg)

	app := fiber.New()
	handlers.RegisterRoutes(app)

	return app, workflowService
}

func doRequest(t *testing.T, app *fiber.App, method, path string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader

	switch p := payload.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(p)
	default:
		encoded, err := json.Marshal(p)
		require.NoError(t, err)

		body = bytes.NewBuffer(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()

	var value T
	require.NoError(t, json.Unmarshal(data, &value), string(data))

	return value
}

func createWorkflow(t *testing.T, service *services.Workflow, overrides ...func(*models.Workflow)) string {
	t.Helper()

	result, err := service.Create(t.Context(), testutil.CreateTestWorkflow(overrides...))
	require.NoError(t, err)

	return result.Workflow.ID
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	t.Parallel()

	fixture := testutil.CreateTestWorkflow()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		expectedType   string
		validateResult func(t *testing.T, body []byte)
	}{
		{
			name: "successful creation",
			requestBody: web.CreateWorkflowRequest{
				Name:        "Restock shelves",
				Description: "Reorder when stock runs low",
				Owner:       "warehouse-a",
				Nodes:       fixture.Nodes,
				Edges:       fixture.Edges,
			},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				response := decode[web.WorkflowResponse](t, body)
				require.NotNil(t, response.Workflow)
				assert.NotEmpty(t, response.ID)
				assert.Equal(t, "Restock shelves", response.Name)
				assert.Equal(t, models.WorkflowStatusDraft, response.Status)
				assert.Len(t, response.Nodes, 2)
				assert.True(t, response.Validation.Valid)
				assert.Empty(t, response.Validation.Errors)
			},
		},
		{
			name: "empty workflow is stored with its issues",
			requestBody: web.CreateWorkflowRequest{
				Name:  "Blank canvas",
				Owner: "warehouse-a",
			},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				response := decode[web.WorkflowResponse](t, body)
				assert.False(t, response.Validation.Valid)
				require.Len(t, response.Validation.Errors, 1)
				assert.Equal(t, models.IssueNoEntryPoint, response.Validation.Errors[0].Code)
			},
		},
		{
			name:           "missing name",
			requestBody:    web.CreateWorkflowRequest{Owner: "warehouse-a"},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "name too short",
			requestBody:    web.CreateWorkflowRequest{Name: "Re", Owner: "warehouse-a"},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "missing owner",
			requestBody:    web.CreateWorkflowRequest{Name: "Restock shelves"},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name: "created archived",
			requestBody: web.CreateWorkflowRequest{
				Name:   "Restock shelves",
				Owner:  "warehouse-a",
				Status: models.WorkflowStatusArchived,
			},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name: "unknown node type",
			requestBody: web.CreateWorkflowRequest{
				Name:  "Restock shelves",
				Owner: "warehouse-a",
				Nodes: []models.WireNode{testutil.CreateTestNode("robot-1", "robot", nil)},
			},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name: "active with errors",
			requestBody: web.CreateWorkflowRequest{
				Name:   "Restock shelves",
				Owner:  "warehouse-a",
				Status: models.WorkflowStatusActive,
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedType:   "blocked_by_issues",
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				problem := decode[map[string]any](t, body)
				issues, ok := problem["issues"].([]any)
				require.True(t, ok)
				assert.Len(t, issues, 1)
			},
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid-json",
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			status, body := doRequest(t, app, http.MethodPost, "/workflows", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, status, string(body))

			if tt.expectedType != "" {
				problem := decode[map[string]any](t, body)
				assert.Equal(t, tt.expectedType, problem["type"])
			}

			if tt.validateResult != nil {
				tt.validateResult(t, body)
			}
		})
	}
}

func TestAPIHandlers_GetWorkflow(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)
	id := createWorkflow(t, service)

	status, body := doRequest(t, app, http.MethodGet, "/workflows/"+id, nil)
	require.Equal(t, http.StatusOK, status)

	workflow := decode[models.Workflow](t, body)
	assert.Equal(t, id, workflow.ID)

	status, body = doRequest(t, app, http.MethodGet, "/workflows/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "workflow_not_found", decode[map[string]any](t, body)["type"])
}

func TestAPIHandlers_GetWorkflows(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	createWorkflow(t, service, testutil.WithName("Restock"))
	createWorkflow(t, service, testutil.WithName("Cycle count"), testutil.WithOwner("warehouse-b"))

	status, body := doRequest(t, app, http.MethodGet, "/workflows?owner_id=warehouse-b", nil)
	require.Equal(t, http.StatusOK, status)

	listing := decode[map[string]any](t, body)
	assert.InDelta(t, 1, listing["total_count"], 0)

	status, _ = doRequest(t, app, http.MethodGet, "/workflows?sort_by=owner", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodGet, "/workflows?limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIHandlers_UpdateWorkflow(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)
	id := createWorkflow(t, service)

	name := "Approve transfer"

	status, body := doRequest(t, app, http.MethodPatch, "/workflows/"+id, web.UpdateWorkflowRequest{Name: &name})
	require.Equal(t, http.StatusOK, status, string(body))

	response := decode[web.WorkflowResponse](t, body)
	assert.Equal(t, "Approve transfer", response.Name)
	assert.Equal(t, "A workflow for testing", response.Description)
	assert.Len(t, response.Nodes, 2)

	short := "Ap"
	status, _ = doRequest(t, app, http.MethodPatch, "/workflows/"+id, web.UpdateWorkflowRequest{Name: &short})
	assert.Equal(t, http.StatusBadRequest, status)

	_, err := service.Archive(t.Context(), id)
	require.NoError(t, err)

	status, body = doRequest(t, app, http.MethodPatch, "/workflows/"+id, web.UpdateWorkflowRequest{Name: &name})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", decode[map[string]any](t, body)["type"])
}

func TestAPIHandlers_Lifecycle(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)
	id := createWorkflow(t, service)

	status, body := doRequest(t, app, http.MethodPost, "/workflows/"+id+"/publish", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, models.WorkflowStatusActive, decode[web.WorkflowResponse](t, body).Status)

	// active workflows are read-only
	status, _ = doRequest(t, app, http.MethodDelete, "/workflows/"+id+"/nodes/end-1", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, body = doRequest(t, app, http.MethodPost, "/workflows/"+id+"/unpublish", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.WorkflowStatusDraft, decode[models.Workflow](t, body).Status)

	status, body = doRequest(t, app, http.MethodPost, "/workflows/"+id+"/archive", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.WorkflowStatusArchived, decode[models.Workflow](t, body).Status)

	status, _ = doRequest(t, app, http.MethodPost, "/workflows/"+id+"/publish", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = doRequest(t, app, http.MethodDelete, "/workflows/"+id, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodDelete, "/workflows/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_PublishBlocked(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)
	id := createWorkflow(t, service, testutil.WithIncompleteTrigger())

	status, body := doRequest(t, app, http.MethodPost, "/workflows/"+id+"/publish", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	problem := decode[map[string]any](t, body)
	assert.Equal(t, "blocked_by_issues", problem["type"])

	issues, ok := problem["issues"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, issues)

	first, ok := issues[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "trigger-1", first["node_id"])
	assert.Equal(t, models.IssueIncompleteConfig, first["code"])
}

func TestAPIHandlers_Validate(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)
	id := createWorkflow(t, service)

	status, body := doRequest(t, app, http.MethodPost, "/workflows/"+id+"/validate", nil)
	require.Equal(t, http.StatusOK, status)

	response := decode[web.ValidationResponse](t, body)
	assert.True(t, response.Valid)
	assert.Empty(t, response.Errors)
	assert.Empty(t, response.Warnings)

	draft := testutil.CreateTestWorkflow(testutil.WithIncompleteTrigger())

	status, body = doRequest(t, app, http.MethodPost, "/workflows/validate", draft)
	require.Equal(t, http.StatusOK, status, string(body))

	response = decode[web.ValidationResponse](t, body)
	assert.False(t, response.Valid)
	assert.Equal(t, "triggerType", response.Errors[0].Field)
}

func TestAPIHandlers_Nodes(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)
	id := createWorkflow(t, service)
	nodes := "/workflows/" + id + "/nodes"

	status, body := doRequest(t, app, http.MethodPost, nodes, web.CreateNodeRequest{
		Type:     "notification",
		Position: models.Position{X: 200, Y: 0},
		Data:     map[string]any{"label": "Tell the buyer"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	created := decode[web.EditResponse](t, body)
	require.NotEmpty(t, created.ID)
	assert.Len(t, created.Workflow.Nodes, 3)

	status, body = doRequest(t, app, http.MethodGet, nodes+"/"+created.ID, nil)
	require.Equal(t, http.StatusOK, status)

	node := decode[models.WireNode](t, body)
	assert.Equal(t, "notification", node.Type)
	assert.Equal(t, "Tell the buyer", node.Data["label"])

	status, body = doRequest(t, app, http.MethodPatch, nodes+"/"+created.ID, web.UpdateNodeRequest{
		Data: map[string]any{"label": "Tell the supplier"},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = doRequest(t, app, http.MethodPost, nodes+"/"+created.ID+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, status, string(body))

	duplicate := decode[web.EditResponse](t, body)
	assert.NotEqual(t, created.ID, duplicate.ID)
	assert.Len(t, duplicate.Workflow.Nodes, 4)

	status, body = doRequest(t, app, http.MethodDelete, nodes+"/"+duplicate.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[web.EditResponse](t, body).Workflow.Nodes, 3)

	status, body = doRequest(t, app, http.MethodPatch, nodes+"/ghost", web.UpdateNodeRequest{
		Data: map[string]any{"label": "Boo"},
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "node_not_found", decode[map[string]any](t, body)["type"])

	status, _ = doRequest(t, app, http.MethodGet, nodes+"/ghost", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, app, http.MethodPost, nodes, web.CreateNodeRequest{Type: "robot"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodPatch, nodes+"/trigger-1", web.UpdateNodeRequest{
		Data: map[string]any{"colour": "red"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIHandlers_Edges(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)
	id := createWorkflow(t, service)
	base := "/workflows/" + id

	status, body := doRequest(t, app, http.MethodPost, base+"/nodes", web.CreateNodeRequest{
		Type: "condition",
		Data: map[string]any{"expression": "stock < minimum"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	condition := decode[web.EditResponse](t, body).ID

	status, body = doRequest(t, app, http.MethodPost, base+"/edges", web.CreateEdgeRequest{
		Source:       condition,
		Target:       "end-1",
		SourceHandle: models.HandleFalse,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	edge := decode[web.EditResponse](t, body)
	assert.Equal(t, condition+"-end-1-false", edge.ID)

	animated := true

	status, body = doRequest(t, app, http.MethodPatch, base+"/edges/"+edge.ID, web.UpdateEdgeRequest{Animated: &animated})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = doRequest(t, app, http.MethodPost, base+"/edges", web.CreateEdgeRequest{
		Source:       condition,
		Target:       "end-1",
		SourceHandle: "maybe",
	})
	assert.Equal(t, http.StatusBadRequest, status, string(body))

	status, _ = doRequest(t, app, http.MethodPost, base+"/edges", web.CreateEdgeRequest{Source: "end-1", Target: condition})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodPost, base+"/edges", web.CreateEdgeRequest{Source: condition})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doRequest(t, app, http.MethodDelete, base+"/edges/"+edge.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[web.EditResponse](t, body).Workflow.Edges, 1)

	status, body = doRequest(t, app, http.MethodDelete, base+"/edges/"+edge.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "edge_not_found", decode[map[string]any](t, body)["type"])
}

func TestAPIHandlers_Kinds(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/kinds", nil)
	require.Equal(t, http.StatusOK, status)

	kinds := decode[struct {
		Kinds []models.KindDescriptor `json:"kinds"`
	}](t, body)
	assert.Len(t, kinds.Kinds, len(models.AllKinds()))

	status, body = doRequest(t, app, http.MethodGet, "/kinds/condition", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.KindCondition, decode[models.KindDescriptor](t, body).Kind)

	status, _ = doRequest(t, app, http.MethodGet, "/kinds/robot", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", decode[map[string]any](t, body)["status"])
}
