package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/stockflow/pkg/channels/gochannel"
	"github.com/dukex/stockflow/pkg/eventbus"
	"github.com/dukex/stockflow/pkg/events"
	"github.com/dukex/stockflow/pkg/otelhelper"
	"github.com/dukex/stockflow/pkg/persistence/file"
	"github.com/dukex/stockflow/pkg/registry"
	"github.com/dukex/stockflow/pkg/testutil"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, bus eventbus.EventBus) *fiber.App {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	api := NewAPI(
		logger,
		file.NewPersistence(t.TempDir()),
		registry.Default(),
		bus,
		otelhelper.NoopTracer(),
	)

	return api.App()
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t, nil)

	status, body := get(t, app, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Stockflow API", body)
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestApp(t, nil)

	status, body := get(t, app, "/livez")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)

	status, _ = get(t, app, "/health")
	assert.Equal(t, http.StatusOK, status)
}

func TestAPI_GetWorkflows_Empty(t *testing.T) {
	app := setupTestApp(t, nil)

	status, body := get(t, app, "/workflows")
	require.Equal(t, http.StatusOK, status)

	var listing struct {
		Workflows  []any `json:"workflows"`
		TotalCount int64 `json:"total_count"`
	}

	require.NoError(t, json.Unmarshal([]byte(body), &listing))
	assert.Empty(t, listing.Workflows)
	assert.Zero(t, listing.TotalCount)
}

func TestAPI_PublishesLifecycleEvents(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	pub, sub := gochannel.CreateTestChannel(watermill.NewSlogLogger(logger))
	bus := eventbus.NewWatermillEventBus(logger, pub, sub)

	t.Cleanup(func() { _ = bus.Close() })

	received := make(chan any, 4)

	require.NoError(t, bus.Handle(events.WorkflowSavedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	app := setupTestApp(t, bus)

	payload, err := json.Marshal(testutil.CreateTestWorkflow())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	select {
	case event := <-received:
		saved, ok := event.(*events.WorkflowSaved)
		require.True(t, ok)
		assert.Equal(t, "Test Workflow", saved.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("workflow.saved event not received")
	}
}

func TestCommand_LogsAtConfiguredLevel(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var stderr bytes.Buffer

	command := newCommand()
	command.ErrWriter = &stderr

	err := command.Run(context.Background(), []string{
		serviceName,
		"--database-url", t.TempDir(),
		"--event-bus", "bogus",
		"--log-level", "warn",
		"--log-format", "json",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create event bus")
	assert.NotContains(t, stderr.String(), "Initializing stockflow API")

	stderr.Reset()
	command = newCommand()
	command.ErrWriter = &stderr

	err = command.Run(context.Background(), []string{
		serviceName,
		"--database-url", t.TempDir(),
		"--event-bus", "bogus",
		"--log-level", "debug",
		"--log-format", "json",
	})
	require.Error(t, err)
	assert.Contains(t, stderr.String(), `"msg":"Initializing stockflow API"`)
	assert.Contains(t, stderr.String(), `"module":"api"`)
}
