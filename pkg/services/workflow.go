package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dukex/stockflow/pkg/eventbus"
	"github.com/dukex/stockflow/pkg/events"
	"github.com/dukex/stockflow/pkg/graph"
	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/otelhelper"
	"github.com/dukex/stockflow/pkg/persistence"
	"github.com/dukex/stockflow/pkg/registry"
	"github.com/dukex/stockflow/pkg/validation"
	"github.com/dukex/stockflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Workflow struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	serializer  *workflow.Serializer
	validator   *validation.Validator
	validate    *validator.Validate
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	now         func() time.Time
}

type Option func(*Workflow)

// WithPublisher sends lifecycle events through publisher. Without one no
// events are sent.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(w *Workflow) {
		w.publisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(w *Workflow) {
		if tracer != nil {
			w.tracer = tracer
		}
	}
}

// WithClock replaces time.Now for publish timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		w.now = now
	}
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(logger *slog.Logger, persistence persistence.Persistence, reg *registry.Registry, opts ...Option) *Workflow {
	w := &Workflow{
		logger:      logger.With("module", "workflow_service"),
		persistence: persistence,
		registry:    reg,
		serializer:  workflow.NewSerializer(reg),
		validator:   validation.New(reg, logger),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		tracer:      otelhelper.NoopTracer(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	Limit  int
	Offset int

	OwnerID string
	Status  *models.WorkflowStatus

	SortBy    string
	SortOrder string
}

// ListWorkflowsResponse contains the result of listing workflows.
type ListWorkflowsResponse struct {
	Workflows   []*models.Workflow `json:"workflows"`
	TotalCount  int64              `json:"total_count"`
	HasNextPage bool               `json:"has_next_page"`
}

// ListWorkflows retrieves workflows with filtering, sorting, and pagination.
func (w *Workflow) ListWorkflows(ctx context.Context, req ListWorkflowsRequest) (*ListWorkflowsResponse, error) {
	if err := validateListWorkflowsRequest(&req); err != nil {
		return nil, err
	}

	result, err := w.persistence.WorkflowRepository().ListWorkflows(ctx, persistence.ListWorkflowsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		OwnerID:   req.OwnerID,
		Status:    req.Status,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if persistence.IsInvalidSortField(err) {
			return nil, ErrInvalidSortField
		}

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return &ListWorkflowsResponse{
		Workflows:   result.Workflows,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// validateListWorkflowsRequest rejects values the repositories would refuse,
// with messages fit for API clients. Defaults are left to the repositories.
func validateListWorkflowsRequest(req *ListWorkflowsRequest) error {
	if req.SortBy != "" && !slices.Contains(persistence.SortFields, req.SortBy) {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(persistence.SortFields, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "" && req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	if req.Status != nil && !req.Status.Valid() {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_STATUS",
			fmt.Sprintf("invalid status '%s'", *req.Status),
			ErrInvalidStatus,
		)
	}

	if req.OwnerID != "" {
		req.OwnerID = strings.TrimSpace(req.OwnerID)
		if req.OwnerID == "" {
			return ErrEmptyOwnerID
		}
	}

	return nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	wf, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if wf == nil {
		return nil, ErrWorkflowNotFound
	}

	return wf, nil
}

// SaveResult is a stored workflow together with the issues found in it.
type SaveResult struct {
	Workflow *models.Workflow  `json:"workflow"`
	Report   validation.Report `json:"report"`
}

// Create stores a new workflow under a fresh ID. A missing status means
// draft.
func (w *Workflow) Create(ctx context.Context, wf *models.Workflow) (*SaveResult, error) {
	if wf == nil {
		return nil, ErrWorkflowNil
	}

	meta := *wf
	meta.ID = uuid.New().String()
	meta.CreatedAt = time.Time{}
	meta.PublishedAt = nil

	if meta.Status == models.WorkflowStatusActive {
		now := w.now().UTC()
		meta.PublishedAt = &now
	}

	return w.save(ctx, "Create", &meta)
}

// Save replaces the definition stored under id. Creation time and publish
// history are kept from the stored copy.
func (w *Workflow) Save(ctx context.Context, id string, wf *models.Workflow) (*SaveResult, error) {
	if wf == nil {
		return nil, ErrWorkflowNil
	}

	existing, err := w.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.Status == models.WorkflowStatusArchived {
		return nil, ErrCannotModifyArchived
	}

	meta := *wf
	meta.ID = id
	meta.CreatedAt = existing.CreatedAt
	meta.PublishedAt = existing.PublishedAt

	if meta.Status == "" {
		meta.Status = existing.Status
	}

	if meta.Status == models.WorkflowStatusActive && existing.Status != models.WorkflowStatusActive {
		now := w.now().UTC()
		meta.PublishedAt = &now
	}

	return w.save(ctx, "Save", &meta)
}

// save canonicalises wf through the graph store, validates it, applies the
// save gate and persists it.
func (w *Workflow) save(ctx context.Context, op string, wf *models.Workflow) (*SaveResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow."+strings.ToLower(op),
		attribute.String(otelhelper.WorkflowIDKey, wf.ID),
		attribute.String(otelhelper.WorkflowStatusKey, string(wf.Status)),
	)
	defer span.End()

	if wf.Status == "" {
		wf.Status = models.WorkflowStatusDraft
	}

	if !wf.Status.Valid() {
		err := fmt.Errorf("%w: %q", ErrInvalidStatus, wf.Status)
		otelhelper.SetError(span, err)

		return nil, err
	}

	err := w.validate.Struct(wf)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, NewValidationError(op, "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	canonical, report, err := w.canonicalise(wf)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	err = workflow.CheckSave(canonical, report)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	err = w.persistence.WorkflowRepository().Save(ctx, canonical)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	span.SetAttributes(
		attribute.Int(otelhelper.ErrorCountKey, len(report.Errors())),
		attribute.Int(otelhelper.WarningCountKey, len(report.Warnings())),
	)

	w.logger.InfoContext(ctx, "Workflow saved",
		"workflow_id", canonical.ID,
		"status", canonical.Status,
		"errors", len(report.Errors()),
		"warnings", len(report.Warnings()),
	)

	w.publish(ctx, canonical.ID, events.WorkflowSaved{
		BaseEvent: events.NewBaseEvent(events.WorkflowSavedEvent, canonical.ID),
		Name:      canonical.Name,
		Status:    canonical.Status,
		NodeCount: len(canonical.Nodes),
		EdgeCount: len(canonical.Edges),
		Errors:    len(report.Errors()),
		Warnings:  len(report.Warnings()),
	})

	return &SaveResult{Workflow: canonical, Report: report}, nil
}

// canonicalise loads wf into a graph store, which rejects structural
// violations, and encodes it back so stored documents always carry labels
// and complete edge ids.
func (w *Workflow) canonicalise(wf *models.Workflow) (*models.Workflow, validation.Report, error) {
	if !wf.Status.Valid() {
		return nil, validation.Report{}, fmt.Errorf("%w: %q", ErrInvalidStatus, wf.Status)
	}

	store := graph.NewStore(w.registry, graph.WithLogger(w.logger))

	err := w.serializer.Load(store, wf)
	if err != nil {
		return nil, validation.Report{}, definitionError(err)
	}

	snapshot := store.Snapshot()

	canonical, err := w.serializer.Encode(wf, snapshot)
	if err != nil {
		return nil, validation.Report{}, definitionError(err)
	}

	return canonical, w.validator.Validate(snapshot), nil
}

// definitionError marks decode failures as client errors.
func definitionError(err error) error {
	if models.IsStructural(err) || registry.IsFieldError(err) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
}

// Validate reports the issues of a workflow without storing it.
func (w *Workflow) Validate(ctx context.Context, wf *models.Workflow) (validation.Report, error) {
	if wf == nil {
		return validation.Report{}, ErrWorkflowNil
	}

	_, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow.validate",
		attribute.String(otelhelper.WorkflowIDKey, wf.ID),
	)
	defer span.End()

	meta := *wf
	if meta.Status == "" {
		meta.Status = models.WorkflowStatusDraft
	}

	_, report, err := w.canonicalise(&meta)
	if err != nil {
		otelhelper.SetError(span, err)

		return validation.Report{}, err
	}

	return report, nil
}

// ValidateByID reports the issues of a stored workflow.
func (w *Workflow) ValidateByID(ctx context.Context, id string) (validation.Report, error) {
	wf, err := w.FetchByID(ctx, id)
	if err != nil {
		return validation.Report{}, err
	}

	return w.Validate(ctx, wf)
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	if _, err := w.FetchByID(ctx, id); err != nil {
		return err
	}

	err := w.persistence.WorkflowRepository().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Workflow deleted", "workflow_id", id)

	w.publish(ctx, id, events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, id),
	})

	return nil
}

func (w *Workflow) publish(ctx context.Context, key string, event eventbus.Event) {
	if w.publisher == nil {
		return
	}

	// the change is already stored; a lost event is logged, not returned
	err := w.publisher.Publish(ctx, key, event)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(),
			"workflow_id", key,
			"error", err,
		)
	}
}
