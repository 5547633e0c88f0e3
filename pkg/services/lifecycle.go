package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/stockflow/pkg/events"
	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/otelhelper"
	"github.com/dukex/stockflow/pkg/registry"
	"github.com/dukex/stockflow/pkg/workflow"
	"go.opentelemetry.io/otel/attribute"
)

// Publish makes a workflow active. It fails with a *workflow.GateError when
// validation finds errors. Publishing an active workflow republishes it.
func (w *Workflow) Publish(ctx context.Context, id string) (*SaveResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow.publish",
		attribute.String(otelhelper.WorkflowIDKey, id),
	)
	defer span.End()

	existing, err := w.FetchByID(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if existing.Status == models.WorkflowStatusArchived {
		return nil, fmt.Errorf("%w: archived workflows cannot be published", ErrInvalidTransition)
	}

	canonical, report, err := w.canonicalise(existing)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	err = workflow.CheckPublish(report)
	if err != nil {
		otelhelper.SetError(span, err, attribute.Int(otelhelper.ErrorCountKey, len(report.Errors())))

		return nil, err
	}

	publishedAt := w.now().UTC()
	canonical.Status = models.WorkflowStatusActive
	canonical.PublishedAt = &publishedAt

	err = w.persistence.WorkflowRepository().Save(ctx, canonical)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to publish workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Workflow published", "workflow_id", id, "warnings", len(report.Warnings()))

	w.publish(ctx, id, events.WorkflowPublished{
		BaseEvent:   events.NewBaseEvent(events.WorkflowPublishedEvent, id),
		Name:        canonical.Name,
		PublishedAt: publishedAt,
		Trigger:     w.describeTrigger(ctx, canonical),
	})

	return &SaveResult{Workflow: canonical, Report: report}, nil
}

// describeTrigger summarises the single trigger of a publishable workflow
// for the runner.
func (w *Workflow) describeTrigger(ctx context.Context, wf *models.Workflow) events.Trigger {
	g, err := w.serializer.Decode(wf)
	if err != nil {
		return events.Trigger{}
	}

	for _, node := range g.Nodes {
		trigger, ok := node.Config.(*models.TriggerConfig)
		if !ok {
			continue
		}

		summary := events.Trigger{
			NodeID:       node.ID,
			TriggerType:  string(trigger.TriggerType),
			SourceEntity: trigger.SourceEntity,
		}

		spec, err := registry.CronSpec(trigger)
		switch {
		case err == nil:
			summary.Schedule = spec
		case !errors.Is(err, registry.ErrNotScheduled):
			w.logger.WarnContext(ctx, "Scheduled trigger has no valid schedule",
				"workflow_id", wf.ID, "node_id", node.ID, "error", err)
		}

		return summary
	}

	return events.Trigger{}
}

// Unpublish moves an active workflow back to draft.
func (w *Workflow) Unpublish(ctx context.Context, id string) (*models.Workflow, error) {
	return w.transition(ctx, id, models.WorkflowStatusDraft)
}

// Archive retires a draft or active workflow. Archived workflows can no
// longer be edited or published.
func (w *Workflow) Archive(ctx context.Context, id string) (*models.Workflow, error) {
	return w.transition(ctx, id, models.WorkflowStatusArchived)
}

func (w *Workflow) transition(ctx context.Context, id string, to models.WorkflowStatus) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow.transition",
		attribute.String(otelhelper.WorkflowIDKey, id),
		attribute.String(otelhelper.WorkflowStatusKey, string(to)),
	)
	defer span.End()

	wf, err := w.FetchByID(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	from := wf.Status

	if !allowedTransition(from, to) {
		err := fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
		otelhelper.SetError(span, err)

		return nil, err
	}

	wf.Status = to

	err = w.persistence.WorkflowRepository().Save(ctx, wf)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to change workflow status: %w", err)
	}

	w.logger.InfoContext(ctx, "Workflow status changed", "workflow_id", id, "from", from, "to", to)

	switch to {
	case models.WorkflowStatusDraft:
		w.publish(ctx, id, events.WorkflowUnpublished{
			BaseEvent: events.NewBaseEvent(events.WorkflowUnpublishedEvent, id),
			Name:      wf.Name,
		})
	case models.WorkflowStatusArchived:
		w.publish(ctx, id, events.WorkflowArchived{
			BaseEvent:      events.NewBaseEvent(events.WorkflowArchivedEvent, id),
			Name:           wf.Name,
			PreviousStatus: from,
		})
	}

	return wf, nil
}

func allowedTransition(from, to models.WorkflowStatus) bool {
	switch to {
	case models.WorkflowStatusDraft:
		return from == models.WorkflowStatusActive
	case models.WorkflowStatusArchived:
		return from == models.WorkflowStatusDraft || from == models.WorkflowStatusActive
	default:
		return false
	}
}
