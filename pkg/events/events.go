// Package events defines the notifications published when a workflow
// definition changes, so that runners and caches can follow along.
package events

import (
	"errors"
	"time"

	"github.com/dukex/stockflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every workflow lifecycle event.
const Topic = "stockflow.workflows"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowSavedEvent       EventType = "workflow.saved"
	WorkflowPublishedEvent   EventType = "workflow.published"
	WorkflowUnpublishedEvent EventType = "workflow.unpublished"
	WorkflowArchivedEvent    EventType = "workflow.archived"
	WorkflowDeletedEvent     EventType = "workflow.deleted"
)

var (
	ErrMissingID         = errors.New("id is required")
	ErrMissingWorkflowID = errors.New("workflow_id is required")
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

// Validate performs basic validation on the shared event fields.
func (b BaseEvent) Validate() error {
	if b.ID == "" {
		return ErrMissingID
	}

	if b.WorkflowID == "" {
		return ErrMissingWorkflowID
	}

	return nil
}

// WorkflowSaved is published after every successful save, whatever the
// status. Errors and Warnings count the validation issues stored with it.
type WorkflowSaved struct {
	BaseEvent

	Name      string                `json:"name"`
	Status    models.WorkflowStatus `json:"status"`
	NodeCount int                   `json:"node_count"`
	EdgeCount int                   `json:"edge_count"`
	Errors    int                   `json:"errors"`
	Warnings  int                   `json:"warnings"`
}

func (w WorkflowSaved) GetType() EventType {
	return WorkflowSavedEvent
}

// Trigger describes the entry point of a published workflow. Schedule is
// a standard five-field cron expression and is set only for scheduled
// triggers.
type Trigger struct {
	NodeID       string `json:"node_id"`
	TriggerType  string `json:"trigger_type"`
	SourceEntity string `json:"source_entity,omitempty"`
	Schedule     string `json:"schedule,omitempty"`
}

type WorkflowPublished struct {
	BaseEvent

	Name        string    `json:"name"`
	PublishedAt time.Time `json:"published_at"`
	Trigger     Trigger   `json:"trigger"`
}

func (w WorkflowPublished) GetType() EventType {
	return WorkflowPublishedEvent
}

// WorkflowUnpublished is published when an active workflow goes back to
// draft.
type WorkflowUnpublished struct {
	BaseEvent

	Name string `json:"name"`
}

func (w WorkflowUnpublished) GetType() EventType {
	return WorkflowUnpublishedEvent
}

type WorkflowArchived struct {
	BaseEvent

	Name           string                `json:"name"`
	PreviousStatus models.WorkflowStatus `json:"previous_status"`
}

func (w WorkflowArchived) GetType() EventType {
	return WorkflowArchivedEvent
}

type WorkflowDeleted struct {
	BaseEvent
}

func (w WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}

// Empty returns a zero event of the given type to decode a payload into.
func Empty(eventType EventType) (any, bool) {
	switch eventType {
	case WorkflowSavedEvent:
		return &WorkflowSaved{}, true
	case WorkflowPublishedEvent:
		return &WorkflowPublished{}, true
	case WorkflowUnpublishedEvent:
		return &WorkflowUnpublished{}, true
	case WorkflowArchivedEvent:
		return &WorkflowArchived{}, true
	case WorkflowDeletedEvent:
		return &WorkflowDeleted{}, true
	default:
		return nil, false
	}
}
