package models

import "time"

// NodeConfig is the kind-specific configuration of a node. Exactly one
// implementation exists per NodeKind; the set is closed.
type NodeConfig interface {
	Kind() NodeKind
	isNodeConfig()
}

// Patch is a field-level update keyed by the camelCase field name used on
// the wire. Keys not present are left untouched.
type Patch map[string]any

// LabelField is the patch key that addresses the node label rather than
// its config.
const LabelField = "label"

// TriggerType selects the event that starts a workflow.
type TriggerType string

const (
	TriggerManual                TriggerType = "Manual"
	TriggerCorrespondenceCreated TriggerType = "Correspondence Created"
	TriggerCorrespondenceUpdated TriggerType = "Correspondence Updated"
	TriggerStatusChange          TriggerType = "Status Change"
	TriggerScheduled             TriggerType = "Scheduled"
	TriggerProductCreated        TriggerType = "Product Created"
	TriggerProductUpdated        TriggerType = "Product Updated"
	TriggerProductDeleted        TriggerType = "Product Deleted"
)

// SourceEntity returns the entity a trigger type is bound to, or "" when
// the trigger type does not encode one.
func (t TriggerType) SourceEntity() string {
	switch t {
	case TriggerProductCreated, TriggerProductUpdated, TriggerProductDeleted:
		return "product"
	case TriggerCorrespondenceCreated, TriggerCorrespondenceUpdated:
		return "correspondence"
	default:
		return ""
	}
}

// SupportsCondition reports whether the field condition of a trigger is
// evaluated for this trigger type.
func (t TriggerType) SupportsCondition() bool {
	return t == TriggerProductCreated || t == TriggerProductUpdated
}

type TriggerConfig struct {
	TriggerType       TriggerType `json:"triggerType"                 validate:"required"`
	SourceEntity      string      `json:"sourceEntity,omitempty"`
	ConditionField    string      `json:"conditionField,omitempty"`
	ConditionOperator string      `json:"conditionOperator,omitempty"`
	ConditionValue    string      `json:"conditionValue,omitempty"`
	ScheduleTime      string      `json:"scheduleTime,omitempty"`
	ScheduleDays      []string    `json:"scheduleDays,omitempty"`
}

func (*TriggerConfig) Kind() NodeKind { return KindTrigger }
func (*TriggerConfig) isNodeConfig()  {}

// Priority of a person task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

type PersonConfig struct {
	AssignedToID int      `json:"assignedToId,omitempty" validate:"required,gt=0"`
	AssignedTo   string   `json:"assignedTo,omitempty"`
	Priority     Priority `json:"priority,omitempty"`
	DueInHours   int      `json:"dueInHours,omitempty"   validate:"omitempty,gt=0"`
	Instructions string   `json:"instructions,omitempty"`
}

func (*PersonConfig) Kind() NodeKind { return KindPerson }
func (*PersonConfig) isNodeConfig()  {}

// ApprovalType decides how multiple approvers are consulted.
type ApprovalType string

const (
	ApprovalSequential ApprovalType = "Sequential"
	ApprovalParallel   ApprovalType = "Parallel"
	ApprovalAny        ApprovalType = "Any"
)

type ApprovalConfig struct {
	ApprovalType      ApprovalType `json:"approvalType,omitempty"`
	ApproverIDs       []int        `json:"approverIds,omitempty"       validate:"required,min=1,dive,gt=0"`
	Approvers         []string     `json:"approvers,omitempty"`
	RequiredApprovals int          `json:"requiredApprovals,omitempty" validate:"omitempty,gt=0"`
	RequireComments   bool         `json:"requireComments,omitempty"`
}

func (*ApprovalConfig) Kind() NodeKind { return KindApproval }
func (*ApprovalConfig) isNodeConfig()  {}

// ConditionType describes what a condition expression inspects.
type ConditionType string

const (
	ConditionFieldValue       ConditionType = "Field Value"
	ConditionApprovalResult   ConditionType = "Approval Result"
	ConditionAmount           ConditionType = "Amount"
	ConditionCustomExpression ConditionType = "Custom Expression"
)

// ConditionConfig holds a free-text boolean expression. Its syntax is left
// to the runner; only presence is checked here.
type ConditionConfig struct {
	ConditionType ConditionType `json:"conditionType,omitempty"`
	Expression    string        `json:"expression,omitempty"    validate:"notblank"`
}

func (*ConditionConfig) Kind() NodeKind { return KindCondition }
func (*ConditionConfig) isNodeConfig()  {}

// NotificationType is the delivery channel of a notification.
type NotificationType string

const (
	NotificationEmail NotificationType = "Email"
	NotificationInApp NotificationType = "In-App"
	NotificationSMS   NotificationType = "SMS"
	NotificationAll   NotificationType = "All"
)

type NotificationConfig struct {
	NotificationType NotificationType `json:"notificationType,omitempty"`
	Recipients       []string         `json:"recipients,omitempty"       validate:"required,min=1,dive,notblank"`
	Subject          string           `json:"subject,omitempty"`
	Message          string           `json:"message,omitempty"`
}

func (*NotificationConfig) Kind() NodeKind { return KindNotification }
func (*NotificationConfig) isNodeConfig()  {}

type ActionConfig struct {
	ActionType string         `json:"actionType,omitempty" validate:"notblank"`
	Params     map[string]any `json:"params,omitempty"`
}

func (*ActionConfig) Kind() NodeKind { return KindAction }
func (*ActionConfig) isNodeConfig()  {}

// DocumentAction is the operation a document step performs.
type DocumentAction string

const (
	DocumentReview   DocumentAction = "Review"
	DocumentGenerate DocumentAction = "Generate"
	DocumentUpload   DocumentAction = "Upload"
	DocumentArchive  DocumentAction = "Archive"
	DocumentSign     DocumentAction = "Sign"
)

type DocumentConfig struct {
	DocumentAction DocumentAction `json:"documentAction,omitempty" validate:"required"`
	TemplateID     string         `json:"templateId,omitempty"`
	RequiredFields []string       `json:"requiredFields,omitempty"`
}

func (*DocumentConfig) Kind() NodeKind { return KindDocument }
func (*DocumentConfig) isNodeConfig()  {}

// EscalationAction is what happens once an escalation fires.
type EscalationAction string

const (
	EscalationNotify   EscalationAction = "Notify"
	EscalationReassign EscalationAction = "Reassign"
	EscalationSkip     EscalationAction = "Skip"
	EscalationCancel   EscalationAction = "Cancel"
)

type EscalationConfig struct {
	EscalateAfterHours int              `json:"escalateAfterHours,omitempty" validate:"required,gt=0"`
	EscalateTo         string           `json:"escalateTo,omitempty"         validate:"notblank"`
	EscalationAction   EscalationAction `json:"escalationAction,omitempty"`
}

func (*EscalationConfig) Kind() NodeKind { return KindEscalation }
func (*EscalationConfig) isNodeConfig()  {}

// DelayUnit is the unit of DelayConfig.DelayAmount.
type DelayUnit string

const (
	DelayMinutes DelayUnit = "minutes"
	DelayHours   DelayUnit = "hours"
	DelayDays    DelayUnit = "days"
	DelayWeeks   DelayUnit = "weeks"
)

type DelayConfig struct {
	DelayAmount      float64   `json:"delayAmount,omitempty"      validate:"required,gt=0"`
	DelayUnit        DelayUnit `json:"delayUnit,omitempty"        validate:"required"`
	DelayDescription string    `json:"delayDescription,omitempty"`
}

func (*DelayConfig) Kind() NodeKind { return KindDelay }
func (*DelayConfig) isNodeConfig()  {}

// Duration converts the configured amount and unit. Unknown units yield 0.
func (c *DelayConfig) Duration() time.Duration {
	var unit time.Duration

	switch c.DelayUnit {
	case DelayMinutes:
		unit = time.Minute
	case DelayHours:
		unit = time.Hour
	case DelayDays:
		unit = 24 * time.Hour
	case DelayWeeks:
		unit = 7 * 24 * time.Hour
	default:
		return 0
	}

	return time.Duration(c.DelayAmount * float64(unit))
}

// Outcome of a workflow reaching an End node.
type Outcome string

const (
	OutcomeCompleted Outcome = "Completed"
	OutcomeApproved  Outcome = "Approved"
	OutcomeRejected  Outcome = "Rejected"
	OutcomeCancelled Outcome = "Cancelled"
	OutcomeFailed    Outcome = "Failed"
)

type EndConfig struct {
	Outcome      Outcome `json:"outcome,omitempty"      validate:"required"`
	FinalMessage string  `json:"finalMessage,omitempty"`
}

func (*EndConfig) Kind() NodeKind { return KindEnd }
func (*EndConfig) isNodeConfig()  {}

// TextConfig is empty: text nodes are canvas annotations that only carry
// their label.
type TextConfig struct{}

func (*TextConfig) Kind() NodeKind { return KindText }
func (*TextConfig) isNodeConfig()  {}
