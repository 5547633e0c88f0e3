package registry

import (
	"fmt"

	"github.com/dukex/stockflow/pkg/models"
)

// Weekdays accepted by Scheduled triggers, in cron order.
var Weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// ConditionOperators accepted by product trigger conditions.
var ConditionOperators = []string{"equals", "not_equals", "greater_than", "less_than", "contains", "changed"}

func builtinSpecs() []*KindSpec {
	return []*KindSpec{
		triggerSpec(),
		personSpec(),
		approvalSpec(),
		conditionSpec(),
		notificationSpec(),
		actionSpec(),
		documentSpec(),
		escalationSpec(),
		delaySpec(),
		endSpec(),
		textSpec(),
	}
}

func triggerSpec() *KindSpec {
	return &KindSpec{
		Kind:        models.KindTrigger,
		Name:        "Trigger",
		Description: "Entry point that starts the workflow",
		Schema: &models.JSONSchema{
			Type:  "object",
			Title: "Trigger",
			Properties: map[string]*models.Property{
				"triggerType": enumProperty("Event that starts the workflow",
					models.TriggerManual,
					models.TriggerCorrespondenceCreated,
					models.TriggerCorrespondenceUpdated,
					models.TriggerStatusChange,
					models.TriggerScheduled,
					models.TriggerProductCreated,
					models.TriggerProductUpdated,
					models.TriggerProductDeleted,
				),
				"sourceEntity":      {Type: "string", Description: "Entity the trigger listens to", ReadOnly: true},
				"conditionField":    stringProperty("Product field inspected before starting"),
				"conditionOperator": enumProperty("Comparison applied to the condition field", ConditionOperators...),
				"conditionValue":    stringProperty("Value compared against the condition field"),
				"scheduleTime": {
					Type:        "string",
					Description: "Time of day for scheduled triggers (HH:MM, 24h)",
					Pattern:     `^([01][0-9]|2[0-3]):[0-5][0-9]$`,
				},
				"scheduleDays": {
					Type:        "array",
					Description: "Weekdays for scheduled triggers; empty means every day",
					Items:       enumProperty("Weekday", Weekdays...),
				},
			},
			Required: []string{"triggerType"},
		},
		New: func() models.NodeConfig {
			return &models.TriggerConfig{TriggerType: models.TriggerManual}
		},
		Normalize: normalizeTrigger,
		Check:     checkTrigger,
	}
}

func personSpec() *KindSpec {
	return &KindSpec{
		Kind:        models.KindPerson,
		Name:        "Person",
		Description: "Task assigned to a single person",
		Schema: &models.JSONSchema{
			Type:  "object",
			Title: "Person",
			Properties: map[string]*models.Property{
				"assignedToId": positiveIntegerProperty("User the task is assigned to"),
				"assignedTo":   stringProperty("Display name of the assignee"),
				"priority": enumProperty("Task priority",
					models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent),
				"dueInHours":   positiveIntegerProperty("Hours until the task is due"),
				"instructions": stringProperty("Instructions shown to the assignee"),
			},
			Required: []string{"assignedToId"},
		},
		New: func() models.NodeConfig {
			return &models.PersonConfig{Priority: models.PriorityMedium, DueInHours: 24}
		},
	}
}

func approvalSpec() *KindSpec {
	return &KindSpec{
		Kind:        models.KindApproval,
		Name:        "Approval",
		Description: "Approval requested from one or more approvers",
		Schema: &models.JSONSchema{
			Type:  "object",
			Title: "Approval",
			Properties: map[string]*models.Property{
				"approvalType": enumProperty("How approvers are consulted",
					models.ApprovalSequential, models.ApprovalParallel, models.ApprovalAny),
				"approverIds": {
					Type:        "array",
					Description: "Users asked for approval",
					Items:       positiveIntegerProperty("Approver id"),
				},
				"approvers": {
					Type:        "array",
					Description: "Display names of the approvers",
					Items:       stringProperty("Approver name"),
				},
				"requiredApprovals": positiveIntegerProperty("Approvals needed to pass"),
				"requireComments":   {Type: "boolean", Description: "Approvers must leave a comment"},
			},
			Required: []string{"approverIds"},
		},
		New: func() models.NodeConfig {
			return &models.ApprovalConfig{ApprovalType: models.ApprovalSequential, RequiredApprovals: 1}
		},
		Check: checkApproval,
	}
}

func conditionSpec() *KindSpec {
	return &KindSpec{
		Kind:        models.KindCondition,
		Name:        "Condition",
		Description: "Branches on a boolean expression into true and false paths",
		Schema: &models.JSONSchema{
			Type:  "object",
			Title: "Condition",
			Properties: map[string]*models.Property{
				"conditionType": enumProperty("What the expression inspects",
					models.ConditionFieldValue,
					models.ConditionApprovalResult,
					models.ConditionAmount,
					models.ConditionCustomExpression,
				),
				"expression": stringProperty("Boolean expression evaluated by the runner"),
			},
			Required: []string{"expression"},
		},
		New: func() models.NodeConfig {
			return &models.ConditionConfig{ConditionType: models.ConditionFieldValue}
		},
	}
}

func notificationSpec() *KindSpec {
	return &KindSpec{
		Kind:        models.KindNotification,
		Name:        "Notification",
		Description: "Message sent to one or more recipients",
		Schema: &models.JSONSchema{
			Type:  "object",
			Title: "Notification",
			Properties: map[string]*models.Property{
				"notificationType": enumProperty("Delivery channel",
					models.NotificationEmail, models.NotificationInApp, models.NotificationSMS, models.NotificationAll),
				"recipients": {
					Type:        "array",
					Description: "Recipients of the notification",
					Items:       stringProperty("Recipient"),
				},
				"subject": stringProperty("Subject line"),
				"message": stringProperty("Message body"),
			},
			Required: []string{"recipients"},
		},
		New: func() models.NodeConfig {
			return &models.NotificationConfig{NotificationType: models.NotificationEmail}
		},
	}
}

func actionSpec() *KindSpec {
	return &KindSpec{
		Kind:        models.KindAction,
		Name:        "Action",
		Description: "System action executed by the runner",
		Schema: &models.JSONSchema{
			Type:  "object",
			Title: "Action",
			Properties: map[string]*models.Property{
				"actionType": stringProperty("Action identifier understood by the runner"),
				"params":     {Type: "object", Description: "Action parameters"},
			},
			Required: []string{"actionType"},
		},
		New: func() models.NodeConfig {
			return &models.ActionConfig{}
		},
	}
}

func documentSpec() *KindSpec {
	return &KindSpec{
		Kind:        models.KindDocument,
		Name:        "Document",
		Description: "Document review, generation or archival step",
		Schema: &models.JSONSchema{
			Type:  "object",
			Title: "Document",
			Properties: map[string]*models.Property{
				"documentAction": enumProperty("Document operation",
					models.DocumentReview,
					models.DocumentGenerate,
					models.DocumentUpload,
					models.DocumentArchive,
					models.DocumentSign,
				),
				"templateId": stringProperty("Template used to generate the document"),
				"requiredFields": {
					Type:        "array",
					Description: "Fields that must be filled in the document",
					Items:       stringProperty("Field name"),
				},
			},
			Required: []string{"documentAction"},
		},
		New: func() models.NodeConfig {
			return &models.DocumentConfig{DocumentAction: models.DocumentReview}
		},
	}
}

func escalationSpec() *KindSpec {
	return &KindSpec{
		Kind:        models.KindEscalation,
		Name:        "Escalation",
		Description: "Escalates overdue work after a number of hours",
		Schema: &models.JSONSchema{
			Type:  "object",
			Title: "Escalation",
			Properties: map[string]*models.Property{
				"escalateAfterHours": positiveIntegerProperty("Hours before escalating"),
				"escalateTo":         stringProperty("User or role receiving the escalation"),
				"escalationAction": enumProperty("What the escalation does",
					models.EscalationNotify, models.EscalationReassign, models.EscalationSkip, models.EscalationCancel),
			},
			Required: []string{"escalateAfterHours", "escalateTo"},
		},
		New: func() models.NodeConfig {
			return &models.EscalationConfig{EscalateAfterHours: 24, EscalationAction: models.EscalationNotify}
		},
	}
}

func delaySpec() *KindSpec {
	return &KindSpec{
		Kind:        models.KindDelay,
		Name:        "Delay",
		Description: "Waits before continuing",
		Schema: &models.JSONSchema{
			Type:  "object",
			Title: "Delay",
			Properties: map[string]*models.Property{
				"delayAmount": positiveNumberProperty("Amount of time to wait"),
				"delayUnit": enumProperty("Unit of the delay amount",
					models.DelayMinutes, models.DelayHours, models.DelayDays, models.DelayWeeks),
				"delayDescription": stringProperty("Why the workflow waits"),
			},
			Required: []string{"delayAmount", "delayUnit"},
		},
		New: func() models.NodeConfig {
			return &models.DelayConfig{DelayAmount: 1, DelayUnit: models.DelayHours}
		},
	}
}

func endSpec() *KindSpec {
	return &KindSpec{
		Kind:        models.KindEnd,
		Name:        "End",
		Description: "Terminates the workflow with an outcome",
		Terminal:    true,
		Schema: &models.JSONSchema{
			Type:  "object",
			Title: "End",
			Properties: map[string]*models.Property{
				"outcome": enumProperty("Final outcome",
					models.OutcomeCompleted,
					models.OutcomeApproved,
					models.OutcomeRejected,
					models.OutcomeCancelled,
					models.OutcomeFailed,
				),
				"finalMessage": stringProperty("Message recorded when the workflow ends"),
			},
			Required: []string{"outcome"},
		},
		New: func() models.NodeConfig {
			return &models.EndConfig{Outcome: models.OutcomeCompleted}
		},
	}
}

func textSpec() *KindSpec {
	return &KindSpec{
		Kind:        models.KindText,
		Name:        "Text",
		Description: "Free text annotation on the canvas",
		Annotation:  true,
		Schema: &models.JSONSchema{
			Type:       "object",
			Title:      "Text",
			Properties: map[string]*models.Property{},
		},
		New: func() models.NodeConfig {
			return &models.TextConfig{}
		},
	}
}

// normalizeTrigger keeps sourceEntity in step with the trigger type. The
// entity is read-only whenever the trigger type encodes one.
func normalizeTrigger(previous, merged models.NodeConfig, patch models.Patch) error {
	before, _ := previous.(*models.TriggerConfig)
	after, ok := merged.(*models.TriggerConfig)

	if !ok {
		return fmt.Errorf("trigger normalizer received %T", merged)
	}

	derived := after.TriggerType.SourceEntity()
	requested, setsEntity := patch["sourceEntity"]

	if derived != "" {
		if setsEntity && requested != nil && requested != derived {
			return &FieldError{
				Kind:  models.KindTrigger,
				Field: "sourceEntity",
				Msg:   fmt.Sprintf("is derived from trigger type %q and must be %q", after.TriggerType, derived),
				Err:   ErrReadOnlyField,
			}
		}

		after.SourceEntity = derived

		return nil
	}

	// The trigger no longer encodes an entity: drop the stale derived value.
	if before != nil && !setsEntity && before.TriggerType.SourceEntity() != "" &&
		after.SourceEntity == before.TriggerType.SourceEntity() {
		after.SourceEntity = ""
	}

	return nil
}

func checkTrigger(config models.NodeConfig) FieldErrors {
	trigger, ok := config.(*models.TriggerConfig)
	if !ok {
		return nil
	}

	var errs FieldErrors

	if derived := trigger.TriggerType.SourceEntity(); derived != "" && trigger.SourceEntity != derived {
		errs = append(errs, &FieldError{
			Kind:  models.KindTrigger,
			Field: "sourceEntity",
			Msg:   fmt.Sprintf("must be %q for trigger type %q", derived, trigger.TriggerType),
			Err:   ErrInvalidFieldValue,
		})
	}

	if trigger.TriggerType == models.TriggerScheduled {
		if trigger.ScheduleTime == "" {
			errs = append(errs, &FieldError{
				Kind:  models.KindTrigger,
				Field: "scheduleTime",
				Msg:   "is required for scheduled triggers",
				Err:   ErrMissingField,
			})
		} else if _, err := CronSpec(trigger); err != nil {
			errs = append(errs, &FieldError{
				Kind:  models.KindTrigger,
				Field: "scheduleTime",
				Msg:   err.Error(),
				Err:   ErrInvalidFieldValue,
			})
		}
	}

	if trigger.TriggerType.SupportsCondition() &&
		(trigger.ConditionField != "" || trigger.ConditionOperator != "" || trigger.ConditionValue != "") {
		if trigger.ConditionField == "" {
			errs = append(errs, &FieldError{
				Kind:  models.KindTrigger,
				Field: "conditionField",
				Msg:   "is required when a trigger condition is set",
				Err:   ErrMissingField,
			})
		}

		if trigger.ConditionOperator == "" {
			errs = append(errs, &FieldError{
				Kind:  models.KindTrigger,
				Field: "conditionOperator",
				Msg:   "is required when a trigger condition is set",
				Err:   ErrMissingField,
			})
		}
	}

	return errs
}

func checkApproval(config models.NodeConfig) FieldErrors {
	approval, ok := config.(*models.ApprovalConfig)
	if !ok || len(approval.ApproverIDs) == 0 {
		return nil
	}

	var errs FieldErrors

	if approval.RequiredApprovals > len(approval.ApproverIDs) {
		errs = append(errs, &FieldError{
			Kind:  models.KindApproval,
			Field: "requiredApprovals",
			Msg:   fmt.Sprintf("cannot exceed the number of approvers (%d)", len(approval.ApproverIDs)),
			Err:   ErrInvalidFieldValue,
		})
	}

	if len(approval.Approvers) > 0 && len(approval.Approvers) != len(approval.ApproverIDs) {
		errs = append(errs, &FieldError{
			Kind:  models.KindApproval,
			Field: "approvers",
			Msg:   "must list one name per approver id",
			Err:   ErrInvalidFieldValue,
		})
	}

	return errs
}

func stringProperty(description string) *models.Property {
	return &models.Property{Type: "string", Description: description}
}

func enumProperty[T ~string](description string, values ...T) *models.Property {
	enum := make([]any, 0, len(values))
	for _, value := range values {
		enum = append(enum, string(value))
	}

	return &models.Property{Type: "string", Description: description, Enum: enum}
}

func positiveIntegerProperty(description string) *models.Property {
	minimum := 1.0

	return &models.Property{Type: "integer", Description: description, Minimum: &minimum}
}

func positiveNumberProperty(description string) *models.Property {
	exclusiveMinimum := 0.0

	return &models.Property{Type: "number", Description: description, ExclusiveMinimum: &exclusiveMinimum}
}
