package models

import "fmt"

// NodeKind is the fixed type tag of a node. It selects the legal
// configuration fields of the node and is immutable once the node exists.
type NodeKind string

const (
	KindTrigger      NodeKind = "trigger"
	KindPerson       NodeKind = "person"
	KindApproval     NodeKind = "approval"
	KindCondition    NodeKind = "condition"
	KindNotification NodeKind = "notification"
	KindAction       NodeKind = "action"
	KindDocument     NodeKind = "document"
	KindEscalation   NodeKind = "escalation"
	KindDelay        NodeKind = "delay"
	KindEnd          NodeKind = "end"
	KindText         NodeKind = "text"
)

// AllKinds lists every node kind in palette order.
func AllKinds() []NodeKind {
	return []NodeKind{
		KindTrigger,
		KindPerson,
		KindApproval,
		KindCondition,
		KindNotification,
		KindAction,
		KindDocument,
		KindEscalation,
		KindDelay,
		KindEnd,
		KindText,
	}
}

// ParseNodeKind converts a wire value into a NodeKind.
func ParseNodeKind(value string) (NodeKind, error) {
	for _, kind := range AllKinds() {
		if string(kind) == value {
			return kind, nil
		}
	}

	return "", &StructuralError{
		Op:  "ParseNodeKind",
		Msg: fmt.Sprintf("unknown node kind %q", value),
		Err: ErrUnknownNodeKind,
	}
}

// DisplayName returns the capitalised kind name used in default labels.
func (k NodeKind) DisplayName() string {
	switch k {
	case KindTrigger:
		return "Trigger"
	case KindPerson:
		return "Person"
	case KindApproval:
		return "Approval"
	case KindCondition:
		return "Condition"
	case KindNotification:
		return "Notification"
	case KindAction:
		return "Action"
	case KindDocument:
		return "Document"
	case KindEscalation:
		return "Escalation"
	case KindDelay:
		return "Delay"
	case KindEnd:
		return "End"
	case KindText:
		return "Text"
	default:
		return string(k)
	}
}

// DefaultLabel is the label given to freshly created nodes.
func (k NodeKind) DefaultLabel() string {
	return "New " + k.DisplayName()
}
