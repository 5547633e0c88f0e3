package models

// Severity of a validation issue. Errors block publishing; warnings never do.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes reported by the validator.
const (
	IssueDanglingEdge        = "dangling_edge"
	IssueDuplicateID         = "duplicate_id"
	IssueUnknownKind         = "unknown_kind"
	IssueKindMismatch        = "kind_mismatch"
	IssueTerminalOutgoing    = "terminal_outgoing"
	IssueInvalidHandle       = "invalid_handle"
	IssueDuplicateBranch     = "duplicate_branch"
	IssueNoEntryPoint        = "no_entry_point"
	IssueAmbiguousEntryPoint = "ambiguous_entry_point"
	IssueDeadEnd             = "dead_end"
	IssueUnreachable         = "unreachable"
	IssueMissingBranch       = "missing_branch"
	IssueIncompleteConfig    = "incomplete_config"
	IssueNoPathToEnd         = "no_path_to_end"
)

// Issue is one finding of the validator, attributed to a node or edge.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	NodeID   string   `json:"node_id,omitempty"`
	EdgeID   string   `json:"edge_id,omitempty"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}
