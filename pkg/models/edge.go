package models

// Source handles of a condition node.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

// EdgeStyle is visual metadata carried opaquely, apart from the stroke
// colour convention used for condition branches.
type EdgeStyle struct {
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	LineType    string  `json:"lineType,omitempty"`
	MarkerStart string  `json:"markerStart,omitempty"`
	MarkerEnd   string  `json:"markerEnd,omitempty"`
}

// Edge is a directed, labelled connection between two nodes.
type Edge struct {
	ID           string
	Source       string
	Target       string
	SourceHandle string
	TargetHandle string
	Label        string
	Style        *EdgeStyle
	Animated     bool
}

// Reversed returns a copy of the edge pointing the other way with source
// and target handles swapped together.
func (e Edge) Reversed() Edge {
	e.Source, e.Target = e.Target, e.Source
	e.SourceHandle, e.TargetHandle = e.TargetHandle, e.SourceHandle

	return e
}

// Connection is a request to join two nodes, before the edge is tagged.
type Connection struct {
	Source       string
	Target       string
	SourceHandle string
	TargetHandle string
}

// EdgePatch is a field-level edge update. Nil fields are left untouched.
// Reverse swaps source and target together with their handles; endpoints
// cannot be changed one at a time.
type EdgePatch struct {
	Label    *string
	Style    *EdgeStyle
	Animated *bool
	Reverse  bool
}
