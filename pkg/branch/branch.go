// Package branch tags edges leaving condition nodes with their true/false
// branch semantics.
package branch

import (
	"fmt"

	"github.com/dukex/stockflow/pkg/models"
	"github.com/google/uuid"
)

// Stroke colours of the branch convention.
const (
	StrokeTrue    = "#22c55e"
	StrokeFalse   = "#ef4444"
	StrokeNeutral = "#94a3b8"
)

const defaultStrokeWidth = 2

// IsBranchHandle reports whether handle names one of the two condition
// outputs.
func IsBranchHandle(handle string) bool {
	return handle == models.HandleTrue || handle == models.HandleFalse
}

// IsReservedLabel reports whether label may only be used on condition
// edges.
func IsReservedLabel(label string) bool {
	return IsBranchHandle(label)
}

// EdgeID is the deterministic id of the edge leaving a condition node
// through handle. Reconnecting the same handle to a new target yields a new
// id, so callers replace by (source, handle) rather than by id alone.
func EdgeID(source, target, handle string) string {
	return fmt.Sprintf("%s-%s-%s", source, target, handle)
}

// Stroke returns the stroke colour for an edge leaving through handle.
func Stroke(handle string) string {
	switch handle {
	case models.HandleTrue:
		return StrokeTrue
	case models.HandleFalse:
		return StrokeFalse
	default:
		return StrokeNeutral
	}
}

type Resolver struct {
	newID func() string
}

// NewResolver returns a resolver that names non-condition edges with
// newID. A nil generator falls back to random UUIDs.
func NewResolver(newID func() string) *Resolver {
	if newID == nil {
		newID = uuid.NewString
	}

	return &Resolver{newID: newID}
}

// Resolve turns a connection leaving source into a tagged edge.
func (r *Resolver) Resolve(source models.Node, conn models.Connection) (models.Edge, error) {
	edge := models.Edge{
		Source:       conn.Source,
		Target:       conn.Target,
		SourceHandle: conn.SourceHandle,
		TargetHandle: conn.TargetHandle,
	}

	if source.Kind != models.KindCondition {
		edge.ID = r.newID()
		edge.Style = &models.EdgeStyle{Stroke: StrokeNeutral, StrokeWidth: defaultStrokeWidth}

		return edge, nil
	}

	return r.Retag(source, edge)
}

// Retag re-applies the branch convention to an existing edge whose source
// may have changed, as happens when an edge is reversed. Condition sources
// get the deterministic id, the handle as label and the branch colour.
// Edges that no longer leave a condition lose any reserved label and fall
// back to the neutral stroke. They keep their id unless it is the branch id
// they carried while leaving the condition, which would otherwise collide
// with a later connection of that branch.
func (r *Resolver) Retag(source models.Node, edge models.Edge) (models.Edge, error) {
	style := models.EdgeStyle{StrokeWidth: defaultStrokeWidth}
	if edge.Style != nil {
		style = *edge.Style
	}

	if source.Kind != models.KindCondition {
		if IsReservedLabel(edge.Label) {
			edge.Label = ""
		}

		style.Stroke = StrokeNeutral
		edge.Style = &style

		if edge.ID == "" || edge.ID == EdgeID(edge.Target, edge.Source, edge.TargetHandle) {
			edge.ID = r.newID()
		}

		return edge, nil
	}

	if !IsBranchHandle(edge.SourceHandle) {
		return models.Edge{}, &models.StructuralError{
			Op:     "Resolver.Retag",
			NodeID: source.ID,
			Msg:    fmt.Sprintf("condition output must be %q or %q, got %q", models.HandleTrue, models.HandleFalse, edge.SourceHandle),
			Err:    models.ErrInvalidHandle,
		}
	}

	edge.ID = EdgeID(edge.Source, edge.Target, edge.SourceHandle)
	edge.Label = edge.SourceHandle
	style.Stroke = Stroke(edge.SourceHandle)
	edge.Style = &style

	return edge, nil
}

// Pair holds the branch edges of one condition node. Missing branches are
// nil.
type Pair struct {
	True  *models.Edge
	False *models.Edge
}

// Complete reports whether both branches are connected.
func (p Pair) Complete() bool {
	return p.True != nil && p.False != nil
}

// Missing returns the handles with no edge, true first.
func (p Pair) Missing() []string {
	var missing []string

	if p.True == nil {
		missing = append(missing, models.HandleTrue)
	}

	if p.False == nil {
		missing = append(missing, models.HandleFalse)
	}

	return missing
}

// Branches finds the true and false edges leaving conditionID. When a
// handle is used more than once the first edge wins.
func Branches(conditionID string, edges []models.Edge) Pair {
	var pair Pair

	for i := range edges {
		edge := edges[i]
		if edge.Source != conditionID {
			continue
		}

		switch {
		case edge.SourceHandle == models.HandleTrue && pair.True == nil:
			pair.True = &edge
		case edge.SourceHandle == models.HandleFalse && pair.False == nil:
			pair.False = &edge
		}
	}

	return pair
}
