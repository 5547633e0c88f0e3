package branch

import (
	"testing"

	"github.com/dukex/stockflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedID(id string) func() string {
	return func() string { return id }
}

func TestResolve_ConditionBranches(t *testing.T) {
	resolver := NewResolver(fixedID("generated"))
	condition := models.Node{ID: "c1", Kind: models.KindCondition}

	tests := []struct {
		handle string
		id     string
		stroke string
	}{
		{models.HandleTrue, "c1-n2-true", StrokeTrue},
		{models.HandleFalse, "c1-n2-false", StrokeFalse},
	}

	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			edge, err := resolver.Resolve(condition, models.Connection{Source: "c1", Target: "n2", SourceHandle: tt.handle})

			require.NoError(t, err)
			assert.Equal(t, tt.id, edge.ID)
			assert.Equal(t, tt.handle, edge.Label)
			assert.Equal(t, tt.handle, edge.SourceHandle)
			require.NotNil(t, edge.Style)
			assert.Equal(t, tt.stroke, edge.Style.Stroke)
		})
	}
}

func TestResolve_ConditionRejectsOtherHandles(t *testing.T) {
	resolver := NewResolver(nil)
	condition := models.Node{ID: "c1", Kind: models.KindCondition}

	for _, handle := range []string{"", "maybe", "TRUE"} {
		_, err := resolver.Resolve(condition, models.Connection{Source: "c1", Target: "n2", SourceHandle: handle})

		assert.ErrorIs(t, err, models.ErrInvalidHandle, handle)
	}
}

func TestResolve_PlainSource(t *testing.T) {
	resolver := NewResolver(fixedID("e-1"))

	edge, err := resolver.Resolve(
		models.Node{ID: "p1", Kind: models.KindPerson},
		models.Connection{Source: "p1", Target: "n2", TargetHandle: "in"},
	)

	require.NoError(t, err)
	assert.Equal(t, "e-1", edge.ID)
	assert.Empty(t, edge.Label)
	assert.Equal(t, "in", edge.TargetHandle)
	assert.Equal(t, StrokeNeutral, edge.Style.Stroke)
}

func TestResolve_DefaultGeneratorIsUnique(t *testing.T) {
	resolver := NewResolver(nil)
	source := models.Node{ID: "p1", Kind: models.KindPerson}

	first, err := resolver.Resolve(source, models.Connection{Source: "p1", Target: "n2"})
	require.NoError(t, err)

	second, err := resolver.Resolve(source, models.Connection{Source: "p1", Target: "n2"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestRetag_LeavingConditionDropsBranchMarks(t *testing.T) {
	resolver := NewResolver(nil)

	edge := models.Edge{
		ID:           "c1-n2-true",
		Source:       "c1",
		Target:       "n2",
		SourceHandle: models.HandleTrue,
		Label:        models.HandleTrue,
		Style:        &models.EdgeStyle{Stroke: StrokeTrue, LineType: "smoothstep"},
	}

	reversed, err := resolver.Retag(models.Node{ID: "n2", Kind: models.KindPerson}, edge.Reversed())

	require.NoError(t, err)
	assert.NotEqual(t, "c1-n2-true", reversed.ID, "branch id is released")
	assert.NotEmpty(t, reversed.ID)
	assert.Equal(t, "n2", reversed.Source)
	assert.Equal(t, models.HandleTrue, reversed.TargetHandle)
	assert.Empty(t, reversed.Label)
	assert.Equal(t, StrokeNeutral, reversed.Style.Stroke)
	assert.Equal(t, "smoothstep", reversed.Style.LineType)

	// the input style is not shared
	assert.Equal(t, StrokeTrue, edge.Style.Stroke)
}

func TestBranches(t *testing.T) {
	edges := []models.Edge{
		{ID: "a", Source: "c1", Target: "n1", SourceHandle: models.HandleTrue},
		{ID: "b", Source: "c2", Target: "n1", SourceHandle: models.HandleFalse},
		{ID: "c", Source: "c1", Target: "n3", SourceHandle: models.HandleTrue},
	}

	pair := Branches("c1", edges)

	require.NotNil(t, pair.True)
	assert.Equal(t, "a", pair.True.ID)
	assert.Nil(t, pair.False)
	assert.False(t, pair.Complete())
	assert.Equal(t, []string{models.HandleFalse}, pair.Missing())

	edges = append(edges, models.Edge{ID: "d", Source: "c1", Target: "n4", SourceHandle: models.HandleFalse})

	assert.True(t, Branches("c1", edges).Complete())
	assert.Empty(t, Branches("c1", edges).Missing())
}

func TestIsBranchHandle(t *testing.T) {
	assert.True(t, IsBranchHandle("true"))
	assert.True(t, IsBranchHandle("false"))
	assert.False(t, IsBranchHandle(""))
	assert.False(t, IsBranchHandle("yes"))
}

func TestRetag_PlainEdgeKeepsItsID(t *testing.T) {
	resolver := NewResolver(func() string { return "fresh" })

	edge := models.Edge{ID: "e-7", Source: "n1", Target: "n2", SourceHandle: "out", TargetHandle: "in"}

	reversed, err := resolver.Retag(models.Node{ID: "n2", Kind: models.KindApproval}, edge.Reversed())
	require.NoError(t, err)
	assert.Equal(t, "e-7", reversed.ID)

	unnamed, err := resolver.Retag(models.Node{ID: "n1", Kind: models.KindPerson}, models.Edge{Source: "n1", Target: "n2"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", unnamed.ID)
}
