// Package workflow converts between the in-memory graph and the persisted
// workflow format, and decides whether a workflow may be saved or
// published.
package workflow

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/dukex/stockflow/pkg/graph"
	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/registry"
)

type Serializer struct {
	registry *registry.Registry
}

func NewSerializer(reg *registry.Registry) *Serializer {
	return &Serializer{registry: reg}
}

// Encode returns a copy of meta carrying graph as its nodes and edges. Node
// data is the config merged with the label.
func (s *Serializer) Encode(meta *models.Workflow, g models.Graph) (*models.Workflow, error) {
	wf := *meta
	wf.Nodes = make([]models.WireNode, 0, len(g.Nodes))
	wf.Edges = make([]models.WireEdge, 0, len(g.Edges))

	if wf.Status == "" {
		wf.Status = models.WorkflowStatusDraft
	}

	for _, node := range g.Nodes {
		if err := node.Validate(); err != nil {
			return nil, err
		}

		data, err := s.registry.EncodeConfig(node.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to encode node %s: %w", node.ID, err)
		}

		data[models.LabelField] = node.Label

		wf.Nodes = append(wf.Nodes, models.WireNode{
			ID:       node.ID,
			Type:     string(node.Kind),
			Position: node.Position,
			Data:     data,
		})
	}

	for _, edge := range g.Edges {
		wire := models.WireEdge{
			ID:           edge.ID,
			Source:       edge.Source,
			Target:       edge.Target,
			Label:        edge.Label,
			SourceHandle: edge.SourceHandle,
			TargetHandle: edge.TargetHandle,
			Animated:     edge.Animated,
		}

		if edge.Style != nil {
			style := *edge.Style
			wire.Style = &style
		}

		wf.Edges = append(wf.Edges, wire)
	}

	return &wf, nil
}

// Decode rebuilds the graph of a persisted workflow. Node types missing
// from the registry and data fields outside the kind schema are rejected.
func (s *Serializer) Decode(wf *models.Workflow) (models.Graph, error) {
	g := models.Graph{
		Nodes: make([]models.Node, 0, len(wf.Nodes)),
		Edges: make([]models.Edge, 0, len(wf.Edges)),
	}

	for _, wire := range wf.Nodes {
		node, err := s.decodeNode(wire)
		if err != nil {
			return models.Graph{}, err
		}

		g.Nodes = append(g.Nodes, node)
	}

	for _, wire := range wf.Edges {
		edge := models.Edge{
			ID:           wire.ID,
			Source:       wire.Source,
			Target:       wire.Target,
			SourceHandle: wire.SourceHandle,
			TargetHandle: wire.TargetHandle,
			Label:        wire.Label,
			Animated:     wire.Animated,
		}

		if wire.Style != nil {
			style := *wire.Style
			edge.Style = &style
		}

		g.Edges = append(g.Edges, edge)
	}

	return g, nil
}

func (s *Serializer) decodeNode(wire models.WireNode) (models.Node, error) {
	kind, err := models.ParseNodeKind(wire.Type)
	if err != nil || !s.registry.Has(kind) {
		return models.Node{}, &models.StructuralError{
			Op:     "Serializer.Decode",
			NodeID: wire.ID,
			Msg:    fmt.Sprintf("unknown node type %q", wire.Type),
			Err:    models.ErrUnknownNodeKind,
		}
	}

	data := maps.Clone(wire.Data)
	if data == nil {
		data = map[string]any{}
	}

	label := kind.DefaultLabel()

	if value, ok := data[models.LabelField]; ok {
		delete(data, models.LabelField)

		text, isString := value.(string)
		if !isString {
			return models.Node{}, fmt.Errorf("node %s: %w", wire.ID, &registry.FieldError{
				Kind:  kind,
				Field: models.LabelField,
				Msg:   fmt.Sprintf("expected string, got %T", value),
				Err:   registry.ErrInvalidFieldValue,
			})
		}

		if text != "" {
			label = text
		}
	}

	config, err := s.registry.DecodeConfig(kind, data)
	if err != nil {
		return models.Node{}, fmt.Errorf("node %s: %w", wire.ID, err)
	}

	return models.Node{
		ID:       wire.ID,
		Kind:     kind,
		Position: wire.Position,
		Label:    label,
		Config:   config,
	}, nil
}

// Load decodes wf and replaces the whole content of store with it.
func (s *Serializer) Load(store *graph.Store, wf *models.Workflow) error {
	g, err := s.Decode(wf)
	if err != nil {
		return err
	}

	return store.Load(g)
}

// Marshal renders a workflow as indented JSON.
func Marshal(wf *models.Workflow) ([]byte, error) {
	return json.MarshalIndent(wf, "", "  ")
}

// Unmarshal parses a workflow document. A missing status means draft.
func Unmarshal(data []byte) (*models.Workflow, error) {
	var wf models.Workflow

	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse workflow: %w", err)
	}

	if wf.Status == "" {
		wf.Status = models.WorkflowStatusDraft
	}

	if !wf.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, wf.Status)
	}

	return &wf, nil
}
