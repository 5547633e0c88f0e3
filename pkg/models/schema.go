package models

// JSONSchema represents a JSON Schema for node configuration validation.
type JSONSchema struct {
	Type                 string               `json:"type"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	AdditionalProperties *bool                `json:"additionalProperties,omitempty"`
	Title                string               `json:"title,omitempty"`
	Description          string               `json:"description,omitempty"`
}

// Property represents a JSON Schema property.
type Property struct {
	Type             string               `json:"type"`
	Description      string               `json:"description,omitempty"`
	Enum             []any                `json:"enum,omitempty"`
	Default          any                  `json:"default,omitempty"`
	Format           string               `json:"format,omitempty"`
	MinLength        *int                 `json:"minLength,omitempty"`
	MaxLength        *int                 `json:"maxLength,omitempty"`
	Minimum          *float64             `json:"minimum,omitempty"`
	ExclusiveMinimum *float64             `json:"exclusiveMinimum,omitempty"`
	Pattern          string               `json:"pattern,omitempty"`
	ReadOnly         bool                 `json:"readOnly,omitempty"`
	Items            *Property            `json:"items,omitempty"`
	Properties       map[string]*Property `json:"properties,omitempty"`
	Required         []string             `json:"required,omitempty"`
}

// KindDescriptor describes a node kind for palettes and API clients.
type KindDescriptor struct {
	Kind        NodeKind    `json:"kind"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Terminal    bool        `json:"terminal"`
	Annotation  bool        `json:"annotation"`
	Schema      *JSONSchema `json:"schema"`
}
