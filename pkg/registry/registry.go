// Package registry is the single source of truth for node kinds: which
// configuration fields each kind accepts, their defaults and which of them
// are required.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/dukex/stockflow/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

// KindSpec describes one node kind.
type KindSpec struct {
	Kind        models.NodeKind
	Name        string
	Description string
	Schema      *models.JSONSchema
	Terminal    bool // no outgoing edges permitted
	Annotation  bool // ignored by execution checks

	// New returns a config populated with the kind defaults.
	New func() models.NodeConfig

	// Normalize runs after a patch has been merged and may reject it or
	// fill in derived fields.
	Normalize func(previous, merged models.NodeConfig, patch models.Patch) error

	// Check reports cross-field problems that struct tags cannot express.
	Check func(config models.NodeConfig) FieldErrors
}

// zero returns an empty config of the kind, without defaults.
func (s *KindSpec) zero() models.NodeConfig {
	return reflect.New(reflect.TypeOf(s.New()).Elem()).Interface().(models.NodeConfig)
}

type Registry struct {
	logger   *slog.Logger
	specs    map[models.NodeKind]*KindSpec
	order    []models.NodeKind
	schemas  map[models.NodeKind]*gojsonschema.Schema
	validate *validator.Validate
}

var defaultRegistry = mustNew(slog.Default(), builtinSpecs()...)

// Default returns the registry with the built-in workflow node kinds.
func Default() *Registry {
	return defaultRegistry
}

// New builds a registry from the given kind specs. Each kind may be
// registered once and must come with a schema and a constructor.
func New(logger *slog.Logger, specs ...*KindSpec) (*Registry, error) {
	r := &Registry{
		logger:   logger.With("module", "registry"),
		specs:    make(map[models.NodeKind]*KindSpec, len(specs)),
		schemas:  make(map[models.NodeKind]*gojsonschema.Schema, len(specs)),
		validate: newValidator(),
	}

	for _, spec := range specs {
		if err := r.register(spec); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func mustNew(logger *slog.Logger, specs ...*KindSpec) *Registry {
	r, err := New(logger, specs...)
	if err != nil {
		panic(fmt.Errorf("failed to build node kind registry: %w", err))
	}

	return r
}

func (r *Registry) register(spec *KindSpec) error {
	if spec == nil || spec.Kind == "" {
		return errors.New("kind spec without kind")
	}

	if _, exists := r.specs[spec.Kind]; exists {
		return fmt.Errorf("kind %q registered twice", spec.Kind)
	}

	if spec.Schema == nil || spec.New == nil {
		return fmt.Errorf("kind %q needs a schema and a constructor", spec.Kind)
	}

	if got := spec.New().Kind(); got != spec.Kind {
		return fmt.Errorf("kind %q constructor returns %q config", spec.Kind, got)
	}

	compiled, err := compileSchema(spec.Schema)
	if err != nil {
		return fmt.Errorf("failed to compile schema of kind %q: %w", spec.Kind, err)
	}

	r.specs[spec.Kind] = spec
	r.schemas[spec.Kind] = compiled
	r.order = append(r.order, spec.Kind)

	r.logger.Debug("Registered node kind", "kind", spec.Kind)

	return nil
}

// Lookup returns the spec of a kind or an unknown-kind error.
func (r *Registry) Lookup(kind models.NodeKind) (*KindSpec, error) {
	spec, ok := r.specs[kind]
	if !ok {
		return nil, &models.StructuralError{
			Op:  "Registry.Lookup",
			Msg: fmt.Sprintf("unknown node kind %q", kind),
			Err: models.ErrUnknownNodeKind,
		}
	}

	return spec, nil
}

// Has reports whether the kind is registered.
func (r *Registry) Has(kind models.NodeKind) bool {
	_, ok := r.specs[kind]

	return ok
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []models.NodeKind {
	kinds := make([]models.NodeKind, len(r.order))
	copy(kinds, r.order)

	return kinds
}

// Describe returns the public description of every registered kind.
func (r *Registry) Describe() []models.KindDescriptor {
	descriptors := make([]models.KindDescriptor, 0, len(r.order))

	for _, kind := range r.order {
		spec := r.specs[kind]
		descriptors = append(descriptors, models.KindDescriptor{
			Kind:        spec.Kind,
			Name:        spec.Name,
			Description: spec.Description,
			Terminal:    spec.Terminal,
			Annotation:  spec.Annotation,
			Schema:      spec.Schema,
		})
	}

	return descriptors
}

// NewConfig returns a config of the given kind populated with defaults.
func (r *Registry) NewConfig(kind models.NodeKind) (models.NodeConfig, error) {
	spec, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}

	return spec.New(), nil
}

// Fields returns the legal field names of a kind, sorted.
func (r *Registry) Fields(kind models.NodeKind) ([]string, error) {
	spec, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(spec.Schema.Properties))
	for name := range spec.Schema.Properties {
		fields = append(fields, name)
	}

	sort.Strings(fields)

	return fields, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}
