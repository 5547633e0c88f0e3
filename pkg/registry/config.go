package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dukex/stockflow/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

// EncodeConfig flattens a config into its wire field map. Zero-valued
// optional fields are omitted.
func (r *Registry) EncodeConfig(config models.NodeConfig) (map[string]any, error) {
	if _, err := r.Lookup(config.Kind()); err != nil {
		return nil, err
	}

	body, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s config: %w", config.Kind(), err)
	}

	fields := make(map[string]any)

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to encode %s config: %w", config.Kind(), err)
	}

	return fields, nil
}

// DecodeConfig builds a typed config of the given kind from a wire field
// map. Fields outside the kind schema are rejected.
func (r *Registry) DecodeConfig(kind models.NodeKind, data map[string]any) (models.NodeConfig, error) {
	spec, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}

	if errs := unknownFields(spec, data); len(errs) > 0 {
		return nil, errs
	}

	config := spec.zero()
	if err := decodeInto(config, data); err != nil {
		return nil, err
	}

	return config, nil
}

// CloneConfig returns a deep copy of a config.
func (r *Registry) CloneConfig(config models.NodeConfig) (models.NodeConfig, error) {
	fields, err := r.EncodeConfig(config)
	if err != nil {
		return nil, err
	}

	return r.DecodeConfig(config.Kind(), fields)
}

// ApplyPatch merges patch into config field by field and returns the new
// config; config itself is not modified. Unknown fields and values that do
// not fit the field type or range are rejected with field-scoped errors. A
// nil value resets the field to its zero value.
func (r *Registry) ApplyPatch(config models.NodeConfig, patch models.Patch) (models.NodeConfig, error) {
	spec, err := r.Lookup(config.Kind())
	if err != nil {
		return nil, err
	}

	if errs := unknownFields(spec, patch); len(errs) > 0 {
		return nil, errs
	}

	values := make(map[string]any, len(patch))

	for field, value := range patch {
		if value != nil {
			values[field] = value
		}
	}

	if errs := r.checkSchema(spec.Kind, values); len(errs) > 0 {
		return nil, errs
	}

	fields, err := r.EncodeConfig(config)
	if err != nil {
		return nil, err
	}

	for field, value := range patch {
		if value == nil {
			delete(fields, field)

			continue
		}

		fields[field] = value
	}

	merged := spec.zero()
	if err := decodeInto(merged, fields); err != nil {
		return nil, err
	}

	if spec.Normalize != nil {
		if err := spec.Normalize(config, merged, patch); err != nil {
			return nil, err
		}
	}

	return merged, nil
}

// CheckComplete reports every required field that is missing and every
// field whose value is out of range for its kind. An empty result means
// the config is ready to run.
func (r *Registry) CheckComplete(config models.NodeConfig) FieldErrors {
	spec, err := r.Lookup(config.Kind())
	if err != nil {
		return FieldErrors{{Kind: config.Kind(), Field: "type", Msg: err.Error(), Err: err}}
	}

	var errs FieldErrors

	seen := make(map[string]bool)
	add := func(fieldErr *FieldError) {
		if seen[fieldErr.Field] {
			return
		}

		seen[fieldErr.Field] = true
		errs = append(errs, fieldErr)
	}

	if err := r.validate.Struct(config); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, fieldErr := range validationErrs {
				add(fromValidatorError(spec.Kind, fieldErr))
			}
		}
	}

	if fields, err := r.EncodeConfig(config); err == nil {
		for _, fieldErr := range r.checkSchema(spec.Kind, fields) {
			add(fieldErr)
		}
	}

	if spec.Check != nil {
		for _, fieldErr := range spec.Check(config) {
			add(fieldErr)
		}
	}

	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Field < errs[j].Field
	})

	return errs
}

func (r *Registry) checkSchema(kind models.NodeKind, values map[string]any) FieldErrors {
	if len(values) == 0 {
		return nil
	}

	result, err := r.schemas[kind].Validate(gojsonschema.NewGoLoader(values))
	if err != nil {
		return FieldErrors{{Kind: kind, Field: "(root)", Msg: err.Error(), Err: ErrInvalidFieldValue}}
	}

	if result.Valid() {
		return nil
	}

	errs := make(FieldErrors, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		errs = append(errs, &FieldError{
			Kind:  kind,
			Field: topLevelField(resultErr.Field()),
			Msg:   resultErr.Description(),
			Err:   ErrInvalidFieldValue,
		})
	}

	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Field < errs[j].Field
	})

	return errs
}

func compileSchema(schema *models.JSONSchema) (*gojsonschema.Schema, error) {
	closed := false
	patchSchema := *schema
	patchSchema.Required = nil
	patchSchema.AdditionalProperties = &closed

	loader := gojsonschema.NewSchemaLoader()
	loader.Draft = gojsonschema.Draft7
	loader.AutoDetect = false

	return loader.Compile(gojsonschema.NewGoLoader(patchSchema))
}

func unknownFields(spec *KindSpec, values map[string]any) FieldErrors {
	var errs FieldErrors

	for field := range values {
		if _, ok := spec.Schema.Properties[field]; !ok {
			errs = append(errs, &FieldError{
				Kind:  spec.Kind,
				Field: field,
				Msg:   fmt.Sprintf("%s nodes have no field %q", spec.Name, field),
				Err:   ErrUnknownField,
			})
		}
	}

	sort.Slice(errs, func(i, j int) bool {
		return errs[i].Field < errs[j].Field
	})

	return errs
}

func decodeInto(config models.NodeConfig, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode %s fields: %w", config.Kind(), err)
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(config); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &FieldError{
				Kind:  config.Kind(),
				Field: topLevelField(typeErr.Field),
				Msg:   fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
				Err:   ErrInvalidFieldValue,
			}
		}

		return fmt.Errorf("failed to decode %s config: %w", config.Kind(), err)
	}

	return nil
}

func fromValidatorError(kind models.NodeKind, fieldErr validator.FieldError) *FieldError {
	field := topLevelField(fieldErr.Field())

	switch fieldErr.Tag() {
	case "required", "notblank":
		return &FieldError{Kind: kind, Field: field, Msg: "is required", Err: ErrMissingField}
	case "min":
		return &FieldError{
			Kind:  kind,
			Field: field,
			Msg:   fmt.Sprintf("needs at least %s entries", fieldErr.Param()),
			Err:   ErrMissingField,
		}
	case "gt":
		return &FieldError{
			Kind:  kind,
			Field: field,
			Msg:   fmt.Sprintf("must be greater than %s", fieldErr.Param()),
			Err:   ErrInvalidFieldValue,
		}
	default:
		return &FieldError{
			Kind:  kind,
			Field: field,
			Msg:   fmt.Sprintf("failed %q validation", fieldErr.Tag()),
			Err:   ErrInvalidFieldValue,
		}
	}
}

// topLevelField reduces "approverIds[0]" or "scheduleDays.1" to the
// top-level field name.
func topLevelField(field string) string {
	if i := strings.IndexAny(field, ".["); i >= 0 {
		return field[:i]
	}

	return field
}
