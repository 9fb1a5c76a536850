// Package schema generates JSON Schema definitions for Go types, used to
// give wire contracts (like the event envelope) one generated,
// test-checkable definition instead of a hand-maintained one that can
// drift from the actual struct.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Config controls how a schema is generated.
type Config struct {
	// Anonymous generates anonymous schemas without using references.
	Anonymous bool
	// ExpandedStruct expands struct definitions inline instead of
	// referencing them.
	ExpandedStruct bool
	// DoNotReference disables $ref usage and inlines all definitions.
	DoNotReference bool
	// AllowAdditionalProperties allows properties not defined in the
	// schema.
	AllowAdditionalProperties bool
	// IncludeSchemaVersion includes the $schema version field in output.
	IncludeSchemaVersion bool
}

// DefaultConfig returns the configuration used when none is given
// explicitly: fully inlined, no $ref indirection, version field omitted.
func DefaultConfig() Config {
	return Config{
		Anonymous:                 true,
		ExpandedStruct:            false,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
		IncludeSchemaVersion:      false,
	}
}

// MapOf generates a JSON Schema for v as a map[string]any, using
// DefaultConfig.
func MapOf(v any) (map[string]any, error) {
	return MapOfWithConfig(v, DefaultConfig())
}

// MapOfWithConfig generates a JSON Schema for v as a map[string]any using
// the given Config.
func MapOfWithConfig(v any, config Config) (map[string]any, error) {
	s, err := generate(v, config)
	if err != nil {
		return nil, fmt.Errorf("schema: generate: %w", err)
	}

	raw, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("schema: marshal: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("schema: unmarshal: %w", err)
	}
	return m, nil
}

func generate(v any, config Config) (*jsonschema.Schema, error) {
	if v == nil {
		return nil, fmt.Errorf("schema: cannot generate schema for nil value")
	}

	r := &jsonschema.Reflector{
		Anonymous:                 config.Anonymous,
		ExpandedStruct:            config.ExpandedStruct,
		DoNotReference:            config.DoNotReference,
		AllowAdditionalProperties: config.AllowAdditionalProperties,
	}

	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		r.ExpandedStruct = true
	}

	s := r.Reflect(v)
	if s == nil {
		return nil, fmt.Errorf("schema: failed to reflect type %T", v)
	}
	if !config.IncludeSchemaVersion {
		s.Version = ""
	}
	return s, nil
}
