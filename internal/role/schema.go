package role

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

// JSONSchemaValidator validates a formatter's final output against
// its declared JSON Schema, compiling each schema once and caching
// it by its literal text since a task's formatter schema never
// changes between role activations.
type JSONSchemaValidator struct {
	compiler *jsonschema.Compiler
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator returns a SchemaValidator backed by
// github.com/kaptinlin/jsonschema.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiler: jsonschema.NewCompiler(),
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate reports whether output (the formatter's exported text,
// expected to be JSON) satisfies schema, a JSON Schema document
// given as text in the task's agent declaration.
func (v *JSONSchemaValidator) Validate(schema, output string) (bool, error) {
	compiled, err := v.schemaFor(schema)
	if err != nil {
		return false, fmt.Errorf("compiling declared schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(output), &doc); err != nil {
		return false, fmt.Errorf("formatter output is not valid JSON: %w", err)
	}

	result := compiled.Validate(doc)
	if result.IsValid() {
		return true, nil
	}
	return false, fmt.Errorf("%d schema violation(s)", len(result.Errors))
}

func (v *JSONSchemaValidator) schemaFor(schema string) (*jsonschema.Schema, error) {
	if compiled, ok := v.compiled[schema]; ok {
		return compiled, nil
	}
	compiled, err := v.compiler.Compile([]byte(schema))
	if err != nil {
		return nil, err
	}
	v.compiled[schema] = compiled
	return compiled, nil
}
