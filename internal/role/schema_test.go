package role

import "testing"

func TestJSONSchemaValidatorAcceptsConformingOutput(t *testing.T) {
	v := NewJSONSchemaValidator()
	schema := `{"type":"object","required":["answer"],"properties":{"answer":{"type":"string"}}}`

	ok, err := v.Validate(schema, `{"answer":"42"}`)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !ok {
		t.Error("expected conforming output to validate")
	}
}

func TestJSONSchemaValidatorRejectsMissingRequiredField(t *testing.T) {
	v := NewJSONSchemaValidator()
	schema := `{"type":"object","required":["answer"],"properties":{"answer":{"type":"string"}}}`

	ok, err := v.Validate(schema, `{"wrong":"field"}`)
	if ok || err == nil {
		t.Error("expected a missing required field to fail validation")
	}
}

func TestJSONSchemaValidatorRejectsNonJSONOutput(t *testing.T) {
	v := NewJSONSchemaValidator()
	schema := `{"type":"object"}`

	ok, err := v.Validate(schema, "not json at all")
	if ok || err == nil {
		t.Error("expected non-JSON output to fail validation")
	}
}

func TestJSONSchemaValidatorCachesCompiledSchema(t *testing.T) {
	v := NewJSONSchemaValidator()
	schema := `{"type":"object"}`

	if _, err := v.Validate(schema, `{}`); err != nil {
		t.Fatalf("first Validate: %v", err)
	}
	if len(v.compiled) != 1 {
		t.Fatalf("compiled cache size = %d, want 1", len(v.compiled))
	}
	if _, err := v.Validate(schema, `{}`); err != nil {
		t.Fatalf("second Validate: %v", err)
	}
	if len(v.compiled) != 1 {
		t.Errorf("compiled cache size = %d, want 1 (same schema reused)", len(v.compiled))
	}
}
