package validation

import (
	"errors"
	"strings"
	"testing"
)

var contactSchema = map[string]any{
	"type":     "object",
	"required": []any{"email"},
	"properties": map[string]any{
		"email": map[string]any{"type": "string", "minLength": 3},
		"seats": map[string]any{"type": "integer", "minimum": 1},
	},
}

func TestSchemaValidate(t *testing.T) {
	schema, err := Compile("contact", contactSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if err := schema.Validate(map[string]any{"email": "ada@example.com", "seats": 3}); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}

	err = schema.Validate(map[string]any{"email": "ada@example.com", "seats": 0})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	violations := Violations(err)
	if len(violations) != 1 || violations[0].Pointer != "/seats" {
		t.Fatalf("unexpected violations %#v", violations)
	}
	if !strings.HasPrefix(violations[0].String(), "#/seats: ") {
		t.Fatalf("unexpected violation string %q", violations[0].String())
	}
	if !strings.Contains(err.Error(), "contact") {
		t.Fatalf("expected schema name in error, got %q", err.Error())
	}
}

func TestSchemaValidateStructs(t *testing.T) {
	schema, err := Compile("contact", contactSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	type contact struct {
		Email string `json:"email"`
		Seats int    `json:"seats"`
	}
	if err := schema.Validate(contact{Email: "ada@example.com", Seats: 2}); err != nil {
		t.Fatalf("expected struct to validate, got %v", err)
	}
}

func TestCompileRejectsBrokenSchema(t *testing.T) {
	if _, err := Compile("broken", map[string]any{"type": 12}); !errors.Is(err, ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestViolationsFromPlainError(t *testing.T) {
	violations := Violations(errors.New("boom"))
	if len(violations) != 1 || violations[0].String() != "#: boom" {
		t.Fatalf("unexpected violations %#v", violations)
	}
	if Violations(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}
