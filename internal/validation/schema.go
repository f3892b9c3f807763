// Package validation checks decoded JSON values against JSON Schema
// documents.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrInvalidSchema  = errors.New("validation: invalid schema")
	ErrInvalidPayload = errors.New("validation: payload does not match schema")
)

// Violation is one leaf failure, located by JSON pointer.
type Violation struct {
	Pointer string `json:"pointer,omitempty"`
	Reason  string `json:"reason"`
}

// String renders "#/pointer: reason".
func (v Violation) String() string {
	pointer := "#" + strings.TrimPrefix(strings.TrimSpace(v.Pointer), "#")
	if v.Reason == "" {
		return pointer
	}
	return pointer + ": " + v.Reason
}

// Error is returned by Schema.Validate. It matches ErrInvalidPayload.
type Error struct {
	Schema     string
	Violations []Violation
}

func (e *Error) Error() string {
	reasons := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		reasons[i] = v.String()
	}
	return fmt.Sprintf("%s %s: %s", ErrInvalidPayload, e.Schema, strings.Join(reasons, "; "))
}

func (e *Error) Is(target error) bool { return target == ErrInvalidPayload }

// Violations lists the failures carried by err. Errors that did not come
// from a Schema become a single violation at the document root.
func Violations(err error) []Violation {
	if err == nil {
		return nil
	}
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Violations
	}
	return []Violation{{Reason: err.Error()}}
}

// Schema is a compiled draft 2020-12 schema.
type Schema struct {
	name     string
	compiled *jsonschema.Schema
}

// Compile compiles document under name. The name only appears in errors.
func Compile(name string, document map[string]any) (*Schema, error) {
	raw, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidSchema, name, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	url := name + ".schema.json"
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidSchema, name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidSchema, name, err)
	}
	return &Schema{name: name, compiled: compiled}, nil
}

// Validate checks value, which is round-tripped through encoding/json so
// Go structs, maps and time values are seen the way a JSON client sends
// them.
func (s *Schema) Validate(value any) error {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return &Error{Schema: s.name, Violations: []Violation{{Reason: err.Error()}}}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return &Error{Schema: s.name, Violations: []Violation{{Reason: err.Error()}}}
	}

	err = s.compiled.Validate(decoded)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &Error{Schema: s.name, Violations: []Violation{{Reason: err.Error()}}}
	}
	return &Error{Schema: s.name, Violations: leaves(verr, nil)}
}

func leaves(node *jsonschema.ValidationError, out []Violation) []Violation {
	if len(node.Causes) == 0 {
		return append(out, Violation{
			Pointer: node.InstanceLocation,
			Reason:  strings.TrimSpace(node.Message),
		})
	}
	for _, cause := range node.Causes {
		out = leaves(cause, out)
	}
	return out
}
