package spec

import (
	"errors"
	"strings"
)

var (
	// ErrSpecIncomplete indicates the spec failed the minimal validation gate.
	ErrSpecIncomplete = errors.New("spec incomplete")

	// ErrSchema indicates a document does not match the specification schema.
	ErrSchema = errors.New("spec does not match schema")
)

// IncompleteError carries every validation error of a rejected spec.
type IncompleteError struct {
	Errors []string
}

func (e *IncompleteError) Error() string {
	return "Spec incomplete: " + strings.Join(e.Errors, "; ")
}

// Is allows errors.Is(err, ErrSpecIncomplete).
func (e *IncompleteError) Is(target error) bool {
	return target == ErrSpecIncomplete
}

// SchemaError lists the schema violations found while decoding a document.
type SchemaError struct {
	Issues []string
}

func (e *SchemaError) Error() string {
	return "spec does not match schema: " + strings.Join(e.Issues, "; ")
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}
