package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateNodeSpecs checks inbound node specs. Missing fields are fine
// (defaults apply); present fields must be sensible. It returns a
// *ValidationError naming each offending node by index, or nil.
func ValidateNodeSpecs(specs []NodeSpec) error {
	var ve ValidationError
	for i, s := range specs {
		err := validate.Struct(s)
		if err == nil {
			continue
		}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   fmt.Sprintf("nodes[%d].%s", i, jsonName(fe.Field())),
				Message: fieldMessage(fe),
			})
		}
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

func jsonName(field string) string {
	switch field {
	case "ProcessingTime":
		return "processing_time"
	case "Kind":
		return "node_type"
	}
	return strings.ToLower(field)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "is invalid"
}
