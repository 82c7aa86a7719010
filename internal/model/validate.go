package model

import (
	"fmt"
	"strings"
)

// MaxTitleLength is the maximum number of characters in a task title.
const MaxTitleLength = 255

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

// ValidateTask checks a Task for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the task is valid.
func ValidateTask(t *Task) error {
	var ve ValidationError

	title := strings.TrimSpace(t.Title)
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "is required"})
	} else if len([]rune(title)) > MaxTitleLength {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "title",
			Message: fmt.Sprintf("must be %d characters or fewer", MaxTitleLength),
		})
	}

	if !t.Status.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "status",
			Message: fmt.Sprintf("invalid value %q", t.Status),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateDependency checks a Dependency for constraint violations that can
// be decided without looking at the graph.
func ValidateDependency(d *Dependency) error {
	var ve ValidationError
	if strings.TrimSpace(d.TaskID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "task_id", Message: "is required"})
	}
	if strings.TrimSpace(d.DependsOnID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "depends_on_id", Message: "is required"})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
