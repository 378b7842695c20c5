package catalog

import (
	"fmt"
	"strings"
)

// ValidationError means the input was missing or malformed. Nothing was
// persisted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError means a uniqueness rule was violated, e.g. a duplicate lot
// number within an auction.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError means a referenced auction or lot does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// RowError ties a failure to one unit of a batch, e.g. a CSV row or a
// reorder entry.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// PartialBatchError reports a batch where some units were applied before a
// failure. It always carries both the success count and the structured
// failures; it never collapses to a bare boolean.
type PartialBatchError struct {
	Succeeded int        `json:"succeeded"`
	Errors    []RowError `json:"errors"`
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("batch partially applied: %d succeeded, %d failed", e.Succeeded, len(e.Errors))
}

// isUniqueViolation matches unique-constraint failures from both the
// postgres driver and the sqlite shim used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
