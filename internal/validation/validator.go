// Package validation provides document-level checks for condition files:
// identifiers, duplicates and size limits. Per-condition structure is
// checked by the engine.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/TimurManjosov/inspectrules/internal/rules"
)

const (
	// MaxIDLength is the maximum length for condition ids
	MaxIDLength = 64
	// MaxConditions is the maximum number of conditions in one document
	MaxConditions = 1000
	// MaxDocumentSize is the maximum size of a condition document in bytes
	MaxDocumentSize = 1024 * 1024 // 1MB
)

// idPattern matches alphanumeric characters, underscores, dots, and hyphens
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// Merge combines another validation result into this one
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for field, message := range other.Errors {
		v.AddError(field, message)
	}
}

// IDField is the error key used for the id of the i-th condition.
func IDField(i int) string {
	return fmt.Sprintf("conditions[%d].id", i)
}

// ValidateDocument checks every condition id and the document length.
func ValidateDocument(conditions []rules.Condition) *ValidationResult {
	result := NewValidationResult()
	result.Merge(ValidateConditionCount(len(conditions)))

	seen := make(map[string]int, len(conditions))
	for i, cond := range conditions {
		field := IDField(i)

		idResult := ValidateID(cond.ID)
		if !idResult.Valid {
			result.AddError(field, idResult.Errors["id"])
			continue
		}

		if first, dup := seen[cond.ID]; dup {
			result.AddError(field, fmt.Sprintf("Duplicate condition id %q (first used by conditions[%d])", cond.ID, first))
			continue
		}
		seen[cond.ID] = i
	}

	return result
}

// ValidateID validates a condition id
func ValidateID(id string) *ValidationResult {
	result := NewValidationResult()
	id = strings.TrimSpace(id)

	if id == "" {
		result.AddError("id", "ID is required")
		return result
	}

	if utf8.RuneCountInString(id) > MaxIDLength {
		result.AddError("id", "ID must not exceed 64 characters")
		return result
	}

	if !idPattern.MatchString(id) {
		result.AddError("id", "ID must contain only alphanumeric characters, underscores, dots, and hyphens")
		return result
	}

	return result
}

// ValidateConditionCount validates the number of conditions in a document
func ValidateConditionCount(n int) *ValidationResult {
	result := NewValidationResult()

	if n > MaxConditions {
		result.AddError("conditions", fmt.Sprintf("Document must not contain more than %d conditions", MaxConditions))
	}

	return result
}

// ValidateDocumentSize validates the raw document size
func ValidateDocumentSize(size int) *ValidationResult {
	result := NewValidationResult()

	if size > MaxDocumentSize {
		result.AddError("document", "Document must not exceed 1MB")
	}

	return result
}
