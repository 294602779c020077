package validation

import (
	"strings"
	"testing"

	"github.com/TimurManjosov/inspectrules/internal/rules"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		wantValid   bool
		wantMessage string
	}{
		{
			name:      "valid alphanumeric",
			id:        "memory_check_1",
			wantValid: true,
		},
		{
			name:      "valid with hyphen and dot",
			id:        "nic.eth0-link",
			wantValid: true,
		},
		{
			name:      "uuid",
			id:        "2f1c4e0a-9b7d-4c1e-8f3a-6d5b2a1c0e9f",
			wantValid: true,
		},
		{
			name:        "empty id",
			id:          "",
			wantValid:   false,
			wantMessage: "ID is required",
		},
		{
			name:        "whitespace only",
			id:          "   ",
			wantValid:   false,
			wantMessage: "ID is required",
		},
		{
			name:        "too long",
			id:          strings.Repeat("a", 65),
			wantValid:   false,
			wantMessage: "ID must not exceed 64 characters",
		},
		{
			name:      "exactly 64 chars",
			id:        strings.Repeat("a", 64),
			wantValid: true,
		},
		{
			name:        "contains spaces",
			id:          "my check",
			wantValid:   false,
			wantMessage: "ID must contain only alphanumeric characters, underscores, dots, and hyphens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateID(tt.id)
			if result.Valid != tt.wantValid {
				t.Errorf("ValidateID(%q).Valid = %v, want %v", tt.id, result.Valid, tt.wantValid)
			}
			if !tt.wantValid && result.Errors["id"] != tt.wantMessage {
				t.Errorf("ValidateID(%q) message = %q, want %q", tt.id, result.Errors["id"], tt.wantMessage)
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	conditions := []rules.Condition{
		{ID: "a", Op: "eq"},
		{ID: "b", Op: "eq"},
		{ID: "a", Op: "lt"},
		{ID: "bad id", Op: "gt"},
	}

	result := ValidateDocument(conditions)
	if result.Valid {
		t.Fatal("expected invalid document")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[IDField(2)], "conditions[0]") {
		t.Errorf("duplicate error should name the first use, got %q", result.Errors[IDField(2)])
	}
	if _, ok := result.Errors[IDField(3)]; !ok {
		t.Errorf("expected error for %s", IDField(3))
	}
}

func TestValidateDocument_Valid(t *testing.T) {
	result := ValidateDocument([]rules.Condition{{ID: "a"}, {ID: "b"}})
	if !result.Valid {
		t.Errorf("expected valid document, got %v", result.Errors)
	}

	if !ValidateDocument(nil).Valid {
		t.Error("empty document should be valid")
	}
}

func TestValidateDocument_TooManyConditions(t *testing.T) {
	conditions := make([]rules.Condition, MaxConditions+1)
	for i := range conditions {
		conditions[i].ID = strings.Repeat("x", 1+i%10) + "-" + strings.Repeat("y", i/10)
	}
	result := ValidateDocument(conditions)
	if _, ok := result.Errors["conditions"]; !ok {
		t.Errorf("expected conditions error, got %v", result.Errors)
	}
}

func TestValidateConditionCount(t *testing.T) {
	if !ValidateConditionCount(MaxConditions).Valid {
		t.Error("count at the limit should be valid")
	}
	if ValidateConditionCount(MaxConditions + 1).Valid {
		t.Error("count over the limit should be invalid")
	}
}

func TestValidateDocumentSize(t *testing.T) {
	if !ValidateDocumentSize(MaxDocumentSize).Valid {
		t.Error("document at the limit should be valid")
	}
	result := ValidateDocumentSize(MaxDocumentSize + 1)
	if result.Errors["document"] != "Document must not exceed 1MB" {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
}

func TestValidationResult_Merge(t *testing.T) {
	a := NewValidationResult()
	b := NewValidationResult()
	b.AddError("id", "bad")

	a.Merge(nil)
	if !a.Valid {
		t.Fatal("merging nil should keep result valid")
	}
	a.Merge(b)
	if a.Valid || a.Errors["id"] != "bad" {
		t.Errorf("merge failed: %+v", a)
	}
}
