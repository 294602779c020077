package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by ValidateCondition.
var (
	ErrInvalidCondition = errors.New("invalid condition")
	ErrInvalidLoop      = errors.New("invalid loop")
	ErrInvalidStrategy  = errors.New("invalid loop strategy")
)

// ValidateCondition performs structural validation of a condition. Operator
// names and argument shapes are checked by the engine, which owns the
// operator table. It never mutates c.
func ValidateCondition(i int, c Condition) error {
	if strings.TrimSpace(c.Op) == "" {
		return fmt.Errorf("%w: condition[%d] op must not be empty", ErrInvalidCondition, i)
	}

	if c.Loop == nil {
		return nil
	}

	if !c.Loop.Strategy.Known() {
		return fmt.Errorf("%w: condition[%d] strategy %q is not one of any, all, first, last",
			ErrInvalidStrategy, i, c.Loop.Strategy)
	}

	return validateLoopItems(i, c.Loop.Items)
}

// validateLoopItems checks that every element of a sequence or mapping loop
// is itself a mapping, since each element replaces the condition's args.
// Explicit type assertions only: documents come from JSON or YAML decoding.
func validateLoopItems(i int, items any) error {
	switch v := items.(type) {
	case []any:
		for j, item := range v {
			if _, ok := item.(map[string]any); !ok {
				return fmt.Errorf("%w: condition[%d] loop item %d must be a mapping, got %T", ErrInvalidLoop, i, j, item)
			}
		}
	case map[string]any:
		for key, item := range v {
			if _, ok := item.(map[string]any); !ok {
				return fmt.Errorf("%w: condition[%d] loop item %q must be a mapping, got %T", ErrInvalidLoop, i, key, item)
			}
		}
	}
	return nil
}
