package engine

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine wraps exactly one of these.
var (
	// ErrUnknownOperator means the op name, after stripping the inversion
	// marker, is not in the registry.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrConditionCheckFailure means an operator's arguments do not have the
	// declared shape (rule authoring or data defect).
	ErrConditionCheckFailure = errors.New("condition check failure")
	// ErrRuleExecutionFailure means well-shaped input failed at evaluation
	// time, e.g. a malformed CIDR or regular expression.
	ErrRuleExecutionFailure = errors.New("rule execution failure")
)

// CheckError describes a failure of a single operator check.
type CheckError struct {
	Op     string
	Kind   error
	Reason string
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Op, e.Reason)
}

// Unwrap returns the error kind so callers can use errors.Is.
func (e *CheckError) Unwrap() error {
	return e.Kind
}

func shapeError(op string, format string, args ...any) error {
	return &CheckError{Op: op, Kind: ErrConditionCheckFailure, Reason: fmt.Sprintf(format, args...)}
}

func execError(op string, format string, args ...any) error {
	return &CheckError{Op: op, Kind: ErrRuleExecutionFailure, Reason: fmt.Sprintf(format, args...)}
}

// ErrorKind returns a short label for err, suitable for metric labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownOperator):
		return "unknown_operator"
	case errors.Is(err, ErrConditionCheckFailure):
		return "condition_check_failure"
	case errors.Is(err, ErrRuleExecutionFailure):
		return "rule_execution_failure"
	default:
		return "other"
	}
}
