package domain

import (
	"fmt"
	"strings"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// Rule names the schema rule a field violated.
type Rule string

const (
	RuleMissingRequired Rule = "missing_required"
	RuleNotInVocabulary Rule = "not_in_vocabulary"
	RuleTypeMismatch    Rule = "type_mismatch"
	RuleImmutable       Rule = "immutable"
	RuleUnknownField    Rule = "unknown_field"
)

// FieldError names an offending field and the rule it violated.
type FieldError struct {
	Field string `json:"field"`
	Rule  Rule   `json:"rule"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Rule)
}

// ValidationError carries every field-level failure of a single call. It is
// always recoverable: the caller corrects the input and retries.
type ValidationError struct {
	Fields []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Is enables errors.Is matching on ValidationError.
func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

// ErrValidation is the sentinel error for schema validation failures.
var ErrValidation = ValidationError{}

// InvalidStateError represents a state-machine violation, e.g. approving a
// suggestion that is no longer OPEN.
type InvalidStateError struct {
	Entity string
	State  string
}

func (e InvalidStateError) Error() string {
	if e.Entity == "" {
		return "invalid state"
	}
	return fmt.Sprintf("%s is in state %s", e.Entity, e.State)
}

// Is enables errors.Is matching on InvalidStateError.
func (e InvalidStateError) Is(target error) bool {
	_, ok := target.(InvalidStateError)
	if ok {
		return true
	}
	_, ok = target.(*InvalidStateError)
	return ok
}

// ErrInvalidState is the sentinel error for state-machine violations.
var ErrInvalidState = InvalidStateError{}
