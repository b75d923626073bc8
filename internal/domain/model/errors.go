package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors reachable through errors.Is from every typed vault error.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrInvalidMove = errors.New("invalid move")
	ErrIconInUse   = errors.New("icon is referenced by a group")
)

// StoreKind identifies which half of the dual store an operation touched.
type StoreKind string

const (
	StoreSecret   StoreKind = "secret"
	StoreMetadata StoreKind = "metadata"
)

// FieldError describes a validation failure on a single input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned before any store is touched.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	fields := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		fields = append(fields, fe.Field)
	}
	return fmt.Sprintf("validation: %d errors (%s)", len(e.Errors), strings.Join(fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// InvalidMoveError reports a reparenting that would make a group its own
// ancestor. TargetID is nil only for malformed requests against the root.
type InvalidMoveError struct {
	GroupID  int64
	TargetID *int64
}

func (e *InvalidMoveError) Error() string {
	if e.TargetID == nil {
		return fmt.Sprintf("invalid move: group %d cannot be moved to root", e.GroupID)
	}
	return fmt.Sprintf("invalid move: group %d cannot be placed under group %d", e.GroupID, *e.TargetID)
}

func (e *InvalidMoveError) Unwrap() error { return ErrInvalidMove }

// StoreError wraps a failure from a single store call with enough context to
// decide between retry and abort.
type StoreError struct {
	Store  StoreKind
	Op     string
	Entity string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store %s %s: %v", e.Store, e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// PartialFailureError reports a subtree delete that stopped after removing
// some, but not all, of the planned items. Items count groups and credentials.
type PartialFailureError struct {
	GroupID   int64
	Deleted   int
	Remaining int
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("delete group %d: partial failure after %d deleted, %d remaining: %v",
		e.GroupID, e.Deleted, e.Remaining, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// OrphanRiskError reports that the two stores may disagree: a secret without
// a record or a record without a secret. Cause is the error that triggered
// the failure; CompensationErr is set when a rollback attempt also failed.
type OrphanRiskError struct {
	SecretKey       string
	RecordID        int64
	Cause           error
	CompensationErr error
}

func (e *OrphanRiskError) Error() string {
	msg := fmt.Sprintf("orphan risk for secret %s (record %d): %v", e.SecretKey, e.RecordID, e.Cause)
	if e.CompensationErr != nil {
		msg += fmt.Sprintf("; compensation failed: %v", e.CompensationErr)
	}
	return msg
}

func (e *OrphanRiskError) Unwrap() error { return e.Cause }
