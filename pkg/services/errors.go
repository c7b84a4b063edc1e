// Package services provides the business operations on stored workflows:
// validation, CRUD, and execution with history recording.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrNodesRequired        = errors.New("workflow must have at least one node")
	ErrUnknownNodeType      = errors.New("unknown node type")
	ErrDuplicateNodeID      = errors.New("duplicate node id")
	ErrInvalidConnection    = errors.New("connection references a nonexistent node")
	ErrInvalidBinding       = errors.New("invalid input binding")
	ErrInvalidNodeConfig    = errors.New("invalid node configuration")
	ErrUnknownStrategy      = errors.New("unknown execution strategy")
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrUnknownNodeType) ||
		errors.Is(err, ErrDuplicateNodeID) ||
		errors.Is(err, ErrInvalidConnection) ||
		errors.Is(err, ErrInvalidBinding) ||
		errors.Is(err, ErrInvalidNodeConfig) ||
		errors.Is(err, ErrUnknownStrategy)
}

func validationError(op, message string, err error) *ServiceError {
	return &ServiceError{Op: op, Message: message, Err: err}
}
