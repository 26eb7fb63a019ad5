package services

import "fmt"

// ConflictError covers slot double-booking and duplicate in-flight
// withdrawal requests.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// InvalidStateTransitionError is returned whenever an operation is attempted
// from a source state it is not permitted from. This is the primary defense
// against duplicate webhook deliveries and replayed client requests.
type InvalidStateTransitionError struct {
	Entity string
	From   string
	Action string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s in state %q", e.Action, e.Entity, e.From)
}

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }
