package service

import (
	"errors"
	"fmt"

	"marketplace-api/models"
)

var (
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrNotFound          = errors.New("order not found")
	ErrForbidden         = errors.New("access denied to this order")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrConflict          = errors.New("order was modified concurrently")
	ErrInfrastructure    = errors.New("infrastructure failure")
)

// TransitionError is returned when the effective role may not move the order between statuses
type TransitionError struct {
	Role models.UserRole
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Status transition from '%s' to '%s' not allowed for %s", e.From, e.To, e.Role)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// infraError keeps the cause for logs while matching ErrInfrastructure
type infraError struct {
	op  string
	err error
}

func (e *infraError) Error() string {
	return e.op + ": " + e.err.Error()
}

func (e *infraError) Unwrap() []error {
	return []error{ErrInfrastructure, e.err}
}

func infra(op string, err error) error {
	return &infraError{op: op, err: err}
}
