package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrConflict             = errors.New("conflict")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrNotificationDelivery = errors.New("notification delivery failed")
)

// ValidationError covers malformed input and capacity violations.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type ConflictKind string

const (
	ConflictQuota ConflictKind = "quota"
	ConflictSlot  ConflictKind = "slot"
)

// ConflictError names the first date on which a booking request cannot be admitted.
type ConflictError struct {
	Kind      ConflictKind
	Date      time.Time
	UserID    int64
	CourtID   int64
	Window    string
	BookingID int64
}

func (e *ConflictError) Error() string {
	day := e.Date.Format(DateLayout)
	switch e.Kind {
	case ConflictQuota:
		return fmt.Sprintf("user %d already has an active booking on %s", e.UserID, day)
	case ConflictSlot:
		return fmt.Sprintf("court %d is already booked on %s during %s", e.CourtID, day, e.Window)
	}
	return fmt.Sprintf("booking conflict on %s", day)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type AuthorizationError struct {
	UserID int64
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d is not allowed to %s", e.UserID, e.Action)
}

func (e *AuthorizationError) Unwrap() error { return ErrForbidden }

// DeliveryError is logged by the dispatcher and never surfaced to callers.
type DeliveryError struct {
	UserID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver notification to user %d: %v", e.UserID, e.Err)
}

func (e *DeliveryError) Unwrap() []error { return []error{ErrNotificationDelivery, e.Err} }
