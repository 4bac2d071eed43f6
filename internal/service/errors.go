package service

import (
	"errors"
	"fmt"

	"github.com/admiralorbiter/DataDeckv2/internal/models"
)

// Sentinel errors returned by the session and roster services.
var (
	ErrNotFound        = errors.New("not found")
	ErrNotOwner        = errors.New("session belongs to another teacher")
	ErrSessionArchived = errors.New("session is archived")
	ErrSessionPaused   = errors.New("session is paused")
	ErrNotArchived     = errors.New("session is not archived")
)

// ConflictError reports that the (teacher, section) slot is already occupied
// by a live session. It carries the occupying session so the caller can offer
// archive-and-retry.
type ConflictError struct {
	Existing *models.Session
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("active session exists for section %d: %s", e.Existing.Section, e.Existing.Name)
}

// ValidationError reports malformed or out-of-range input, rejected before
// any mutation is attempted.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Reason.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}
