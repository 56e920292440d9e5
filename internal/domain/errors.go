package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the base for every missing-entity error.
	ErrNotFound = errors.New("not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrResultNotFound indicates no result exists for the lookup.
	ErrResultNotFound = fmt.Errorf("result %w", ErrNotFound)
	// ErrMaterialNotFound indicates a study material ID is unknown.
	ErrMaterialNotFound = fmt.Errorf("material %w", ErrNotFound)
	// ErrForbidden matches every AuthorizationError.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidRole is returned for role strings outside the closed set.
	ErrInvalidRole = errors.New("invalid role")
)

// ValidationError rejects malformed quiz, question, or material input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError is returned when an access policy check fails.
type AuthorizationError struct {
	Action string
	Role   Role
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: role %q may not %s", ErrForbidden, e.Role, e.Action)
}

func (e *AuthorizationError) Is(target error) bool {
	return target == ErrForbidden
}

// DuplicateAttemptError carries the ID of the result that already exists for
// the (user, quiz) pair, so callers can redirect to it.
type DuplicateAttemptError struct {
	ResultID string
}

func (e *DuplicateAttemptError) Error() string {
	return "quiz already attempted: result " + e.ResultID
}

// StorageError wraps failures of the file storage capability.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
