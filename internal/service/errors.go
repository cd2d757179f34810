package service

import (
	"errors"
	"fmt"
)

// Domain error kinds. All are expected, recoverable-at-boundary conditions;
// the HTTP layer translates them with errors.Is. Anything else that bubbles
// out of a service is an unexpected storage or collaborator failure.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrMissingInput = errors.New("missing input")

	ErrUsernameTaken = fmt.Errorf("username already exists: %w", ErrConflict)
	ErrEmailTaken    = fmt.Errorf("email already exists: %w", ErrConflict)
)
