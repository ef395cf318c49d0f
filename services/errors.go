package services

import (
	"errors"
	"fmt"
)

// Error classes. Handlers map these to HTTP statuses; anything that does not
// wrap one of them is a storage failure and has already rolled back its
// transaction.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("invalid request")
)

var (
	ErrDeckNotFound = fmt.Errorf("deck %w", ErrNotFound)
	ErrCardNotFound = fmt.Errorf("card %w", ErrNotFound)
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	// ErrVersionConflict means a concurrent update won the race for this
	// deck version. The caller may reload and retry; we never retry here.
	ErrVersionConflict = fmt.Errorf("deck version %w", ErrConflict)
	ErrUserExists      = fmt.Errorf("user already exists: %w", ErrConflict)

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("could not validate token credentials")
)
