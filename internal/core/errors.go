package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid user name or password")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrUnknownUser        = errors.New("unknown user")
	ErrStorageIO          = errors.New("storage i/o failure")
)

// ValidationError describes a rejected argument. Nothing was mutated.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError reports that state was changed in memory but could not be made durable.
type StorageError struct {
	Op   string
	User string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s wallet for %q: %v", e.Op, e.User, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageIO
}
