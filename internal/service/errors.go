package service

import (
	"errors"
	"fmt"
)

// Sentinels shared by the note and ask services. Handlers branch on these
// with errors.Is when picking a status code.
var (
	// ErrInvalidInput marks requests rejected before touching storage.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks operations on notes that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrExternalService marks failures of a dependency outside this
	// process, such as the LLM.
	ErrExternalService = errors.New("external service error")
)

// ValidationError reports which request field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// WrapError adds operation context to an error, preserving the chain.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapExternal is WrapError plus the ErrExternalService sentinel, for
// failures of services this process depends on but does not own.
func WrapExternal(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrExternalService, err)
}
