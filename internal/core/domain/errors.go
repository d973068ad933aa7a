package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is fatal at startup: missing provider settings or a
	// cold-start corpus that yields zero documents.
	ErrConfiguration = errors.New("configuration error")
	// ErrProvider marks a failed embedding/completion/vector-store call.
	// Fatal to the in-flight query, never to the process.
	ErrProvider = errors.New("provider error")
	// ErrNotInitialized is returned for queries issued before startup
	// completes. Callers must fail fast, never queue.
	ErrNotInitialized = errors.New("engine not initialized")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTemporary      = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context. The
// operation string is what distinguishes which provider failed.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
