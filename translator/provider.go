// Package translator turns recognized screen text into translated text.
package translator

import (
	"context"
	"errors"
	"fmt"
)

// Provider translates text between two languages. Implementations must be
// safe to call again with the same input after a failure.
type Provider interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, text, source, target string) (string, error)

// Translate calls f.
func (f ProviderFunc) Translate(ctx context.Context, text, source, target string) (string, error) {
	return f(ctx, text, source, target)
}

// ProviderError describes a failed call to a translation backend.
type ProviderError struct {
	Provider  string
	Retryable bool // network failure, timeout or quota
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Temporary reports whether the call is worth retrying. It lets
// resilience.IsTemporary classify provider errors without a custom predicate.
func (e *ProviderError) Temporary() bool { return e.Retryable }

// IsTemporary reports whether err wraps a ProviderError marked temporary.
func IsTemporary(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable
}
