// internal/driver/errors.go
package driver

import "fmt"

// Typed errors let callers classify session failures with errors.As instead
// of brittle string matching.

// NavigationError reports that the target page could not be loaded at all.
// It is the one failure Run does not recover from: with no page there is no
// traffic worth sifting.
type NavigationError struct {
	URL string
	Err error // Underlying transport or protocol error
}

// Error implements the error interface.
func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

// Unwrap provides the underlying error for use with errors.Is/As.
func (e *NavigationError) Unwrap() error {
	return e.Err
}
