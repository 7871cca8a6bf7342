package policy

import (
	"errors"
	"fmt"
)

// ConfigurationError indicates the engine was built from, or handed, malformed
// configuration: a bad static policy entry, an unusable constraint payload, or
// an alias table that could not be loaded. It is fatal to the current
// filtering pass and propagates to the caller, which fails the enclosing
// authentication exchange.
type ConfigurationError struct {
	msg string
	err error
}

// configErrorf creates a ConfigurationError with a formatted message.
// Any %w verb wraps the underlying error.
func configErrorf(format string, args ...any) *ConfigurationError {
	wrapped := fmt.Errorf(format, args...)
	return &ConfigurationError{
		msg: wrapped.Error(),
		err: errors.Unwrap(wrapped),
	}
}

// Error implements error
func (e *ConfigurationError) Error() string {
	return e.msg
}

// Unwrap returns the underlying cause, if any
func (e *ConfigurationError) Unwrap() error {
	return e.err
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}
