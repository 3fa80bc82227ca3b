package slots

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration marks a Config that can never produce slots.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ErrInvalidTimeFormat marks malformed HH:MM input.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// ConfigError reports which Config field failed validation. It unwraps to
// ErrInvalidConfiguration so callers can branch on the class and still
// name the field to the user.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// AsConfigError extracts a ConfigError from an error chain.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
