// SPDX-License-Identifier: MIT
// Package prior: sentinel errors.
//
// Error policy:
//   • Callers branch with errors.Is(err, ErrX); *ConfigError carries the key.
//   • Construction failures are fatal: New never returns a partial model.
//   • Option constructors (WithX) panic on nil/meaningless values; runtime
//     code never panics.

package prior

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig indicates an unrecognized graph type or a missing/invalid option.
	ErrConfig = errors.New("prior: invalid configuration")

	// ErrState indicates a state value of the wrong shape or content
	// (e.g. a non-binary A, a Y entry outside [0,R)).
	ErrState = errors.New("prior: invalid state")

	// ErrScale indicates a likelihood scale that is negative, NaN or infinite.
	ErrScale = errors.New("prior: invalid likelihood scale")
)

// ConfigError names the configuration key that failed validation.
// It matches ErrConfig under errors.Is.
type ConfigError struct {
	Key    string
	Reason string
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("prior: config %q: %s", e.Key, e.Reason)
}

// Is reports whether target is ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// configErrorf builds a *ConfigError with a formatted reason.
func configErrorf(key, format string, args ...any) error {
	return &ConfigError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// missing reports a required key that is absent.
func missing(key string) error {
	return &ConfigError{Key: key, Reason: "required option is missing"}
}

// stateErrorf wraps ErrState with the variable name and a formatted reason.
func stateErrorf(name, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", name, fmt.Sprintf(format, args...), ErrState)
}
