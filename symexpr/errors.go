// SPDX-License-Identifier: MIT
// Package symexpr: sentinel errors.
// Callers branch with errors.Is; concrete types carry the offending path.

package symexpr

import (
	"errors"
	"strings"
)

var (
	// ErrMissingValue indicates a free variable with neither a bound value nor a default.
	ErrMissingValue = errors.New("symexpr: missing value")

	// ErrType indicates a tree node or bound value of an unexpected Go type.
	ErrType = errors.New("symexpr: unexpected type")

	// ErrCompile indicates that an expression failed to compile.
	ErrCompile = errors.New("symexpr: compile failed")

	// ErrUnknownParam indicates that a compiled expression asked for a parameter
	// that is not part of the flattened symbol list.
	ErrUnknownParam = errors.New("symexpr: unknown parameter")
)

// MissingValueError names the symbol path that could not be resolved.
// It matches ErrMissingValue under errors.Is.
type MissingValueError struct {
	Path []string
}

// Error implements error.
func (e *MissingValueError) Error() string {
	return "symexpr: missing value for " + strings.Join(e.Path, pathSep) + " (not in values or defaults)"
}

// Is reports whether target is ErrMissingValue.
func (e *MissingValueError) Is(target error) bool {
	return target == ErrMissingValue
}
