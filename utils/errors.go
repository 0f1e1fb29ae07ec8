package utils

import (
	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected interface{}, actual interface{}) error {
	return errors.Errorf("expected %T but got %T", expected, actual)
}

// NewDegenerateInputError is used when geometry cannot be built from the given input.
func NewDegenerateInputError(what string, reason string) error {
	return errors.Errorf("degenerate %s: %s", what, reason)
}
