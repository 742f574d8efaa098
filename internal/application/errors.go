package application

import (
	"errors"
	"fmt"
)

// ErrValidation marks bad caller input. Presentation maps it to a usage reply.
var ErrValidation = errors.New("validation")

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Invalid tags a domain error as a validation failure while keeping it matchable.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
