package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrConfiguration = errors.New("configuration error")
	ErrDataIntegrity = errors.New("data integrity violation")
	ErrConflict      = errors.New("conflicting write")
	ErrTemporary     = errors.New("temporary failure")
	ErrTimeout       = errors.New("deadline exceeded")

	// ErrNotApplicable marks a subject with no inputs to embed; the
	// subject's vector stays zero.
	ErrNotApplicable = errors.New("not applicable")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
