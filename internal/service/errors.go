package service

import "github.com/pkg/errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid input")
)

// InvalidError carries a user facing reason and matches ErrInvalid.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string {
	return e.Reason
}

func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(reason string) error {
	return &InvalidError{Reason: reason}
}
