package repositories

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a row, or a row it references, is missing
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
)

// DuplicateError names the field whose uniqueness was violated.
// errors.Is(err, ErrDuplicate) holds for every DuplicateError.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate record: %s already taken", e.Field)
}

// Is makes DuplicateError match ErrDuplicate
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}
