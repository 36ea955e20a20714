package calibration

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for operations on an unknown calibration name.
	ErrNotFound = errors.New("calibration not found")

	// ErrEmptyName is returned when a calibration has no name.
	ErrEmptyName = errors.New("calibration name is empty")

	// ErrInvalidLength is returned when a true length is not a positive number.
	ErrInvalidLength = errors.New("true length must be a positive number")

	// ErrInvalidValue is returned when a ratio is not a positive number.
	ErrInvalidValue = errors.New("calibration value must be a positive number")
)

// DuplicateNameError reports an Add on a name that already exists.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("calibration %q already exists", e.Name)
}

// MalformedImportError reports import data that is not a JSON array of
// calibration records.
type MalformedImportError struct {
	Reason string
	Err    error
}

func (e *MalformedImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed calibration import: %s: %v", e.Reason, e.Err)
	}
	return "malformed calibration import: " + e.Reason
}

func (e *MalformedImportError) Unwrap() error { return e.Err }

// StorageError reports a failed read or write of persisted state.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("calibration storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
