package stores

import (
	"errors"
	"fmt"
)

// ErrDuplicate is returned when inserting a file whose filename already exists.
var ErrDuplicate = errors.New("file already exists")

// ErrNotFound is returned when operating on a filename that has no record.
var ErrNotFound = errors.New("file not found")

// StorageError wraps an underlying persistence fault. Stores surface it to the
// caller unchanged; nothing is retried internally.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
