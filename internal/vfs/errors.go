package vfs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath indicates a path that is not absolute or is malformed
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotFound indicates the path does not exist, or denotes the wrong kind of node
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the destination of a rename or move already exists
	ErrConflict = errors.New("destination exists")

	// ErrInvalidOperation indicates an operation that is never permitted, such as
	// deleting the root directory
	ErrInvalidOperation = errors.New("invalid operation")
)

// Error wraps a file system failure with the operation and path it occurred on
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op string, path string, err error) *Error {
	return &Error{Op: op, Path: path, Err: err}
}
