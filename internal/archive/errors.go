// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import "errors"

// StorageError describes a failed archive store operation.
type StorageError struct {
	Op      string
	Key     string
	Err     error
	Code    string
	Message string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Key == "" {
		return "archive." + e.Op + ": " + msg
	}
	return "archive." + e.Op + " " + e.Key + ": " + msg
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Error codes.
const (
	ErrCodeNotFound        = "NotFound"
	ErrCodeInvalidArgument = "InvalidArgument"
	ErrCodeInternal        = "Internal"
)

// NewStorageError creates a StorageError.
func NewStorageError(op, key string, err error, code, message string) *StorageError {
	return &StorageError{
		Op:      op,
		Key:     key,
		Err:     err,
		Code:    code,
		Message: message,
	}
}

// IsNotFound reports whether err is a StorageError with code NotFound.
func IsNotFound(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Code == ErrCodeNotFound
}
