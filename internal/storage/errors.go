package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no object is stored at a key.
	ErrNotFound = errors.New("object not found")

	// ErrKeyExists is returned by Put when the key is taken and overwrite is off.
	ErrKeyExists = errors.New("object already exists at this key")

	// ErrInvalidKey is returned for empty keys and keys escaping the archive
	// root ("../").
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrTooLarge is returned when an object exceeds PutOptions.MaxSize.
	ErrTooLarge = errors.New("object exceeds maximum size")

	// ErrAccessDenied is returned when the provider rejects the credentials.
	ErrAccessDenied = errors.New("access denied")
)

// StorageError adds the operation and key to a provider error.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsKeyExists(err error) bool {
	return errors.Is(err, ErrKeyExists)
}

func IsInvalidKey(err error) bool {
	return errors.Is(err, ErrInvalidKey)
}

func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}
