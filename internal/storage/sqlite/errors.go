package sqlite

import "errors"

var (
	// ErrRecordNotFound indicates that no row matches the requested id.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateEmail indicates a users row with the same email already exists.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrNoFields indicates an update without any field to change.
	ErrNoFields = errors.New("no fields to update")
	// ErrInvalidValue indicates a setting value that cannot be decoded as its declared type.
	ErrInvalidValue = errors.New("invalid setting value")
)
