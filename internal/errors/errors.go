// Package errors defines the error taxonomy shared by the host managers and
// the bridge. Only the message of an error ever crosses the process boundary.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error for envelope and bridge reporting.
type Kind int

const (
	// KindInternal is an unexpected failure, including recovered panics.
	KindInternal Kind = iota
	// KindValidation is malformed or out-of-enum input.
	KindValidation
	// KindNotFound is a missing window, record, file or channel.
	KindNotFound
	// KindHostIO is a failed file system, database, dialog or network call.
	KindHostIO
	// KindUnauthorized is a channel outside the allow-lists.
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindHostIO:
		return "host_io"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Code returns the numeric code used in bridge result frames.
func (k Kind) Code() int {
	switch k {
	case KindValidation:
		return -32602
	case KindNotFound:
		return -32601
	case KindUnauthorized:
		return -32001
	case KindHostIO:
		return -32002
	default:
		return -32603
	}
}

// KindFromCode is the inverse of Kind.Code. Unknown codes map to KindInternal.
func KindFromCode(code int) Kind {
	for _, k := range []Kind{KindValidation, KindNotFound, KindUnauthorized, KindHostIO} {
		if k.Code() == code {
			return k
		}
	}
	return KindInternal
}

// Error is a classified error.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a KindValidation error.
func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound error.
func NotFound(op, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Unauthorized returns a KindUnauthorized error.
func Unauthorized(op, format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// HostIO wraps err as a KindHostIO error. A nil err yields nil.
func HostIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindHostIO, Op: op, Err: err}
}

// Internal wraps err as a KindInternal error. A nil err yields nil.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Message extracts the string that is allowed to cross the boundary.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// New, As and Join re-export the standard helpers so callers need a single import.
var (
	New  = stderrors.New
	As   = stderrors.As
	Join = stderrors.Join
)

// IsErr is errors.Is from the standard library.
func IsErr(err, target error) bool { return stderrors.Is(err, target) }
