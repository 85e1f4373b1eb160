package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicLogger is the subset of the structured logger Recover needs.
type PanicLogger interface {
	Error(msg string, args ...any)
}

// Recover is deferred at goroutine roots. It logs a panic and keeps the
// process running. When errp is non-nil the panic is stored as a
// KindInternal error.
func Recover(log PanicLogger, op string, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	err := &Error{Kind: KindInternal, Op: op, Msg: fmt.Sprintf("panic: %v", r)}
	if log != nil {
		log.Error("recovered panic", "op", op, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
	}
	if errp != nil {
		*errp = err
	}
}
