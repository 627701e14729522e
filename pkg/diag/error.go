package diag

import (
	"fmt"
	"strings"
)

// Category represents the kind of problem being reported.
type Category string

const (
	// CategoryConfig covers invalid declarations and name collisions.
	CategoryConfig Category = "config"
	// CategoryEvaluation covers failures inside getters, callbacks, hooks and renders.
	CategoryEvaluation Category = "evaluation"
	// CategoryTarget covers mount targets that cannot be resolved.
	CategoryTarget Category = "target"
	// CategoryInternal covers broken internal invariants that are skipped.
	CategoryInternal Category = "internal"
)

// Error is a categorised error carrying where it was caught.
type Error struct {
	// Category is the error kind.
	Category Category

	// Info describes the boundary that caught the error, e.g. "render" or
	// `callback for watcher "count"`.
	Info string

	// Component is the formatted name of the owning component, if any.
	Component string

	// Wrapped is the underlying error.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("error in ")
	if e.Info != "" {
		sb.WriteString(e.Info)
	} else {
		sb.WriteString(string(e.Category))
	}
	if e.Component != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Component)
		sb.WriteString(")")
	}
	if e.Wrapped != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Wrapped.Error())
	}
	return sb.String()
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Wrap builds an evaluation error for err caught at info.
func Wrap(err error, info string) *Error {
	return &Error{
		Category: CategoryEvaluation,
		Info:     info,
		Wrapped:  err,
	}
}

// PanicError is a recovered panic turned into an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return "panic: " + err.Error()
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Recovered converts the value returned by recover into an error, or nil.
func Recovered(r any) error {
	if r == nil {
		return nil
	}
	return &PanicError{Value: r}
}

// Safe runs fn and returns its error, converting a panic into a *PanicError.
func Safe(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Recovered(r)
		}
	}()
	return fn()
}
