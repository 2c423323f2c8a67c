package worker

import (
	"context"
	"errors"
)

// Task is one periodic maintenance step, such as dropping expired session
// state.
type Task interface {
	// Name identifies the task in logs.
	Name() string

	// Run performs one pass and returns how many items it removed.
	// Returning a PermanentError drops the task from the schedule.
	Run(ctx context.Context) (int64, error)
}

type funcTask struct {
	name string
	fn   func(ctx context.Context) (int64, error)
}

func (t funcTask) Name() string                           { return t.name }
func (t funcTask) Run(ctx context.Context) (int64, error) { return t.fn(ctx) }

// Func adapts a function to a Task.
func Func(name string, fn func(ctx context.Context) (int64, error)) Task {
	return funcTask{name: name, fn: fn}
}

// Counter adapts an in-memory prune that cannot fail, such as
// GuardRegistry.Prune.
func Counter(name string, fn func() int) Task {
	return Func(name, func(context.Context) (int64, error) {
		return int64(fn()), nil
	})
}

// PermanentError wraps an error that will not go away by retrying, such as a
// missing table. The task that returned it is not run again.
type PermanentError struct {
	Err error
}

// Error implements the error interface.
func (e *PermanentError) Error() string {
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with PermanentError.
func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError creates a new PermanentError that wraps the given error.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent checks if an error is a PermanentError.
// Returns true if the error (or any error it wraps) is a PermanentError.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}
