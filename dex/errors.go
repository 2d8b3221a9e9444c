// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package dex

// ErrorKind identifies a kind of error that can be used to define new errors
// via const SomeError = dex.ErrorKind("something").
type ErrorKind string

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error pairs an error with details. Error values are comparable, so a
// package-level var Error can be matched with errors.Is after being wrapped
// with fmt.Errorf("%w").
type Error struct {
	wrapped error
	detail  string
}

// Error satisfies the error interface, combining the wrapped error message with
// the details.
func (e Error) Error() string {
	return e.wrapped.Error() + ": " + e.detail
}

// Unwrap returns the wrapped error, allowing errors.Is and errors.As to work.
func (e Error) Unwrap() error {
	return e.wrapped
}

// NewError wraps the provided error kind with details in an Error.
func NewError(err error, detail string) Error {
	return Error{
		wrapped: err,
		detail:  detail,
	}
}

// ErrorCloser collects undo functions for the completed steps of a multi-step
// operation. If Success is not signaled before Done, the undo functions are
// run in reverse order.
type ErrorCloser struct {
	closers []func() error
}

// NewErrorCloser creates a new ErrorCloser.
func NewErrorCloser() *ErrorCloser {
	return &ErrorCloser{
		closers: make([]func() error, 0, 4),
	}
}

// Add schedules an undo function for the most recently completed step.
func (e *ErrorCloser) Add(closer func() error) {
	e.closers = append(e.closers, closer)
}

// Len is the number of scheduled undo functions.
func (e *ErrorCloser) Len() int {
	return len(e.closers)
}

// Success cancels the running of any Add'ed functions.
func (e *ErrorCloser) Success() {
	e.closers = nil
}

// Done runs the registered functions, newest first, if Success was not
// flagged. Every function is attempted. The number of failed functions is
// returned.
func (e *ErrorCloser) Done(log Logger) (failed int) {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			log.Errorf("error running undo function %d: %v", i, err)
			failed++
		}
	}
	e.closers = nil
	return failed
}
