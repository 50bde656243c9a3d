package cli

import (
	"fmt"
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError reports bad input or a missing record (exit 1).
func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

// sysError reports a storage, filesystem, or configuration failure (exit 2).
func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}
