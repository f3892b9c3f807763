package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to wrapped command errors. HTTP responses and logs use
// them to tell validation problems from delivery failures.
const (
	CodeValidation = "COMMAND_VALIDATION_FAILED"
	CodeCanceled   = "COMMAND_CONTEXT_CANCELED"
	CodeTimeout    = "COMMAND_CONTEXT_TIMEOUT"
	CodeExecution  = "COMMAND_EXECUTION_FAILED"
)

func skipWrap(err error) bool {
	return err == nil || goerrors.IsWrapped(err)
}

func commandError(err error, message, code string) error {
	if skipWrap(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, message).WithTextCode(code)
}

// WrapValidationError tags a rejected message with the validation category.
func WrapValidationError(err error) error {
	if skipWrap(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").WithTextCode(CodeValidation)
}

// WrapContextError tags cancellation and deadline errors. Any other error is
// treated as an execution failure.
func WrapContextError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return commandError(err, "command execution cancelled", CodeCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return commandError(err, "command execution deadline exceeded", CodeTimeout)
	default:
		return WrapExecuteError(err)
	}
}

// WrapExecuteError tags a failure returned by a handler function.
func WrapExecuteError(err error) error {
	return commandError(err, "command execution failed", CodeExecution)
}
