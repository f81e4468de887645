package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to command errors.
const (
	CodeValidation    = "STAGECMS_COMMAND_VALIDATION_FAILED"
	CodeCanceled      = "STAGECMS_COMMAND_CONTEXT_CANCELED"
	CodeTimeout       = "STAGECMS_COMMAND_CONTEXT_TIMEOUT"
	CodeContext       = "STAGECMS_COMMAND_CONTEXT_ERROR"
	CodeWriteDisabled = "STAGECMS_COMMAND_WRITE_DISABLED"
	CodeExecution     = "STAGECMS_COMMAND_EXECUTION_FAILED"
)

// wrap classifies err once. Errors already wrapped by go-errors pass through
// so service-level categories survive.
func wrap(err error, category goerrors.Category, message, code string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, category, message).WithTextCode(code)
}

func wrapValidationError(err error) error {
	return wrap(err, goerrors.CategoryValidation, "command validation failed", CodeValidation)
}

func wrapContextError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return wrap(err, goerrors.CategoryCommand, "command execution cancelled", CodeCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded", CodeTimeout)
	default:
		return wrap(err, goerrors.CategoryCommand, "command context error", CodeContext)
	}
}

func wrapWriteDisabled(err error) error {
	return wrap(err, goerrors.CategoryCommand, "page store is read-only", CodeWriteDisabled)
}

func wrapExecuteError(err error) error {
	return wrap(err, goerrors.CategoryCommand, "command execution failed", CodeExecution)
}
