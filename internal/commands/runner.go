package commands

import (
	"context"
	"errors"
	"fmt"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/runner"
	goerrors "github.com/goliatone/go-errors"

	"github.com/newtuple/dialogtuple/internal/logging"
	"github.com/newtuple/dialogtuple/internal/mail"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// runnerLogger adapts a module logger to the printf style runner.Logger.
type runnerLogger struct {
	logger interfaces.Logger
}

func (l runnerLogger) Info(msg string, args ...any) {
	l.logger.Info("command.runner", "detail", fmt.Sprintf(msg, args...))
}

func (l runnerLogger) Error(msg string, args ...any) {
	l.logger.Warn("command.runner", "detail", fmt.Sprintf(msg, args...))
}

// runnerOptions sends runner output to logger instead of the standard
// library log package.
func runnerOptions(logger interfaces.Logger, extra ...runner.Option) []runner.Option {
	opts := []runner.Option{
		runner.WithLogger(runnerLogger{logger: logging.Ensure(logger)}),
		runner.WithErrorHandler(func(error) {}),
		runner.WithDoneHandler(func(*runner.Handler) {}),
	}
	return append(opts, extra...)
}

// permanentError marks a failure the runner must not retry.
type permanentError struct {
	err error
}

func (e permanentError) Error() string     { return e.err.Error() }
func (e permanentError) Unwrap() error     { return e.err }
func (e permanentError) IsRetryable() bool { return false }

// IsPermanent reports whether retrying err cannot succeed.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.IsCategory(err, goerrors.CategoryValidation) ||
		errors.Is(err, mail.ErrInvalidEmail)
}

// retryPolicy stops the runner from retrying permanent failures.
type retryPolicy[T command.Message] struct {
	next command.Commander[T]
}

func (p retryPolicy[T]) Execute(ctx context.Context, msg T) error {
	err := p.next.Execute(ctx, msg)
	if IsPermanent(err) {
		return permanentError{err: err}
	}
	return err
}

// Runner executes one handler through its own go-command runner, so
// retries apply without registering on the process wide dispatcher.
type Runner[T command.Message] struct {
	cmd     command.Commander[T]
	handler *runner.Handler
}

// NewRunner wraps cmd. Runner output goes to logger.
func NewRunner[T command.Message](cmd command.Commander[T], logger interfaces.Logger, opts ...runner.Option) *Runner[T] {
	return &Runner[T]{
		cmd:     retryPolicy[T]{next: cmd},
		handler: runner.NewHandler(runnerOptions(logger, opts...)...),
	}
}

// Execute implements command.Commander.
func (r *Runner[T]) Execute(ctx context.Context, msg T) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return runner.RunCommand(ctx, r.handler, r.cmd, msg)
}
