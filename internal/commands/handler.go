package commands

import (
	"context"
	"maps"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/newtuple/dialogtuple/internal/logging"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// DefaultCommandTimeout bounds a single command execution.
const DefaultCommandTimeout = 30 * time.Second

// HandlerOption configures a Handler.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler runs a command function behind message validation and a
// deadline. Every run is logged and reported to the observers.
type Handler[T command.Message] struct {
	run       command.CommandFunc[T]
	logger    interfaces.Logger
	timeout   time.Duration
	operation string
	fields    func(T) map[string]any
	observers []Observer
}

// NewHandler wraps fn. It panics when fn is nil.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: nil command function")
	}
	h := &Handler[T]{run: fn, logger: logging.NoOp(), timeout: DefaultCommandTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Execute implements command.Commander. Validation failures never reach
// the command function and are not observed.
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return WrapValidationError(err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return WrapContextError(err)
	}

	name := command.GetMessageType(msg)
	fields := map[string]any{"command": name}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	if h.fields != nil {
		maps.Copy(fields, h.fields(msg))
	}
	logger := logging.WithFields(h.logger.WithContext(ctx), fields)
	logger.Debug("command.start")

	started := time.Now()
	err := h.run(ctx, msg)
	if err == nil {
		err = ctx.Err()
	}
	outcome := Outcome{
		Command:   name,
		Operation: h.operation,
		Fields:    fields,
		Elapsed:   time.Since(started),
		Result:    classify(err),
		Err:       err,
	}
	for _, obs := range h.observers {
		obs.Observe(ctx, outcome)
	}

	switch outcome.Result {
	case ResultOK:
		logger.Info("command.done", "elapsed", outcome.Elapsed)
		return nil
	case ResultCanceled, ResultTimeout:
		logger.Warn("command.aborted", "result", outcome.Result, "error", err)
		return WrapContextError(err)
	default:
		logger.Error("command.failed", "error", err)
		return WrapExecuteError(err)
	}
}

// WithTimeout replaces DefaultCommandTimeout. Zero or less disables the
// deadline.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.timeout = max(timeout, 0)
	}
}

// WithLogger sets the execution logger.
func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.logger = logging.Ensure(logger)
	}
}

// WithOperation names the operation in logs and outcomes.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithMessageFields derives extra log fields from each message.
func WithMessageFields[T command.Message](fn func(T) map[string]any) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.fields = fn
	}
}

// WithObserver appends obs. Nil observers are ignored.
func WithObserver[T command.Message](obs Observer) HandlerOption[T] {
	return func(h *Handler[T]) {
		if obs != nil {
			h.observers = append(h.observers, obs)
		}
	}
}
