package interfaces

import "context"

// Logger is the leveled logger every package receives. Arguments after msg
// are alternating key/value pairs. The method set matches go-logger so its
// loggers satisfy it directly.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	// WithContext returns a logger that also writes the fields stored on
	// ctx, such as the request id.
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out loggers by dotted module name.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// FieldsLogger is implemented by loggers that can carry fields on every
// entry they write.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}
