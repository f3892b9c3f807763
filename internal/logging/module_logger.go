package logging

import (
	"context"
	"maps"
	"strings"

	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// Module names a logger namespace. Providers receive it as the logger name
// and it is repeated in the "module" field.
type Module string

const (
	ModuleRoot      Module = "dialogtuple"
	ModuleBlog      Module = "dialogtuple.blog"
	ModuleDocuments Module = "dialogtuple.documents"
	ModuleMail      Module = "dialogtuple.mail"
	ModuleHTTP      Module = "dialogtuple.http"
	ModuleCommands  Module = "dialogtuple.commands"
	ModuleDI        Module = "dialogtuple.di"
)

// FieldRequestID is the context field carrying the inbound request id.
const FieldRequestID = "request_id"

const (
	fieldModule   = "module"
	fieldDocument = "document"
	fieldSlug     = "slug"
	fieldSource   = "source"
)

// Child returns the namespace m.name. Blank names return m.
func (m Module) Child(name string) Module {
	name = strings.Trim(strings.TrimSpace(name), ".")
	if name == "" {
		return m
	}
	return Module(string(m) + "." + name)
}

// Logger resolves the logger for m from provider. A nil provider, or one
// that returns nil, yields a no-op logger.
func (m Module) Logger(provider interfaces.LoggerProvider) interfaces.Logger {
	if m == "" {
		m = ModuleRoot
	}
	var logger interfaces.Logger
	if provider != nil {
		logger = provider.GetLogger(string(m))
	}
	return WithFields(Ensure(logger), map[string]any{fieldModule: string(m)})
}

// WithDocument tags logger with the document being processed.
func WithDocument(logger interfaces.Logger, name string) interfaces.Logger {
	return WithFields(logger, nonEmpty(fieldDocument, name))
}

// WithPost tags logger with a post slug and the source it came from.
// Blank values are left out.
func WithPost(logger interfaces.Logger, slug, source string) interfaces.Logger {
	fields := nonEmpty(fieldSlug, slug)
	maps.Copy(fields, nonEmpty(fieldSource, source))
	return WithFields(logger, fields)
}

func nonEmpty(key, value string) map[string]any {
	value = strings.TrimSpace(value)
	if value == "" {
		return map[string]any{}
	}
	return map[string]any{key: value}
}

// WithFields attaches a copy of fields when logger implements
// interfaces.FieldsLogger and returns logger unchanged otherwise.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(interfaces.FieldsLogger); ok {
		return fl.WithFields(maps.Clone(fields))
	}
	return logger
}

// Ensure substitutes a no-op logger for nil.
func Ensure(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return NoOp()
	}
	return logger
}

// NoOp returns a logger that drops everything.
func NoOp() interfaces.Logger { return discard{} }

type discard struct{}

func (discard) Trace(string, ...any)                          {}
func (discard) Debug(string, ...any)                          {}
func (discard) Info(string, ...any)                           {}
func (discard) Warn(string, ...any)                           {}
func (discard) Error(string, ...any)                          {}
func (discard) Fatal(string, ...any)                          {}
func (d discard) WithFields(map[string]any) interfaces.Logger { return d }
func (d discard) WithContext(context.Context) interfaces.Logger {
	return d
}
