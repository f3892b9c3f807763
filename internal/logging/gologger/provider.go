// Package gologger adapts github.com/goliatone/go-logger to the dialogtuple
// logging interfaces. It is selected with logging.provider=gologger and
// writes JSON by default, which suits hosted log collectors.
package gologger

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/newtuple/dialogtuple/internal/logging"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// Config mirrors the logging section of the runtime configuration.
type Config struct {
	Level     string
	Format    string
	AddSource bool
}

var levels = map[string]string{
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

// Provider hands out named go-logger children of one root logger.
type Provider struct {
	root *glog.BaseLogger
}

var _ interfaces.LoggerProvider = (*Provider)(nil)

// NewProvider builds the root logger for cfg.
func NewProvider(cfg Config) (*Provider, error) {
	var options []glog.Option
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("logging: unsupported go-logger format %q", cfg.Format)
	}
	if level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]; ok {
		options = append(options, glog.WithLevel(level))
	}
	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}
	return &Provider{root: glog.NewLogger(options...)}, nil
}

// GetLogger returns the child logger called name, or the root for "".
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	if name = strings.TrimSpace(name); name == "" {
		return &adapter{inner: p.root}
	}
	return &adapter{inner: p.root.GetLogger(name)}
}

// adapter forwards to go-logger. go-logger does not know the request fields
// stored by logging.ContextWithFields, so they are captured on WithContext
// and appended to every call.
type adapter struct {
	inner glog.Logger
	bound []any
}

var (
	_ interfaces.Logger       = (*adapter)(nil)
	_ interfaces.FieldsLogger = (*adapter)(nil)
)

func (l *adapter) Trace(msg string, args ...any) { l.inner.Trace(msg, l.with(args)...) }
func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, l.with(args)...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, l.with(args)...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, l.with(args)...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, l.with(args)...) }
func (l *adapter) Fatal(msg string, args ...any) { l.inner.Fatal(msg, l.with(args)...) }

func (l *adapter) with(args []any) []any {
	if len(l.bound) == 0 {
		return args
	}
	return append(slices.Clip(args), l.bound...)
}

// WithFields uses go-logger's field support when present and otherwise
// binds the fields as trailing key/value args.
func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	if fl, ok := l.inner.(glog.FieldsLogger); ok {
		return &adapter{inner: fl.WithFields(maps.Clone(fields)), bound: l.bound}
	}
	return &adapter{inner: l.inner, bound: append(slices.Clip(l.bound), flatten(fields)...)}
}

func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return l
	}
	return &adapter{inner: l.inner.WithContext(ctx), bound: flatten(logging.ContextFields(ctx))}
}

func flatten(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, len(fields)*2)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		args = append(args, key, fields[key])
	}
	return args
}
