// Package console writes logfmt lines to a writer. It is the default
// provider for local runs and the CLI.
package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/newtuple/dialogtuple/internal/logging"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// Level is the severity of a line.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"trace", "debug", "info", "warn", "error", "fatal"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "info"
}

// ParseLevel maps a configuration string onto a Level. Unknown or empty
// values resolve to LevelInfo and ok=false.
func ParseLevel(value string) (Level, bool) {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "warning" {
		name = "warn"
	}
	for i, candidate := range levelNames {
		if candidate == name {
			return Level(i), true
		}
	}
	return LevelInfo, false
}

// leadingKeys are written right after msg, in this order, so lines for one
// request line up when grepped.
var leadingKeys = []string{"logger", logging.FieldRequestID}

// Options configures NewProvider. Zero values write info and above to
// stdout.
type Options struct {
	Writer io.Writer
	Now    func() time.Time
	Level  string
}

type sink struct {
	mu    sync.Mutex
	w     io.Writer
	now   func() time.Time
	level Level
}

// NewProvider returns a provider whose loggers share one writer.
func NewProvider(opts Options) interfaces.LoggerProvider {
	s := &sink{w: opts.Writer, now: opts.Now}
	if s.w == nil {
		s.w = os.Stdout
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.level, _ = ParseLevel(opts.Level)
	return s
}

func (s *sink) GetLogger(name string) interfaces.Logger {
	return &logger{sink: s, fields: map[string]any{"logger": name}}
}

type logger struct {
	sink   *sink
	fields map[string]any
	ctx    context.Context
}

var (
	_ interfaces.Logger       = (*logger)(nil)
	_ interfaces.FieldsLogger = (*logger)(nil)
)

func (l *logger) Trace(msg string, args ...any) { l.write(LevelTrace, msg, args) }
func (l *logger) Debug(msg string, args ...any) { l.write(LevelDebug, msg, args) }
func (l *logger) Info(msg string, args ...any)  { l.write(LevelInfo, msg, args) }
func (l *logger) Warn(msg string, args ...any)  { l.write(LevelWarn, msg, args) }
func (l *logger) Error(msg string, args ...any) { l.write(LevelError, msg, args) }
func (l *logger) Fatal(msg string, args ...any) { l.write(LevelFatal, msg, args) }

func (l *logger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	merged := maps.Clone(l.fields)
	maps.Copy(merged, fields)
	return &logger{sink: l.sink, fields: merged, ctx: l.ctx}
}

func (l *logger) WithContext(ctx context.Context) interfaces.Logger {
	return &logger{sink: l.sink, fields: l.fields, ctx: ctx}
}

func (l *logger) write(level Level, msg string, args []any) {
	if level < l.sink.level {
		return
	}
	fields := maps.Clone(l.fields)
	if fields == nil {
		fields = map[string]any{}
	}
	maps.Copy(fields, logging.ContextFields(l.ctx))
	pairs(fields, args)

	line := format(l.sink.now().UTC(), level, msg, fields)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	_, _ = io.WriteString(l.sink.w, line)
}

// pairs folds key/value args into fields. A value without a usable key is
// kept under "arg<N>" rather than dropped.
func pairs(fields map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fields["arg"+strconv.Itoa(i)] = args[i]
			return
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "arg" + strconv.Itoa(i+1)
		}
		fields[key] = args[i+1]
	}
}

func format(ts time.Time, level Level, msg string, fields map[string]any) string {
	var b strings.Builder
	b.WriteString("time=")
	b.WriteString(ts.Format(time.RFC3339Nano))
	b.WriteString(" level=")
	b.WriteString(level.String())
	b.WriteString(" msg=")
	b.WriteString(quote(msg))

	for _, key := range leadingKeys {
		if value, ok := fields[key]; ok {
			writePair(&b, key, value)
			delete(fields, key)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		writePair(&b, key, fields[key])
	}
	b.WriteByte('\n')
	return b.String()
}

func writePair(b *strings.Builder, key string, value any) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(render(value))
}

func render(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Duration:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case error:
		return quote(v.Error())
	case fmt.Stringer:
		return quote(v.String())
	default:
		return quote(fmt.Sprint(v))
	}
}

func quote(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsAny(value, " =\"\t\n\r") {
		return strconv.Quote(value)
	}
	return value
}
