package gologger

import (
	"context"
	"reflect"
	"testing"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/newtuple/dialogtuple/internal/logging"
)

func TestNewProviderFormats(t *testing.T) {
	for _, format := range []string{"", "json", "console", "pretty"} {
		p, err := NewProvider(Config{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("format %q: NewProvider returned error: %v", format, err)
		}
		if p.GetLogger("dialogtuple.test") == nil {
			t.Fatalf("format %q: expected logger", format)
		}
	}
	if _, err := NewProvider(Config{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestNilProviderReturnsNoOp(t *testing.T) {
	var p *Provider
	logger := p.GetLogger("dialogtuple.blog")
	if logger == nil {
		t.Fatal("expected no-op logger")
	}
	logger.Info("ignored")
}

func TestAdapterAppendsContextFields(t *testing.T) {
	stub := &stubLogger{}
	ctx := logging.ContextWithFields(context.Background(), map[string]any{
		logging.FieldRequestID: "req-9",
	})

	logger := (&adapter{inner: stub}).WithContext(ctx)
	logger.Info("document uploaded", "size", 12)
	logger.Warn("slow")

	want := [][]any{
		{"size", 12, "request_id", "req-9"},
		{"request_id", "req-9"},
	}
	if !reflect.DeepEqual(stub.args, want) {
		t.Fatalf("unexpected args %#v", stub.args)
	}
	if len(stub.contexts) != 1 || stub.contexts[0] != ctx {
		t.Fatalf("expected context to reach go-logger, got %#v", stub.contexts)
	}
	if !reflect.DeepEqual(stub.calls, []string{"info", "warn"}) {
		t.Fatalf("unexpected calls %v", stub.calls)
	}
}

func TestAdapterWithFieldsClonesInput(t *testing.T) {
	stub := &stubLogger{}
	fields := map[string]any{"slug": "hello-world"}

	(&adapter{inner: stub}).WithFields(fields)
	fields["slug"] = "changed"

	if len(stub.fields) != 1 || stub.fields[0]["slug"] != "hello-world" {
		t.Fatalf("expected fields to be cloned, got %#v", stub.fields)
	}
}

func TestAdapterWithFieldsFallsBackToBoundArgs(t *testing.T) {
	plain := &plainLogger{}
	logger := (&adapter{inner: plain}).WithFields(map[string]any{"source": "docx", "author": "DialogTuple"})
	logger.Debug("post built")

	want := []any{"author", "DialogTuple", "source", "docx"}
	if !reflect.DeepEqual(plain.args, want) {
		t.Fatalf("unexpected args %#v", plain.args)
	}
}

type stubLogger struct {
	calls    []string
	args     [][]any
	fields   []map[string]any
	contexts []context.Context
}

var _ glog.Logger = (*stubLogger)(nil)
var _ glog.FieldsLogger = (*stubLogger)(nil)

func (s *stubLogger) record(call string, args []any) {
	s.calls = append(s.calls, call)
	s.args = append(s.args, args)
}

func (s *stubLogger) Trace(_ string, args ...any) { s.record("trace", args) }
func (s *stubLogger) Debug(_ string, args ...any) { s.record("debug", args) }
func (s *stubLogger) Info(_ string, args ...any)  { s.record("info", args) }
func (s *stubLogger) Warn(_ string, args ...any)  { s.record("warn", args) }
func (s *stubLogger) Error(_ string, args ...any) { s.record("error", args) }
func (s *stubLogger) Fatal(_ string, args ...any) { s.record("fatal", args) }

func (s *stubLogger) WithContext(ctx context.Context) glog.Logger {
	s.contexts = append(s.contexts, ctx)
	return s
}

func (s *stubLogger) WithFields(fields map[string]any) glog.Logger {
	s.fields = append(s.fields, fields)
	return s
}

// plainLogger lacks WithFields.
type plainLogger struct {
	args []any
}

var _ glog.Logger = (*plainLogger)(nil)

func (p *plainLogger) Trace(string, ...any)                    {}
func (p *plainLogger) Debug(_ string, args ...any)             { p.args = args }
func (p *plainLogger) Info(string, ...any)                     {}
func (p *plainLogger) Warn(string, ...any)                     {}
func (p *plainLogger) Error(string, ...any)                    {}
func (p *plainLogger) Fatal(string, ...any)                    {}
func (p *plainLogger) WithContext(context.Context) glog.Logger { return p }
