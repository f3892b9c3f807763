package commands

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-command/dispatcher"
	goerrors "github.com/goliatone/go-errors"

	"github.com/newtuple/dialogtuple/internal/blog"
	"github.com/newtuple/dialogtuple/internal/documents"
	"github.com/newtuple/dialogtuple/internal/mail"
	"github.com/newtuple/dialogtuple/internal/objectstore"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

type flakySender struct {
	mu       sync.Mutex
	failures int
	requests []mail.DemoRequest
}

func (s *flakySender) SendDemoRequest(_ context.Context, req mail.DemoRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp: connection reset")
	}
	return nil
}

func (s *flakySender) attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type countingSource struct {
	calls int
}

func (s *countingSource) Name() string { return blog.SourceMarkdown }

func (s *countingSource) Posts(context.Context) ([]*blog.Post, error) {
	s.calls++
	return []*blog.Post{{Slug: "hello", Date: "2024-01-01"}}, nil
}

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

func TestUploadDocumentHandlerStoresFile(t *testing.T) {
	store := objectstore.NewMemoryStore()
	handler := NewUploadDocumentHandler(documents.NewService(store), nil)

	var result documents.UploadResult
	err := handler.Execute(context.Background(), UploadDocumentCommand{
		FileName:   "brief.docx",
		FileBase64: base64.StdEncoding.EncodeToString([]byte("PK fake")),
		Result:     &result,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Path != "brief.docx" || result.Message != documents.UploadedMessage {
		t.Fatalf("unexpected result %+v", result)
	}
	data, _, err := store.Get(context.Background(), "brief.docx")
	if err != nil || string(data) != "PK fake" {
		t.Fatalf("expected stored bytes, got %q (%v)", data, err)
	}
}

func TestUploadDocumentHandlerRejectsInvalidType(t *testing.T) {
	handler := NewUploadDocumentHandler(documents.NewService(objectstore.NewMemoryStore()), nil)
	err := handler.Execute(context.Background(), UploadDocumentCommand{FileName: "notes.txt", FileBase64: "aGk="})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReloadBlogHandlerRebuildsCache(t *testing.T) {
	src := &countingSource{}
	svc, err := blog.NewService([]blog.Source{src})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := svc.Posts(context.Background()); err != nil {
		t.Fatalf("Posts: %v", err)
	}

	handler := NewReloadBlogHandler(svc, nil)
	if err := handler.Execute(context.Background(), ReloadBlogCommand{Reason: "test"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("expected reload to read sources again, got %d calls", src.calls)
	}
}

func TestHandlerSetRegistersAvailableHandlers(t *testing.T) {
	if _, err := NewHandlerSet(Dependencies{}, nil); err == nil {
		t.Fatal("expected error without services")
	}

	set, err := NewHandlerSet(Dependencies{Mail: &flakySender{}}, nil)
	if err != nil {
		t.Fatalf("NewHandlerSet: %v", err)
	}
	if set.Upload != nil || set.ReloadBlog != nil || set.DemoRequest == nil {
		t.Fatalf("unexpected handler set %+v", set)
	}

	reg := &recordingRegistry{}
	if err := set.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(reg.handlers) != 1 {
		t.Fatalf("expected 1 registered handler, got %d", len(reg.handlers))
	}
}

type recordingLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *recordingLogger) Trace(string, ...any) {}
func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}
func (l *recordingLogger) Fatal(string, ...any) {}

func (l *recordingLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *recordingLogger) WithContext(context.Context) interfaces.Logger { return l }

func (l *recordingLogger) count(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, w := range l.warnings {
		if w == msg {
			n++
		}
	}
	return n
}

type rejectingSender struct {
	flakySender
}

func (s *rejectingSender) SendDemoRequest(ctx context.Context, req mail.DemoRequest) error {
	_ = s.flakySender.SendDemoRequest(ctx, req)
	return mail.ErrInvalidEmail
}

func TestDemoRequestRunnerRetries(t *testing.T) {
	sender := &flakySender{failures: 1}
	logger := &recordingLogger{}
	set := &HandlerSet{DemoRequest: NewSendDemoRequestHandler(sender, logger)}

	err := set.DemoRequestRunner(DefaultDemoRequestRetries).Execute(context.Background(),
		SendDemoRequestCommand{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("expected delivery after retry, got %v", err)
	}
	if got := sender.attempts(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
	if got := logger.count("command.runner"); got != 1 {
		t.Fatalf("expected the retry to be logged once, got %d", got)
	}
}

func TestDemoRequestRunnerDoesNotRetryPermanentFailures(t *testing.T) {
	sender := &rejectingSender{}
	logger := &recordingLogger{}
	set := &HandlerSet{DemoRequest: NewSendDemoRequestHandler(sender, logger)}

	err := set.DemoRequestRunner(DefaultDemoRequestRetries).Execute(context.Background(),
		SendDemoRequestCommand{Name: "Ada", Email: "ada@example.com"})
	if !errors.Is(err, mail.ErrInvalidEmail) {
		t.Fatalf("expected invalid email error, got %v", err)
	}
	if got := sender.attempts(); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
	if got := logger.count("command.runner"); got != 1 {
		t.Fatalf("expected the failure to be logged once, got %d", got)
	}
}

func TestDemoRequestRunnerRejectsInvalidMessage(t *testing.T) {
	sender := &flakySender{}
	set := &HandlerSet{DemoRequest: NewSendDemoRequestHandler(sender, nil)}

	err := set.DemoRequestRunner(DefaultDemoRequestRetries).Execute(context.Background(),
		SendDemoRequestCommand{Email: "not-an-address"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := sender.attempts(); got != 0 {
		t.Fatalf("expected no delivery, got %d", got)
	}
}

func TestIsPermanent(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":        {err: nil, want: false},
		"validation": {err: WrapValidationError(errors.New("bad")), want: true},
		"email":      {err: WrapExecuteError(mail.ErrInvalidEmail), want: true},
		"delivery":   {err: WrapExecuteError(mail.ErrDeliveryFailed), want: false},
	}
	for name, tc := range cases {
		if got := IsPermanent(tc.err); got != tc.want {
			t.Errorf("%s: IsPermanent = %v, want %v", name, got, tc.want)
		}
	}
}

func TestDemoRequestRunnerWithoutMailHandler(t *testing.T) {
	if (&HandlerSet{}).DemoRequestRunner(1) != nil {
		t.Fatal("expected nil runner without a demo request handler")
	}
}

func TestSubscribedDemoRequestRetries(t *testing.T) {
	sender := &flakySender{failures: 1}
	set, err := NewHandlerSet(Dependencies{Mail: sender}, nil)
	if err != nil {
		t.Fatalf("NewHandlerSet: %v", err)
	}
	subs := set.Subscribe(DefaultDemoRequestRetries)
	t.Cleanup(func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	})

	if err := dispatcher.Dispatch(context.Background(), SendDemoRequestCommand{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("expected delivery after retry, got %v", err)
	}
	if got := sender.attempts(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}
