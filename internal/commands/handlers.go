package commands

import (
	"context"
	"errors"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/newtuple/dialogtuple/internal/blog"
	"github.com/newtuple/dialogtuple/internal/documents"
	"github.com/newtuple/dialogtuple/internal/mail"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// DefaultDemoRequestRetries is the number of redeliveries attempted after a
// failed demo request.
const DefaultDemoRequestRetries = 2

// DemoRequestSender delivers demo requests.
type DemoRequestSender interface {
	SendDemoRequest(ctx context.Context, req mail.DemoRequest) error
}

// NewUploadDocumentHandler stores uploads through svc.
func NewUploadDocumentHandler(svc documents.Service, logger interfaces.Logger, opts ...HandlerOption[UploadDocumentCommand]) *Handler[UploadDocumentCommand] {
	base := []HandlerOption[UploadDocumentCommand]{
		WithLogger[UploadDocumentCommand](logger),
		WithOperation[UploadDocumentCommand]("documents.upload"),
		WithMessageFields(func(msg UploadDocumentCommand) map[string]any {
			return map[string]any{"document": msg.FileName}
		}),
	}
	return NewHandler(func(ctx context.Context, msg UploadDocumentCommand) error {
		result, err := svc.Upload(ctx, documents.UploadRequest{
			FileName:   msg.FileName,
			FileBase64: msg.FileBase64,
		})
		if err != nil {
			return err
		}
		if msg.Result != nil {
			*msg.Result = *result
		}
		return nil
	}, append(base, opts...)...)
}

// NewSendDemoRequestHandler relays demo requests through sender.
func NewSendDemoRequestHandler(sender DemoRequestSender, logger interfaces.Logger, opts ...HandlerOption[SendDemoRequestCommand]) *Handler[SendDemoRequestCommand] {
	base := []HandlerOption[SendDemoRequestCommand]{
		WithLogger[SendDemoRequestCommand](logger),
		WithOperation[SendDemoRequestCommand]("mail.demo_request"),
		WithMessageFields(func(msg SendDemoRequestCommand) map[string]any {
			return map[string]any{"company": msg.Company}
		}),
	}
	return NewHandler(func(ctx context.Context, msg SendDemoRequestCommand) error {
		return sender.SendDemoRequest(ctx, msg.demoRequest())
	}, append(base, opts...)...)
}

// NewReloadBlogHandler rebuilds the blog cache of svc.
func NewReloadBlogHandler(svc blog.Service, logger interfaces.Logger, opts ...HandlerOption[ReloadBlogCommand]) *Handler[ReloadBlogCommand] {
	base := []HandlerOption[ReloadBlogCommand]{
		WithLogger[ReloadBlogCommand](logger),
		WithOperation[ReloadBlogCommand]("blog.reload"),
	}
	return NewHandler(func(ctx context.Context, msg ReloadBlogCommand) error {
		_, err := svc.Reload(ctx)
		return err
	}, append(base, opts...)...)
}

// Dependencies are the services the command handlers drive.
type Dependencies struct {
	Documents documents.Service
	Mail      DemoRequestSender
	Blog      blog.Service
	Metrics   *Metrics
}

// HandlerSet groups the handlers built by NewHandlerSet. Handlers for
// missing dependencies are nil.
type HandlerSet struct {
	Upload      *Handler[UploadDocumentCommand]
	DemoRequest *Handler[SendDemoRequestCommand]
	ReloadBlog  *Handler[ReloadBlogCommand]
}

// NewHandlerSet builds one handler per available dependency.
func NewHandlerSet(deps Dependencies, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if deps.Documents == nil && deps.Mail == nil && deps.Blog == nil {
		return nil, errors.New("commands: no services supplied")
	}
	var observer Observer
	if deps.Metrics != nil {
		observer = deps.Metrics
	}
	set := &HandlerSet{}
	if deps.Documents != nil {
		set.Upload = NewUploadDocumentHandler(deps.Documents, CommandLogger(provider, "documents"),
			WithObserver[UploadDocumentCommand](observer))
	}
	if deps.Mail != nil {
		set.DemoRequest = NewSendDemoRequestHandler(deps.Mail, CommandLogger(provider, "mail"),
			WithObserver[SendDemoRequestCommand](observer))
	}
	if deps.Blog != nil {
		set.ReloadBlog = NewReloadBlogHandler(deps.Blog, CommandLogger(provider, "blog"),
			WithObserver[ReloadBlogCommand](observer))
	}
	return set, nil
}

// CommandRegistry records command handlers so hosts can expose them via CLI
// or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Subscription releases a dispatcher registration.
type Subscription interface {
	Unsubscribe()
}

type unsubscribeFunc func()

func (fn unsubscribeFunc) Unsubscribe() { fn() }

// Handlers lists the non-nil handlers of the set.
func (s *HandlerSet) Handlers() []any {
	handlers := []any{}
	if s.Upload != nil {
		handlers = append(handlers, s.Upload)
	}
	if s.DemoRequest != nil {
		handlers = append(handlers, s.DemoRequest)
	}
	if s.ReloadBlog != nil {
		handlers = append(handlers, s.ReloadBlog)
	}
	return handlers
}

// Register records every handler with reg.
func (s *HandlerSet) Register(reg CommandRegistry) error {
	if reg == nil {
		return nil
	}
	var errs error
	for _, handler := range s.Handlers() {
		if err := reg.RegisterCommand(handler); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

// Subscribe registers every handler in the set on the go-command
// dispatcher for hosts that dispatch by message type. The registry is
// process wide, so only one container per process should subscribe.
// Demo requests are retried up to retries times; permanent failures are
// never retried.
func (s *HandlerSet) Subscribe(retries int) []Subscription {
	subs := []Subscription{}
	if s.Upload != nil {
		sub := dispatcher.SubscribeCommand[UploadDocumentCommand](
			retryPolicy[UploadDocumentCommand]{next: s.Upload},
			runnerOptions(s.Upload.logger)...)
		subs = append(subs, unsubscribeFunc(sub.Unsubscribe))
	}
	if s.DemoRequest != nil {
		sub := dispatcher.SubscribeCommand[SendDemoRequestCommand](
			retryPolicy[SendDemoRequestCommand]{next: s.DemoRequest},
			runnerOptions(s.DemoRequest.logger, runner.WithMaxRetries(max(retries, 0)))...)
		subs = append(subs, unsubscribeFunc(sub.Unsubscribe))
	}
	if s.ReloadBlog != nil {
		sub := dispatcher.SubscribeCommand[ReloadBlogCommand](
			retryPolicy[ReloadBlogCommand]{next: s.ReloadBlog},
			runnerOptions(s.ReloadBlog.logger)...)
		subs = append(subs, unsubscribeFunc(sub.Unsubscribe))
	}
	return subs
}

// DemoRequestRunner runs the demo request handler of this set with up to
// retries redeliveries. It returns nil when the set has no mail handler.
func (s *HandlerSet) DemoRequestRunner(retries int) *Runner[SendDemoRequestCommand] {
	if s.DemoRequest == nil {
		return nil
	}
	return NewRunner[SendDemoRequestCommand](s.DemoRequest, s.DemoRequest.logger,
		runner.WithMaxRetries(max(retries, 0)))
}
