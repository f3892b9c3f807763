package di

import (
	"context"
	"fmt"
	"io/fs"
	stdhttp "net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uptrace/bun"

	"github.com/newtuple/dialogtuple/internal/blog"
	"github.com/newtuple/dialogtuple/internal/commands"
	"github.com/newtuple/dialogtuple/internal/documents"
	apihttp "github.com/newtuple/dialogtuple/internal/http"
	"github.com/newtuple/dialogtuple/internal/logging"
	"github.com/newtuple/dialogtuple/internal/logging/console"
	"github.com/newtuple/dialogtuple/internal/logging/gologger"
	"github.com/newtuple/dialogtuple/internal/mail"
	"github.com/newtuple/dialogtuple/internal/markdown"
	"github.com/newtuple/dialogtuple/internal/objectstore"
	"github.com/newtuple/dialogtuple/internal/runtimeconfig"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
	"github.com/newtuple/dialogtuple/pkg/storage"
)

// Container wires module dependencies from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	registry       *prometheus.Registry
	store          interfaces.ObjectStore
	mailSender     interfaces.MailSender
	contentFS      fs.FS

	bunDB  *bun.DB
	ownsDB bool

	documentSvc   documents.Service
	markdownSvc   *markdown.Service
	blogRepo      blog.Repository
	blogSvc       blog.Service
	relay         *mail.Relay
	handlers      *commands.HandlerSet
	subscribe     bool
	subscriptions []commands.Subscription
	api           *apihttp.API
	httpHandler   stdhttp.Handler
}

// Option mutates the container before services are built.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by Logging.Provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithRegistry records metrics on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *Container) {
		if reg != nil {
			c.registry = reg
		}
	}
}

// WithObjectStore overrides the object store selected by ObjectStore.Provider.
func WithObjectStore(store interfaces.ObjectStore) Option {
	return func(c *Container) {
		if store != nil {
			c.store = store
		}
	}
}

// WithMailSender overrides the SMTP sender. The relay is built whenever a
// sender is available.
func WithMailSender(sender interfaces.MailSender) Option {
	return func(c *Container) {
		if sender != nil {
			c.mailSender = sender
		}
	}
}

// WithBunDB supplies the database backing the blog snapshot. The caller keeps
// ownership and Close leaves it open.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		if db != nil {
			c.bunDB = db
		}
	}
}

// WithContentFS reads blog Markdown from filesystem instead of Blog.ContentDir.
func WithContentFS(filesystem fs.FS) Option {
	return func(c *Container) {
		if filesystem != nil {
			c.contentFS = filesystem
		}
	}
}

// WithDispatcherSubscription registers the command handlers on the
// process wide go-command dispatcher. Enable it on one container per
// process; every subscribed container handles each dispatched message.
func WithDispatcherSubscription() Option {
	return func(c *Container) {
		c.subscribe = true
	}
}

// NewContainer validates cfg and builds every service. Close releases the
// dispatcher subscriptions and any database opened here.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	c.configureRegistry()
	if err := c.configureObjectStore(ctx); err != nil {
		return nil, err
	}
	c.configureDocuments()
	if err := c.configureBlog(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.configureMail(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.configureCommands(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.configureHTTP(); err != nil {
		c.Close()
		return nil, err
	}

	logging.ModuleDI.Logger(c.loggerProvider).Info("container.configured",
		"object_store", c.objectStoreName(),
		"storage_driver", c.storageDriver(),
		"mail_enabled", c.relay != nil,
		"include_documents", cfg.Blog.IncludeDocuments,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	cfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		c.loggerProvider = console.NewProvider(console.Options{Level: cfg.Level})
	}
	return nil
}

func (c *Container) configureRegistry() {
	if c.registry != nil {
		return
	}
	c.registry = prometheus.NewRegistry()
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func (c *Container) configureObjectStore(ctx context.Context) error {
	if c.store != nil {
		return nil
	}
	cfg := c.Config.ObjectStore
	if strings.ToLower(strings.TrimSpace(cfg.Provider)) != runtimeconfig.ObjectStoreMinio {
		c.store = objectstore.NewMemoryStore()
		return nil
	}

	store, err := objectstore.NewMinioStore(objectstore.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Region:    cfg.Region,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return err
	}
	// Hosted buckets are usually provisioned already and the key may not be
	// allowed to create them.
	if err := store.EnsureBucket(ctx); err != nil {
		logging.ModuleDocuments.Logger(c.loggerProvider).Warn("objectstore.ensure_bucket_failed",
			"bucket", cfg.Bucket,
			"error", err,
		)
	}
	c.store = store
	return nil
}

func (c *Container) configureDocuments() {
	c.documentSvc = documents.NewService(c.store,
		documents.WithLogger(logging.ModuleDocuments.Logger(c.loggerProvider)),
		documents.WithMetrics(documents.NewMetrics(c.registry)),
		documents.WithListLimit(c.Config.ObjectStore.ListLimit),
	)
}

func (c *Container) configureBlog(ctx context.Context) error {
	cfg := c.Config.Blog
	filesystem := c.contentFS
	if filesystem == nil {
		filesystem = os.DirFS(cfg.ContentDir)
	}
	c.markdownSvc = markdown.NewServiceFS(filesystem, markdown.Config{Recursive: cfg.Recursive}, nil)

	sourceOpts := []blog.MarkdownSourceOption{}
	if cfg.ExcerptLength > 0 {
		sourceOpts = append(sourceOpts, blog.WithExcerptLength(cfg.ExcerptLength))
	}
	sources := []blog.Source{blog.NewMarkdownSource(c.markdownSvc, ".", sourceOpts...)}
	if cfg.IncludeDocuments {
		sources = append(sources, blog.NewDocumentSource(c.documentSvc, cfg.DocumentAuthor))
	}

	repo, err := c.blogRepository(ctx)
	if err != nil {
		return err
	}
	c.blogRepo = repo

	svc, err := blog.NewService(sources,
		blog.WithRepository(repo),
		blog.WithLogger(logging.ModuleBlog.Logger(c.loggerProvider)),
	)
	if err != nil {
		return err
	}
	c.blogSvc = svc
	return nil
}

func (c *Container) blogRepository(ctx context.Context) (blog.Repository, error) {
	if c.bunDB == nil && c.storageDriver() == runtimeconfig.StorageDriverMemory {
		return blog.NewMemoryRepository(), nil
	}
	if c.bunDB == nil {
		db, err := storage.Open(storage.Config{
			Driver: c.Config.Storage.Driver,
			DSN:    c.Config.Storage.DSN,
		})
		if err != nil {
			return nil, err
		}
		c.bunDB = db
		c.ownsDB = true
	}
	repo := blog.NewBunRepository(c.bunDB)
	if err := repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("di: migrate blog snapshot: %w", err)
	}
	return repo, nil
}

func (c *Container) configureMail() error {
	cfg := c.Config.Mail
	if c.mailSender == nil && c.Config.MailEnabled() {
		sender, err := mail.NewSMTPSender(mail.SMTPConfig{
			Host:        cfg.Host,
			Port:        cfg.Port,
			Username:    cfg.Username,
			Password:    cfg.Password,
			ImplicitTLS: cfg.ImplicitTLS,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return err
		}
		c.mailSender = sender
	}
	if c.mailSender == nil {
		return nil
	}

	relay, err := mail.NewRelay(c.mailSender, mail.RelayConfig{
		From:    cfg.From,
		To:      cfg.To,
		Subject: cfg.Subject,
	},
		mail.WithLogger(logging.ModuleMail.Logger(c.loggerProvider)),
		mail.WithRegisterer(c.registry),
	)
	if err != nil {
		return err
	}
	c.relay = relay
	return nil
}

func (c *Container) configureCommands() error {
	deps := commands.Dependencies{
		Documents: c.documentSvc,
		Blog:      c.blogSvc,
		Metrics:   commands.NewMetrics(c.registry),
	}
	if c.relay != nil {
		deps.Mail = c.relay
	}
	handlers, err := commands.NewHandlerSet(deps, c.loggerProvider)
	if err != nil {
		return err
	}
	c.handlers = handlers
	if c.subscribe {
		c.subscriptions = handlers.Subscribe(c.Config.Mail.Retries)
	}
	return nil
}

func (c *Container) configureHTTP() error {
	cfg := c.Config.HTTP
	opts := []apihttp.Option{
		apihttp.WithBasePath(cfg.BasePath),
		apihttp.WithFunctionPath(cfg.FunctionPath),
		apihttp.WithDocumentService(c.documentSvc),
		apihttp.WithBlogService(c.blogSvc),
		apihttp.WithBlogReloader(c.handlers.ReloadBlog),
		apihttp.WithGatherer(c.registry),
		apihttp.WithLogger(logging.ModuleHTTP.Logger(c.loggerProvider)),
	}
	if demo := c.handlers.DemoRequestRunner(c.Config.Mail.Retries); demo != nil {
		opts = append(opts, apihttp.WithDemoRequests(demo))
	}
	c.api = apihttp.NewAPI(opts...)

	mux := stdhttp.NewServeMux()
	if err := c.api.Register(mux); err != nil {
		return err
	}
	c.httpHandler = apihttp.Handler(mux, apihttp.MiddlewareConfig{
		Logger:  logging.ModuleHTTP.Logger(c.loggerProvider),
		Metrics: apihttp.NewMetrics(c.registry),
		Tracing: c.Config.Telemetry.Tracing,
	})
	return nil
}

func (c *Container) objectStoreName() string {
	if _, ok := c.store.(*objectstore.MinioStore); ok {
		return runtimeconfig.ObjectStoreMinio
	}
	if _, ok := c.store.(*objectstore.MemoryStore); ok {
		return runtimeconfig.ObjectStoreMemory
	}
	return fmt.Sprintf("%T", c.store)
}

func (c *Container) storageDriver() string {
	if c.bunDB != nil {
		return c.bunDB.Dialect().Name().String()
	}
	driver := strings.TrimSpace(c.Config.Storage.Driver)
	if driver == "" || strings.EqualFold(driver, runtimeconfig.StorageDriverMemory) {
		return runtimeconfig.StorageDriverMemory
	}
	return storage.NormalizeDriver(driver)
}

// Close unsubscribes the command handlers and closes a database opened by
// the container.
func (c *Container) Close() error {
	for _, sub := range c.subscriptions {
		sub.Unsubscribe()
	}
	c.subscriptions = nil
	if c.bunDB != nil && c.ownsDB {
		err := c.bunDB.Close()
		c.bunDB = nil
		return err
	}
	return nil
}

// LoggerProvider returns the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Registry exposes the prometheus registry used by every module.
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// ObjectStore returns the document store.
func (c *Container) ObjectStore() interfaces.ObjectStore {
	return c.store
}

// DocumentService returns the configured document service.
func (c *Container) DocumentService() documents.Service {
	return c.documentSvc
}

// MarkdownService returns the service reading blog Markdown.
func (c *Container) MarkdownService() *markdown.Service {
	return c.markdownSvc
}

// BlogRepository returns the snapshot repository.
func (c *Container) BlogRepository() blog.Repository {
	return c.blogRepo
}

// BlogService returns the configured blog service.
func (c *Container) BlogService() blog.Service {
	return c.blogSvc
}

// Relay returns the demo request relay, nil when mail is not configured.
func (c *Container) Relay() *mail.Relay {
	return c.relay
}

// Handlers returns the command handlers.
func (c *Container) Handlers() *commands.HandlerSet {
	return c.handlers
}

// API returns the HTTP API.
func (c *Container) API() *apihttp.API {
	return c.api
}

// HTTPHandler returns the API mux wrapped with the middleware stack.
func (c *Container) HTTPHandler() stdhttp.Handler {
	return c.httpHandler
}
