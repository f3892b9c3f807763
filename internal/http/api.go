package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/newtuple/dialogtuple/internal/blog"
	"github.com/newtuple/dialogtuple/internal/commands"
	"github.com/newtuple/dialogtuple/internal/documents"
	"github.com/newtuple/dialogtuple/internal/logging"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

const (
	defaultBasePath     = "/api"
	defaultFunctionPath = "/.netlify/functions"
)

// DemoRequestExecutor runs demo request commands, usually through a
// retrying commands.Runner.
type DemoRequestExecutor interface {
	Execute(ctx context.Context, msg commands.SendDemoRequestCommand) error
}

// BlogReloader runs blog reload commands.
type BlogReloader interface {
	Execute(ctx context.Context, msg commands.ReloadBlogCommand) error
}

// API registers the public endpoints.
type API struct {
	basePath     string
	functionPath string
	documents    documents.Service
	demoRequests DemoRequestExecutor
	blog         blog.Service
	reloader     BlogReloader
	gatherer     prometheus.Gatherer
	logger       interfaces.Logger
}

// Option mutates the API configuration.
type Option func(*API)

// NewAPI constructs an API instance.
func NewAPI(opts ...Option) *API {
	api := &API{
		basePath:     defaultBasePath,
		functionPath: defaultFunctionPath,
		logger:       logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath overrides the REST base path (defaults to "/api").
func WithBasePath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithFunctionPath overrides the serverless function prefix.
func WithFunctionPath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.functionPath = trimmed
		}
	}
}

// WithDocumentService wires the document upload and conversion service.
func WithDocumentService(service documents.Service) Option {
	return func(api *API) {
		api.documents = service
	}
}

// WithDemoRequests wires demo request delivery.
func WithDemoRequests(executor DemoRequestExecutor) Option {
	return func(api *API) {
		api.demoRequests = executor
	}
}

// WithBlogService wires the blog query service.
func WithBlogService(service blog.Service) Option {
	return func(api *API) {
		api.blog = service
	}
}

// WithBlogReloader routes reload requests through a command handler. Without
// it the blog service is reloaded directly.
func WithBlogReloader(reloader BlogReloader) Option {
	return func(api *API) {
		api.reloader = reloader
	}
}

// WithGatherer exposes gatherer on /metrics.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(api *API) {
		api.gatherer = gatherer
	}
}

// WithLogger sets the API logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		api.logger = logging.Ensure(logger)
	}
}

// Register attaches the endpoints to mux.
func (api *API) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: api is nil")
	}

	api.registerFunctionRoutes(mux, joinPath(api.functionPath, ""))
	api.registerDocumentRoutes(mux, joinPath(api.basePath, ""))
	api.registerDemoRequestRoutes(mux, joinPath(api.basePath, ""))
	api.registerBlogRoutes(mux, joinPath(api.basePath, ""))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if api.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.gatherer, promhttp.HandlerOpts{}))
	}
	return nil
}

func (api *API) registerFunctionRoutes(mux *http.ServeMux, base string) {
	mux.HandleFunc(joinPath(base, "uploadDocx"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		api.handleUpload(w, r)
	})
	mux.HandleFunc(joinPath(base, "getDocxContents"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		api.handleContents(w, r)
	})
	mux.HandleFunc(joinPath(base, "sendEmail"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		api.handleDemoRequest(w, r)
	})
}

func serviceUnavailable(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Service unavailable."})
}
