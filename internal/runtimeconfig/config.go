package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrHTTPAddrRequired            = errors.New("dialogtuple config: http address is required")
	ErrBlogContentDirRequired      = errors.New("dialogtuple config: blog content directory is required")
	ErrBlogExcerptLengthInvalid    = errors.New("dialogtuple config: blog excerpt length must be zero or positive")
	ErrStorageDriverUnknown        = errors.New("dialogtuple config: storage driver is invalid")
	ErrStorageDSNRequired          = errors.New("dialogtuple config: storage dsn is required for database drivers")
	ErrObjectStoreProviderUnknown  = errors.New("dialogtuple config: object store provider is invalid")
	ErrObjectStoreEndpointRequired = errors.New("dialogtuple config: object store endpoint is required for minio")
	ErrObjectStoreBucketRequired   = errors.New("dialogtuple config: object store bucket is required")
	ErrMailFromRequired            = errors.New("dialogtuple config: mail sender is required when smtp host is set")
	ErrMailRecipientRequired       = errors.New("dialogtuple config: mail recipient is required when smtp host is set")
	ErrMailRetriesInvalid          = errors.New("dialogtuple config: mail retries must be zero or positive")
	ErrLoggingProviderRequired     = errors.New("dialogtuple config: logging provider is required")
	ErrLoggingProviderUnknown      = errors.New("dialogtuple config: logging provider is invalid")
	ErrLoggingLevelInvalid         = errors.New("dialogtuple config: logging level is invalid")
	ErrLoggingFormatInvalid        = errors.New("dialogtuple config: logging format is invalid")
)

const (
	StorageDriverMemory = "memory"

	ObjectStoreMemory = "memory"
	ObjectStoreMinio  = "minio"
)

// Config aggregates the runtime settings of the backend.
type Config struct {
	HTTP        HTTPConfig        `mapstructure:"http"`
	Blog        BlogConfig        `mapstructure:"blog"`
	Storage     StorageConfig     `mapstructure:"storage"`
	ObjectStore ObjectStoreConfig `mapstructure:"objectstore"`
	Mail        MailConfig        `mapstructure:"mail"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// HTTPConfig controls the API listener.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	BasePath        string        `mapstructure:"base_path"`
	FunctionPath    string        `mapstructure:"function_path"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BlogConfig selects the post sources.
type BlogConfig struct {
	ContentDir       string `mapstructure:"content_dir"`
	Recursive        bool   `mapstructure:"recursive"`
	ExcerptLength    int    `mapstructure:"excerpt_length"`
	IncludeDocuments bool   `mapstructure:"include_documents"`
	DocumentAuthor   string `mapstructure:"document_author"`
}

// StorageConfig selects where blog snapshots are persisted. The memory
// driver keeps them in process.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// ObjectStoreConfig points at the bucket holding uploaded documents.
type ObjectStoreConfig struct {
	Provider  string `mapstructure:"provider"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	ListLimit int    `mapstructure:"list_limit"`
}

// MailConfig configures the SMTP relay. An empty Host disables delivery.
type MailConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	From        string        `mapstructure:"from"`
	To          []string      `mapstructure:"to"`
	Subject     string        `mapstructure:"subject"`
	ImplicitTLS bool          `mapstructure:"implicit_tls"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string `mapstructure:"provider"`
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// TelemetryConfig enables request tracing.
type TelemetryConfig struct {
	Tracing      bool   `mapstructure:"tracing"`
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			BasePath:        "/api",
			FunctionPath:    "/.netlify/functions",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Blog: BlogConfig{
			ContentDir:       "content/blogs",
			IncludeDocuments: true,
		},
		Storage: StorageConfig{
			Driver: StorageDriverMemory,
		},
		ObjectStore: ObjectStoreConfig{
			Provider:  ObjectStoreMemory,
			Bucket:    "docx-files",
			UseSSL:    true,
			ListLimit: 100,
		},
		Mail: MailConfig{
			Port:        465,
			To:          []string{"sharad@newtuple.com"},
			Subject:     "New Demo Request from DialogTuple",
			ImplicitTLS: true,
			Timeout:     15 * time.Second,
			Retries:     2,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "dialogtuple",
		},
	}
}

// MailEnabled reports whether an SMTP relay is configured.
func (cfg Config) MailEnabled() bool {
	return strings.TrimSpace(cfg.Mail.Host) != ""
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return ErrHTTPAddrRequired
	}
	if strings.TrimSpace(cfg.Blog.ContentDir) == "" {
		return ErrBlogContentDirRequired
	}
	if cfg.Blog.ExcerptLength < 0 {
		return ErrBlogExcerptLengthInvalid
	}

	switch driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)); driver {
	case "", StorageDriverMemory:
	case "sqlite", "sqlite3", "postgres", "postgresql", "pg":
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return fmt.Errorf("%w: %s", ErrStorageDSNRequired, driver)
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, driver)
	}

	switch provider := strings.ToLower(strings.TrimSpace(cfg.ObjectStore.Provider)); provider {
	case "", ObjectStoreMemory:
	case ObjectStoreMinio:
		if strings.TrimSpace(cfg.ObjectStore.Endpoint) == "" {
			return ErrObjectStoreEndpointRequired
		}
		if strings.TrimSpace(cfg.ObjectStore.Bucket) == "" {
			return ErrObjectStoreBucketRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrObjectStoreProviderUnknown, provider)
	}

	if cfg.MailEnabled() {
		if strings.TrimSpace(cfg.Mail.From) == "" {
			return ErrMailFromRequired
		}
		if len(cfg.Mail.To) == 0 {
			return ErrMailRecipientRequired
		}
	}
	if cfg.Mail.Retries < 0 {
		return ErrMailRetriesInvalid
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
