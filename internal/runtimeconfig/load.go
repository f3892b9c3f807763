package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. DIALOGTUPLE_HTTP_ADDR.
const EnvPrefix = "DIALOGTUPLE"

// legacyEnv maps config keys onto the environment variables the serverless
// functions were deployed with. The prefixed name wins when both are set.
var legacyEnv = map[string][]string{
	"objectstore.endpoint":    {"SUPABASE_URL"},
	"objectstore.secret_key":  {"SUPABASE_SERVICE_ROLE_KEY"},
	"mail.host":               {"SMTP_HOST"},
	"mail.username":           {"SMTP_USER"},
	"mail.password":           {"SMTP_PASSWORD"},
	"mail.from":               {"SMTP_MAIL_FROM"},
	"telemetry.otlp_endpoint": {"OTEL_EXPORTER_OTLP_ENDPOINT"},
}

// Load reads configuration into a Config. Values come from defaults, then
// the optional config file, then the environment. An empty configFile
// searches for dialogtuple.{yaml,json,toml} in the working directory and
// silently continues when none exists.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return Config{}, fmt.Errorf("dialogtuple config: bind %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("dialogtuple config: read %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("dialogtuple")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("dialogtuple config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("dialogtuple config: decode: %w", err)
	}
	cfg.ObjectStore.Provider = inferObjectStore(cfg.ObjectStore)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// inferObjectStore picks the provider when none is configured. An endpoint
// alone, as set by SUPABASE_URL, selects minio so uploads are not kept in
// memory by accident.
func inferObjectStore(cfg ObjectStoreConfig) string {
	if provider := strings.TrimSpace(cfg.Provider); provider != "" {
		return provider
	}
	if strings.TrimSpace(cfg.Endpoint) != "" {
		return ObjectStoreMinio
	}
	return ObjectStoreMemory
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal. The object store provider defaults to empty so Load can tell
// an explicit choice from an inferred one.
func setDefaults(v *viper.Viper, cfg Config) {
	defaults := map[string]any{
		"http.addr":             cfg.HTTP.Addr,
		"http.base_path":        cfg.HTTP.BasePath,
		"http.function_path":    cfg.HTTP.FunctionPath,
		"http.read_timeout":     cfg.HTTP.ReadTimeout,
		"http.write_timeout":    cfg.HTTP.WriteTimeout,
		"http.shutdown_timeout": cfg.HTTP.ShutdownTimeout,

		"blog.content_dir":       cfg.Blog.ContentDir,
		"blog.recursive":         cfg.Blog.Recursive,
		"blog.excerpt_length":    cfg.Blog.ExcerptLength,
		"blog.include_documents": cfg.Blog.IncludeDocuments,
		"blog.document_author":   cfg.Blog.DocumentAuthor,

		"storage.driver": cfg.Storage.Driver,
		"storage.dsn":    cfg.Storage.DSN,

		"objectstore.provider":   "",
		"objectstore.endpoint":   cfg.ObjectStore.Endpoint,
		"objectstore.access_key": cfg.ObjectStore.AccessKey,
		"objectstore.secret_key": cfg.ObjectStore.SecretKey,
		"objectstore.region":     cfg.ObjectStore.Region,
		"objectstore.bucket":     cfg.ObjectStore.Bucket,
		"objectstore.use_ssl":    cfg.ObjectStore.UseSSL,
		"objectstore.list_limit": cfg.ObjectStore.ListLimit,

		"mail.host":         cfg.Mail.Host,
		"mail.port":         cfg.Mail.Port,
		"mail.username":     cfg.Mail.Username,
		"mail.password":     cfg.Mail.Password,
		"mail.from":         cfg.Mail.From,
		"mail.to":           cfg.Mail.To,
		"mail.subject":      cfg.Mail.Subject,
		"mail.implicit_tls": cfg.Mail.ImplicitTLS,
		"mail.timeout":      cfg.Mail.Timeout,
		"mail.retries":      cfg.Mail.Retries,

		"logging.provider":   cfg.Logging.Provider,
		"logging.level":      cfg.Logging.Level,
		"logging.format":     cfg.Logging.Format,
		"logging.add_source": cfg.Logging.AddSource,

		"telemetry.tracing":       cfg.Telemetry.Tracing,
		"telemetry.service_name":  cfg.Telemetry.ServiceName,
		"telemetry.otlp_endpoint": cfg.Telemetry.OTLPEndpoint,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
