package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/newtuple/dialogtuple/internal/runtimeconfig"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
	if cfg.MailEnabled() {
		t.Fatal("expected mail to be disabled without a host")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{"missing addr", func(c *runtimeconfig.Config) { c.HTTP.Addr = " " }, runtimeconfig.ErrHTTPAddrRequired},
		{"missing content dir", func(c *runtimeconfig.Config) { c.Blog.ContentDir = "" }, runtimeconfig.ErrBlogContentDirRequired},
		{"negative excerpt", func(c *runtimeconfig.Config) { c.Blog.ExcerptLength = -1 }, runtimeconfig.ErrBlogExcerptLengthInvalid},
		{"unknown storage", func(c *runtimeconfig.Config) { c.Storage.Driver = "mysql" }, runtimeconfig.ErrStorageDriverUnknown},
		{"sqlite without dsn", func(c *runtimeconfig.Config) { c.Storage.Driver = "sqlite" }, runtimeconfig.ErrStorageDSNRequired},
		{"unknown object store", func(c *runtimeconfig.Config) { c.ObjectStore.Provider = "gcs" }, runtimeconfig.ErrObjectStoreProviderUnknown},
		{"minio without endpoint", func(c *runtimeconfig.Config) { c.ObjectStore.Provider = "minio" }, runtimeconfig.ErrObjectStoreEndpointRequired},
		{"minio without bucket", func(c *runtimeconfig.Config) {
			c.ObjectStore.Provider = "minio"
			c.ObjectStore.Endpoint = "s3.example.com"
			c.ObjectStore.Bucket = ""
		}, runtimeconfig.ErrObjectStoreBucketRequired},
		{"mail without sender", func(c *runtimeconfig.Config) { c.Mail.Host = "smtp.example.com" }, runtimeconfig.ErrMailFromRequired},
		{"mail without recipient", func(c *runtimeconfig.Config) {
			c.Mail.Host = "smtp.example.com"
			c.Mail.From = "noreply@example.com"
			c.Mail.To = nil
		}, runtimeconfig.ErrMailRecipientRequired},
		{"negative retries", func(c *runtimeconfig.Config) { c.Mail.Retries = -1 }, runtimeconfig.ErrMailRetriesInvalid},
		{"missing logging provider", func(c *runtimeconfig.Config) { c.Logging.Provider = "" }, runtimeconfig.ErrLoggingProviderRequired},
		{"unknown logging provider", func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" }, runtimeconfig.ErrLoggingProviderUnknown},
		{"invalid level", func(c *runtimeconfig.Config) { c.Logging.Level = "loud" }, runtimeconfig.ErrLoggingLevelInvalid},
		{"invalid gologger format", func(c *runtimeconfig.Config) {
			c.Logging.Provider = "gologger"
			c.Logging.Format = "xml"
		}, runtimeconfig.ErrLoggingFormatInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dialogtuple.yaml")
	contents := []byte(`
http:
  addr: ":9090"
  read_timeout: 5s
blog:
  content_dir: posts
  excerpt_length: 120
storage:
  driver: sqlite
  dsn: "file:blog.db"
mail:
  host: smtp.example.com
  from: noreply@example.com
  to: [sales@example.com, ops@example.com]
`)
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := runtimeconfig.Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" || cfg.HTTP.ReadTimeout != 5*time.Second {
		t.Fatalf("unexpected http config %+v", cfg.HTTP)
	}
	if cfg.HTTP.WriteTimeout != 60*time.Second {
		t.Fatalf("expected default write timeout, got %v", cfg.HTTP.WriteTimeout)
	}
	if cfg.Blog.ContentDir != "posts" || cfg.Blog.ExcerptLength != 120 || !cfg.Blog.IncludeDocuments {
		t.Fatalf("unexpected blog config %+v", cfg.Blog)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.DSN != "file:blog.db" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if len(cfg.Mail.To) != 2 || cfg.Mail.To[1] != "ops@example.com" || cfg.Mail.Port != 465 {
		t.Fatalf("unexpected mail config %+v", cfg.Mail)
	}
}

func TestLoadHonoursLegacyEnvironment(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.legacy.test")
	t.Setenv("SMTP_USER", "mailer")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("SMTP_MAIL_FROM", "noreply@legacy.test")
	t.Setenv("SUPABASE_URL", "legacy.storage.test")
	t.Setenv("DIALOGTUPLE_OBJECTSTORE_ENDPOINT", "s3.preferred.test")
	t.Setenv("DIALOGTUPLE_HTTP_ADDR", ":7070")

	cfg, err := runtimeconfig.Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mail.Host != "smtp.legacy.test" || cfg.Mail.Username != "mailer" || cfg.Mail.Password != "secret" || cfg.Mail.From != "noreply@legacy.test" {
		t.Fatalf("unexpected mail config %+v", cfg.Mail)
	}
	if cfg.ObjectStore.Endpoint != "s3.preferred.test" {
		t.Fatalf("expected prefixed variable to win, got %q", cfg.ObjectStore.Endpoint)
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("expected env override, got %q", cfg.HTTP.Addr)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("DIALOGTUPLE_STORAGE_DRIVER", "mysql")
	if _, err := runtimeconfig.Load(viper.New(), ""); !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestLoadSelectsMinioForSupabaseEnvironment(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-role")

	cfg, err := runtimeconfig.Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ObjectStore.Provider != runtimeconfig.ObjectStoreMinio {
		t.Fatalf("expected minio provider, got %q", cfg.ObjectStore.Provider)
	}
	if cfg.ObjectStore.Endpoint != "https://abc.supabase.co" || cfg.ObjectStore.SecretKey != "service-role" {
		t.Fatalf("unexpected object store config %+v", cfg.ObjectStore)
	}
}

func TestLoadKeepsExplicitObjectStoreProvider(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("DIALOGTUPLE_OBJECTSTORE_PROVIDER", "memory")

	cfg, err := runtimeconfig.Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ObjectStore.Provider != runtimeconfig.ObjectStoreMemory {
		t.Fatalf("expected explicit memory provider, got %q", cfg.ObjectStore.Provider)
	}
}

func TestLoadDefaultsToMemoryObjectStore(t *testing.T) {
	cfg, err := runtimeconfig.Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ObjectStore.Provider != runtimeconfig.ObjectStoreMemory {
		t.Fatalf("expected memory provider, got %q", cfg.ObjectStore.Provider)
	}
}
