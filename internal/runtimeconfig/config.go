package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrStorageDriverInvalid        = errors.New("stagecms config: storage driver is invalid")
	ErrStorageDSNRequired          = errors.New("stagecms config: storage dsn is required")
	ErrCacheTTLInvalid             = errors.New("stagecms config: cache ttl must be positive when cache is enabled")
	ErrBlobRootRequired            = errors.New("stagecms config: blob root directory is required")
	ErrBlobBucketsInvalid          = errors.New("stagecms config: staging and production buckets must be set and distinct")
	ErrBlobBaseURLInvalid          = errors.New("stagecms config: blob base url must be an http(s) url")
	ErrSchemasDirRequired          = errors.New("stagecms config: schemas directory is required")
	ErrTagSchemaMappingIncomplete  = errors.New("stagecms config: tag schema mappings need both tag and schema")
	ErrUploadLimitsInvalid         = errors.New("stagecms config: upload limits must be positive")
	ErrShortDescLimitInvalid       = errors.New("stagecms config: short description limit must be zero or positive")
	ErrPromotionConcurrencyInvalid = errors.New("stagecms config: promotion concurrency must be positive")
	ErrLoggingProviderUnknown      = errors.New("stagecms config: logging provider is invalid")
	ErrLoggingLevelInvalid         = errors.New("stagecms config: logging level is invalid")
	ErrLoggingFormatInvalid        = errors.New("stagecms config: logging format is invalid")
)

// Config aggregates the settings of a stagecms process.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Blobs     BlobsConfig     `yaml:"blobs"`
	Schemas   SchemasConfig   `yaml:"schemas"`
	Auth      AuthConfig      `yaml:"auth"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Pages     PagesConfig     `yaml:"pages"`
	Promotion PromotionConfig `yaml:"promotion"`
	Activity  ActivityConfig  `yaml:"activity"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the JSON API listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StorageConfig selects the document database.
type StorageConfig struct {
	Driver        string `yaml:"driver"`
	DSN           string `yaml:"dsn"`
	WritesEnabled bool   `yaml:"writes_enabled"`
	AutoMigrate   bool   `yaml:"auto_migrate"`
}

// CacheConfig captures read cache toggles for page and tag repositories.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// BlobsConfig locates image objects on disk and on the public host.
type BlobsConfig struct {
	Root             string `yaml:"root"`
	BaseURL          string `yaml:"base_url"`
	StagingBucket    string `yaml:"staging_bucket"`
	ProductionBucket string `yaml:"production_bucket"`
}

// SchemasConfig locates schema documents.
type SchemasConfig struct {
	Dir   string             `yaml:"dir"`
	Watch bool               `yaml:"watch"`
	Tags  []TagSchemaMapping `yaml:"tags"`
}

// TagSchemaMapping maps a page tag to a schema id for pages without an
// explicit schema.
type TagSchemaMapping struct {
	Tag    string `yaml:"tag"`
	Schema string `yaml:"schema"`
}

// AuthConfig configures claims tokens. An empty secret leaves every request
// anonymous.
type AuthConfig struct {
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	CookieName string        `yaml:"cookie_name"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

// UploadsConfig bounds accepted images.
type UploadsConfig struct {
	MaxBytes     int64 `yaml:"max_bytes"`
	MaxDimension int   `yaml:"max_dimension"`
}

// PagesConfig captures page metadata limits.
type PagesConfig struct {
	ShortDescLimit int `yaml:"short_desc_limit"`
}

// PromotionConfig tunes promotions.
type PromotionConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// ActivityConfig toggles activity records.
type ActivityConfig struct {
	Enabled bool   `yaml:"enabled"`
	Channel string `yaml:"channel"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns settings for a local single-node deployment.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Driver:        "sqlite",
			DSN:           "file:stagecms.db?cache=shared&_fk=1",
			WritesEnabled: true,
			AutoMigrate:   true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Minute,
		},
		Blobs: BlobsConfig{
			Root:             "data/blobs",
			BaseURL:          "https://storage.googleapis.com",
			StagingBucket:    "cwp-11ty-staging",
			ProductionBucket: "cwp-11ty",
		},
		Schemas: SchemasConfig{
			Dir: "schemas",
			Tags: []TagSchemaMapping{
				{Tag: "Builds", Schema: "builds"},
				{Tag: "Foundations", Schema: "foundations"},
			},
		},
		Auth: AuthConfig{
			Issuer:     "stagecms",
			CookieName: "__session",
			TokenTTL:   24 * time.Hour,
		},
		Uploads: UploadsConfig{
			MaxBytes:     2 << 20,
			MaxDimension: 2000,
		},
		Pages: PagesConfig{
			ShortDescLimit: 100,
		},
		Promotion: PromotionConfig{
			Concurrency: 4,
		},
		Activity: ActivityConfig{
			Channel: "stagecms",
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "console",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	driver := NormalizeDriver(cfg.Storage.Driver)
	if validation.Validate(driver, validation.Required, validation.In("sqlite", "postgres")) != nil {
		return fmt.Errorf("%w: %q", ErrStorageDriverInvalid, cfg.Storage.Driver)
	}
	if strings.TrimSpace(cfg.Storage.DSN) == "" {
		return ErrStorageDSNRequired
	}
	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		return ErrCacheTTLInvalid
	}
	if strings.TrimSpace(cfg.Blobs.Root) == "" {
		return ErrBlobRootRequired
	}
	staging := strings.TrimSpace(cfg.Blobs.StagingBucket)
	production := strings.TrimSpace(cfg.Blobs.ProductionBucket)
	if staging == "" || production == "" || staging == production {
		return ErrBlobBucketsInvalid
	}
	base := strings.TrimSpace(cfg.Blobs.BaseURL)
	if !strings.HasPrefix(base, "https://") && !strings.HasPrefix(base, "http://") {
		return fmt.Errorf("%w: %q", ErrBlobBaseURLInvalid, cfg.Blobs.BaseURL)
	}
	if strings.TrimSpace(cfg.Schemas.Dir) == "" {
		return ErrSchemasDirRequired
	}
	for _, mapping := range cfg.Schemas.Tags {
		if strings.TrimSpace(mapping.Tag) == "" || strings.TrimSpace(mapping.Schema) == "" {
			return ErrTagSchemaMappingIncomplete
		}
	}
	if cfg.Uploads.MaxBytes <= 0 || cfg.Uploads.MaxDimension <= 0 {
		return ErrUploadLimitsInvalid
	}
	if cfg.Pages.ShortDescLimit < 0 {
		return ErrShortDescLimitInvalid
	}
	if cfg.Promotion.Concurrency <= 0 {
		return ErrPromotionConcurrencyInvalid
	}
	provider := normalize(cfg.Logging.Provider)
	if validation.Validate(provider, validation.In("gologger", "none")) != nil {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := normalize(cfg.Logging.Level); level != "" &&
		validation.Validate(level, validation.In("trace", "debug", "info", "warn", "warning", "error", "fatal")) != nil {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if format := normalize(cfg.Logging.Format); format != "" &&
		validation.Validate(format, validation.In("json", "console", "pretty")) != nil {
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
	}
	return nil
}

// NormalizeDriver maps driver aliases to their canonical name.
func NormalizeDriver(driver string) string {
	switch normalize(driver) {
	case "sqlite", "sqlite3":
		return "sqlite"
	case "postgres", "postgresql", "pg", "pgx":
		return "postgres"
	default:
		return normalize(driver)
	}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
