package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STAGECMS_"

// Load reads a YAML file over DefaultConfig. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv loads the given dotenv files (".env" when none are named; missing
// files are skipped) and applies STAGECMS_* overrides to cfg. Variables
// already set in the process win over dotenv values.
func ApplyEnv(cfg *Config, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return applyEnv(cfg, os.LookupEnv)
}

type setter func(cfg *Config, value string) error

func text(field func(*Config) *string) setter {
	return func(cfg *Config, value string) error {
		*field(cfg) = value
		return nil
	}
}

func flag(field func(*Config) *bool) setter {
	return func(cfg *Config, value string) error {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		*field(cfg) = parsed
		return nil
	}
}

func duration(field func(*Config) *time.Duration) setter {
	return func(cfg *Config, value string) error {
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		*field(cfg) = parsed
		return nil
	}
}

func number(field func(*Config) *int) setter {
	return func(cfg *Config, value string) error {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		*field(cfg) = parsed
		return nil
	}
}

var envSetters = map[string]setter{
	"ADDR":              text(func(c *Config) *string { return &c.Server.Addr }),
	"STORAGE_DRIVER":    text(func(c *Config) *string { return &c.Storage.Driver }),
	"STORAGE_DSN":       text(func(c *Config) *string { return &c.Storage.DSN }),
	"WRITE":             flag(func(c *Config) *bool { return &c.Storage.WritesEnabled }),
	"AUTO_MIGRATE":      flag(func(c *Config) *bool { return &c.Storage.AutoMigrate }),
	"CACHE_ENABLED":     flag(func(c *Config) *bool { return &c.Cache.Enabled }),
	"CACHE_TTL":         duration(func(c *Config) *time.Duration { return &c.Cache.TTL }),
	"BLOBS_ROOT":        text(func(c *Config) *string { return &c.Blobs.Root }),
	"BLOBS_BASE_URL":    text(func(c *Config) *string { return &c.Blobs.BaseURL }),
	"BLOBS_STAGING":     text(func(c *Config) *string { return &c.Blobs.StagingBucket }),
	"BLOBS_PRODUCTION":  text(func(c *Config) *string { return &c.Blobs.ProductionBucket }),
	"SCHEMAS_DIR":       text(func(c *Config) *string { return &c.Schemas.Dir }),
	"SCHEMAS_WATCH":     flag(func(c *Config) *bool { return &c.Schemas.Watch }),
	"AUTH_SECRET":       text(func(c *Config) *string { return &c.Auth.Secret }),
	"AUTH_ISSUER":       text(func(c *Config) *string { return &c.Auth.Issuer }),
	"AUTH_COOKIE":       text(func(c *Config) *string { return &c.Auth.CookieName }),
	"PROMOTION_WORKERS": number(func(c *Config) *int { return &c.Promotion.Concurrency }),
	"ACTIVITY_ENABLED":  flag(func(c *Config) *bool { return &c.Activity.Enabled }),
	"LOG_LEVEL":         text(func(c *Config) *string { return &c.Logging.Level }),
	"LOG_FORMAT":        text(func(c *Config) *string { return &c.Logging.Format }),
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if cfg == nil {
		return nil
	}
	var errs []error
	for key, set := range envSetters {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		if err := set(cfg, value); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
		}
	}
	return errors.Join(errs...)
}
