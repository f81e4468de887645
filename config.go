package cms

import "github.com/goliatone/go-stagecms/internal/runtimeconfig"

var (
	ErrStorageDriverInvalid        = runtimeconfig.ErrStorageDriverInvalid
	ErrStorageDSNRequired          = runtimeconfig.ErrStorageDSNRequired
	ErrCacheTTLInvalid             = runtimeconfig.ErrCacheTTLInvalid
	ErrBlobRootRequired            = runtimeconfig.ErrBlobRootRequired
	ErrBlobBucketsInvalid          = runtimeconfig.ErrBlobBucketsInvalid
	ErrBlobBaseURLInvalid          = runtimeconfig.ErrBlobBaseURLInvalid
	ErrSchemasDirRequired          = runtimeconfig.ErrSchemasDirRequired
	ErrTagSchemaMappingIncomplete  = runtimeconfig.ErrTagSchemaMappingIncomplete
	ErrUploadLimitsInvalid         = runtimeconfig.ErrUploadLimitsInvalid
	ErrShortDescLimitInvalid       = runtimeconfig.ErrShortDescLimitInvalid
	ErrPromotionConcurrencyInvalid = runtimeconfig.ErrPromotionConcurrencyInvalid
	ErrLoggingProviderUnknown      = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid         = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid        = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	ServerConfig     = runtimeconfig.ServerConfig
	StorageConfig    = runtimeconfig.StorageConfig
	CacheConfig      = runtimeconfig.CacheConfig
	BlobsConfig      = runtimeconfig.BlobsConfig
	SchemasConfig    = runtimeconfig.SchemasConfig
	TagSchemaMapping = runtimeconfig.TagSchemaMapping
	AuthConfig       = runtimeconfig.AuthConfig
	UploadsConfig    = runtimeconfig.UploadsConfig
	PagesConfig      = runtimeconfig.PagesConfig
	PromotionConfig  = runtimeconfig.PromotionConfig
	ActivityConfig   = runtimeconfig.ActivityConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML file over the defaults and applies STAGECMS_*
// environment overrides.
func LoadConfig(path string, envFiles ...string) (Config, error) {
	cfg, err := runtimeconfig.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := runtimeconfig.ApplyEnv(&cfg, envFiles...); err != nil {
		return cfg, err
	}
	return cfg, nil
}
