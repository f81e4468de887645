package di

import (
	"context"
	"fmt"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/blobs"
	"github.com/goliatone/go-stagecms/internal/forms"
	cmshttp "github.com/goliatone/go-stagecms/internal/http"
	"github.com/goliatone/go-stagecms/internal/logging"
	"github.com/goliatone/go-stagecms/internal/logging/gologger"
	"github.com/goliatone/go-stagecms/internal/migrations"
	"github.com/goliatone/go-stagecms/internal/pages"
	"github.com/goliatone/go-stagecms/internal/promotions"
	"github.com/goliatone/go-stagecms/internal/runtimeconfig"
	"github.com/goliatone/go-stagecms/internal/schema"
	"github.com/goliatone/go-stagecms/internal/staging"
	"github.com/goliatone/go-stagecms/internal/tags"
	"github.com/goliatone/go-stagecms/pkg/activity"
	"github.com/goliatone/go-stagecms/pkg/activity/usersink"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
	"github.com/goliatone/go-stagecms/pkg/storage"
	"github.com/uptrace/bun"
)

// Container wires module dependencies from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	bunDB         *bun.DB
	ownsDB        bool
	memory        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	pageRepo   pages.Repository
	tagRepo    tags.Repository
	allowRepo  access.AllowListRepository
	directory  access.Directory
	recordRepo promotions.RecordRepository

	blobStore blobs.Store
	locator   blobs.Locator
	registry  schema.Registry
	resolver  *schema.Resolver

	activityHooks activity.Hooks
	activitySink  interfaces.ActivitySink
	emitter       *activity.Emitter
	verifier      *access.TokenVerifier
	issuer        *access.TokenIssuer

	published    *staging.Published
	drafts       staging.Drafts
	admin        staging.Admin
	promotionSvc promotions.Service
	tagSvc       tags.Service
	allowList    access.AllowList
	users        access.Users
	accounts     *access.Accounts
	uploader     *blobs.Uploader
	assembler    *forms.Assembler
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB uses db instead of opening the configured database. The caller
// keeps ownership of db.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithMemoryStorage keeps every document in memory.
func WithMemoryStorage() Option {
	return func(c *Container) {
		c.memory = true
	}
}

// WithCache overrides the repository cache.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBlobStore overrides the file-backed image store.
func WithBlobStore(store blobs.Store) Option {
	return func(c *Container) {
		c.blobStore = store
	}
}

// WithSchemaRegistry overrides the file-backed schema registry.
func WithSchemaRegistry(registry schema.Registry) Option {
	return func(c *Container) {
		c.registry = registry
	}
}

// WithActivityHooks adds hooks that receive every activity event.
func WithActivityHooks(hooks ...activity.Hook) Option {
	return func(c *Container) {
		c.activityHooks = append(c.activityHooks, hooks...)
	}
}

// WithActivitySink forwards activity events to sink instead of the log.
func WithActivitySink(sink interfaces.ActivitySink) Option {
	return func(c *Container) {
		c.activitySink = sink
	}
}

// NewContainer validates cfg and builds every service.
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

	steps := []func(context.Context) error{
		c.configureLogging,
		c.configureCacheDefaults,
		c.configureRepositories,
		c.configureBlobs,
		c.configureSchemas,
		c.configureActivity,
		c.configureTokens,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	c.configureServices()
	return c, nil
}

func (c *Container) configureLogging(context.Context) error {
	if c.loggerProvider == nil && strings.EqualFold(strings.TrimSpace(c.Config.Logging.Provider), "gologger") {
		provider, err := gologger.NewProvider(c.Config.Logging)
		if err != nil {
			return fmt.Errorf("di: logger: %w", err)
		}
		c.loggerProvider = provider
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "")
	return nil
}

func (c *Container) configureCacheDefaults(context.Context) error {
	if !c.Config.Cache.Enabled {
		return nil
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.TTL > 0 {
			cfg.TTL = c.Config.Cache.TTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			c.logger.Warn("di.cache.disabled", "error", err)
			return nil
		}
		c.cacheService = service
	}
	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) configureRepositories(ctx context.Context) error {
	if c.memory {
		c.pageRepo = pages.NewMemoryRepository()
		c.tagRepo = tags.NewMemoryRepository()
		c.allowRepo = access.NewMemoryAllowList()
		c.directory = access.NewMemoryDirectory()
		c.recordRepo = promotions.NewMemoryRecordRepository()
		return nil
	}
	if c.bunDB == nil {
		db, err := storage.Open(ctx, storage.Config{
			Driver: runtimeconfig.NormalizeDriver(c.Config.Storage.Driver),
			DSN:    c.Config.Storage.DSN,
		})
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if c.Config.Storage.AutoMigrate {
		if err := migrations.Default().Apply(ctx, c.bunDB); err != nil {
			return err
		}
	}
	c.pageRepo = pages.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.tagRepo = tags.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.allowRepo = access.NewBunAllowList(c.bunDB)
	c.directory = access.NewBunDirectory(c.bunDB)
	c.recordRepo = promotions.NewBunRecordRepository(c.bunDB)
	return nil
}

func (c *Container) configureBlobs(context.Context) error {
	blobsCfg := c.Config.Blobs
	c.locator = blobs.NewLocator(blobsCfg.BaseURL, blobsCfg.StagingBucket, blobsCfg.ProductionBucket)
	if c.blobStore != nil {
		return nil
	}
	store, err := blobs.NewFileStore(blobsCfg.Root)
	if err != nil {
		return fmt.Errorf("di: blob store: %w", err)
	}
	c.blobStore = store
	return nil
}

func (c *Container) configureSchemas(context.Context) error {
	if c.registry == nil {
		c.registry = schema.NewFileRegistry(c.Config.Schemas.Dir, schema.WithLogger(logging.SchemaLogger(c.loggerProvider)))
	}
	mappings := make([]schema.TagSchema, 0, len(c.Config.Schemas.Tags))
	for _, mapping := range c.Config.Schemas.Tags {
		mappings = append(mappings, schema.TagSchema{Tag: mapping.Tag, Schema: mapping.Schema})
	}
	c.resolver = schema.NewResolver(c.registry, mappings)
	return nil
}

func (c *Container) configureActivity(context.Context) error {
	hooks := append(activity.Hooks{}, c.activityHooks...)
	sink := c.activitySink
	if sink == nil {
		sink = usersink.LoggerSink{Logger: logging.ModuleLogger(c.loggerProvider, "stagecms.activity")}
	}
	hooks = append(hooks, usersink.Hook{Sink: sink})
	c.emitter = activity.NewEmitter(hooks, activity.Config{
		Enabled: c.Config.Activity.Enabled,
		Channel: c.Config.Activity.Channel,
	})
	return nil
}

// configureTokens leaves the verifier nil when no secret is configured, so
// every request is anonymous.
func (c *Container) configureTokens(context.Context) error {
	secret := strings.TrimSpace(c.Config.Auth.Secret)
	if secret == "" {
		c.logger.Warn("di.auth.disabled", "reason", "no token secret configured")
		return nil
	}
	verifier, err := access.NewTokenVerifier([]byte(secret), c.Config.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("di: token verifier: %w", err)
	}
	issuer, err := access.NewTokenIssuer([]byte(secret), c.Config.Auth.Issuer, c.Config.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("di: token issuer: %w", err)
	}
	c.verifier = verifier
	c.issuer = issuer
	return nil
}

func (c *Container) configureServices() {
	writes := c.Config.Storage.WritesEnabled
	stagingLogger := logging.StagingLogger(c.loggerProvider)
	accessLogger := logging.AccessLogger(c.loggerProvider)
	limit := c.Config.Pages.ShortDescLimit

	stagingOpts := []staging.Option{
		staging.WithLogger(stagingLogger),
		staging.WithActivityEmitter(c.emitter),
		staging.WithWritesEnabled(writes),
		staging.WithShortDescLimit(limit),
	}
	c.published = staging.NewPublished(c.pageRepo)
	c.drafts = staging.NewDrafts(c.pageRepo, stagingOpts...)
	c.admin = staging.NewAdmin(c.pageRepo, stagingOpts...)

	c.promotionSvc = promotions.NewService(c.pageRepo, c.blobStore, c.locator, c.resolver, c.recordRepo,
		promotions.WithLogger(logging.PromotionsLogger(c.loggerProvider)),
		promotions.WithActivityEmitter(c.emitter),
		promotions.WithConcurrency(c.Config.Promotion.Concurrency),
		promotions.WithWritesEnabled(writes),
	)
	c.tagSvc = tags.NewService(c.tagRepo, tags.WithLogger(stagingLogger), tags.WithWritesEnabled(writes))

	c.allowList = access.NewAllowList(c.allowRepo, c.directory, access.WithLogger(accessLogger))
	c.users = access.NewUsers(c.directory, access.WithLogger(accessLogger))
	c.accounts = access.NewAccounts(c.allowList, c.directory, access.WithLogger(accessLogger))

	c.uploader = blobs.NewUploader(c.blobStore, c.locator,
		blobs.WithMaxBytes(c.Config.Uploads.MaxBytes),
		blobs.WithMaxDimension(c.Config.Uploads.MaxDimension),
	)
	c.assembler = forms.NewAssembler(forms.WithShortDescLimit(limit))
}

// HTTPHandler builds the JSON API with every service wired.
func (c *Container) HTTPHandler() *cmshttp.API {
	return cmshttp.NewAPI(
		cmshttp.WithSchemas(c.registry),
		cmshttp.WithAssembler(c.assembler),
		cmshttp.WithPages(c.published, c.drafts, c.admin),
		cmshttp.WithPromotions(c.promotionSvc),
		cmshttp.WithTags(c.tagSvc),
		cmshttp.WithAccess(c.allowList, c.users, c.accounts),
		cmshttp.WithUploader(c.uploader, c.Config.Uploads.MaxBytes),
		cmshttp.WithTokenVerifier(c.verifier, c.Config.Auth.CookieName),
		cmshttp.WithTokenIssuer(c.issuer),
		cmshttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
	)
}

// WatchSchemas evicts cached schemas as their files change until ctx ends.
// It returns immediately when watching is disabled or the registry is not
// file backed.
func (c *Container) WatchSchemas(ctx context.Context) error {
	registry, ok := c.registry.(*schema.FileRegistry)
	if !ok || !c.Config.Schemas.Watch {
		return nil
	}
	return registry.Watch(ctx)
}

// Close releases the database when the container opened it.
func (c *Container) Close() error {
	if c == nil || c.bunDB == nil || !c.ownsDB {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	return err
}

func (c *Container) Logger() interfaces.Logger {
	return c.logger
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

func (c *Container) DB() *bun.DB {
	return c.bunDB
}

func (c *Container) PageRepository() pages.Repository {
	return c.pageRepo
}

func (c *Container) Directory() access.Directory {
	return c.directory
}

func (c *Container) BlobStore() blobs.Store {
	return c.blobStore
}

func (c *Container) Locator() blobs.Locator {
	return c.locator
}

func (c *Container) SchemaRegistry() schema.Registry {
	return c.registry
}

func (c *Container) SchemaResolver() *schema.Resolver {
	return c.resolver
}

func (c *Container) ActivityEmitter() *activity.Emitter {
	return c.emitter
}

func (c *Container) TokenIssuer() *access.TokenIssuer {
	return c.issuer
}

func (c *Container) Published() *staging.Published {
	return c.published
}

func (c *Container) Drafts() staging.Drafts {
	return c.drafts
}

func (c *Container) Admin() staging.Admin {
	return c.admin
}

func (c *Container) Promotions() promotions.Service {
	return c.promotionSvc
}

func (c *Container) Tags() tags.Service {
	return c.tagSvc
}

func (c *Container) AllowList() access.AllowList {
	return c.allowList
}

func (c *Container) Users() access.Users {
	return c.users
}

func (c *Container) Accounts() *access.Accounts {
	return c.accounts
}

func (c *Container) Uploader() *blobs.Uploader {
	return c.uploader
}

func (c *Container) Assembler() *forms.Assembler {
	return c.assembler
}
