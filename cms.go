package cms

import (
	"context"
	"net/http"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/blobs"
	"github.com/goliatone/go-stagecms/internal/di"
	"github.com/goliatone/go-stagecms/internal/forms"
	"github.com/goliatone/go-stagecms/internal/migrations"
	"github.com/goliatone/go-stagecms/internal/pages"
	"github.com/goliatone/go-stagecms/internal/promotions"
	"github.com/goliatone/go-stagecms/internal/schema"
	"github.com/goliatone/go-stagecms/internal/staging"
	"github.com/goliatone/go-stagecms/internal/tags"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

// Page exports the stored page document.
type Page = pages.Page

// Collection exports the page collection selector.
type Collection = pages.Collection

// Production and Staging name the two page collections.
const (
	Production = pages.Production
	Staging    = pages.Staging
)

// Schema exports the form schema definition.
type Schema = schema.Schema

// Claims exports the caller identity attached to contexts.
type Claims = access.Claims

// Submission exports a submitted form.
type Submission = forms.Submission

// PublishedService exports the public read view of published pages.
type PublishedService = *staging.Published

// DraftService exports the owner-scoped staging contract.
type DraftService = staging.Drafts

// AdminService exports the admin page contract.
type AdminService = staging.Admin

// PromotionService exports the promotion contract.
type PromotionService = promotions.Service

// PromotionResult exports the outcome of a promotion.
type PromotionResult = promotions.Result

// TagService exports the tag contract.
type TagService = tags.Service

// AllowListService exports the sign-up allow-list contract.
type AllowListService = access.AllowList

// UserService exports the admin user contract.
type UserService = access.Users

// Option customises the module container.
type Option = di.Option

var (
	WithBunDB          = di.WithBunDB
	WithMemoryStorage  = di.WithMemoryStorage
	WithCache          = di.WithCache
	WithLoggerProvider = di.WithLoggerProvider
	WithBlobStore      = di.WithBlobStore
	WithSchemaRegistry = di.WithSchemaRegistry
	WithActivityHooks  = di.WithActivityHooks
	WithActivitySink   = di.WithActivitySink
)

// WithClaims attaches caller claims to ctx for direct service calls.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return access.WithClaims(ctx, claims)
}

// Migrations returns the table migrations for the page store.
func Migrations() *migrations.Registry {
	return migrations.Default()
}

// Module represents the top level CMS runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a CMS module using the provided configuration and optional DI overrides.
func New(ctx context.Context, cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Close releases storage the module opened.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// Handler returns the JSON API with claims verification.
func (m *Module) Handler() http.Handler {
	return m.container.HTTPHandler().Handler()
}

// WatchSchemas reloads schema documents on change until ctx ends.
func (m *Module) WatchSchemas(ctx context.Context) error {
	return m.container.WatchSchemas(ctx)
}

// Published returns the read-only view of published pages.
func (m *Module) Published() PublishedService {
	return m.container.Published()
}

// Drafts returns the staging service scoped to the caller.
func (m *Module) Drafts() DraftService {
	return m.container.Drafts()
}

// Admin returns the admin page service.
func (m *Module) Admin() AdminService {
	return m.container.Admin()
}

// Promotions returns the promotion service.
func (m *Module) Promotions() PromotionService {
	return m.container.Promotions()
}

// Tags returns the tag service.
func (m *Module) Tags() TagService {
	return m.container.Tags()
}

// AllowList returns the sign-up allow-list service.
func (m *Module) AllowList() AllowListService {
	return m.container.AllowList()
}

// Users returns the admin user service.
func (m *Module) Users() UserService {
	return m.container.Users()
}

// Schemas returns the schema registry.
func (m *Module) Schemas() schema.Registry {
	return m.container.SchemaRegistry()
}

// Locator returns the image URL locator.
func (m *Module) Locator() blobs.Locator {
	return m.container.Locator()
}

// Logger returns the module logger.
func (m *Module) Logger() interfaces.Logger {
	return m.container.Logger()
}
