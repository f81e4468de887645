package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/blobs"
	"github.com/goliatone/go-stagecms/internal/forms"
	"github.com/goliatone/go-stagecms/internal/logging"
	"github.com/goliatone/go-stagecms/internal/promotions"
	"github.com/goliatone/go-stagecms/internal/schema"
	"github.com/goliatone/go-stagecms/internal/staging"
	"github.com/goliatone/go-stagecms/internal/tags"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

// API serves the JSON endpoints. Services left unset answer 503.
type API struct {
	basePath   string
	schemas    schema.Registry
	assembler  *forms.Assembler
	published  *staging.Published
	drafts     staging.Drafts
	admin      staging.Admin
	promotions promotions.Service
	tags       tags.Service
	allowList  access.AllowList
	users      access.Users
	accounts   *access.Accounts
	uploader   *blobs.Uploader
	maxUpload  int64
	verifier   *access.TokenVerifier
	issuer     *access.TokenIssuer
	cookieName string
	logger     interfaces.Logger
}

// Option mutates the API configuration.
type Option func(*API)

// NewAPI constructs an API instance.
func NewAPI(opts ...Option) *API {
	api := &API{
		basePath:   "/api",
		assembler:  forms.NewAssembler(),
		maxUpload:  blobs.DefaultMaxUploadBytes,
		cookieName: "__session",
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath overrides the base API path (defaults to "/api").
func WithBasePath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

func WithSchemas(registry schema.Registry) Option {
	return func(api *API) { api.schemas = registry }
}

func WithAssembler(assembler *forms.Assembler) Option {
	return func(api *API) {
		if assembler != nil {
			api.assembler = assembler
		}
	}
}

// WithPages wires published reads, drafts and admin page operations.
func WithPages(published *staging.Published, drafts staging.Drafts, admin staging.Admin) Option {
	return func(api *API) {
		api.published = published
		api.drafts = drafts
		api.admin = admin
	}
}

func WithPromotions(svc promotions.Service) Option {
	return func(api *API) { api.promotions = svc }
}

func WithTags(svc tags.Service) Option {
	return func(api *API) { api.tags = svc }
}

// WithAccess wires the allow-list, user administration and registration.
func WithAccess(allowList access.AllowList, users access.Users, accounts *access.Accounts) Option {
	return func(api *API) {
		api.allowList = allowList
		api.users = users
		api.accounts = accounts
	}
}

// WithUploader wires image uploads. maxBytes bounds the multipart body.
func WithUploader(uploader *blobs.Uploader, maxBytes int64) Option {
	return func(api *API) {
		api.uploader = uploader
		if maxBytes > 0 {
			api.maxUpload = maxBytes
		}
	}
}

// WithTokenVerifier enables claims from bearer tokens and the named cookie.
func WithTokenVerifier(verifier *access.TokenVerifier, cookieName string) Option {
	return func(api *API) {
		api.verifier = verifier
		if trimmed := strings.TrimSpace(cookieName); trimmed != "" {
			api.cookieName = trimmed
		}
	}
}

// WithTokenIssuer returns a session token from registration.
func WithTokenIssuer(issuer *access.TokenIssuer) Option {
	return func(api *API) { api.issuer = issuer }
}

func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// Register mounts every route on mux.
func (api *API) Register(mux *http.ServeMux) {
	if api == nil || mux == nil {
		return
	}
	api.mount(&routeTable{mux: mux})
}

// Handler returns a mux with every route behind the claims middleware.
func (api *API) Handler() http.Handler {
	mux := http.NewServeMux()
	api.Register(mux)
	return api.Authenticate(mux)
}

// Authenticate attaches the caller claims to the request context. Requests
// without a token pass through anonymously; an invalid token is rejected.
func (api *API) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		if api.verifier != nil {
			if raw := api.token(r); raw != "" {
				claims, err := api.verifier.Verify(raw)
				if err != nil {
					api.logger.Warn("http.auth.rejected", "path", r.URL.Path, "error", err)
					writeError(w, err)
					return
				}
				r = r.WithContext(access.WithClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
		api.logger.Debug("http.request", "method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(started).Milliseconds())
	})
}

func (api *API) token(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if scheme, raw, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(raw)
		}
	}
	if cookie, err := r.Cookie(api.cookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func unavailable(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
}
