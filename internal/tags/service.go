package tags

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/forms"
	"github.com/goliatone/go-stagecms/internal/logging"
	"github.com/goliatone/go-stagecms/internal/pages"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

// Service manages the tag catalog.
type Service interface {
	List(ctx context.Context) ([]Tag, error)
	// Create stores name under category. An existing name is rejected unless
	// edit is set; editing requires an admin.
	Create(ctx context.Context, name, category string, edit bool) (*Tag, error)
	Delete(ctx context.Context, name string) error
}

// ServiceOption customises the tag service.
type ServiceOption func(*service)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWritesEnabled toggles persistence. When disabled, operations validate
// and authorize, then return access.ErrWritesDisabled.
func WithWritesEnabled(enabled bool) ServiceOption {
	return func(s *service) {
		s.writes = enabled
	}
}

type service struct {
	repo   Repository
	logger interfaces.Logger
	writes bool
}

func NewService(repo Repository, opts ...ServiceOption) Service {
	if repo == nil {
		panic("tags: service requires a repository")
	}
	s := &service{repo: repo, logger: logging.NoOp(), writes: true}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *service) List(ctx context.Context) ([]Tag, error) {
	return s.repo.List(ctx)
}

func (s *service) Create(ctx context.Context, name, category string, edit bool) (*Tag, error) {
	claims, err := access.RequireUser(ctx, "create tag")
	if err != nil {
		return nil, err
	}
	if edit && !claims.Admin {
		return nil, access.Forbidden("edit tag")
	}
	name = pages.SanitizeText(name)
	category = pages.SanitizeText(category)
	if name == "" {
		return nil, ErrNameRequired
	}
	if !edit {
		if _, err := s.repo.Get(ctx, name); err == nil {
			return nil, &ExistsError{Name: name}
		} else if !errors.Is(err, ErrTagNotFound) {
			return nil, err
		}
	}
	if !s.writes {
		return nil, access.ErrWritesDisabled
	}
	tag, err := s.repo.Put(ctx, Tag{Name: name, Category: strings.TrimSpace(category)})
	if err != nil {
		s.logger.Error("tags.put_failed", "name", name, "error", err)
		return nil, err
	}
	s.logger.Info("tags.saved", "name", name, "category", tag.Category, "edit", edit, "actor", claims.UID)
	return tag, nil
}

func (s *service) Delete(ctx context.Context, name string) error {
	claims, err := access.RequireAdmin(ctx, "delete tag")
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if _, err := s.repo.Get(ctx, name); err != nil {
		return err
	}
	if !s.writes {
		return access.ErrWritesDisabled
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info("tags.deleted", "name", name, "actor", claims.UID)
	return nil
}

// Source adapts the service to the tag input of editing sessions.
type Source struct {
	Service Service
}

var _ forms.TagSource = Source{}

func (s Source) ListTags(ctx context.Context) ([]forms.TagOption, error) {
	list, err := s.Service.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]forms.TagOption, 0, len(list))
	for _, tag := range list {
		out = append(out, forms.TagOption{Name: tag.Name, Category: tag.Category})
	}
	return out, nil
}

func (s Source) CreateTag(ctx context.Context, name, category string) error {
	_, err := s.Service.Create(ctx, name, category, false)
	return err
}
