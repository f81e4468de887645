package staging

import (
	"context"
	"fmt"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/pages"
)

// Admin exposes unrestricted page operations on either collection.
type Admin interface {
	List(ctx context.Context, coll pages.Collection) ([]string, error)
	Get(ctx context.Context, coll pages.Collection, title string) (*pages.Page, error)
	Create(ctx context.Context, coll pages.Collection, page *pages.Page) (*pages.Page, error)
	Edit(ctx context.Context, coll pages.Collection, page *pages.Page) (*pages.Page, error)
	Delete(ctx context.Context, coll pages.Collection, title string) error
	// Publish writes a submission straight to production. Without edit an
	// existing title is rejected.
	Publish(ctx context.Context, page *pages.Page, edit bool) (*pages.Page, error)
}

type admin struct {
	core
}

func NewAdmin(repo pages.Repository, opts ...Option) Admin {
	return &admin{core: newCore(repo, opts)}
}

func (a *admin) authorize(ctx context.Context, action string, coll pages.Collection) (access.Claims, error) {
	claims, err := access.RequireAdmin(ctx, action)
	if err != nil {
		return access.Claims{}, err
	}
	if !coll.Valid() {
		return access.Claims{}, fmt.Errorf("%w: %q", pages.ErrUnknownCollection, coll)
	}
	return claims, nil
}

func (a *admin) List(ctx context.Context, coll pages.Collection) ([]string, error) {
	if _, err := a.authorize(ctx, "list pages", coll); err != nil {
		return nil, err
	}
	return a.repo.List(ctx, coll)
}

func (a *admin) Get(ctx context.Context, coll pages.Collection, title string) (*pages.Page, error) {
	if _, err := a.authorize(ctx, "read page", coll); err != nil {
		return nil, err
	}
	return a.repo.Get(ctx, coll, title)
}

func (a *admin) Create(ctx context.Context, coll pages.Collection, page *pages.Page) (*pages.Page, error) {
	claims, err := a.authorize(ctx, "create page", coll)
	if err != nil {
		return nil, err
	}
	record, err := a.input(page, coll)
	if err != nil {
		return nil, err
	}
	if err := a.ensureFree(ctx, record.Title, coll); err != nil {
		return nil, err
	}
	if record.User == "" {
		record.User = claims.UID
	}
	return a.save(ctx, record, "create", claims.UID)
}

func (a *admin) Edit(ctx context.Context, coll pages.Collection, page *pages.Page) (*pages.Page, error) {
	claims, err := a.authorize(ctx, "edit page", coll)
	if err != nil {
		return nil, err
	}
	record, err := a.input(page, coll)
	if err != nil {
		return nil, err
	}
	existing, err := a.repo.Get(ctx, coll, record.Title)
	if err != nil {
		return nil, err
	}
	record.User = existing.User
	return a.save(ctx, record, "update", claims.UID)
}

func (a *admin) Delete(ctx context.Context, coll pages.Collection, title string) error {
	claims, err := a.authorize(ctx, "delete page", coll)
	if err != nil {
		return err
	}
	if _, err := a.repo.Get(ctx, coll, title); err != nil {
		return err
	}
	return a.remove(ctx, coll, title, claims.UID)
}

func (a *admin) Publish(ctx context.Context, page *pages.Page, edit bool) (*pages.Page, error) {
	claims, err := a.authorize(ctx, "publish page", pages.Production)
	if err != nil {
		return nil, err
	}
	record, err := a.input(page, pages.Production)
	if err != nil {
		return nil, err
	}
	existing, err := a.repo.Get(ctx, pages.Production, record.Title)
	switch {
	case err == nil && !edit:
		return nil, &TitleTakenError{Title: record.Title, Collection: pages.Production}
	case err == nil:
		record.User = existing.User
	case !pages.IsNotFound(err):
		return nil, err
	}
	verb := "create"
	if existing != nil {
		verb = "update"
	}
	return a.save(ctx, record, verb, claims.UID)
}

// Published reads the production collection. Reads need no claims.
type Published struct {
	repo pages.Repository
}

func NewPublished(repo pages.Repository) *Published {
	if repo == nil {
		panic("staging: page repository is required")
	}
	return &Published{repo: repo}
}

func (p *Published) List(ctx context.Context) ([]string, error) {
	return p.repo.List(ctx, pages.Production)
}

func (p *Published) Get(ctx context.Context, title string) (*pages.Page, error) {
	return p.repo.Get(ctx, pages.Production, title)
}
