package staging

import (
	"context"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/pages"
)

// Drafts manages pages authored into the staging collection.
type Drafts interface {
	// Create stores a new draft owned by the caller. Titles must be unused
	// in both staging and production.
	Create(ctx context.Context, page *pages.Page) (*pages.Page, error)
	// Edit replaces a draft. Only the owner may edit and ownership never
	// changes.
	Edit(ctx context.Context, page *pages.Page) (*pages.Page, error)
	Delete(ctx context.Context, title string) error
	ListOwn(ctx context.Context) ([]string, error)
	Get(ctx context.Context, title string) (*pages.Page, error)
}

type drafts struct {
	core
}

func NewDrafts(repo pages.Repository, opts ...Option) Drafts {
	return &drafts{core: newCore(repo, opts)}
}

func (d *drafts) Create(ctx context.Context, page *pages.Page) (*pages.Page, error) {
	claims, err := access.RequireUser(ctx, "create draft")
	if err != nil {
		return nil, err
	}
	record, err := d.input(page, pages.Staging)
	if err != nil {
		return nil, err
	}
	if err := d.ensureFree(ctx, record.Title, pages.Staging, pages.Production); err != nil {
		return nil, err
	}
	record.User = claims.UID
	return d.save(ctx, record, "create", claims.UID)
}

func (d *drafts) Edit(ctx context.Context, page *pages.Page) (*pages.Page, error) {
	if _, err := access.RequireUser(ctx, "edit draft"); err != nil {
		return nil, err
	}
	record, err := d.input(page, pages.Staging)
	if err != nil {
		return nil, err
	}
	existing, err := d.repo.Get(ctx, pages.Staging, record.Title)
	if err != nil {
		return nil, err
	}
	claims, err := access.RequireOwner(ctx, "edit draft", existing.User)
	if err != nil {
		return nil, err
	}
	record.User = existing.User
	return d.save(ctx, record, "update", claims.UID)
}

func (d *drafts) Delete(ctx context.Context, title string) error {
	if _, err := access.RequireUser(ctx, "delete draft"); err != nil {
		return err
	}
	existing, err := d.repo.Get(ctx, pages.Staging, title)
	if err != nil {
		return err
	}
	claims, err := access.RequireOwnerOrAdmin(ctx, "delete draft", existing.User)
	if err != nil {
		return err
	}
	return d.remove(ctx, pages.Staging, existing.Title, claims.UID)
}

func (d *drafts) ListOwn(ctx context.Context) ([]string, error) {
	claims, err := access.RequireUser(ctx, "list drafts")
	if err != nil {
		return nil, err
	}
	return d.repo.ListByOwner(ctx, pages.Staging, claims.UID)
}

func (d *drafts) Get(ctx context.Context, title string) (*pages.Page, error) {
	if _, err := access.RequireUser(ctx, "read draft"); err != nil {
		return nil, err
	}
	existing, err := d.repo.Get(ctx, pages.Staging, title)
	if err != nil {
		return nil, err
	}
	if _, err := access.RequireOwnerOrAdmin(ctx, "read draft", existing.User); err != nil {
		return nil, err
	}
	return existing, nil
}
