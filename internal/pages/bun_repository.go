package pages

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewPageRepository builds the generic bun repository for pages.
func NewPageRepository(db *bun.DB) repository.Repository[*Page] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Page]{
		NewRecord: func() *Page { return &Page{} },
		GetID: func(p *Page) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Page, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(p *Page) string {
			return p.ID.String()
		},
	})
}

// BunRepository stores pages in a SQL database through bun.
type BunRepository struct {
	repo repository.Repository[*Page]
	now  func() time.Time
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache constructs a Repository backed by bun with optional caching.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunRepository {
	return &BunRepository{
		repo: wrapWithCache(NewPageRepository(db), cacheService, keySerializer),
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (r *BunRepository) Get(ctx context.Context, coll Collection, title string) (*Page, error) {
	record, err := r.repo.GetByID(ctx, PageID(coll, title).String())
	if err != nil {
		return nil, mapRepositoryError(err, coll, title)
	}
	return record, nil
}

func (r *BunRepository) Exists(ctx context.Context, coll Collection, title string) (bool, error) {
	_, err := r.Get(ctx, coll, title)
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (r *BunRepository) List(ctx context.Context, coll Collection) ([]string, error) {
	return r.titles(ctx, coll, "")
}

func (r *BunRepository) ListByOwner(ctx context.Context, coll Collection, uid string) ([]string, error) {
	if uid == "" {
		return []string{}, nil
	}
	return r.titles(ctx, coll, uid)
}

func (r *BunRepository) Put(ctx context.Context, page *Page) (*Page, error) {
	if page == nil {
		return nil, ErrTitleRequired
	}
	existing, err := r.Get(ctx, page.Collection, page.Title)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}
	record, err := prepare(page, existing, r.now())
	if err != nil {
		return nil, err
	}
	if existing == nil {
		created, err := r.repo.Create(ctx, record)
		if err != nil {
			return nil, fmt.Errorf("create page: %w", err)
		}
		return created, nil
	}
	updated, err := r.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"thumbnail",
			"short_desc",
			"schema",
			"tags",
			"fields",
			"owner_uid",
			"updated_at",
		),
	)
	if err != nil {
		return nil, fmt.Errorf("update page: %w", err)
	}
	return updated, nil
}

func (r *BunRepository) Delete(ctx context.Context, coll Collection, title string) error {
	record, err := r.Get(ctx, coll, title)
	if err != nil {
		return err
	}
	if err := r.repo.Delete(ctx, record); err != nil {
		return mapRepositoryError(err, coll, title)
	}
	return nil
}

func (r *BunRepository) titles(ctx context.Context, coll Collection, owner string) ([]string, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.collection = ?", string(coll))
			if owner != "" {
				q = q.Where("?TableAlias.owner_uid = ?", owner)
			}
			return q.OrderExpr("?TableAlias.title ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.Title)
	}
	return out, nil
}

func mapRepositoryError(err error, coll Collection, title string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Collection: coll, Title: title}
	}
	return fmt.Errorf("page repository error: %w", err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
