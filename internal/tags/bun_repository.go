package tags

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

func NewTagRepository(db *bun.DB) repository.Repository[*Tag] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Tag]{
		NewRecord: func() *Tag { return &Tag{} },
		GetID: func(t *Tag) uuid.UUID {
			return t.ID
		},
		SetID: func(t *Tag, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
		GetIdentifierValue: func(t *Tag) string {
			return t.Name
		},
	})
}

// BunRepository stores tags through bun.
type BunRepository struct {
	repo repository.Repository[*Tag]
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache constructs a tag Repository backed by bun with optional caching.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunRepository {
	base := NewTagRepository(db)
	if cacheService != nil && keySerializer != nil {
		base = repositorycache.New(base, cacheService, keySerializer)
	}
	return &BunRepository{repo: base}
}

func (r *BunRepository) List(ctx context.Context) ([]Tag, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.name ASC")
	}))
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	out := make([]Tag, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}
	return out, nil
}

func (r *BunRepository) Get(ctx context.Context, name string) (*Tag, error) {
	record, err := r.repo.GetByID(ctx, TagID(name).String())
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, fmt.Errorf("tag repository error: %w", err)
	}
	return record, nil
}

func (r *BunRepository) Put(ctx context.Context, tag Tag) (*Tag, error) {
	now := time.Now().UTC()
	tag.ID = TagID(tag.Name)
	tag.UpdatedAt = now
	if _, err := r.Get(ctx, tag.Name); err == nil {
		return r.repo.Update(ctx, &tag,
			repository.UpdateByID(tag.ID.String()),
			repository.UpdateColumns("category", "updated_at"),
		)
	}
	tag.CreatedAt = now
	return r.repo.Create(ctx, &tag)
}

func (r *BunRepository) Delete(ctx context.Context, name string) error {
	record, err := r.Get(ctx, name)
	if err != nil {
		return err
	}
	return r.repo.Delete(ctx, record)
}
