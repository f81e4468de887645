package promotions

import (
	"context"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewRecordRepository builds the generic bun repository for promotion
// records.
func NewRecordRepository(db *bun.DB) repository.Repository[*Record] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Record]{
		NewRecord: func() *Record { return &Record{} },
		GetID: func(r *Record) uuid.UUID {
			return r.ID
		},
		SetID: func(r *Record, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(r *Record) string {
			return r.ID.String()
		},
	})
}

// BunRecordRepository stores promotion records through bun.
type BunRecordRepository struct {
	repo repository.Repository[*Record]
	now  func() time.Time
}

func NewBunRecordRepository(db *bun.DB) *BunRecordRepository {
	return &BunRecordRepository{
		repo: NewRecordRepository(db),
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (r *BunRecordRepository) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("promotion repository error: %w", err)
	}
	return record, nil
}

func (r *BunRecordRepository) Put(ctx context.Context, record *Record) (*Record, error) {
	existing, err := r.Get(ctx, record.ID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}
	stored := record.clone()
	now := r.now()
	stored.UpdatedAt = now
	if existing == nil {
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		created, err := r.repo.Create(ctx, stored)
		if err != nil {
			return nil, fmt.Errorf("create promotion: %w", err)
		}
		return created, nil
	}
	stored.CreatedAt = existing.CreatedAt
	updated, err := r.repo.Update(ctx, stored,
		repository.UpdateByID(stored.ID.String()),
		repository.UpdateColumns("state", "images", "moved", "error", "updated_at"),
	)
	if err != nil {
		return nil, fmt.Errorf("update promotion: %w", err)
	}
	return updated, nil
}

func (r *BunRecordRepository) Open(ctx context.Context, title string) (*Record, error) {
	records, err := r.unfinished(ctx, title, "DESC")
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

func (r *BunRecordRepository) Pending(ctx context.Context) ([]*Record, error) {
	return r.unfinished(ctx, "", "ASC")
}

func (r *BunRecordRepository) unfinished(ctx context.Context, title, order string) ([]*Record, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.state != ?", string(StateCompleted))
			if title != "" {
				q = q.Where("?TableAlias.title = ?", title)
			}
			return q.OrderExpr("?TableAlias.created_at " + order)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	return records, nil
}
