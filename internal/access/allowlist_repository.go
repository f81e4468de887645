package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AllowListRepository stores allow-list entries keyed by normalized email.
type AllowListRepository interface {
	List(ctx context.Context) ([]AllowedEmail, error)
	Get(ctx context.Context, email string) (*AllowedEmail, error)
	Put(ctx context.Context, entry AllowedEmail) error
	Delete(ctx context.Context, email string) error
	// Take removes and returns the entry. Concurrent takers of one entry see
	// ErrEmailNotAllowed for all but one call.
	Take(ctx context.Context, email string) (*AllowedEmail, error)
}

// MemoryAllowList is an in-memory AllowListRepository.
type MemoryAllowList struct {
	mu      sync.Mutex
	entries map[string]AllowedEmail
}

func NewMemoryAllowList() *MemoryAllowList {
	return &MemoryAllowList{entries: map[string]AllowedEmail{}}
}

func (m *MemoryAllowList) List(context.Context) ([]AllowedEmail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AllowedEmail, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *MemoryAllowList) Get(_ context.Context, email string) (*AllowedEmail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[NormalizeEmail(email)]
	if !ok {
		return nil, ErrEmailNotAllowed
	}
	return &entry, nil
}

func (m *MemoryAllowList) Put(_ context.Context, entry AllowedEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.Email = NormalizeEmail(entry.Email)
	entry.ID = AllowedEmailID(entry.Email)
	if existing, ok := m.entries[entry.Email]; ok {
		entry.CreatedAt = existing.CreatedAt
	} else if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.entries[entry.Email] = entry
	return nil
}

func (m *MemoryAllowList) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, NormalizeEmail(email))
	return nil
}

func (m *MemoryAllowList) Take(_ context.Context, email string) (*AllowedEmail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := NormalizeEmail(email)
	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrEmailNotAllowed
	}
	delete(m.entries, key)
	return &entry, nil
}

func NewAllowedEmailRepository(db *bun.DB) repository.Repository[*AllowedEmail] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*AllowedEmail]{
		NewRecord: func() *AllowedEmail { return &AllowedEmail{} },
		GetID: func(e *AllowedEmail) uuid.UUID {
			return e.ID
		},
		SetID: func(e *AllowedEmail, id uuid.UUID) {
			e.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
		GetIdentifierValue: func(e *AllowedEmail) string {
			return e.Email
		},
	})
}

// BunAllowList stores the allow-list through bun.
type BunAllowList struct {
	db   *bun.DB
	repo repository.Repository[*AllowedEmail]
}

func NewBunAllowList(db *bun.DB) *BunAllowList {
	return &BunAllowList{db: db, repo: NewAllowedEmailRepository(db)}
}

func (r *BunAllowList) List(ctx context.Context) ([]AllowedEmail, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.email ASC")
	}))
	if err != nil {
		return nil, fmt.Errorf("list allowed emails: %w", err)
	}
	out := make([]AllowedEmail, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}
	return out, nil
}

func (r *BunAllowList) Get(ctx context.Context, email string) (*AllowedEmail, error) {
	record, err := r.repo.GetByID(ctx, AllowedEmailID(email).String())
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, ErrEmailNotAllowed
		}
		return nil, fmt.Errorf("get allowed email: %w", err)
	}
	return record, nil
}

func (r *BunAllowList) Put(ctx context.Context, entry AllowedEmail) error {
	entry.Email = NormalizeEmail(entry.Email)
	entry.ID = AllowedEmailID(entry.Email)
	if _, err := r.Get(ctx, entry.Email); err == nil {
		_, err := r.repo.Update(ctx, &entry,
			repository.UpdateByID(entry.ID.String()),
			repository.UpdateColumns("admin"),
		)
		return err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.repo.Create(ctx, &entry)
	return err
}

func (r *BunAllowList) Delete(ctx context.Context, email string) error {
	_, err := r.db.NewDelete().
		Model((*AllowedEmail)(nil)).
		Where("?TableAlias.id = ?", AllowedEmailID(email)).
		Exec(ctx)
	return err
}

func (r *BunAllowList) Take(ctx context.Context, email string) (*AllowedEmail, error) {
	var taken *AllowedEmail
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		entry := new(AllowedEmail)
		if err := tx.NewSelect().Model(entry).Where("?TableAlias.id = ?", AllowedEmailID(email)).Limit(1).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEmailNotAllowed
			}
			return fmt.Errorf("select allowed email: %w", err)
		}
		result, err := tx.NewDelete().Model((*AllowedEmail)(nil)).Where("?TableAlias.id = ?", entry.ID).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete allowed email: %w", err)
		}
		if affected, err := result.RowsAffected(); err != nil || affected == 0 {
			return ErrEmailNotAllowed
		}
		taken = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return taken, nil
}
