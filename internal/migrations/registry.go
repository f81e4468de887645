// Package migrations creates the tables and indexes the bun repositories use.
package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/pages"
	"github.com/goliatone/go-stagecms/internal/promotions"
	"github.com/goliatone/go-stagecms/internal/tags"
	"github.com/uptrace/bun"
)

var ErrInvalidStep = errors.New("migrations: step requires a name and a model")

// Index is a secondary index on a model table.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Step creates one table and its indexes.
type Step struct {
	Name    string
	Model   any
	Indexes []Index
}

// Registry keeps migration steps in registration order.
type Registry struct {
	mu    sync.RWMutex
	steps []Step
	names map[string]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: map[string]struct{}{}}
}

// Default returns the registry for every stored model.
func Default() *Registry {
	r := NewRegistry()
	for _, step := range []Step{
		{
			Name:  "pages",
			Model: (*pages.Page)(nil),
			Indexes: []Index{
				{Name: "pages_collection_title_idx", Columns: []string{"collection", "title"}, Unique: true},
				{Name: "pages_owner_idx", Columns: []string{"collection", "owner_uid"}},
			},
		},
		{Name: "tags", Model: (*tags.Tag)(nil)},
		{Name: "allowed_emails", Model: (*access.AllowedEmail)(nil)},
		{Name: "users", Model: (*access.User)(nil)},
		{
			Name:    "promotions",
			Model:   (*promotions.Record)(nil),
			Indexes: []Index{{Name: "promotions_state_idx", Columns: []string{"state", "created_at"}}},
		},
	} {
		if err := r.Register(step); err != nil {
			panic(err)
		}
	}
	return r
}

// Register appends a step. Names must be unique.
func (r *Registry) Register(step Step) error {
	step.Name = strings.TrimSpace(step.Name)
	if r == nil || step.Name == "" || step.Model == nil {
		return ErrInvalidStep
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[step.Name]; ok {
		return fmt.Errorf("migrations: step %q already registered", step.Name)
	}
	r.names[step.Name] = struct{}{}
	r.steps = append(r.steps, step)
	return nil
}

// Steps lists the registered step names in order.
func (r *Registry) Steps() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.steps))
	for _, step := range r.steps {
		out = append(out, step.Name)
	}
	return out
}

// Apply creates every missing table and index inside one transaction.
// Existing objects are left untouched.
func (r *Registry) Apply(ctx context.Context, db bun.IDB) error {
	if db == nil {
		return errors.New("migrations: database required")
	}
	r.mu.RLock()
	steps := append([]Step(nil), r.steps...)
	r.mu.RUnlock()

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, step := range steps {
			if _, err := tx.NewCreateTable().Model(step.Model).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("migrations: create %s: %w", step.Name, err)
			}
			for _, idx := range step.Indexes {
				q := tx.NewCreateIndex().Model(step.Model).Index(idx.Name).Column(idx.Columns...).IfNotExists()
				if idx.Unique {
					q = q.Unique()
				}
				if _, err := q.Exec(ctx); err != nil {
					return fmt.Errorf("migrations: index %s: %w", idx.Name, err)
				}
			}
		}
		return nil
	})
}
