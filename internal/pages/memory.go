package pages

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory page store for scaffolding/tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	pages map[uuid.UUID]*Page
	now   func() time.Time
}

// NewMemoryRepository constructs the repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		pages: make(map[uuid.UUID]*Page),
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (m *MemoryRepository) Get(_ context.Context, coll Collection, title string) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.pages[PageID(coll, title)]
	if !ok {
		return nil, &NotFoundError{Collection: coll, Title: title}
	}
	return record.Clone(), nil
}

func (m *MemoryRepository) Exists(_ context.Context, coll Collection, title string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.pages[PageID(coll, title)]
	return ok, nil
}

func (m *MemoryRepository) List(_ context.Context, coll Collection) ([]string, error) {
	return m.titles(coll, func(*Page) bool { return true }), nil
}

func (m *MemoryRepository) ListByOwner(_ context.Context, coll Collection, uid string) ([]string, error) {
	return m.titles(coll, func(p *Page) bool { return p.User == uid }), nil
}

func (m *MemoryRepository) Put(_ context.Context, page *Page) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var existing *Page
	if page != nil {
		existing = m.pages[PageID(page.Collection, page.Title)]
	}
	record, err := prepare(page, existing, m.now())
	if err != nil {
		return nil, err
	}
	m.pages[record.ID] = record
	return record.Clone(), nil
}

func (m *MemoryRepository) Delete(_ context.Context, coll Collection, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := PageID(coll, title)
	if _, ok := m.pages[id]; !ok {
		return &NotFoundError{Collection: coll, Title: title}
	}
	delete(m.pages, id)
	return nil
}

func (m *MemoryRepository) titles(coll Collection, keep func(*Page) bool) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.pages))
	for _, record := range m.pages {
		if record.Collection == coll && keep(record) {
			out = append(out, record.Title)
		}
	}
	sort.Strings(out)
	return out
}
