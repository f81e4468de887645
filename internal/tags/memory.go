package tags

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory tag store.
type MemoryRepository struct {
	mu   sync.RWMutex
	tags map[string]Tag
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tags: map[string]Tag{}}
}

func (m *MemoryRepository) List(context.Context) ([]Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Tag, 0, len(m.tags))
	for _, tag := range m.tags {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepository) Get(_ context.Context, name string) (*Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tag, ok := m.tags[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return &tag, nil
}

func (m *MemoryRepository) Put(_ context.Context, tag Tag) (*Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	tag.ID = TagID(tag.Name)
	if existing, ok := m.tags[tag.Name]; ok {
		tag.CreatedAt = existing.CreatedAt
	} else {
		tag.CreatedAt = now
	}
	tag.UpdatedAt = now
	m.tags[tag.Name] = tag
	return &tag, nil
}

func (m *MemoryRepository) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tags[name]; !ok {
		return &NotFoundError{Name: name}
	}
	delete(m.tags, name)
	return nil
}
