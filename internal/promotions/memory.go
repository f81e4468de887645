package promotions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRecordRepository keeps promotion records in memory.
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
	now     func() time.Time
}

func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{
		records: make(map[uuid.UUID]*Record),
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (m *MemoryRecordRepository) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return record.clone(), nil
}

func (m *MemoryRecordRepository) Put(_ context.Context, record *Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := record.clone()
	now := m.now()
	if existing, ok := m.records[stored.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.records[stored.ID] = stored
	return stored.clone(), nil
}

func (m *MemoryRecordRepository) Open(_ context.Context, title string) (*Record, error) {
	for _, record := range m.unfinished() {
		if record.Title == title {
			return record, nil
		}
	}
	return nil, nil
}

func (m *MemoryRecordRepository) Pending(context.Context) ([]*Record, error) {
	out := m.unfinished()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// unfinished returns open records, newest first.
func (m *MemoryRecordRepository) unfinished() []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Record, 0, len(m.records))
	for _, record := range m.records {
		if record.State != StateCompleted {
			out = append(out, record.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
