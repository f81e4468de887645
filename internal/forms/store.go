package forms

import (
	"github.com/goliatone/go-stagecms/internal/schema"
)

// Store maps component ids to their current values for one editing session.
type Store struct {
	values map[string]InputField
}

// NewStore returns an empty store, the starting point for a new document.
func NewStore() *Store {
	return &Store{values: make(map[string]InputField)}
}

// Hydrate seeds a store from stored fields paired positionally with the
// schema components. A field is kept only when it carries every fixed extra
// property of its component; otherwise the component starts empty.
func Hydrate(s *schema.Schema, fields []InputField) *Store {
	store := NewStore()
	if s == nil {
		return store
	}
	for i, field := range fields {
		if i >= len(s.Components) {
			break
		}
		component := s.Components[i]
		if component == nil || field == nil {
			continue
		}
		if component.Matches(field) {
			store.values[component.ID] = Clone(field)
		}
	}
	return store
}

// Get returns a copy of the value stored for id.
func (s *Store) Get(id string) (InputField, bool) {
	v, ok := s.values[id]
	if !ok {
		return nil, false
	}
	return Clone(v), true
}

// Has reports whether id has a value.
func (s *Store) Has(id string) bool {
	_, ok := s.values[id]
	return ok
}

// Set replaces the value for id.
func (s *Store) Set(id string, value InputField) {
	s.values[id] = Clone(value)
}

// Delete clears the value for id.
func (s *Store) Delete(id string) {
	delete(s.values, id)
}

// Values returns a deep copy of every stored value.
func (s *Store) Values() map[string]InputField {
	out := make(map[string]InputField, len(s.values))
	for id, value := range s.values {
		out[id] = Clone(value)
	}
	return out
}

// Len returns the number of components holding a value.
func (s *Store) Len() int {
	return len(s.values)
}

func (s *Store) raw(id string) (InputField, bool) {
	v, ok := s.values[id]
	return v, ok
}
