package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrSchemaNotFound   = errors.New("schema: not found")
	ErrSchemaUnresolved = errors.New("schema: cannot determine schema for page")
	ErrInvalidSchemaID  = errors.New("schema: invalid schema id")
)

// NotFoundError is returned when a schema id cannot be resolved.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("schema %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrSchemaNotFound
}

// Registry resolves schema ids to schemas. Schemas returned by a registry
// must be treated as immutable.
type Registry interface {
	Get(ctx context.Context, id string) (*Schema, error)
	List(ctx context.Context) ([]Summary, error)
}

// MemoryRegistry keeps schemas in memory.
type MemoryRegistry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewMemoryRegistry constructs a registry seeded with the provided schemas.
func NewMemoryRegistry(schemas ...*Schema) *MemoryRegistry {
	r := &MemoryRegistry{schemas: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		r.Put(s)
	}
	return r
}

// Put registers or replaces s.
func (r *MemoryRegistry) Put(s *Schema) {
	if s == nil || strings.TrimSpace(s.ID) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[s.ID] = s
}

func (r *MemoryRegistry) Get(_ context.Context, id string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return s, nil
}

func (r *MemoryRegistry) List(context.Context) ([]Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.schemas))
	for _, s := range r.schemas {
		out = append(out, s.Summary())
	}
	sortSummaries(out)
	return out, nil
}

func sortSummaries(items []Summary) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

// DefaultTagSchemas maps page tags to the schema inferred for untyped pages.
var DefaultTagSchemas = []TagSchema{
	{Tag: "Builds", Schema: "builds"},
	{Tag: "Foundations", Schema: "foundations"},
}

// TagSchema maps a page tag to a schema id.
type TagSchema struct {
	Tag    string `yaml:"tag" json:"tag"`
	Schema string `yaml:"schema" json:"schema"`
}

// Resolver determines the content schema of a stored page.
type Resolver struct {
	registry Registry
	tags     []TagSchema
}

// NewResolver builds a resolver. Tag mappings are consulted in order.
func NewResolver(registry Registry, tags []TagSchema) *Resolver {
	if registry == nil {
		panic("schema: resolver requires a registry")
	}
	if tags == nil {
		tags = DefaultTagSchemas
	}
	return &Resolver{registry: registry, tags: tags}
}

// ForPage returns the explicit schema when set, otherwise the schema mapped
// from the first matching tag.
func (r *Resolver) ForPage(ctx context.Context, explicit string, tags []string) (*Schema, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return r.registry.Get(ctx, id)
	}
	for _, mapping := range r.tags {
		for _, tag := range tags {
			if tag == mapping.Tag {
				return r.registry.Get(ctx, mapping.Schema)
			}
		}
	}
	return nil, ErrSchemaUnresolved
}

// Registry exposes the backing registry.
func (r *Resolver) Registry() Registry {
	return r.registry
}
