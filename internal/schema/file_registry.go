package schema

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-stagecms/internal/logging"
	"github.com/goliatone/go-stagecms/internal/validation"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

const documentExt = ".json"

// documentSchema describes the structure every schema file must follow.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["components"],
  "properties": {
    "id": {"type": "string"},
    "name": {"type": "string"},
    "description": {"type": "string"},
    "components": {"type": "array", "items": {"$ref": "#/$defs/field"}}
  },
  "$defs": {
    "field": {
      "type": "object",
      "required": ["id", "type"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "type": {"enum": ["hidden", "text", "image", "iframe", "parsons", "page_list", "open_field_list"]},
        "name": {"type": "string"},
        "description": {"type": "string"},
        "binding": {"type": "string", "minLength": 1},
        "extra_properties": {"type": "object", "additionalProperties": {"type": "string"}},
        "extra_inputs": {"type": "array", "items": {"$ref": "#/$defs/field"}},
        "choices": {"type": "array", "items": {"$ref": "#/$defs/field"}},
        "transform": {
          "oneOf": [
            {"type": "string"},
            {"type": "array", "items": {"type": "string"}}
          ]
        }
      }
    }
  }
}`

var documentValidator = validation.MustCompile([]byte(documentSchema))

// DocumentError reports a schema file that failed structural validation.
type DocumentError struct {
	ID  string
	Err error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("schema %q is malformed: %v", e.ID, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Issues returns the individual validation failures.
func (e *DocumentError) Issues() []validation.ValidationIssue {
	return validation.Issues(e.Err)
}

// ValidateDocument checks raw against the schema document structure and
// decodes it.
func ValidateDocument(id string, raw []byte) (*Schema, error) {
	if err := documentValidator.ValidateJSON(raw); err != nil {
		return nil, &DocumentError{ID: id, Err: err}
	}
	s, err := Decode(raw)
	if err != nil {
		return nil, &DocumentError{ID: id, Err: err}
	}
	if s.ID == "" {
		s.ID = id
	}
	return s, nil
}

// FileRegistryOption customises a FileRegistry.
type FileRegistryOption func(*FileRegistry)

// WithLogger overrides the registry logger.
func WithLogger(logger interfaces.Logger) FileRegistryOption {
	return func(r *FileRegistry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// FileRegistry loads schemas from <dir>/<id>.json and caches them until the
// file changes.
type FileRegistry struct {
	dir    string
	logger interfaces.Logger

	mu    sync.RWMutex
	cache map[string]*Schema
}

// NewFileRegistry constructs a registry rooted at dir.
func NewFileRegistry(dir string, opts ...FileRegistryOption) *FileRegistry {
	r := &FileRegistry{
		dir:    dir,
		logger: logging.NoOp(),
		cache:  make(map[string]*Schema),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Dir returns the directory the registry reads from.
func (r *FileRegistry) Dir() string {
	return r.dir
}

func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

func (r *FileRegistry) Get(ctx context.Context, id string) (*Schema, error) {
	id = strings.TrimSpace(id)
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSchemaID, id)
	}
	r.mu.RLock()
	cached, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Join(r.dir, id+documentExt))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("schema: read %q: %w", id, err)
	}
	s, err := ValidateDocument(id, raw)
	if err != nil {
		r.logger.Warn("schema.document.invalid", "schema_id", id, "error", err)
		return nil, err
	}

	r.mu.Lock()
	r.cache[id] = s
	r.mu.Unlock()
	r.logger.Debug("schema.loaded", "schema_id", id, "components", len(s.Components))
	return s, nil
}

// List returns every loadable schema in the directory. Malformed files are
// logged and skipped.
func (r *FileRegistry) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("schema: list %q: %w", r.dir, err)
	}
	out := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != documentExt {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), documentExt)
		s, err := r.Get(ctx, id)
		if err != nil {
			var docErr *DocumentError
			if errors.As(err, &docErr) {
				continue
			}
			return nil, err
		}
		out = append(out, s.Summary())
	}
	sortSummaries(out)
	return out, nil
}

// Invalidate drops the cached copy of id.
func (r *FileRegistry) Invalidate(id string) {
	r.mu.Lock()
	delete(r.cache, id)
	r.mu.Unlock()
}

// Watch evicts cached schemas whenever their files change. It blocks until
// ctx is cancelled.
func (r *FileRegistry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("schema: watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.dir); err != nil {
		return fmt.Errorf("schema: watch %q: %w", r.dir, err)
	}
	r.logger.Info("schema.watch.started", "dir", r.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != documentExt {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				id := strings.TrimSuffix(filepath.Base(event.Name), documentExt)
				r.Invalidate(id)
				r.logger.Debug("schema.invalidated", "schema_id", id, "op", event.Op.String())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("schema.watch.error", "error", err)
		}
	}
}
