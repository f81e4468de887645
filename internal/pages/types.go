package pages

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/goliatone/go-stagecms/internal/identity"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/uptrace/bun"
)

// Collection names a document collection.
type Collection string

const (
	// Production holds published pages.
	Production Collection = "pages"
	// Staging holds drafts awaiting promotion.
	Staging Collection = "staging"
)

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	return c == Production || c == Staging
}

// ParseCollection maps user input to a collection.
func ParseCollection(raw string) (Collection, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "pages", "production", "prod":
		return Production, nil
	case "staging", "drafts":
		return Staging, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, raw)
	}
}

var (
	ErrUnknownCollection = errors.New("pages: unknown collection")
	ErrTitleRequired     = errors.New("pages: title is required")
)

// NotFoundError reports a missing document.
type NotFoundError struct {
	Collection Collection
	Title      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("page %q not found in %s", e.Title, e.Collection)
}

// IsNotFound reports whether err is a missing-document error.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// Page is a persisted content document. Fields align positionally with the
// components of the page schema.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID         uuid.UUID        `bun:",pk,type:uuid" json:"id"`
	Collection Collection       `bun:"collection,notnull" json:"collection"`
	Title      string           `bun:"title,notnull" json:"title"`
	Thumbnail  string           `bun:"thumbnail" json:"thumbnail"`
	ShortDesc  string           `bun:"short_desc" json:"shortDesc"`
	Schema     string           `bun:"schema" json:"schema,omitempty"`
	Tags       []string         `bun:"tags,type:jsonb" json:"tags"`
	Fields     []map[string]any `bun:"fields,type:jsonb" json:"fields"`
	User       string           `bun:"owner_uid" json:"user,omitempty"`
	CreatedAt  time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt  time.Time        `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// PageID is the document id of title within coll.
func PageID(coll Collection, title string) uuid.UUID {
	return identity.PageUUID(string(coll), title)
}

// Repository stores page documents keyed by collection and title.
type Repository interface {
	Get(ctx context.Context, coll Collection, title string) (*Page, error)
	Exists(ctx context.Context, coll Collection, title string) (bool, error)
	List(ctx context.Context, coll Collection) ([]string, error)
	ListByOwner(ctx context.Context, coll Collection, uid string) ([]string, error)
	// Put creates or overwrites the document. Last writer wins.
	Put(ctx context.Context, page *Page) (*Page, error)
	Delete(ctx context.Context, coll Collection, title string) error
}

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips markup from free text.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// Sanitize strips markup from the free-text metadata of p.
func (p *Page) Sanitize() {
	if p == nil {
		return
	}
	p.Title = SanitizeText(p.Title)
	p.ShortDesc = SanitizeText(p.ShortDesc)
	for i, tag := range p.Tags {
		p.Tags[i] = SanitizeText(tag)
	}
}

// Clone deep-copies p.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	out := *p
	out.Tags = append([]string(nil), p.Tags...)
	if p.Fields != nil {
		out.Fields = make([]map[string]any, len(p.Fields))
		for i, field := range p.Fields {
			out.Fields[i] = cloneMap(field)
		}
	}
	return &out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []map[string]any:
		out := make([]map[string]any, len(typed))
		for i, item := range typed {
			out[i] = cloneMap(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return v
	}
}

func prepare(page *Page, existing *Page, now time.Time) (*Page, error) {
	if page == nil || strings.TrimSpace(page.Title) == "" {
		return nil, ErrTitleRequired
	}
	if !page.Collection.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, page.Collection)
	}
	record := page.Clone()
	record.ID = PageID(record.Collection, record.Title)
	if record.Tags == nil {
		record.Tags = []string{}
	}
	if record.Fields == nil {
		record.Fields = []map[string]any{}
	}
	if existing != nil && !existing.CreatedAt.IsZero() {
		record.CreatedAt = existing.CreatedAt
	} else if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	return record, nil
}
