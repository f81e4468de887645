package tags

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-stagecms/internal/identity"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrNameRequired = errors.New("tags: tag name is required")
	ErrTagExists    = errors.New("tags: tag already exists")
	ErrTagNotFound  = errors.New("tags: tag not found")
)

// Tag is a label with a free-text category. The name is the natural key.
type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"-"`
	Name      string    `bun:"name,notnull,unique" json:"name"`
	Category  string    `bun:"category" json:"category"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"-"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"-"`
}

// TagID is the record id of name.
func TagID(name string) uuid.UUID {
	return identity.TagUUID(name)
}

// NotFoundError names the missing tag.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tag %q does not exist", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrTagNotFound
}

// ExistsError names a tag that is already defined.
type ExistsError struct {
	Name string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("tag %q already exists; set edit to change it", e.Name)
}

func (e *ExistsError) Is(target error) bool {
	return target == ErrTagExists
}

// Repository stores tags.
type Repository interface {
	List(ctx context.Context) ([]Tag, error)
	Get(ctx context.Context, name string) (*Tag, error)
	Put(ctx context.Context, tag Tag) (*Tag, error)
	Delete(ctx context.Context, name string) error
}
