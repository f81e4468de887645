package promotions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service moves staging pages, and the images they reference, to
// production.
type Service interface {
	// Promote publishes the staging page title. An unfinished promotion of
	// the same title is resumed instead of starting over.
	Promote(ctx context.Context, title string) (*Result, error)
	// Resume retries an interrupted promotion, skipping images already moved.
	Resume(ctx context.Context, id uuid.UUID) (*Result, error)
	// Pending lists promotions that have not completed.
	Pending(ctx context.Context) ([]*Record, error)
}

// State tracks a promotion through its steps.
type State string

const (
	StatePending   State = "pending"
	StateFailed    State = "failed"
	StateCompleted State = "completed"
)

var (
	ErrRecordNotFound  = errors.New("promotions: record not found")
	ErrAlreadyComplete = errors.New("promotions: promotion already completed")
)

// Record is the intent log entry of one promotion. Images holds the staging
// object names the page references; Moved the subset already in production.
type Record struct {
	bun.BaseModel `bun:"table:promotions,alias:pr"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	State     State     `bun:"state,notnull" json:"state"`
	Images    []string  `bun:"images,type:jsonb" json:"images"`
	Moved     []string  `bun:"moved,type:jsonb" json:"moved"`
	Error     string    `bun:"error" json:"error,omitempty"`
	Actor     string    `bun:"actor_uid" json:"actor,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

func (r *Record) clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Images = append([]string{}, r.Images...)
	out.Moved = append([]string{}, r.Moved...)
	return &out
}

func (r *Record) moved() map[string]bool {
	out := make(map[string]bool, len(r.Moved))
	for _, name := range r.Moved {
		out[name] = true
	}
	return out
}

// track appends names not yet listed in Images and returns how many were
// added.
func (r *Record) track(names []string) int {
	known := make(map[string]bool, len(r.Images))
	for _, name := range r.Images {
		known[name] = true
	}
	added := 0
	for _, name := range names {
		if !known[name] {
			known[name] = true
			r.Images = append(r.Images, name)
			added++
		}
	}
	return added
}

// Result reports a finished promotion.
type Result struct {
	Record      *Record  `json:"record"`
	MovedImages []string `json:"movedImages"`
}

// NotFoundError reports a missing promotion record.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("promotion %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// FailedError reports a promotion that stopped part way. The record keeps
// the progress so the promotion can be resumed.
type FailedError struct {
	RecordID uuid.UUID
	Title    string
	Err      error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("promotion of %q failed (record %s): %v", e.Title, e.RecordID, e.Err)
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// RecordRepository persists promotion records.
type RecordRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	Put(ctx context.Context, record *Record) (*Record, error)
	// Open returns the newest unfinished record for title, or nil.
	Open(ctx context.Context, title string) (*Record, error)
	Pending(ctx context.Context) ([]*Record, error)
}
