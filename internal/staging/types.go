package staging

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/forms"
	"github.com/goliatone/go-stagecms/internal/logging"
	"github.com/goliatone/go-stagecms/internal/pages"
	"github.com/goliatone/go-stagecms/pkg/activity"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

// ErrTitleTaken is returned when a page title is already in use.
var ErrTitleTaken = errors.New("staging: title already exists")

// TitleTakenError names the collection holding the conflicting page.
type TitleTakenError struct {
	Title      string
	Collection pages.Collection
}

func (e *TitleTakenError) Error() string {
	return fmt.Sprintf("page %q already exists in %s", e.Title, e.Collection)
}

func (e *TitleTakenError) Is(target error) bool {
	return target == ErrTitleTaken
}

// Option customises the draft and admin services.
type Option func(*core)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *core) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithActivityEmitter wires the emitter used for page activity.
func WithActivityEmitter(emitter *activity.Emitter) Option {
	return func(c *core) {
		if emitter != nil {
			c.activity = emitter
		}
	}
}

// WithWritesEnabled toggles persistence. When disabled, mutations validate
// and authorize, then return access.ErrWritesDisabled.
func WithWritesEnabled(enabled bool) Option {
	return func(c *core) {
		c.writes = enabled
	}
}

// WithShortDescLimit overrides the short description limit. Zero disables
// the check.
func WithShortDescLimit(limit int) Option {
	return func(c *core) {
		if limit >= 0 {
			c.maxShortDesc = limit
		}
	}
}

type core struct {
	repo         pages.Repository
	logger       interfaces.Logger
	activity     *activity.Emitter
	writes       bool
	maxShortDesc int
}

func newCore(repo pages.Repository, opts []Option) core {
	if repo == nil {
		panic("staging: page repository is required")
	}
	c := core{
		repo:         repo,
		logger:       logging.NoOp(),
		activity:     activity.NewEmitter(nil, activity.Config{}),
		writes:       true,
		maxShortDesc: forms.MaxShortDescLength,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c
}

// input copies page into coll with its metadata sanitized and checked.
func (c *core) input(page *pages.Page, coll pages.Collection) (*pages.Page, error) {
	if page == nil {
		return nil, pages.ErrTitleRequired
	}
	record := page.Clone()
	record.Collection = coll
	record.Sanitize()
	if record.Title == "" {
		return nil, pages.ErrTitleRequired
	}
	if c.maxShortDesc > 0 && utf8.RuneCountInString(record.ShortDesc) > c.maxShortDesc {
		return nil, fmt.Errorf("%w: %d characters allowed", forms.ErrShortDescTooLong, c.maxShortDesc)
	}
	return record, nil
}

func (c *core) ensureFree(ctx context.Context, title string, colls ...pages.Collection) error {
	for _, coll := range colls {
		exists, err := c.repo.Exists(ctx, coll, title)
		if err != nil {
			return err
		}
		if exists {
			return &TitleTakenError{Title: title, Collection: coll}
		}
	}
	return nil
}

func (c *core) save(ctx context.Context, record *pages.Page, verb, actor string) (*pages.Page, error) {
	if !c.writes {
		return nil, access.ErrWritesDisabled
	}
	saved, err := c.repo.Put(ctx, record)
	if err != nil {
		logging.WithPageContext(c.logger, verb, record.Title, string(record.Collection)).Error("staging.put_failed", "error", err)
		return nil, err
	}
	c.emit(ctx, verb, actor, saved.Collection, saved.Title)
	return saved, nil
}

func (c *core) remove(ctx context.Context, coll pages.Collection, title, actor string) error {
	if !c.writes {
		return access.ErrWritesDisabled
	}
	if err := c.repo.Delete(ctx, coll, title); err != nil {
		logging.WithPageContext(c.logger, "delete", title, string(coll)).Error("staging.delete_failed", "error", err)
		return err
	}
	c.emit(ctx, "delete", actor, coll, title)
	return nil
}

func (c *core) emit(ctx context.Context, verb, actor string, coll pages.Collection, title string) {
	c.logger.Info("staging."+verb, "title", title, "collection", coll, "actor", actor)
	if c.activity == nil || !c.activity.Enabled() {
		return
	}
	_ = c.activity.Emit(ctx, activity.Event{
		Verb:       verb,
		ActorID:    actor,
		ObjectType: "page",
		ObjectID:   title,
		Metadata:   map[string]any{"collection": string(coll)},
	})
}

// FromSubmission converts an assembled submission into a page document.
func FromSubmission(sub *forms.Submission) *pages.Page {
	if sub == nil {
		return nil
	}
	fields := make([]map[string]any, 0, len(sub.Fields))
	for _, field := range sub.Fields {
		fields = append(fields, map[string]any(field))
	}
	return &pages.Page{
		Title:     sub.Title,
		Thumbnail: sub.Thumbnail,
		ShortDesc: sub.ShortDesc,
		Schema:    sub.Schema,
		Tags:      append([]string(nil), sub.Tags...),
		Fields:    fields,
	}
}
