package promotions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/blobs"
	"github.com/goliatone/go-stagecms/internal/logging"
	"github.com/goliatone/go-stagecms/internal/pages"
	"github.com/goliatone/go-stagecms/internal/schema"
	"github.com/goliatone/go-stagecms/pkg/activity"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel image moves.
const DefaultConcurrency = 4

// ServiceOption customises the promotion service.
type ServiceOption func(*service)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithActivityEmitter wires the activity emitter used for promotion records.
func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *service) {
		if emitter != nil {
			s.activity = emitter
		}
	}
}

// WithClock overrides the clock used for timestamps.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides the record id generator.
func WithIDGenerator(generator func() uuid.UUID) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.newID = generator
		}
	}
}

// WithConcurrency bounds how many images move at once.
func WithConcurrency(n int) ServiceOption {
	return func(s *service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithWritesEnabled toggles persistence. When disabled, Promote validates
// and authorizes, then returns access.ErrWritesDisabled.
func WithWritesEnabled(enabled bool) ServiceOption {
	return func(s *service) {
		s.writes = enabled
	}
}

type service struct {
	pages       pages.Repository
	blobs       blobs.Store
	locator     blobs.Locator
	resolver    *schema.Resolver
	records     RecordRepository
	logger      interfaces.Logger
	activity    *activity.Emitter
	now         func() time.Time
	newID       func() uuid.UUID
	concurrency int
	writes      bool
}

func NewService(pageRepo pages.Repository, store blobs.Store, locator blobs.Locator, resolver *schema.Resolver, records RecordRepository, opts ...ServiceOption) Service {
	if pageRepo == nil || store == nil || resolver == nil || records == nil {
		panic("promotions: page repository, blob store, schema resolver and record repository are required")
	}
	s := &service{
		pages:       pageRepo,
		blobs:       store,
		locator:     locator,
		resolver:    resolver,
		records:     records,
		logger:      logging.NoOp(),
		activity:    activity.NewEmitter(nil, activity.Config{}),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.New,
		concurrency: DefaultConcurrency,
		writes:      true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *service) Promote(ctx context.Context, title string) (*Result, error) {
	claims, err := access.RequireAdmin(ctx, "promote page")
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pages.ErrTitleRequired
	}
	logger := logging.WithPageContext(s.logger, "promote", title, string(pages.Staging))

	open, err := s.records.Open(ctx, title)
	if err != nil {
		return nil, err
	}
	if open != nil {
		if !s.writes {
			return nil, access.ErrWritesDisabled
		}
		logger.Info("promotions.resume_open", "record_id", open.ID)
		return s.run(ctx, open, claims)
	}

	page, err := s.pages.Get(ctx, pages.Staging, title)
	if err != nil {
		return nil, err
	}
	images, err := s.stagingImages(ctx, page)
	if err != nil {
		return nil, err
	}
	if !s.writes {
		return nil, access.ErrWritesDisabled
	}

	record, err := s.records.Put(ctx, &Record{
		ID:     s.newID(),
		Title:  page.Title,
		State:  StatePending,
		Images: images,
		Moved:  []string{},
		Actor:  claims.UID,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("promotions.started", "record_id", record.ID, "images", len(images))
	return s.run(ctx, record, claims)
}

func (s *service) Resume(ctx context.Context, id uuid.UUID) (*Result, error) {
	claims, err := access.RequireAdmin(ctx, "resume promotion")
	if err != nil {
		return nil, err
	}
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.State == StateCompleted {
		return nil, ErrAlreadyComplete
	}
	if !s.writes {
		return nil, access.ErrWritesDisabled
	}
	return s.run(ctx, record, claims)
}

func (s *service) Pending(ctx context.Context) ([]*Record, error) {
	if _, err := access.RequireAdmin(ctx, "list promotions"); err != nil {
		return nil, err
	}
	return s.records.Pending(ctx)
}

// run drives record to completion. Every image is moved before the
// production page is written, and the staging page is deleted last.
func (s *service) run(ctx context.Context, record *Record, claims access.Claims) (*Result, error) {
	page, err := s.pages.Get(ctx, pages.Staging, record.Title)
	if err != nil {
		if !pages.IsNotFound(err) {
			return nil, s.fail(ctx, record, err)
		}
		// Only the final delete had happened when a staging page is gone but
		// the production page exists.
		if exists, existsErr := s.pages.Exists(ctx, pages.Production, record.Title); existsErr != nil || !exists {
			if existsErr != nil {
				err = existsErr
			}
			return nil, s.fail(ctx, record, err)
		}
		return s.complete(ctx, record, claims)
	}

	sch, err := s.resolver.ForPage(ctx, page.Schema, page.Tags)
	if err != nil {
		return nil, s.fail(ctx, record, err)
	}

	// The draft may have been edited since the record was opened.
	if added := record.track(collectStagingImages(s.locator, page, sch)); added > 0 {
		if _, err := s.records.Put(ctx, record); err != nil {
			return nil, s.fail(ctx, record, err)
		}
		s.logger.Debug("promotions.images_added", "record_id", record.ID, "added", added)
	}

	if err := s.moveImages(ctx, record); err != nil {
		return nil, s.fail(ctx, record, err)
	}

	target := page.Clone()
	target.Collection = pages.Production
	s.rewrite(target, schema.IndexImages(sch), record.moved())
	if _, err := s.pages.Put(ctx, target); err != nil {
		return nil, s.fail(ctx, record, err)
	}
	if err := s.pages.Delete(ctx, pages.Staging, page.Title); err != nil && !pages.IsNotFound(err) {
		return nil, s.fail(ctx, record, err)
	}
	return s.complete(ctx, record, claims)
}

func (s *service) moveImages(ctx context.Context, record *Record) error {
	done := record.moved()
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, name := range record.Images {
		if done[name] {
			continue
		}
		g.Go(func() error {
			if err := blobs.Move(ctx, s.blobs, blobs.Staging, blobs.Production, name); err != nil {
				return err
			}
			mu.Lock()
			done[name] = true
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	record.Moved = record.Moved[:0]
	for _, name := range record.Images {
		if done[name] {
			record.Moved = append(record.Moved, name)
		}
	}
	if _, putErr := s.records.Put(ctx, record); putErr != nil && err == nil {
		err = putErr
	}
	return err
}

// rewrite points moved staging references at their production copies.
func (s *service) rewrite(page *pages.Page, index *schema.ImageIndex, moved map[string]bool) {
	swap := func(ref string) (string, bool) {
		bucket, name, ok := s.locator.Parse(ref)
		if !ok || bucket != blobs.Staging || !moved[name] {
			return "", false
		}
		return s.locator.URL(blobs.Production, name), true
	}
	if next, ok := swap(page.Thumbnail); ok {
		page.Thumbnail = next
	}
	for _, field := range page.Fields {
		index.Walk(field, func(_, ref string) (string, bool) {
			return swap(ref)
		})
	}
}

// stagingImages lists the staging objects page references, in order of
// first appearance.
func (s *service) stagingImages(ctx context.Context, page *pages.Page) ([]string, error) {
	sch, err := s.resolver.ForPage(ctx, page.Schema, page.Tags)
	if err != nil {
		return nil, err
	}
	return collectStagingImages(s.locator, page, sch), nil
}

func collectStagingImages(locator blobs.Locator, page *pages.Page, sch *schema.Schema) []string {
	seen := map[string]bool{}
	out := []string{}
	collect := func(ref string) {
		bucket, name, ok := locator.Parse(ref)
		if ok && bucket == blobs.Staging && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	collect(page.Thumbnail)
	index := schema.IndexImages(sch)
	for _, field := range page.Fields {
		index.Walk(field, func(_, ref string) (string, bool) {
			collect(ref)
			return "", false
		})
	}
	return out
}

func (s *service) complete(ctx context.Context, record *Record, claims access.Claims) (*Result, error) {
	record.State = StateCompleted
	record.Error = ""
	stored, err := s.records.Put(ctx, record)
	if err != nil {
		return nil, err
	}
	s.logger.Info("promotions.completed", "title", stored.Title, "record_id", stored.ID, "moved", len(stored.Moved), "actor", claims.UID)
	s.emit(ctx, stored, claims.UID)
	return &Result{Record: stored, MovedImages: append([]string{}, stored.Moved...)}, nil
}

func (s *service) fail(ctx context.Context, record *Record, cause error) error {
	record.State = StateFailed
	record.Error = cause.Error()
	if _, err := s.records.Put(ctx, record); err != nil {
		s.logger.Error("promotions.record_failed", "record_id", record.ID, "error", err)
		cause = errors.Join(cause, err)
	}
	s.logger.Error("promotions.failed", "title", record.Title, "record_id", record.ID, "moved", len(record.Moved), "error", cause)
	return &FailedError{RecordID: record.ID, Title: record.Title, Err: cause}
}

func (s *service) emit(ctx context.Context, record *Record, actor string) {
	if s.activity == nil || !s.activity.Enabled() {
		return
	}
	_ = s.activity.Emit(ctx, activity.Event{
		Verb:       "promote",
		ActorID:    actor,
		ObjectType: "page",
		ObjectID:   record.Title,
		Metadata: map[string]any{
			"record_id":    record.ID.String(),
			"moved_images": append([]string{}, record.Moved...),
			"from":         string(pages.Staging),
			"to":           string(pages.Production),
		},
		OccurredAt: s.now(),
	})
}
