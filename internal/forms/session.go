package forms

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/goliatone/go-stagecms/internal/parsons"
	"github.com/goliatone/go-stagecms/internal/schema"
	"github.com/goliatone/go-stagecms/internal/transform"
)

// Ref addresses a field inside a session as a path from a top-level
// component through extra inputs and open field list items, to any depth.
type Ref struct {
	Component string
	steps     []refStep
}

type refStep struct {
	fieldID string
	item    int
	inItem  bool
}

// Path addresses the component with the given id.
func Path(component string) Ref {
	return Ref{Component: component}
}

// Extra addresses the field fieldID declared under the current scope: the
// component, or the active choice of the last addressed item.
func (r Ref) Extra(fieldID string) Ref {
	return r.with(refStep{fieldID: fieldID})
}

// Item addresses the active choice of list item index of the currently
// addressed open field list.
func (r Ref) Item(index int) Ref {
	return r.with(refStep{item: index, inItem: true})
}

func (r Ref) with(step refStep) Ref {
	steps := make([]refStep, len(r.steps), len(r.steps)+1)
	copy(steps, r.steps)
	r.steps = append(steps, step)
	return r
}

func (r Ref) String() string {
	var b strings.Builder
	b.WriteString(r.Component)
	for _, step := range r.steps {
		if step.inItem {
			fmt.Fprintf(&b, "[%d]", step.item)
			continue
		}
		b.WriteString(".")
		b.WriteString(step.fieldID)
	}
	return b.String()
}

// Document is a stored page as seen by the editor.
type Document struct {
	Schema    string
	Title     string
	Thumbnail string
	ShortDesc string
	Tags      []string
	Fields    []InputField
}

// SessionOption customises a session.
type SessionOption func(*Session)

// WithDocument seeds the session from an existing document and marks it as
// an edit.
func WithDocument(doc Document) SessionOption {
	return func(s *Session) {
		s.store = Hydrate(s.schema, doc.Fields)
		s.title = doc.Title
		s.thumbnail = doc.Thumbnail
		s.shortDesc = truncateRunes(doc.ShortDesc, MaxShortDescLength)
		s.tags = append([]string(nil), doc.Tags...)
		s.edit = true
	}
}

// WithStaging marks submissions from the session as drafts.
func WithStaging(staging bool) SessionOption {
	return func(s *Session) {
		s.staging = staging
	}
}

// Session is one editing session over a schema. Mutations are serialized in
// call order.
type Session struct {
	mu     sync.Mutex
	schema *schema.Schema
	store  *Store

	title     string
	thumbnail string
	shortDesc string
	tags      []string
	edit      bool
	staging   bool
}

// NewSession starts an editing session. The schema must not change while the
// session is in use.
func NewSession(s *schema.Schema, opts ...SessionOption) *Session {
	if s == nil {
		panic("forms: session requires a schema")
	}
	session := &Session{schema: s, store: NewStore()}
	for _, opt := range opts {
		if opt != nil {
			opt(session)
		}
	}
	return session
}

// Schema returns the session schema.
func (s *Session) Schema() *schema.Schema {
	return s.schema
}

// Widgets renders the current state.
func (s *Session) Widgets() []Widget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Render(s.schema, s.store)
}

// Value returns a copy of a component value.
func (s *Session) Value(component string) (InputField, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(component)
}

// SetTitle sets the document title.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

// SetThumbnail stores the uploaded thumbnail reference.
func (s *Session) SetThumbnail(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thumbnail = ref
}

// SetShortDesc stores the short description, truncated to the limit.
func (s *Session) SetShortDesc(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shortDesc = truncateRunes(text, MaxShortDescLength)
}

// SetTags replaces the tag list.
func (s *Session) SetTags(tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = append([]string(nil), tags...)
}

// Tags returns the selected tags.
func (s *Session) Tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tags...)
}

// TagInput returns a tag editor whose changes flow back into the session.
func (s *Session) TagInput(ctx context.Context, source TagSource) *TagInput {
	return NewTagInput(ctx, source, s.Tags(), s.SetTags)
}

// Draft captures the session for assembly.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Draft{
		Schema:    s.schema,
		Title:     s.title,
		Thumbnail: s.thumbnail,
		ShortDesc: s.shortDesc,
		Tags:      append([]string(nil), s.tags...),
		Values:    s.store.Values(),
		Edit:      s.edit,
		Staging:   s.staging,
	}
}

// SetText writes a text or raw iframe value.
func (s *Session) SetText(ref Ref, text string) error {
	return s.mutate(ref, func(f *schema.Field, holder InputField) error {
		if f.Type != schema.TypeText && f.Type != schema.TypeIframe {
			return fieldTypeError(f, "set text")
		}
		holder[f.Key()] = text
		return nil
	})
}

// SetImage stores the reference returned by the upload collaborator.
func (s *Session) SetImage(ref Ref, reference string) error {
	return s.mutate(ref, func(f *schema.Field, holder InputField) error {
		if f.Type != schema.TypeImage {
			return fieldTypeError(f, "set image")
		}
		holder[f.Key()] = reference
		return nil
	})
}

// CommitIframe runs the field's transform over its raw value. On failure the
// raw value is kept and the InvalidLinkError returned.
func (s *Session) CommitIframe(ref Ref) (string, error) {
	var committed string
	err := s.mutate(ref, func(f *schema.Field, holder InputField) error {
		if f.Type != schema.TypeIframe {
			return fieldTypeError(f, "commit iframe")
		}
		raw, _ := holder[f.Key()].(string)
		if f.Transform == "" {
			committed = raw
			return nil
		}
		out, err := transform.Apply(f.Transform, f.Label(), raw)
		if err != nil {
			return err
		}
		holder[f.Key()] = out
		committed = out
		return nil
	})
	return committed, err
}

// SetParsonsText stores free-form Parsons text.
func (s *Session) SetParsonsText(ref Ref, text string) error {
	return s.mutate(ref, func(f *schema.Field, holder InputField) error {
		if f.Type != schema.TypeParsons {
			return fieldTypeError(f, "set parsons text")
		}
		holder[f.Key()] = text
		return nil
	})
}

// SetParsonsFragments stores the canonical text of fragments.
func (s *Session) SetParsonsFragments(ref Ref, fragments []parsons.Fragment) error {
	return s.SetParsonsText(ref, parsons.Format(fragments))
}

// ParsonsFragments parses the current Parsons value.
func (s *Session) ParsonsFragments(ref Ref) ([]parsons.Fragment, error) {
	var out []parsons.Fragment
	err := s.inspect(ref, func(f *schema.Field, holder InputField) error {
		if f.Type != schema.TypeParsons {
			return fieldTypeError(f, "read parsons")
		}
		text, _ := holder[f.Key()].(string)
		out = parsons.Parse(text)
		return nil
	})
	return out, err
}

// AddPage appends title to a page list unless already present.
func (s *Session) AddPage(ref Ref, title string) error {
	title = strings.TrimSpace(title)
	return s.mutate(ref, func(f *schema.Field, holder InputField) error {
		if f.Type != schema.TypePageList {
			return fieldTypeError(f, "add page")
		}
		list := stringsOf(holder[f.Key()])
		if title == "" || containsString(list, title) {
			holder[f.Key()] = list
			return nil
		}
		holder[f.Key()] = append(list, title)
		return nil
	})
}

// RemovePage drops title from a page list.
func (s *Session) RemovePage(ref Ref, title string) error {
	return s.mutate(ref, func(f *schema.Field, holder InputField) error {
		if f.Type != schema.TypePageList {
			return fieldTypeError(f, "remove page")
		}
		list := stringsOf(holder[f.Key()])
		out := list[:0]
		for _, entry := range list {
			if entry != title {
				out = append(out, entry)
			}
		}
		holder[f.Key()] = out
		return nil
	})
}

// AddItem appends an item typed as the first choice to the open field list
// at ref and returns its index.
func (s *Session) AddItem(ref Ref) (int, error) {
	index := -1
	err := s.mutateList(ref, func(f *schema.Field, items []InputField) ([]InputField, error) {
		items = append(items, InputField{TypeKey: f.DefaultChoiceType()})
		index = len(items) - 1
		return items, nil
	})
	return index, err
}

// RemoveItem drops the item at index from the open field list at ref.
func (s *Session) RemoveItem(ref Ref, index int) error {
	return s.mutateList(ref, func(_ *schema.Field, items []InputField) ([]InputField, error) {
		if index < 0 || index >= len(items) {
			return nil, ErrItemOutOfRange
		}
		return append(items[:index:index], items[index+1:]...), nil
	})
}

// SetItemType switches the item at index to another choice, discarding its
// previous values.
func (s *Session) SetItemType(ref Ref, index int, choiceType string) error {
	return s.mutateList(ref, func(f *schema.Field, items []InputField) ([]InputField, error) {
		if index < 0 || index >= len(items) {
			return nil, ErrItemOutOfRange
		}
		if !hasChoice(f, choiceType) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownChoice, choiceType)
		}
		items[index] = InputField{TypeKey: choiceType}
		return items, nil
	})
}

// Clear removes a component value.
func (s *Session) Clear(component string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schema.Component(component) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownComponent, component)
	}
	s.store.Delete(component)
	return nil
}

func (s *Session) mutateList(ref Ref, fn func(*schema.Field, []InputField) ([]InputField, error)) error {
	return s.mutate(ref, func(f *schema.Field, holder InputField) error {
		if f.Type != schema.TypeOpenFieldList {
			return fieldTypeError(f, "edit list")
		}
		items, err := fn(f, itemsOf(holder[f.ListKey()]))
		if err != nil {
			return err
		}
		if items == nil {
			items = []InputField{}
		}
		holder[f.ListKey()] = items
		return nil
	})
}

func (s *Session) mutate(ref Ref, fn func(*schema.Field, InputField) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comp, field, value, holder, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := fn(field, holder); err != nil {
		return err
	}
	mergeExtraProperties(comp, value)
	s.store.values[comp.ID] = value
	return nil
}

func (s *Session) inspect(ref Ref, fn func(*schema.Field, InputField) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, field, _, holder, err := s.resolve(ref)
	if err != nil {
		return err
	}
	return fn(field, holder)
}

// resolve walks ref from its component and returns the component, the
// addressed field, a working copy of the component value and the map the
// field's value lives in. holder points into the working copy.
func (s *Session) resolve(ref Ref) (*schema.Field, *schema.Field, InputField, InputField, error) {
	comp := s.schema.Component(ref.Component)
	if comp == nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: %q", ErrUnknownComponent, ref.Component)
	}
	value := s.componentValue(comp)

	scope, field, holder := comp, comp, value
	for _, step := range ref.steps {
		if !step.inItem {
			field = schema.FindField(scope, step.fieldID)
			if field == nil {
				return nil, nil, nil, nil, fmt.Errorf("%w: %q in %s", ErrUnknownField, step.fieldID, ref)
			}
			continue
		}

		if field.Type != schema.TypeOpenFieldList {
			return nil, nil, nil, nil, fieldTypeError(field, "address item")
		}
		items := itemsOf(holder[field.ListKey()])
		if step.item < 0 || step.item >= len(items) {
			return nil, nil, nil, nil, fmt.Errorf("%w: %s", ErrItemOutOfRange, ref)
		}
		holder[field.ListKey()] = items
		item := items[step.item]
		choice := field.ActiveChoice(itemType(item))
		if choice == nil {
			return nil, nil, nil, nil, fmt.Errorf("%w: %s", ErrNoActiveChoice, ref)
		}
		scope, field, holder = choice, choice, item
	}
	return comp, field, value, holder, nil
}

func (s *Session) componentValue(comp *schema.Field) InputField {
	if existing, ok := s.store.raw(comp.ID); ok {
		return Clone(existing)
	}
	return InputField{}
}

func fieldTypeError(f *schema.Field, op string) error {
	return fmt.Errorf("%w: cannot %s on %s field %q", ErrFieldType, op, f.Type, f.ID)
}

func hasChoice(f *schema.Field, choiceType string) bool {
	for _, choice := range f.Choices {
		if choice != nil && string(choice.Type) == choiceType {
			return true
		}
	}
	return false
}

func containsString(list []string, value string) bool {
	for _, entry := range list {
		if entry == value {
			return true
		}
	}
	return false
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
