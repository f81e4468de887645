package forms

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// TagOption is a tag known to the catalog.
type TagOption struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// TagSource supplies the tag catalog and creates new tags.
type TagSource interface {
	ListTags(ctx context.Context) ([]TagOption, error)
	CreateTag(ctx context.Context, name, category string) error
}

// EnterResult describes what pressing Enter in the tag input did.
type EnterResult int

const (
	// EnterIgnored means the text was empty or already selected.
	EnterIgnored EnterResult = iota
	// EnterAdded means an existing tag was added.
	EnterAdded
	// EnterNeedsCategory means the tag is new and a category prompt is open.
	EnterNeedsCategory
)

// UncategorizedLabel groups tags without a category.
const UncategorizedLabel = "Uncategorized"

// TagInput edits the tag list of a document.
type TagInput struct {
	mu       sync.Mutex
	source   TagSource
	catalog  []TagOption
	selected []string
	pending  string
	onChange func([]string)
}

// NewTagInput loads the catalog from source. A failed load leaves the
// catalog empty; every typed tag is then treated as new.
func NewTagInput(ctx context.Context, source TagSource, selected []string, onChange func([]string)) *TagInput {
	t := &TagInput{
		source:   source,
		selected: append([]string(nil), selected...),
		onChange: onChange,
	}
	t.Refresh(ctx)
	return t
}

// Refresh reloads the catalog, keeping the current one on failure.
func (t *TagInput) Refresh(ctx context.Context) {
	if t.source == nil {
		return
	}
	tags, err := t.source.ListTags(ctx)
	if err != nil {
		return
	}
	t.mu.Lock()
	t.catalog = append([]TagOption(nil), tags...)
	t.mu.Unlock()
}

// Selected returns the chosen tags in order.
func (t *TagInput) Selected() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.selected...)
}

// Catalog returns the known tags.
func (t *TagInput) Catalog() []TagOption {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TagOption(nil), t.catalog...)
}

// Suggestions returns catalog tags whose names contain query, ignoring case,
// that are not selected yet.
func (t *TagInput) Suggestions(query string) []TagOption {
	query = strings.ToLower(query)
	if query == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []TagOption
	for _, tag := range t.catalog {
		if strings.Contains(strings.ToLower(tag.Name), query) && !containsString(t.selected, tag.Name) {
			out = append(out, tag)
		}
	}
	return out
}

// Add selects name directly, as when a suggestion is picked.
func (t *TagInput) Add(name string) {
	t.mu.Lock()
	changed := t.addLocked(name)
	t.mu.Unlock()
	if changed {
		t.notify()
	}
}

// Enter handles the user confirming typed text. Existing tags are added;
// unseen names open the category prompt.
func (t *TagInput) Enter(text string) EnterResult {
	name := strings.TrimSpace(text)
	t.mu.Lock()
	if name == "" || containsString(t.selected, name) {
		t.mu.Unlock()
		return EnterIgnored
	}
	if t.knownLocked(name) {
		t.addLocked(name)
		t.mu.Unlock()
		t.notify()
		return EnterAdded
	}
	t.pending = name
	t.mu.Unlock()
	return EnterNeedsCategory
}

// Pending returns the new tag awaiting a category.
func (t *TagInput) Pending() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending, t.pending != ""
}

// CategorySuggestions returns the sorted unique categories containing query.
func (t *TagInput) CategorySuggestions(query string) []string {
	query = strings.ToLower(query)
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, tag := range t.catalog {
		if _, ok := seen[tag.Category]; ok {
			continue
		}
		seen[tag.Category] = struct{}{}
		if query == "" || strings.Contains(strings.ToLower(tag.Category), query) {
			out = append(out, tag.Category)
		}
	}
	sort.Strings(out)
	return out
}

// AssignCategory creates the pending tag with category and selects it. The
// prompt stays open when creation fails.
func (t *TagInput) AssignCategory(ctx context.Context, category string) error {
	category = strings.TrimSpace(category)
	t.mu.Lock()
	name := t.pending
	t.mu.Unlock()
	if name == "" {
		return ErrNoPendingTag
	}
	if category == "" {
		return ErrCategoryRequired
	}
	if t.source != nil {
		if err := t.source.CreateTag(ctx, name, category); err != nil {
			return err
		}
	}
	t.mu.Lock()
	t.catalog = append(t.catalog, TagOption{Name: name, Category: category})
	t.addLocked(name)
	t.pending = ""
	t.mu.Unlock()
	t.notify()
	return nil
}

// CancelPrompt discards the pending tag.
func (t *TagInput) CancelPrompt() {
	t.mu.Lock()
	t.pending = ""
	t.mu.Unlock()
}

// Remove deselects name.
func (t *TagInput) Remove(name string) {
	t.mu.Lock()
	out := t.selected[:0]
	changed := false
	for _, tag := range t.selected {
		if tag == name {
			changed = true
			continue
		}
		out = append(out, tag)
	}
	t.selected = out
	t.mu.Unlock()
	if changed {
		t.notify()
	}
}

// Grouped returns catalog tag names keyed by category.
func (t *TagInput) Grouped() map[string][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := map[string][]string{}
	for _, tag := range t.catalog {
		category := tag.Category
		if strings.TrimSpace(category) == "" {
			category = UncategorizedLabel
		}
		out[category] = append(out[category], tag.Name)
	}
	for category := range out {
		sort.Strings(out[category])
	}
	return out
}

// SelectedGrouped returns the selected tags keyed by their catalog category,
// in selection order. Tags missing from the catalog, or without a category,
// are grouped under UncategorizedLabel.
func (t *TagInput) SelectedGrouped() map[string][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	categories := make(map[string]string, len(t.catalog))
	for _, tag := range t.catalog {
		categories[tag.Name] = tag.Category
	}
	out := map[string][]string{}
	for _, name := range t.selected {
		category := categories[name]
		if strings.TrimSpace(category) == "" {
			category = UncategorizedLabel
		}
		out[category] = append(out[category], name)
	}
	return out
}

func (t *TagInput) knownLocked(name string) bool {
	for _, tag := range t.catalog {
		if tag.Name == name {
			return true
		}
	}
	return false
}

func (t *TagInput) addLocked(name string) bool {
	if name == "" || containsString(t.selected, name) {
		return false
	}
	t.selected = append(t.selected, name)
	return true
}

func (t *TagInput) notify() {
	if t.onChange != nil {
		t.onChange(t.Selected())
	}
}
