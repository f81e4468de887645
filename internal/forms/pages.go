package forms

import (
	"context"
	"strings"
)

// PageSource lists existing document titles.
type PageSource interface {
	ListPages(ctx context.Context) ([]string, error)
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc func(ctx context.Context) ([]string, error)

func (f PageSourceFunc) ListPages(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// PagePicker offers existing titles for page_list fields.
type PagePicker struct {
	titles []string
}

// NewPagePicker loads titles from source. Failures degrade to an empty list.
func NewPagePicker(ctx context.Context, source PageSource) *PagePicker {
	p := &PagePicker{}
	if source == nil {
		return p
	}
	titles, err := source.ListPages(ctx)
	if err != nil {
		return p
	}
	p.titles = append([]string(nil), titles...)
	return p
}

// Titles returns every known title.
func (p *PagePicker) Titles() []string {
	return append([]string(nil), p.titles...)
}

// Filter returns titles containing query, ignoring case, minus excluded ones.
func (p *PagePicker) Filter(query string, exclude ...string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []string
	for _, title := range p.titles {
		if containsString(exclude, title) {
			continue
		}
		if query == "" || strings.Contains(strings.ToLower(title), query) {
			out = append(out, title)
		}
	}
	return out
}
