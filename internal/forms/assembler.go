package forms

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-stagecms/internal/schema"
	"github.com/goliatone/go-stagecms/internal/transform"
)

// Draft is everything an editing session collected.
type Draft struct {
	Schema    *schema.Schema
	Title     string
	Thumbnail string
	ShortDesc string
	Tags      []string
	Values    map[string]InputField
	Edit      bool
	Staging   bool
}

// Submission is the assembled document payload.
type Submission struct {
	Schema    string       `json:"schema"`
	Title     string       `json:"title"`
	Thumbnail string       `json:"thumbnail,omitempty"`
	ShortDesc string       `json:"shortDesc,omitempty"`
	Tags      []string     `json:"tags"`
	Fields    []InputField `json:"fields"`
	Edit      bool         `json:"edit"`
	Staging   bool         `json:"staging,omitempty"`
}

// Assembler turns drafts into submissions.
type Assembler struct {
	maxShortDesc int
}

// AssemblerOption customises an Assembler.
type AssemblerOption func(*Assembler)

// WithShortDescLimit overrides the short description limit. Zero disables
// the check.
func WithShortDescLimit(limit int) AssemblerOption {
	return func(a *Assembler) {
		if limit >= 0 {
			a.maxShortDesc = limit
		}
	}
}

// NewAssembler constructs an assembler.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{maxShortDesc: MaxShortDescLength}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Assemble walks the schema components in order. Components with a value
// contribute their transformed value; hidden components contribute their
// fixed extra properties. Any failed transform aborts the whole submission.
func (a *Assembler) Assemble(d Draft) (*Submission, error) {
	if d.Schema == nil {
		return nil, fmt.Errorf("forms: assemble: %w", schema.ErrSchemaNotFound)
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if a.maxShortDesc > 0 && utf8.RuneCountInString(d.ShortDesc) > a.maxShortDesc {
		return nil, fmt.Errorf("%w: %d characters allowed", ErrShortDescTooLong, a.maxShortDesc)
	}

	fields := make([]InputField, 0, len(d.Schema.Components))
	for _, component := range d.Schema.Components {
		if component == nil {
			continue
		}
		if component.Type == schema.TypeHidden {
			if len(component.ExtraProperties) > 0 {
				fixed := make(InputField, len(component.ExtraProperties))
				for key, value := range component.ExtraProperties {
					fixed[key] = value
				}
				fields = append(fields, fixed)
			}
			continue
		}
		value, ok := d.Values[component.ID]
		if !ok || value == nil {
			continue
		}
		prepared := Clone(value)
		if err := ApplyTransforms(component, prepared); err != nil {
			return nil, err
		}
		fields = append(fields, prepared)
	}

	return &Submission{
		Schema:    d.Schema.ID,
		Title:     title,
		Thumbnail: d.Thumbnail,
		ShortDesc: d.ShortDesc,
		Tags:      normalizeTags(d.Tags),
		Fields:    fields,
		Edit:      d.Edit,
		Staging:   d.Staging,
	}, nil
}

// ApplyTransforms rewrites every iframe value under f in place, including
// extra inputs and open field list items matched to their choice.
func ApplyTransforms(f *schema.Field, value InputField) error {
	if f == nil || value == nil {
		return nil
	}
	if f.Type == schema.TypeIframe && f.Transform != "" {
		if raw, ok := value[f.Key()].(string); ok {
			out, err := transform.Apply(f.Transform, f.Label(), raw)
			if err != nil {
				return err
			}
			value[f.Key()] = out
		}
	}
	for _, extra := range f.ExtraInputs {
		if err := ApplyTransforms(extra, value); err != nil {
			return err
		}
	}
	if f.Type == schema.TypeOpenFieldList {
		for _, item := range itemsOf(value[f.ListKey()]) {
			if err := ApplyTransforms(f.ActiveChoice(itemType(item)), item); err != nil {
				return err
			}
		}
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || containsString(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}
