package forms

import (
	"github.com/goliatone/go-stagecms/internal/parsons"
	"github.com/goliatone/go-stagecms/internal/schema"
)

// Widget is the renderable state of one schema node.
type Widget struct {
	ID          string             `json:"id"`
	Type        schema.FieldType   `json:"type"`
	Name        string             `json:"name,omitempty"`
	Description string             `json:"description,omitempty"`
	Key         string             `json:"key"`
	Value       any                `json:"value,omitempty"`
	Transform   string             `json:"transform,omitempty"`
	Fragments   []parsons.Fragment `json:"fragments,omitempty"`
	Extras      []Widget           `json:"extras,omitempty"`

	Choices          []ChoiceOption `json:"choices,omitempty"`
	ShowTypeSelector bool           `json:"showTypeSelector,omitempty"`
	Items            []ItemWidget   `json:"items,omitempty"`
}

// ChoiceOption is one entry of an open field list type selector.
type ChoiceOption struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ItemWidget is one entry of an open field list. Active is nil when the
// item's type matches no choice.
type ItemWidget struct {
	Index  int     `json:"index"`
	Type   string  `json:"type"`
	Active *Widget `json:"active,omitempty"`
}

// Render builds the widget tree for every visible component.
func Render(s *schema.Schema, store *Store) []Widget {
	if s == nil {
		return nil
	}
	if store == nil {
		store = NewStore()
	}
	widgets := make([]Widget, 0, len(s.Components))
	for _, component := range s.Components {
		value, _ := store.raw(component.ID)
		if w, ok := renderField(component, value); ok {
			widgets = append(widgets, w)
		}
	}
	return widgets
}

func renderField(f *schema.Field, value InputField) (Widget, bool) {
	if f == nil {
		return Widget{}, false
	}
	w := Widget{
		ID:          f.ID,
		Type:        f.Type,
		Name:        f.Name,
		Description: f.Description,
		Key:         f.Key(),
	}

	switch f.Type {
	case schema.TypeHidden:
		return Widget{}, false
	case schema.TypeText, schema.TypeImage:
		w.Value = value[f.Key()]
	case schema.TypeIframe:
		w.Value = value[f.Key()]
		w.Transform = f.Transform
	case schema.TypeParsons:
		text, _ := value[f.Key()].(string)
		w.Value = text
		w.Fragments = parsons.Parse(text)
	case schema.TypePageList:
		w.Value = stringsOf(value[f.Key()])
	case schema.TypeOpenFieldList:
		w.Key = f.ListKey()
		w.ShowTypeSelector = len(f.Choices) > 1
		for _, choice := range f.Choices {
			if choice != nil {
				w.Choices = append(w.Choices, ChoiceOption{Type: string(choice.Type), Name: choice.Label()})
			}
		}
		for i, item := range itemsOf(value[f.ListKey()]) {
			entry := ItemWidget{Index: i, Type: itemType(item)}
			if choice := f.ActiveChoice(entry.Type); choice != nil {
				if active, ok := renderField(choice, item); ok {
					entry.Active = &active
				}
			}
			w.Items = append(w.Items, entry)
		}
	default:
		return Widget{}, false
	}

	for _, extra := range f.ExtraInputs {
		if ew, ok := renderField(extra, value); ok {
			w.Extras = append(w.Extras, ew)
		}
	}
	return w, true
}
