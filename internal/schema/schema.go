package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldType is the closed set of field kinds a schema may declare.
type FieldType string

const (
	TypeHidden        FieldType = "hidden"
	TypeText          FieldType = "text"
	TypeImage         FieldType = "image"
	TypeIframe        FieldType = "iframe"
	TypeParsons       FieldType = "parsons"
	TypePageList      FieldType = "page_list"
	TypeOpenFieldList FieldType = "open_field_list"
)

// DefaultListKey is the value key of an open field list without a binding.
const DefaultListKey = "fields"

// FieldTypes lists every supported field type.
func FieldTypes() []FieldType {
	return []FieldType{TypeHidden, TypeText, TypeImage, TypeIframe, TypeParsons, TypePageList, TypeOpenFieldList}
}

// Valid reports whether t is a supported field type.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Schema describes the editable fields of one content type. Component order
// is both render order and submission order.
type Schema struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Components  []*Field `json:"components"`
}

// Summary is the listing view of a schema.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Field is one node of a schema.
type Field struct {
	ID              string            `json:"id"`
	Type            FieldType         `json:"type"`
	Name            string            `json:"name,omitempty"`
	Description     string            `json:"description,omitempty"`
	Binding         string            `json:"binding,omitempty"`
	ExtraProperties map[string]string `json:"extra_properties,omitempty"`
	ExtraInputs     []*Field          `json:"extra_inputs,omitempty"`
	Choices         []*Field          `json:"choices,omitempty"`
	Transform       string            `json:"transform,omitempty"`
}

// Key returns the value key the field writes to.
func (f *Field) Key() string {
	if f == nil {
		return ""
	}
	if f.Binding != "" {
		return f.Binding
	}
	return f.ID
}

// ListKey returns the key holding the items of an open field list.
func (f *Field) ListKey() string {
	if f == nil {
		return ""
	}
	if f.Binding != "" {
		return f.Binding
	}
	return DefaultListKey
}

// Label is the name shown to editors and used in error messages.
func (f *Field) Label() string {
	if f == nil {
		return ""
	}
	if f.Name != "" {
		return f.Name
	}
	return f.ID
}

// ActiveChoice returns the choice that renders an item tagged itemType. A
// single choice is always active.
func (f *Field) ActiveChoice(itemType string) *Field {
	if f == nil || len(f.Choices) == 0 {
		return nil
	}
	if len(f.Choices) == 1 {
		return f.Choices[0]
	}
	for _, choice := range f.Choices {
		if choice != nil && string(choice.Type) == itemType {
			return choice
		}
	}
	return nil
}

// DefaultChoiceType is the type assigned to newly added list items.
func (f *Field) DefaultChoiceType() string {
	if f == nil || len(f.Choices) == 0 || f.Choices[0] == nil {
		return ""
	}
	return string(f.Choices[0].Type)
}

// UnmarshalJSON accepts transform either as a rule name or a list of names,
// keeping the first.
func (f *Field) UnmarshalJSON(data []byte) error {
	type alias Field
	aux := struct {
		*alias
		Transform json.RawMessage `json:"transform,omitempty"`
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.Transform = ""
	raw := strings.TrimSpace(string(aux.Transform))
	if raw == "" || raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var rules []string
		if err := json.Unmarshal(aux.Transform, &rules); err != nil {
			return fmt.Errorf("schema: field %q transform: %w", f.ID, err)
		}
		if len(rules) > 0 {
			f.Transform = strings.TrimSpace(rules[0])
		}
		return nil
	}
	if err := json.Unmarshal(aux.Transform, &f.Transform); err != nil {
		return fmt.Errorf("schema: field %q transform: %w", f.ID, err)
	}
	return nil
}

// Component returns the top-level component with the given id.
func (s *Schema) Component(id string) *Field {
	if s == nil {
		return nil
	}
	for _, component := range s.Components {
		if component != nil && component.ID == id {
			return component
		}
	}
	return nil
}

// Summary returns the listing view of s.
func (s *Schema) Summary() Summary {
	if s == nil {
		return Summary{}
	}
	name := s.Name
	if name == "" {
		name = s.ID
	}
	return Summary{ID: s.ID, Name: name}
}

// FindField looks up id among f, its extra inputs and their extra inputs.
func FindField(f *Field, id string) *Field {
	if f == nil {
		return nil
	}
	if f.ID == id {
		return f
	}
	for _, extra := range f.ExtraInputs {
		if found := FindField(extra, id); found != nil {
			return found
		}
	}
	return nil
}

// Matches reports whether value carries every fixed extra property of f with
// an equal value.
func (f *Field) Matches(value map[string]any) bool {
	if f == nil {
		return false
	}
	for key, want := range f.ExtraProperties {
		got, ok := value[key]
		if !ok {
			return false
		}
		str, ok := got.(string)
		if !ok || str != want {
			return false
		}
	}
	return true
}

// Decode parses a schema document.
func Decode(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
