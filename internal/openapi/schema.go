package openapi

import (
	"github.com/goliatone/go-stagecms/internal/schema"
)

// PageSchema describes the page document a form schema produces. Each
// entry of fields lines up with the component at the same position.
func PageSchema(s *schema.Schema) map[string]any {
	if s == nil {
		return nil
	}
	items := make([]any, 0, len(s.Components))
	for _, field := range s.Components {
		if field == nil {
			continue
		}
		items = append(items, componentSchema(field))
	}
	fields := map[string]any{
		"type":     "array",
		"maxItems": len(items),
	}
	if len(items) > 0 {
		fields["items"] = map[string]any{"oneOf": items}
	}
	return map[string]any{
		"type":        "object",
		"title":       s.Name,
		"description": s.Description,
		"required":    []string{"title"},
		"properties": map[string]any{
			"title":     map[string]any{"type": "string"},
			"thumbnail": map[string]any{"type": "string"},
			"shortDesc": map[string]any{"type": "string"},
			"tags":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"fields":    fields,
		},
		"x-schema-id": s.ID,
	}
}

func componentSchema(field *schema.Field) map[string]any {
	props := map[string]any{}
	switch field.Type {
	case schema.TypePageList:
		props[field.Key()] = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	case schema.TypeOpenFieldList:
		var choices []any
		for _, choice := range field.Choices {
			if choice != nil {
				choices = append(choices, componentSchema(choice))
			}
		}
		list := map[string]any{"type": "array"}
		if len(choices) > 0 {
			list["items"] = map[string]any{"oneOf": choices}
		}
		props[field.ListKey()] = list
	default:
		props[field.Key()] = map[string]any{"type": "string"}
	}
	for _, extra := range field.ExtraInputs {
		if extra != nil {
			props[extra.Key()] = map[string]any{"type": "string"}
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
		"x-field":    string(field.Type),
	}
	if field.ID != "" {
		out["title"] = field.ID
	}
	return out
}
