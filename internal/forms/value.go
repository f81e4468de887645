package forms

import (
	"errors"

	"github.com/goliatone/go-stagecms/internal/schema"
)

// InputField is the runtime value of one schema node.
type InputField = map[string]any

// TypeKey names the choice an open field list item instantiates.
const TypeKey = "type"

var (
	ErrUnknownComponent = errors.New("forms: unknown component")
	ErrUnknownField     = errors.New("forms: unknown field")
	ErrFieldType        = errors.New("forms: operation not supported by field type")
	ErrItemOutOfRange   = errors.New("forms: list item out of range")
	ErrNoActiveChoice   = errors.New("forms: list item has no active choice")
	ErrUnknownChoice    = errors.New("forms: unknown choice type")
	ErrTitleRequired    = errors.New("forms: title is required")
	ErrShortDescTooLong = errors.New("forms: short description exceeds limit")
	ErrCategoryRequired = errors.New("forms: tag category is required")
	ErrNoPendingTag     = errors.New("forms: no tag awaiting a category")
)

// MaxShortDescLength caps the short description in characters.
const MaxShortDescLength = 100

func asField(v any) (InputField, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func itemsOf(v any) []InputField {
	switch typed := v.(type) {
	case []InputField:
		return typed
	case []any:
		out := make([]InputField, 0, len(typed))
		for _, entry := range typed {
			if m, ok := asField(entry); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func stringsOf(v any) []string {
	switch typed := v.(type) {
	case []string:
		return append([]string(nil), typed...)
	case []any:
		out := make([]string, 0, len(typed))
		for _, entry := range typed {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func itemType(item InputField) string {
	t, _ := item[TypeKey].(string)
	return t
}

// Clone deep-copies a value tree.
func Clone(v InputField) InputField {
	if v == nil {
		return nil
	}
	out := make(InputField, len(v))
	for key, value := range v {
		out[key] = cloneAny(value)
	}
	return out
}

func cloneAny(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return Clone(typed)
	case []InputField:
		out := make([]InputField, len(typed))
		for i, item := range typed {
			out[i] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneAny(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return v
	}
}

func mergeExtraProperties(f *schema.Field, value InputField) {
	for key, fixed := range f.ExtraProperties {
		value[key] = fixed
	}
}
