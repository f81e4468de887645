package schema

import "strings"

// ImageIndex records where image references live inside the values of a
// schema's components, including open field list items at any depth.
type ImageIndex struct {
	keys  []string
	lists []*imageList
}

type imageList struct {
	key   string
	items *ImageIndex
}

// IndexImages builds the image index for every component of s.
func IndexImages(s *Schema) *ImageIndex {
	idx := &ImageIndex{}
	if s == nil {
		return idx
	}
	for _, component := range s.Components {
		idx.add(component)
	}
	return idx
}

func (idx *ImageIndex) add(f *Field) {
	if f == nil {
		return
	}
	switch f.Type {
	case TypeImage:
		idx.addKey(f.Key())
	case TypeOpenFieldList:
		child := idx.list(f.ListKey())
		for _, choice := range f.Choices {
			child.add(choice)
		}
	}
	for _, extra := range f.ExtraInputs {
		idx.add(extra)
	}
}

func (idx *ImageIndex) addKey(key string) {
	for _, existing := range idx.keys {
		if existing == key {
			return
		}
	}
	idx.keys = append(idx.keys, key)
}

func (idx *ImageIndex) list(key string) *ImageIndex {
	for _, entry := range idx.lists {
		if entry.key == key {
			return entry.items
		}
	}
	entry := &imageList{key: key, items: &ImageIndex{}}
	idx.lists = append(idx.lists, entry)
	return entry.items
}

// Empty reports whether the schema declares no image fields.
func (idx *ImageIndex) Empty() bool {
	return len(idx.Paths()) == 0
}

// Paths enumerates image positions as dot paths, e.g. "gallery.*.src".
func (idx *ImageIndex) Paths() []string {
	if idx == nil {
		return nil
	}
	out := append([]string(nil), idx.keys...)
	for _, entry := range idx.lists {
		for _, nested := range entry.items.Paths() {
			out = append(out, strings.Join([]string{entry.key, "*", nested}, "."))
		}
	}
	return out
}

// RewriteFunc receives the dot path and current reference of an image and
// returns a replacement, or false to keep the value.
type RewriteFunc func(path, ref string) (string, bool)

// Walk visits every string image reference in value. Replacements returned
// by fn are written back in place.
func (idx *ImageIndex) Walk(value map[string]any, fn RewriteFunc) {
	idx.walk("", value, fn)
}

func (idx *ImageIndex) walk(prefix string, value map[string]any, fn RewriteFunc) {
	if idx == nil || value == nil {
		return
	}
	for _, key := range idx.keys {
		ref, ok := value[key].(string)
		if !ok || ref == "" {
			continue
		}
		if next, replace := fn(prefix+key, ref); replace {
			value[key] = next
		}
	}
	for _, entry := range idx.lists {
		path := prefix + entry.key + ".*."
		switch items := value[entry.key].(type) {
		case []any:
			for _, item := range items {
				if m, ok := item.(map[string]any); ok {
					entry.items.walk(path, m, fn)
				}
			}
		case []map[string]any:
			for _, item := range items {
				entry.items.walk(path, item, fn)
			}
		}
	}
}
