package openapi

import (
	"sort"
	"strings"
)

// Version is the OpenAPI version emitted by Document.
const Version = "3.0.3"

// Document represents a minimal OpenAPI document.
type Document struct {
	OpenAPI    string
	Info       Info
	Paths      map[string]map[string]Operation
	Components Components
	Extensions map[string]any
}

// Info captures OpenAPI metadata.
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// Components aggregates schema components.
type Components struct {
	Schemas map[string]any `json:"schemas,omitempty"`
}

// Operation is one method on a path.
type Operation struct {
	OperationID string      `json:"operationId"`
	Tags        []string    `json:"tags,omitempty"`
	Parameters  []Parameter `json:"parameters,omitempty"`
}

// Parameter describes a path parameter.
type Parameter struct {
	Name     string         `json:"name"`
	In       string         `json:"in"`
	Required bool           `json:"required"`
	Schema   map[string]any `json:"schema"`
}

// NewDocument constructs a minimal OpenAPI document.
func NewDocument(title, version string) *Document {
	return &Document{
		OpenAPI: Version,
		Info: Info{
			Title:   title,
			Version: version,
		},
		Paths:      map[string]map[string]Operation{},
		Components: Components{Schemas: map[string]any{}},
		Extensions: map[string]any{},
	}
}

// AddRoute registers a ServeMux pattern such as "GET /api/page/{title}".
// Patterns without a method are ignored.
func (d *Document) AddRoute(pattern string) {
	if d == nil {
		return
	}
	method, path, ok := strings.Cut(strings.TrimSpace(pattern), " ")
	if !ok || method == "" || path == "" {
		return
	}
	method = strings.ToLower(method)
	path = strings.TrimSpace(path)
	if d.Paths == nil {
		d.Paths = map[string]map[string]Operation{}
	}
	ops := d.Paths[path]
	if ops == nil {
		ops = map[string]Operation{}
		d.Paths[path] = ops
	}
	ops[method] = Operation{
		OperationID: operationID(method, path),
		Tags:        tagOf(path),
		Parameters:  pathParameters(path),
	}
}

// AddSchema registers a component schema.
func (d *Document) AddSchema(name string, schema map[string]any) {
	if d == nil || name == "" || schema == nil {
		return
	}
	if d.Components.Schemas == nil {
		d.Components.Schemas = map[string]any{}
	}
	d.Components.Schemas[name] = schema
}

// SetExtension sets a vendor extension on the document.
func (d *Document) SetExtension(key string, value any) {
	if d == nil || !strings.HasPrefix(key, "x-") {
		return
	}
	if d.Extensions == nil {
		d.Extensions = map[string]any{}
	}
	d.Extensions[key] = value
}

// AsMap returns the document ready for JSON encoding.
func (d *Document) AsMap() map[string]any {
	if d == nil {
		return nil
	}
	paths := make(map[string]any, len(d.Paths))
	for path, ops := range d.Paths {
		entry := make(map[string]any, len(ops))
		for method, op := range ops {
			entry[method] = map[string]any{
				"operationId": op.OperationID,
				"tags":        op.Tags,
				"parameters":  op.Parameters,
				"responses": map[string]any{
					"default": map[string]any{"description": "JSON response"},
				},
			}
		}
		paths[path] = entry
	}
	out := map[string]any{
		"openapi": d.OpenAPI,
		"info": map[string]any{
			"title":   d.Info.Title,
			"version": d.Info.Version,
		},
		"paths": paths,
	}
	if len(d.Components.Schemas) > 0 {
		out["components"] = map[string]any{
			"schemas": d.Components.Schemas,
		}
	}
	for key, value := range d.Extensions {
		out[key] = value
	}
	return out
}

// Operations lists "METHOD path" pairs in a stable order.
func (d *Document) Operations() []string {
	if d == nil {
		return nil
	}
	var out []string
	for path, ops := range d.Paths {
		for method := range ops {
			out = append(out, strings.ToUpper(method)+" "+path)
		}
	}
	sort.Strings(out)
	return out
}

func pathParameters(path string) []Parameter {
	var params []Parameter
	for _, segment := range strings.Split(path, "/") {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			params = append(params, Parameter{
				Name:     strings.Trim(segment, "{}"),
				In:       "path",
				Required: true,
				Schema:   map[string]any{"type": "string"},
			})
		}
	}
	return params
}

func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(method)
	for _, segment := range strings.Split(path, "/") {
		segment = strings.Trim(segment, "{}")
		if segment == "" {
			continue
		}
		b.WriteString(strings.ToUpper(segment[:1]))
		b.WriteString(segment[1:])
	}
	return strings.NewReplacer("-", "", "_", "").Replace(b.String())
}

// tagOf groups an operation by its first segment after the API root.
func tagOf(path string) []string {
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) < 2 {
		return nil
	}
	return []string{segments[1]}
}
