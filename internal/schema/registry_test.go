package schema_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-stagecms/internal/schema"
)

const buildsDoc = `{
  "id": "builds",
  "name": "Builds",
  "components": [
    {"id": "intro", "type": "text"},
    {"id": "video", "type": "iframe", "transform": "youtube"}
  ]
}`

func writeSchema(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestFileRegistryLoadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "builds.json", buildsDoc)
	registry := schema.NewFileRegistry(dir)
	ctx := context.Background()

	s, err := registry.Get(ctx, "builds")
	if err != nil {
		t.Fatalf("get builds: %v", err)
	}
	if len(s.Components) != 2 || s.Components[1].Transform != "youtube" {
		t.Fatalf("unexpected schema %+v", s)
	}

	writeSchema(t, dir, "builds.json", `{"id":"builds","name":"Changed","components":[]}`)
	cached, err := registry.Get(ctx, "builds")
	if err != nil || cached.Name != "Builds" {
		t.Fatalf("expected cached schema, got %+v (%v)", cached, err)
	}

	registry.Invalidate("builds")
	reloaded, err := registry.Get(ctx, "builds")
	if err != nil || reloaded.Name != "Changed" {
		t.Fatalf("expected reloaded schema, got %+v (%v)", reloaded, err)
	}
}

func TestFileRegistryErrors(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "broken.json", `{"components":[{"id":"x","type":"video"}]}`)
	registry := schema.NewFileRegistry(dir)
	ctx := context.Background()

	if _, err := registry.Get(ctx, "missing"); !errors.Is(err, schema.ErrSchemaNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
	if _, err := registry.Get(ctx, "../etc/passwd"); !errors.Is(err, schema.ErrInvalidSchemaID) {
		t.Fatalf("expected invalid id got %v", err)
	}
	_, err := registry.Get(ctx, "broken")
	var docErr *schema.DocumentError
	if !errors.As(err, &docErr) || len(docErr.Issues()) == 0 {
		t.Fatalf("expected document error with issues got %v", err)
	}
}

func TestFileRegistryListSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "builds.json", buildsDoc)
	writeSchema(t, dir, "foundations.json", `{"name":"Foundations","components":[]}`)
	writeSchema(t, dir, "broken.json", `{"components": 3}`)
	writeSchema(t, dir, "notes.txt", "ignored")

	items, err := schema.NewFileRegistry(dir).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != "builds" || items[1].ID != "foundations" || items[1].Name != "Foundations" {
		t.Fatalf("unexpected summaries %+v", items)
	}
}

func TestFileRegistryWatchInvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "builds.json", buildsDoc)
	registry := schema.NewFileRegistry(dir)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- registry.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	if _, err := registry.Get(ctx, "builds"); err != nil {
		t.Fatalf("get: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		writeSchema(t, dir, "builds.json", `{"id":"builds","name":"Watched","components":[]}`)
		time.Sleep(50 * time.Millisecond)
		s, err := registry.Get(ctx, "builds")
		if err == nil && s.Name == "Watched" {
			return
		}
	}
	t.Fatalf("expected watcher to evict cached schema")
}

func TestResolverForPage(t *testing.T) {
	builds := &schema.Schema{ID: "builds", Name: "Builds"}
	foundations := &schema.Schema{ID: "foundations", Name: "Foundations"}
	resolver := schema.NewResolver(schema.NewMemoryRegistry(builds, foundations), nil)
	ctx := context.Background()

	s, err := resolver.ForPage(ctx, "foundations", []string{"Builds"})
	if err != nil || s.ID != "foundations" {
		t.Fatalf("expected explicit schema, got %+v (%v)", s, err)
	}
	s, err = resolver.ForPage(ctx, "", []string{"misc", "Builds"})
	if err != nil || s.ID != "builds" {
		t.Fatalf("expected tag inferred schema, got %+v (%v)", s, err)
	}
	if _, err := resolver.ForPage(ctx, "", []string{"misc"}); !errors.Is(err, schema.ErrSchemaUnresolved) {
		t.Fatalf("expected unresolved got %v", err)
	}
	if _, err := resolver.ForPage(ctx, "ghost", nil); !errors.Is(err, schema.ErrSchemaNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestMemoryRegistryList(t *testing.T) {
	registry := schema.NewMemoryRegistry(&schema.Schema{ID: "b"}, &schema.Schema{ID: "a", Name: "A"})
	items, err := registry.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != "a" || items[1].Name != "b" {
		t.Fatalf("unexpected summaries %+v", items)
	}
}

func TestRepositorySchemaFilesAreValid(t *testing.T) {
	registry := schema.NewFileRegistry(filepath.Join("..", "..", "schemas"))
	items, err := registry.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected builds and foundations, got %+v", items)
	}
	builds, err := registry.Get(context.Background(), "builds")
	if err != nil {
		t.Fatalf("get builds: %v", err)
	}
	if builds.Component("code").Transform != "makecode" {
		t.Fatalf("expected makecode transform from list form")
	}
}
