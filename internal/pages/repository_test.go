package pages_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-stagecms/internal/pages"
	"github.com/goliatone/go-stagecms/pkg/testsupport"
)

func newBunRepository(t *testing.T) *pages.BunRepository {
	t.Helper()
	db := testsupport.NewBunDB(t, (*pages.Page)(nil))

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheService, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return pages.NewBunRepositoryWithCache(db, cacheService, repocache.NewDefaultKeySerializer())
}

func repositories(t *testing.T) map[string]pages.Repository {
	return map[string]pages.Repository{
		"memory": pages.NewMemoryRepository(),
		"bun":    newBunRepository(t),
	}
}

func TestRepositoryPutGetRoundTrip(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			page := &pages.Page{
				Collection: pages.Staging,
				Title:      "Blink",
				ShortDesc:  "Blink an LED",
				Schema:     "builds",
				Tags:       []string{"Builds"},
				Fields: []map[string]any{
					{"layout": "build"},
					{"kind": "steps", "fields": []any{map[string]any{"type": "image", "src": "https://blobs.test/staging/a.png"}}},
				},
				User: "u1",
			}
			created, err := repo.Put(ctx, page)
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if created.ID != pages.PageID(pages.Staging, "Blink") {
				t.Fatalf("expected deterministic id got %s", created.ID)
			}

			got, err := repo.Get(ctx, pages.Staging, "Blink")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if diff := cmp.Diff(page.Fields, got.Fields); diff != "" {
				t.Fatalf("unexpected fields (-want +got):\n%s", diff)
			}
			if got.User != "u1" || got.Schema != "builds" {
				t.Fatalf("unexpected metadata %+v", got)
			}

			if _, err := repo.Get(ctx, pages.Production, "Blink"); !pages.IsNotFound(err) {
				t.Fatalf("expected collections to be separate, got %v", err)
			}
		})
	}
}

func TestRepositoryOverwriteKeepsCreatedAt(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first, err := repo.Put(ctx, &pages.Page{Collection: pages.Production, Title: "Servo", ShortDesc: "v1"})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if _, err := repo.Put(ctx, &pages.Page{Collection: pages.Production, Title: "Servo", ShortDesc: "v2"}); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err := repo.Get(ctx, pages.Production, "Servo")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.ShortDesc != "v2" {
				t.Fatalf("expected last writer to win, got %q", got.ShortDesc)
			}
			if !got.CreatedAt.Equal(first.CreatedAt) {
				t.Fatalf("expected created_at preserved: %v vs %v", first.CreatedAt, got.CreatedAt)
			}
		})
	}
}

func TestRepositoryListsAndDelete(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, p := range []*pages.Page{
				{Collection: pages.Staging, Title: "b", User: "u1"},
				{Collection: pages.Staging, Title: "a", User: "u1"},
				{Collection: pages.Staging, Title: "c", User: "u2"},
				{Collection: pages.Production, Title: "d", User: "u1"},
			} {
				if _, err := repo.Put(ctx, p); err != nil {
					t.Fatalf("put %s: %v", p.Title, err)
				}
			}

			all, err := repo.List(ctx, pages.Staging)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if diff := cmp.Diff([]string{"a", "b", "c"}, all); diff != "" {
				t.Fatalf("unexpected titles (-want +got):\n%s", diff)
			}
			own, err := repo.ListByOwner(ctx, pages.Staging, "u1")
			if err != nil {
				t.Fatalf("list by owner: %v", err)
			}
			if diff := cmp.Diff([]string{"a", "b"}, own); diff != "" {
				t.Fatalf("unexpected owned titles (-want +got):\n%s", diff)
			}

			if err := repo.Delete(ctx, pages.Staging, "a"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if ok, _ := repo.Exists(ctx, pages.Staging, "a"); ok {
				t.Fatalf("expected a deleted")
			}
			var notFound *pages.NotFoundError
			if err := repo.Delete(ctx, pages.Staging, "a"); !errors.As(err, &notFound) || notFound.Title != "a" {
				t.Fatalf("expected not found got %v", err)
			}
		})
	}
}

func TestRepositoryRejectsInvalidPages(t *testing.T) {
	repo := pages.NewMemoryRepository()
	if _, err := repo.Put(context.Background(), &pages.Page{Collection: pages.Staging, Title: "  "}); !errors.Is(err, pages.ErrTitleRequired) {
		t.Fatalf("expected title required got %v", err)
	}
	if _, err := repo.Put(context.Background(), &pages.Page{Collection: "drafts", Title: "x"}); !errors.Is(err, pages.ErrUnknownCollection) {
		t.Fatalf("expected unknown collection got %v", err)
	}
}

func TestTitlesAreCaseSensitiveIDs(t *testing.T) {
	if pages.PageID(pages.Staging, "Blink") == pages.PageID(pages.Staging, "blink") {
		t.Fatalf("expected case-sensitive ids")
	}
	if pages.PageID(pages.Staging, "Blink") == pages.PageID(pages.Production, "Blink") {
		t.Fatalf("expected ids scoped per collection")
	}
}

func TestSanitizeStripsMarkup(t *testing.T) {
	page := &pages.Page{
		Title:     "<b>Blink</b> & Fade",
		ShortDesc: `<script>alert(1)</script>Make it <i>glow</i>`,
		Tags:      []string{"<em>LED</em>"},
	}
	page.Sanitize()
	if page.Title != "Blink & Fade" {
		t.Fatalf("unexpected title %q", page.Title)
	}
	if page.ShortDesc != "Make it glow" {
		t.Fatalf("unexpected short description %q", page.ShortDesc)
	}
	if page.Tags[0] != "LED" {
		t.Fatalf("unexpected tag %q", page.Tags[0])
	}
}

func TestParseCollection(t *testing.T) {
	cases := map[string]pages.Collection{"": pages.Production, "pages": pages.Production, "Staging": pages.Staging}
	for in, want := range cases {
		got, err := pages.ParseCollection(in)
		if err != nil || got != want {
			t.Fatalf("ParseCollection(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := pages.ParseCollection("archive"); !errors.Is(err, pages.ErrUnknownCollection) {
		t.Fatalf("expected unknown collection got %v", err)
	}
}
