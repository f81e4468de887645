package staging_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/forms"
	"github.com/goliatone/go-stagecms/internal/pages"
	"github.com/goliatone/go-stagecms/internal/staging"
	"github.com/goliatone/go-stagecms/pkg/activity"
	"github.com/google/go-cmp/cmp"
)

func as(uid string, admin bool) context.Context {
	return access.WithClaims(context.Background(), access.Claims{UID: uid, Admin: admin})
}

func seed(t *testing.T, repo pages.Repository, coll pages.Collection, title, owner string) {
	t.Helper()
	if _, err := repo.Put(context.Background(), &pages.Page{Collection: coll, Title: title, User: owner}); err != nil {
		t.Fatalf("seed %s/%s: %v", coll, title, err)
	}
}

func TestCreateDraftRejectsTitleInEitherCollection(t *testing.T) {
	cases := []struct {
		name string
		coll pages.Collection
	}{
		{name: "exists only in production", coll: pages.Production},
		{name: "exists only in staging", coll: pages.Staging},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := pages.NewMemoryRepository()
			seed(t, repo, tc.coll, "Blink", "someone")
			drafts := staging.NewDrafts(repo)

			_, err := drafts.Create(as("alice", false), &pages.Page{Title: "Blink"})
			if !errors.Is(err, staging.ErrTitleTaken) {
				t.Fatalf("expected ErrTitleTaken, got %v", err)
			}
			var taken *staging.TitleTakenError
			if !errors.As(err, &taken) || taken.Collection != tc.coll {
				t.Fatalf("expected conflict in %s, got %v", tc.coll, err)
			}
		})
	}
}

func TestCreateDraftSetsOwnerAndEmits(t *testing.T) {
	repo := pages.NewMemoryRepository()
	hook := &activity.CaptureHook{}
	drafts := staging.NewDrafts(repo, staging.WithActivityEmitter(activity.NewEmitter(activity.Hooks{hook}, activity.Config{Enabled: true, Channel: "stagecms"})))

	page, err := drafts.Create(as("alice", false), &pages.Page{Title: "<b>Blink</b>", User: "mallory", Tags: []string{"Builds"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if page.Title != "Blink" || page.User != "alice" || page.Collection != pages.Staging {
		t.Fatalf("unexpected draft %+v", page)
	}
	if diff := cmp.Diff([]string{"create"}, hook.Verbs()); diff != "" {
		t.Fatalf("activity mismatch (-want +got):\n%s", diff)
	}
	if hook.Events[0].ActorID != "alice" || hook.Events[0].ObjectID != "Blink" {
		t.Fatalf("unexpected event %+v", hook.Events[0])
	}
}

func TestCreateDraftValidation(t *testing.T) {
	drafts := staging.NewDrafts(pages.NewMemoryRepository())

	if _, err := drafts.Create(context.Background(), &pages.Page{Title: "x"}); !errors.Is(err, access.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := drafts.Create(as("alice", false), &pages.Page{Title: "  "}); !errors.Is(err, pages.ErrTitleRequired) {
		t.Fatalf("expected title required, got %v", err)
	}
	long := &pages.Page{Title: "x", ShortDesc: strings.Repeat("a", forms.MaxShortDescLength+1)}
	if _, err := drafts.Create(as("alice", false), long); !errors.Is(err, forms.ErrShortDescTooLong) {
		t.Fatalf("expected short desc error, got %v", err)
	}
}

func TestEditDraftOwnership(t *testing.T) {
	repo := pages.NewMemoryRepository()
	seed(t, repo, pages.Staging, "Blink", "alice")
	drafts := staging.NewDrafts(repo)

	if _, err := drafts.Edit(as("bob", true), &pages.Page{Title: "Blink"}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner admin, got %v", err)
	}
	edited, err := drafts.Edit(as("alice", false), &pages.Page{Title: "Blink", ShortDesc: "updated", User: "bob"})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.User != "alice" || edited.ShortDesc != "updated" {
		t.Fatalf("unexpected edit result %+v", edited)
	}
	if _, err := drafts.Edit(as("alice", false), &pages.Page{Title: "Missing"}); !pages.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteDraftOwnerOrAdmin(t *testing.T) {
	repo := pages.NewMemoryRepository()
	seed(t, repo, pages.Staging, "One", "alice")
	seed(t, repo, pages.Staging, "Two", "alice")
	drafts := staging.NewDrafts(repo)

	if err := drafts.Delete(as("bob", false), "One"); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := drafts.Delete(as("alice", false), "One"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := drafts.Delete(as("root", true), "Two"); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	titles, _ := repo.List(context.Background(), pages.Staging)
	if len(titles) != 0 {
		t.Fatalf("expected staging empty, got %v", titles)
	}
}

func TestListOwnAndGet(t *testing.T) {
	repo := pages.NewMemoryRepository()
	seed(t, repo, pages.Staging, "B", "alice")
	seed(t, repo, pages.Staging, "A", "alice")
	seed(t, repo, pages.Staging, "C", "bob")
	drafts := staging.NewDrafts(repo)

	titles, err := drafts.ListOwn(as("alice", false))
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B"}, titles); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}
	if _, err := drafts.Get(as("alice", false), "C"); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := drafts.Get(as("root", true), "C"); err != nil {
		t.Fatalf("admin get: %v", err)
	}
}

func TestWritesDisabledHasNoSideEffects(t *testing.T) {
	repo := pages.NewMemoryRepository()
	seed(t, repo, pages.Staging, "Keep", "alice")
	drafts := staging.NewDrafts(repo, staging.WithWritesEnabled(false))

	if _, err := drafts.Create(as("alice", false), &pages.Page{Title: "New"}); !errors.Is(err, access.ErrWritesDisabled) {
		t.Fatalf("expected writes disabled, got %v", err)
	}
	if err := drafts.Delete(as("alice", false), "Keep"); !errors.Is(err, access.ErrWritesDisabled) {
		t.Fatalf("expected writes disabled, got %v", err)
	}
	if _, err := drafts.Create(as("alice", false), &pages.Page{Title: "Keep"}); !errors.Is(err, staging.ErrTitleTaken) {
		t.Fatalf("expected validation before writes check, got %v", err)
	}
	titles, _ := repo.List(context.Background(), pages.Staging)
	if diff := cmp.Diff([]string{"Keep"}, titles); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}
}

func TestAdminOperations(t *testing.T) {
	repo := pages.NewMemoryRepository()
	seed(t, repo, pages.Production, "Live", "alice")
	admin := staging.NewAdmin(repo)
	ctx := as("root", true)

	if _, err := admin.List(as("alice", false), pages.Production); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := admin.List(ctx, pages.Collection("other")); !errors.Is(err, pages.ErrUnknownCollection) {
		t.Fatalf("expected unknown collection, got %v", err)
	}
	if _, err := admin.Create(ctx, pages.Production, &pages.Page{Title: "Live"}); !errors.Is(err, staging.ErrTitleTaken) {
		t.Fatalf("expected taken, got %v", err)
	}
	created, err := admin.Create(ctx, pages.Staging, &pages.Page{Title: "Live"})
	if err != nil {
		t.Fatalf("create in staging: %v", err)
	}
	if created.User != "root" {
		t.Fatalf("expected admin as owner, got %q", created.User)
	}
	edited, err := admin.Edit(ctx, pages.Production, &pages.Page{Title: "Live", ShortDesc: "new"})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.User != "alice" {
		t.Fatalf("expected owner preserved, got %q", edited.User)
	}
	if _, err := admin.Edit(ctx, pages.Production, &pages.Page{Title: "Ghost"}); !pages.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := admin.Delete(ctx, pages.Staging, "Live"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := admin.Delete(ctx, pages.Staging, "Live"); !pages.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPublish(t *testing.T) {
	repo := pages.NewMemoryRepository()
	admin := staging.NewAdmin(repo)
	ctx := as("root", true)

	sub := &forms.Submission{
		Schema: "builds",
		Title:  "Servo",
		Tags:   []string{"Builds"},
		Fields: []forms.InputField{{"text": "hello"}},
	}
	page, err := admin.Publish(ctx, staging.FromSubmission(sub), false)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if page.Collection != pages.Production || page.Schema != "builds" {
		t.Fatalf("unexpected page %+v", page)
	}
	if diff := cmp.Diff([]map[string]any{{"text": "hello"}}, page.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if _, err := admin.Publish(ctx, staging.FromSubmission(sub), false); !errors.Is(err, staging.ErrTitleTaken) {
		t.Fatalf("expected taken, got %v", err)
	}
	if _, err := admin.Publish(ctx, staging.FromSubmission(sub), true); err != nil {
		t.Fatalf("publish edit: %v", err)
	}

	published := staging.NewPublished(repo)
	titles, err := published.List(context.Background())
	if err != nil {
		t.Fatalf("published list: %v", err)
	}
	if diff := cmp.Diff([]string{"Servo"}, titles); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}
}
