package accesscmd

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stagecms/internal/access"
)

func newHandlers(t *testing.T) (Handlers, *access.MemoryAllowList, *access.MemoryDirectory) {
	t.Helper()
	repo := access.NewMemoryAllowList()
	directory := access.NewMemoryDirectory()
	return NewHandlers(access.NewAllowList(repo, directory), access.NewUsers(directory), directory, nil), repo, directory
}

func TestAllowAndRevokeEmail(t *testing.T) {
	handlers, repo, _ := newHandlers(t)
	ctx := context.Background()

	if err := handlers.AllowEmail.Execute(ctx, AllowEmailCommand{Email: "Editor@Example.com", Admin: true}); err != nil {
		t.Fatalf("allow: %v", err)
	}
	entry, err := repo.Get(ctx, "editor@example.com")
	if err != nil || !entry.Admin {
		t.Fatalf("expected admin entry, got %+v (%v)", entry, err)
	}
	if err := handlers.RevokeEmail.Execute(ctx, RevokeEmailCommand{Email: "editor@example.com"}); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := repo.Get(ctx, "editor@example.com"); err == nil {
		t.Fatalf("expected entry removed")
	}
}

func TestAllowEmailValidation(t *testing.T) {
	handlers, _, _ := newHandlers(t)
	for _, email := range []string{"", "not-an-email", "a@b"} {
		err := handlers.AllowEmail.Execute(context.Background(), AllowEmailCommand{Email: email})
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("expected validation error for %q, got %v", email, err)
		}
	}
}

func TestGrantAdminByEmail(t *testing.T) {
	handlers, _, directory := newHandlers(t)
	ctx := context.Background()
	user, err := directory.Create(ctx, "maker@example.com", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := handlers.GrantAdmin.Execute(ctx, GrantAdminCommand{Email: "maker@example.com"}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	got, err := directory.GetByEmail(ctx, "maker@example.com")
	if err != nil || !got.Admin || got.UID != user.UID {
		t.Fatalf("expected admin user, got %+v (%v)", got, err)
	}

	err = handlers.GrantAdmin.Execute(ctx, GrantAdminCommand{UID: user.UID, Email: "maker@example.com"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected ambiguous target rejected, got %v", err)
	}
	err = handlers.GrantAdmin.Execute(ctx, GrantAdminCommand{Email: "ghost@example.com"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command failure for unknown user, got %v", err)
	}
}
