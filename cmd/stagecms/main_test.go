package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/google/go-cmp/cmp"
)

const photoDoc = `{
  "id": "photo",
  "name": "Photo",
  "components": [
    {"id": "hero", "type": "image", "binding": "src"}
  ]
}`

type fixture struct {
	dir        string
	configPath string
	schemaDir  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	schemaDir := filepath.Join(dir, "schemas")
	if err := os.MkdirAll(schemaDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(schemaDir, "photo.json"), []byte(photoDoc), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	config := strings.Join([]string{
		"storage:",
		"  driver: sqlite",
		"  dsn: file:" + filepath.Join(dir, "cms.db") + "?_fk=1",
		"  writes_enabled: true",
		"  auto_migrate: true",
		"blobs:",
		"  root: " + filepath.Join(dir, "blobs"),
		"schemas:",
		"  dir: " + schemaDir,
		"auth:",
		"  secret: cli-secret",
		"logging:",
		"  provider: none",
		"",
	}, "\n")
	configPath := filepath.Join(dir, "stagecms.yaml")
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return fixture{dir: dir, configPath: configPath, schemaDir: schemaDir}
}

func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	full := append([]string{"--config", f.configPath, "--env-file", filepath.Join(f.dir, "missing.env")}, args...)
	cmd.SetArgs(full)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSchemasValidateReportsBrokenDocuments(t *testing.T) {
	f := newFixture(t)
	broken := filepath.Join(f.dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{"components": 3}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := f.run(t, "schemas", "validate", filepath.Join(f.schemaDir, "photo.json"), broken)
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	if !strings.Contains(out, "ok   "+filepath.Join(f.schemaDir, "photo.json")) {
		t.Fatalf("expected photo ok, got:\n%s", out)
	}
	if !strings.Contains(out, "FAIL "+broken) {
		t.Fatalf("expected broken failure, got:\n%s", out)
	}
}

func TestSchemasImagesListsBindings(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "schemas", "images", "photo")
	if err != nil {
		t.Fatalf("images: %v\n%s", err, out)
	}
	if strings.TrimSpace(out) == "" {
		t.Fatalf("expected image paths")
	}
}

func TestEmailsAllowListRevoke(t *testing.T) {
	f := newFixture(t)
	if out, err := f.run(t, "emails", "allow", "Editor@Example.com", "--admin"); err != nil {
		t.Fatalf("allow: %v\n%s", err, out)
	}

	out, err := f.run(t, "emails", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "editor@example.com") {
		t.Fatalf("expected lowercased email in list, got:\n%s", out)
	}

	if out, err := f.run(t, "emails", "revoke", "editor@example.com"); err != nil {
		t.Fatalf("revoke: %v\n%s", err, out)
	}
	out, err = f.run(t, "emails", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(out, "editor@example.com") {
		t.Fatalf("expected email removed, got:\n%s", out)
	}
}

func TestTokenIssuesVerifiableClaims(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "token", "--uid", "u1", "--email", "u1@example.com")
	if err != nil {
		t.Fatalf("token: %v\n%s", err, out)
	}
	verifier, err := access.NewTokenVerifier([]byte("cli-secret"), "stagecms")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	claims, err := verifier.Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	want := access.Claims{UID: "u1", Email: "u1@example.com"}
	if diff := cmp.Diff(want, claims); diff != "" {
		t.Fatalf("claims mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenRequiresUID(t *testing.T) {
	f := newFixture(t)
	if _, err := f.run(t, "token"); err == nil {
		t.Fatalf("expected error without uid")
	}
}

func TestPromotionsPendingEmpty(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "promotions", "pending")
	if err != nil {
		t.Fatalf("pending: %v\n%s", err, out)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected no pending promotions, got %q", out)
	}
}

func TestPromotionsResumeRejectsBadID(t *testing.T) {
	f := newFixture(t)
	if _, err := f.run(t, "promotions", "resume", "not-a-uuid"); err == nil {
		t.Fatalf("expected invalid id error")
	}
}

func TestReadOnlyFlagOverridesConfig(t *testing.T) {
	f := newFixture(t)
	opts := &rootOptions{configPath: f.configPath, envFiles: []string{filepath.Join(f.dir, "missing.env")}, readOnly: true}
	cfg, err := opts.loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.WritesEnabled {
		t.Fatalf("expected writes disabled")
	}
}
