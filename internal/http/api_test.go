package http

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/blobs"
	"github.com/goliatone/go-stagecms/internal/pages"
	"github.com/goliatone/go-stagecms/internal/promotions"
	"github.com/goliatone/go-stagecms/internal/schema"
	"github.com/goliatone/go-stagecms/internal/staging"
	"github.com/goliatone/go-stagecms/internal/tags"
	"github.com/google/go-cmp/cmp"
)

var (
	testSecret  = []byte("test-secret")
	testLocator = blobs.NewLocator("https://storage.example.com", "site-staging", "site")
)

func gallerySchema() *schema.Schema {
	return &schema.Schema{
		ID: "gallery",
		Components: []*schema.Field{
			{ID: "hero", Type: schema.TypeImage, Binding: "src"},
			{ID: "media", Type: schema.TypeIframe, Transform: "youtube"},
		},
	}
}

type testServer struct {
	handler http.Handler
	pages   *pages.MemoryRepository
	store   *blobs.MemoryStore
	issuer  *access.TokenIssuer
}

func setupAPI(t *testing.T, writes bool) *testServer {
	t.Helper()
	verifier, err := access.NewTokenVerifier(testSecret, "")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	issuer, err := access.NewTokenIssuer(testSecret, "", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	srv := &testServer{
		pages:  pages.NewMemoryRepository(),
		store:  blobs.NewMemoryStore(),
		issuer: issuer,
	}
	registry := schema.NewMemoryRegistry(gallerySchema())
	directory := access.NewMemoryDirectory()
	allowList := access.NewAllowList(access.NewMemoryAllowList(), directory)

	api := NewAPI(
		WithSchemas(registry),
		WithPages(
			staging.NewPublished(srv.pages),
			staging.NewDrafts(srv.pages, staging.WithWritesEnabled(writes)),
			staging.NewAdmin(srv.pages, staging.WithWritesEnabled(writes)),
		),
		WithPromotions(promotions.NewService(
			srv.pages, srv.store, testLocator,
			schema.NewResolver(registry, nil),
			promotions.NewMemoryRecordRepository(),
			promotions.WithWritesEnabled(writes),
		)),
		WithTags(tags.NewService(tags.NewMemoryRepository(), tags.WithWritesEnabled(writes))),
		WithAccess(allowList, access.NewUsers(directory), access.NewAccounts(allowList, directory)),
		WithUploader(blobs.NewUploader(srv.store, testLocator), 0),
		WithTokenVerifier(verifier, ""),
		WithTokenIssuer(issuer),
	)
	srv.handler = api.Handler()
	return srv
}

func (s *testServer) token(t *testing.T, uid string, admin bool) string {
	t.Helper()
	token, err := s.issuer.Issue(access.Claims{UID: uid, Admin: admin})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func doJSONRequest(t *testing.T, h http.Handler, method, path, token string, body any, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("expected status %d got %d (%s)", wantStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestDraftPromotionLifecycle(t *testing.T) {
	srv := setupAPI(t, true)
	ctx := context.Background()
	for _, name := range []string{"thumb.png", "hero.png"} {
		if err := srv.store.Put(ctx, blobs.Staging, name, "image/png", bytes.NewReader([]byte(name))); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}
	user := srv.token(t, "u1", false)
	admin := srv.token(t, "a1", true)

	draft := map[string]any{
		"schema":    "gallery",
		"title":     "Robot Arm",
		"thumbnail": testLocator.URL(blobs.Staging, "thumb.png"),
		"tags":      []string{"Builds"},
		"fields":    []map[string]any{{"src": testLocator.URL(blobs.Staging, "hero.png")}},
	}
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/staging/pages", user, draft, http.StatusOK)
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/staging/pages", user, draft, http.StatusBadRequest)

	var own titlesResponse
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/staging/pages", user, nil, http.StatusOK), &own)
	if diff := cmp.Diff([]string{"Robot Arm"}, own.Titles); diff != "" {
		t.Fatalf("unexpected own drafts (-want +got):\n%s", diff)
	}

	doJSONRequest(t, srv.handler, http.MethodPost, "/api/staging/promote", user, promoteRequest{Name: "Robot Arm"}, http.StatusForbidden)

	var promoted promoteResponse
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodPost, "/api/staging/promote", admin, promoteRequest{Name: "Robot Arm"}, http.StatusOK), &promoted)
	if promoted.Status != "ok" {
		t.Fatalf("expected ok status, got %q", promoted.Status)
	}
	if diff := cmp.Diff([]string{"thumb.png", "hero.png"}, promoted.MovedImages); diff != "" {
		t.Fatalf("unexpected moved images (-want +got):\n%s", diff)
	}

	var page pages.Page
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/page/Robot%20Arm", "", nil, http.StatusOK), &page)
	if page.Thumbnail != testLocator.URL(blobs.Production, "thumb.png") {
		t.Fatalf("expected production thumbnail, got %q", page.Thumbnail)
	}
	if page.Fields[0]["src"] != testLocator.URL(blobs.Production, "hero.png") {
		t.Fatalf("expected production hero, got %v", page.Fields[0])
	}
	doJSONRequest(t, srv.handler, http.MethodGet, "/api/staging/page/Robot%20Arm", user, nil, http.StatusNotFound)
}

func TestWritesDisabledReportsStatus(t *testing.T) {
	srv := setupAPI(t, false)
	user := srv.token(t, "u1", false)

	rec := doJSONRequest(t, srv.handler, http.MethodPost, "/api/staging/pages", user, map[string]any{"title": "Ghost"}, http.StatusOK)
	var status statusResponse
	decodeJSONBody(t, rec, &status)
	if status.Status != statusWriteDisabled {
		t.Fatalf("expected write disabled status, got %q", status.Status)
	}
	if ok, _ := srv.pages.Exists(context.Background(), pages.Staging, "Ghost"); ok {
		t.Fatalf("expected no draft stored")
	}
}

func TestAuthErrorsMapToStatus(t *testing.T) {
	srv := setupAPI(t, true)
	user := srv.token(t, "u1", false)

	doJSONRequest(t, srv.handler, http.MethodGet, "/api/staging/pages", "", nil, http.StatusUnauthorized)
	doJSONRequest(t, srv.handler, http.MethodGet, "/api/staging/pages", "not-a-token", nil, http.StatusUnauthorized)
	doJSONRequest(t, srv.handler, http.MethodGet, "/api/admin/users", user, nil, http.StatusForbidden)
	doJSONRequest(t, srv.handler, http.MethodGet, "/api/admin/pages?collection=archive", srv.token(t, "a1", true), nil, http.StatusBadRequest)

	var claims access.Claims
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/auth/claims", user, nil, http.StatusOK), &claims)
	if claims.UID != "u1" || claims.Admin {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestSessionCookieCarriesClaims(t *testing.T) {
	srv := setupAPI(t, true)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/claims", nil)
	req.AddCookie(&http.Cookie{Name: "__session", Value: srv.token(t, "u2", true)})
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	var claims access.Claims
	decodeJSONBody(t, rec, &claims)
	if claims.UID != "u2" || !claims.Admin {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestAssembleRejectsInvalidLink(t *testing.T) {
	srv := setupAPI(t, true)
	body := draftRequest{
		Title:  "Video",
		Values: map[string]map[string]any{"media": {"media": "not-a-url"}},
	}
	var resp errorResponse
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodPost, "/api/forms/gallery/assemble", "", body, http.StatusBadRequest), &resp)
	if resp.Error != "invalid_link" {
		t.Fatalf("expected invalid_link, got %+v", resp)
	}

	body.Values["media"] = map[string]any{"media": "https://youtu.be/abc123"}
	var sub struct {
		Schema string           `json:"schema"`
		Fields []map[string]any `json:"fields"`
	}
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodPost, "/api/forms/gallery/assemble", "", body, http.StatusOK), &sub)
	if sub.Schema != "gallery" || len(sub.Fields) != 1 || sub.Fields[0]["media"] != "https://www.youtube.com/embed/abc123" {
		t.Fatalf("unexpected submission %+v", sub)
	}
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/forms/missing/assemble", "", body, http.StatusNotFound)
}

func TestSubmitPublishesAndFormReloads(t *testing.T) {
	srv := setupAPI(t, true)
	admin := srv.token(t, "a1", true)
	body := draftRequest{
		Title: "Launch",
		Tags:  []string{"News"},
		Values: map[string]map[string]any{
			"hero":  {"src": "https://img.example.com/launch.png"},
			"media": {"media": "https://youtu.be/abc123"},
		},
	}
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/forms/gallery/submit", admin, body, http.StatusOK)
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/forms/gallery/submit", admin, body, http.StatusBadRequest)

	var form formResponse
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/schema/gallery/form?page=Launch", "", nil, http.StatusOK), &form)
	if !form.Edit || form.Title != "Launch" {
		t.Fatalf("expected edit form for Launch, got %+v", form)
	}
	if got := form.Values["media"]["media"]; got != "https://www.youtube.com/embed/abc123" {
		t.Fatalf("expected stored media value, got %v", got)
	}
	if len(form.Widgets) != 2 {
		t.Fatalf("expected two widgets, got %d", len(form.Widgets))
	}

	body.Edit = true
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/forms/gallery/submit", admin, body, http.StatusOK)
}

func TestAllowListInviteAndRegister(t *testing.T) {
	srv := setupAPI(t, true)
	admin := srv.token(t, "a1", true)

	var invite inviteResponse
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/auth/invite?email=New@Example.com", "", nil, http.StatusOK), &invite)
	if invite.Allowed {
		t.Fatalf("expected email not yet allowed")
	}

	doJSONRequest(t, srv.handler, http.MethodPost, "/api/admin/allowed-emails", admin, emailRequest{Email: "New@Example.com", Admin: true}, http.StatusOK)
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/auth/invite?email=new@example.com", "", nil, http.StatusOK), &invite)
	if !invite.Allowed || invite.Email != "new@example.com" {
		t.Fatalf("unexpected invite %+v", invite)
	}

	var registered registerResponse
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodPost, "/api/auth/register", "", emailRequest{Email: "new@example.com"}, http.StatusOK), &registered)
	if registered.User == nil || !registered.User.Admin || registered.Token == "" {
		t.Fatalf("unexpected registration %+v", registered)
	}

	var claims access.Claims
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/auth/claims", registered.Token, nil, http.StatusOK), &claims)
	if claims.UID != registered.User.UID || !claims.Admin {
		t.Fatalf("unexpected claims %+v", claims)
	}
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/auth/register", "", emailRequest{Email: "new@example.com"}, http.StatusBadRequest)
}

func TestUploadStoresImageInStaging(t *testing.T) {
	srv := setupAPI(t, true)

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewGray(image.Rect(0, 0, 20, 10))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="Board.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(img.Bytes()); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+srv.token(t, "u1", false))
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	var result blobs.UploadResult
	decodeJSONBody(t, rec, &result)
	if result.Dimensions != (blobs.Dimensions{Width: 20, Height: 10}) {
		t.Fatalf("unexpected dimensions %+v", result.Dimensions)
	}
	if names := srv.store.Names(blobs.Staging); len(names) != 1 || names[0] != result.FileName {
		t.Fatalf("expected upload in staging, got %v", names)
	}
}

func TestTagRoutes(t *testing.T) {
	srv := setupAPI(t, true)
	user := srv.token(t, "u1", false)

	doJSONRequest(t, srv.handler, http.MethodPost, "/api/tags", user, tagRequest{Name: "Robots", Category: "Topic"}, http.StatusOK)
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/tags", user, tagRequest{Name: "Robots", Category: "Topic"}, http.StatusBadRequest)

	var items []tags.Tag
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/tags", "", nil, http.StatusOK), &items)
	if len(items) != 1 || items[0].Name != "Robots" || items[0].Category != "Topic" {
		t.Fatalf("unexpected tags %+v", items)
	}
	doJSONRequest(t, srv.handler, http.MethodDelete, "/api/tags?name=Robots", user, nil, http.StatusForbidden)
}

func TestOpenAPIDescribesRoutesAndSchemas(t *testing.T) {
	srv := setupAPI(t, true)
	rec := doJSONRequest(t, srv.handler, http.MethodGet, "/api/openapi.json", "", nil, http.StatusOK)

	var doc struct {
		OpenAPI    string                    `json:"openapi"`
		Paths      map[string]map[string]any `json:"paths"`
		Components struct {
			Schemas map[string]any `json:"schemas"`
		} `json:"components"`
	}
	decodeJSONBody(t, rec, &doc)

	if doc.OpenAPI == "" {
		t.Fatalf("expected openapi version")
	}
	promote, ok := doc.Paths["/api/staging/promote"]
	if !ok {
		t.Fatalf("expected promote path, got %v", doc.Paths)
	}
	if _, ok := promote["post"]; !ok {
		t.Fatalf("expected POST on promote path")
	}
	if _, ok := doc.Paths["/api/openapi.json"]["get"]; !ok {
		t.Fatalf("expected the document to describe itself")
	}
	if _, ok := doc.Components.Schemas["Page_gallery"]; !ok {
		t.Fatalf("expected gallery page component, got %v", doc.Components.Schemas)
	}
}
