package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/goliatone/go-stagecms/internal/forms"
	"github.com/goliatone/go-stagecms/internal/pages"
	"github.com/goliatone/go-stagecms/internal/schema"
	"github.com/goliatone/go-stagecms/internal/staging"
)

type formResponse struct {
	Schema    *schema.Schema              `json:"schema"`
	Widgets   []forms.Widget              `json:"widgets"`
	Title     string                      `json:"title,omitempty"`
	Thumbnail string                      `json:"thumbnail,omitempty"`
	ShortDesc string                      `json:"shortDesc,omitempty"`
	Tags      []string                    `json:"tags"`
	Values    map[string]forms.InputField `json:"values"`
	Edit      bool                        `json:"edit"`
	Staging   bool                        `json:"staging"`
}

type draftRequest struct {
	Title     string                      `json:"title"`
	Thumbnail string                      `json:"thumbnail"`
	ShortDesc string                      `json:"shortDesc"`
	Tags      []string                    `json:"tags"`
	Values    map[string]forms.InputField `json:"values"`
	Edit      bool                        `json:"edit"`
	Staging   bool                        `json:"staging"`
}

func (req draftRequest) draft(s *schema.Schema) forms.Draft {
	return forms.Draft{
		Schema:    s,
		Title:     req.Title,
		Thumbnail: req.Thumbnail,
		ShortDesc: req.ShortDesc,
		Tags:      req.Tags,
		Values:    req.Values,
		Edit:      req.Edit,
		Staging:   req.Staging,
	}
}

func (api *API) registerSchemaRoutes(mux *routeTable, base string) {
	mux.HandleFunc("GET "+joinPath(base, "schemas"), api.handleListSchemas)
	mux.HandleFunc("GET "+joinPath(base, "schema/{id}"), api.handleGetSchema)
	mux.HandleFunc("GET "+joinPath(base, "schema/{id}/form"), api.handleSchemaForm)
	mux.HandleFunc("POST "+joinPath(base, "forms/{id}/assemble"), api.handleAssemble)
	mux.HandleFunc("POST "+joinPath(base, "forms/{id}/submit"), api.handleSubmit)
}

func (api *API) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	if api.schemas == nil {
		unavailable(w)
		return
	}
	items, err := api.schemas.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (api *API) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	if api.schemas == nil {
		unavailable(w)
		return
	}
	s, err := api.schemas.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// handleSchemaForm renders the widget tree for a new page, or for the page
// named by ?page= when editing.
func (api *API) handleSchemaForm(w http.ResponseWriter, r *http.Request) {
	if api.schemas == nil {
		unavailable(w)
		return
	}
	ctx := r.Context()
	s, err := api.schemas.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	draft := queryBool(r, "staging")
	opts := []forms.SessionOption{forms.WithStaging(draft)}
	if title := strings.TrimSpace(r.URL.Query().Get("page")); title != "" {
		page, err := api.loadPage(ctx, title, draft)
		if err != nil {
			writeError(w, err)
			return
		}
		opts = append(opts, forms.WithDocument(documentOf(page)))
	}
	session := forms.NewSession(s, opts...)
	result := session.Draft()
	writeJSON(w, http.StatusOK, formResponse{
		Schema:    s,
		Widgets:   session.Widgets(),
		Title:     result.Title,
		Thumbnail: result.Thumbnail,
		ShortDesc: result.ShortDesc,
		Tags:      result.Tags,
		Values:    result.Values,
		Edit:      result.Edit,
		Staging:   result.Staging,
	})
}

func (api *API) handleAssemble(w http.ResponseWriter, r *http.Request) {
	sub, ok := api.assemble(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// handleSubmit assembles the draft and stores it in the collection the
// draft targets.
func (api *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sub, ok := api.assemble(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	page := staging.FromSubmission(sub)
	var (
		saved *pages.Page
		err   error
	)
	switch {
	case sub.Staging && api.drafts == nil, !sub.Staging && api.admin == nil:
		unavailable(w)
		return
	case sub.Staging && sub.Edit:
		saved, err = api.drafts.Edit(ctx, page)
	case sub.Staging:
		saved, err = api.drafts.Create(ctx, page)
	default:
		saved, err = api.admin.Publish(ctx, page, sub.Edit)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (api *API) assemble(w http.ResponseWriter, r *http.Request) (*forms.Submission, bool) {
	if api.schemas == nil {
		unavailable(w)
		return nil, false
	}
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json payload")
		return nil, false
	}
	s, err := api.schemas.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	sub, err := api.assembler.Assemble(req.draft(s))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return sub, true
}

func (api *API) loadPage(ctx context.Context, title string, draft bool) (*pages.Page, error) {
	if draft {
		if api.drafts == nil {
			return nil, &pages.NotFoundError{Collection: pages.Staging, Title: title}
		}
		return api.drafts.Get(ctx, title)
	}
	if api.published == nil {
		return nil, &pages.NotFoundError{Collection: pages.Production, Title: title}
	}
	return api.published.Get(ctx, title)
}

func documentOf(page *pages.Page) forms.Document {
	fields := make([]forms.InputField, 0, len(page.Fields))
	for _, field := range page.Fields {
		fields = append(fields, forms.InputField(field))
	}
	return forms.Document{
		Schema:    page.Schema,
		Title:     page.Title,
		Thumbnail: page.Thumbnail,
		ShortDesc: page.ShortDesc,
		Tags:      page.Tags,
		Fields:    fields,
	}
}
