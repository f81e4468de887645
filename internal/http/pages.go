package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/goliatone/go-stagecms/internal/forms"
	"github.com/goliatone/go-stagecms/internal/pages"
	"github.com/goliatone/go-stagecms/internal/staging"
)

type titlesResponse struct {
	Titles []string `json:"titles"`
}

func (api *API) registerPageRoutes(mux *routeTable, base string) {
	mux.HandleFunc("GET "+joinPath(base, "pages"), api.handleListPublished)
	mux.HandleFunc("GET "+joinPath(base, "page/{title}"), api.handleGetPublished)
	mux.HandleFunc("POST "+joinPath(base, "pages"), api.handlePublish)

	adminRoot := joinPath(base, "admin/pages")
	mux.HandleFunc("GET "+adminRoot, api.handleAdminPages)
	mux.HandleFunc("POST "+adminRoot, api.handleAdminCreate)
	mux.HandleFunc("PUT "+adminRoot, api.handleAdminEdit)
	mux.HandleFunc("PATCH "+adminRoot, api.handleAdminEdit)
	mux.HandleFunc("DELETE "+adminRoot, api.handleAdminDelete)
}

func (api *API) handleListPublished(w http.ResponseWriter, r *http.Request) {
	if api.published == nil {
		unavailable(w)
		return
	}
	titles, err := api.published.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, titlesResponse{Titles: titles})
}

func (api *API) handleGetPublished(w http.ResponseWriter, r *http.Request) {
	if api.published == nil {
		unavailable(w)
		return
	}
	page, err := api.published.Get(r.Context(), r.PathValue("title"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handlePublish stores an assembled submission in production. Edit
// submissions overwrite; new ones must not collide.
func (api *API) handlePublish(w http.ResponseWriter, r *http.Request) {
	if api.admin == nil {
		unavailable(w)
		return
	}
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	page, err := api.admin.Publish(r.Context(), staging.FromSubmission(sub), sub.Edit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (api *API) handleAdminPages(w http.ResponseWriter, r *http.Request) {
	if api.admin == nil {
		unavailable(w)
		return
	}
	coll, ok := collectionParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if title := strings.TrimSpace(r.URL.Query().Get("title")); title != "" {
		page, err := api.admin.Get(ctx, coll, title)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}
	titles, err := api.admin.List(ctx, coll)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, titlesResponse{Titles: titles})
}

func (api *API) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	api.adminWrite(w, r, staging.Admin.Create)
}

func (api *API) handleAdminEdit(w http.ResponseWriter, r *http.Request) {
	api.adminWrite(w, r, staging.Admin.Edit)
}

func (api *API) adminWrite(w http.ResponseWriter, r *http.Request, fn func(staging.Admin, context.Context, pages.Collection, *pages.Page) (*pages.Page, error)) {
	if api.admin == nil {
		unavailable(w)
		return
	}
	coll, ok := collectionParam(w, r)
	if !ok {
		return
	}
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	page, err := fn(api.admin, r.Context(), coll, staging.FromSubmission(sub))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (api *API) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	if api.admin == nil {
		unavailable(w)
		return
	}
	coll, ok := collectionParam(w, r)
	if !ok {
		return
	}
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		badRequest(w, "title is required")
		return
	}
	if err := api.admin.Delete(r.Context(), coll, title); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func collectionParam(w http.ResponseWriter, r *http.Request) (pages.Collection, bool) {
	coll, err := pages.ParseCollection(r.URL.Query().Get("collection"))
	if err != nil {
		writeError(w, err)
		return "", false
	}
	return coll, true
}

func decodeSubmission(w http.ResponseWriter, r *http.Request) (*forms.Submission, bool) {
	var sub forms.Submission
	if err := decodeJSON(r, &sub); err != nil {
		badRequest(w, "invalid json payload")
		return nil, false
	}
	return &sub, true
}
