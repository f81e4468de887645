package http

import (
	"net/http"
	"strings"
)

type tagRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Edit     bool   `json:"edit"`
}

func (api *API) registerTagRoutes(mux *routeTable, base string) {
	root := joinPath(base, "tags")
	mux.HandleFunc("GET "+root, api.handleListTags)
	mux.HandleFunc("POST "+root, api.handleCreateTag)
	mux.HandleFunc("DELETE "+root, api.handleDeleteTag)
}

func (api *API) handleListTags(w http.ResponseWriter, r *http.Request) {
	if api.tags == nil {
		unavailable(w)
		return
	}
	items, err := api.tags.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (api *API) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	if api.tags == nil {
		unavailable(w)
		return
	}
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json payload")
		return
	}
	tag, err := api.tags.Create(r.Context(), req.Name, req.Category, req.Edit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (api *API) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if api.tags == nil {
		unavailable(w)
		return
	}
	if err := api.tags.Delete(r.Context(), strings.TrimSpace(r.URL.Query().Get("name"))); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}
