package http

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-stagecms/internal/promotions"
	"github.com/goliatone/go-stagecms/internal/staging"
	"github.com/google/uuid"
)

type promoteRequest struct {
	Name string `json:"name"`
}

type promoteResponse struct {
	Status      string             `json:"status"`
	MovedImages []string           `json:"movedImages"`
	Record      *promotions.Record `json:"record,omitempty"`
}

func (api *API) registerStagingRoutes(mux *routeTable, base string) {
	root := joinPath(base, "staging/pages")
	mux.HandleFunc("GET "+root, api.handleListDrafts)
	mux.HandleFunc("POST "+root, api.handleCreateDraft)
	mux.HandleFunc("PATCH "+root, api.handleEditDraft)
	mux.HandleFunc("DELETE "+root, api.handleDeleteDraft)
	mux.HandleFunc("GET "+joinPath(base, "staging/page/{title}"), api.handleGetDraft)

	mux.HandleFunc("POST "+joinPath(base, "staging/promote"), api.handlePromote)
	mux.HandleFunc("GET "+joinPath(base, "staging/promotions"), api.handlePendingPromotions)
	mux.HandleFunc("POST "+joinPath(base, "staging/promotions/{id}/resume"), api.handleResumePromotion)
}

func (api *API) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	if api.drafts == nil {
		unavailable(w)
		return
	}
	titles, err := api.drafts.ListOwn(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, titlesResponse{Titles: titles})
}

func (api *API) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	if api.drafts == nil {
		unavailable(w)
		return
	}
	page, err := api.drafts.Get(r.Context(), r.PathValue("title"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (api *API) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	if api.drafts == nil {
		unavailable(w)
		return
	}
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	page, err := api.drafts.Create(r.Context(), staging.FromSubmission(sub))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (api *API) handleEditDraft(w http.ResponseWriter, r *http.Request) {
	if api.drafts == nil {
		unavailable(w)
		return
	}
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	page, err := api.drafts.Edit(r.Context(), staging.FromSubmission(sub))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (api *API) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if api.drafts == nil {
		unavailable(w)
		return
	}
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		badRequest(w, "title is required")
		return
	}
	if err := api.drafts.Delete(r.Context(), title); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func (api *API) handlePromote(w http.ResponseWriter, r *http.Request) {
	if api.promotions == nil {
		unavailable(w)
		return
	}
	var req promoteRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json payload")
		return
	}
	result, err := api.promotions.Promote(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		api.logger.Error("http.promote.failed", "title", req.Name, "error", err)
		writeError(w, err)
		return
	}
	writePromoted(w, result)
}

func (api *API) handlePendingPromotions(w http.ResponseWriter, r *http.Request) {
	if api.promotions == nil {
		unavailable(w)
		return
	}
	records, err := api.promotions.Pending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (api *API) handleResumePromotion(w http.ResponseWriter, r *http.Request) {
	if api.promotions == nil {
		unavailable(w)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		badRequest(w, "invalid promotion id")
		return
	}
	result, err := api.promotions.Resume(r.Context(), id)
	if err != nil {
		api.logger.Error("http.promote.resume_failed", "record_id", id, "error", err)
		writeError(w, err)
		return
	}
	writePromoted(w, result)
}

func writePromoted(w http.ResponseWriter, result *promotions.Result) {
	moved := []string{}
	var record *promotions.Record
	if result != nil {
		if result.MovedImages != nil {
			moved = result.MovedImages
		}
		record = result.Record
	}
	writeJSON(w, http.StatusOK, promoteResponse{Status: "ok", MovedImages: moved, Record: record})
}
