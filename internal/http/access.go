package http

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-stagecms/internal/access"
)

type emailRequest struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
}

type uidRequest struct {
	UID string `json:"uid"`
}

type inviteResponse struct {
	Email   string `json:"email"`
	Allowed bool   `json:"allowed"`
}

type registerResponse struct {
	User  *access.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

func (api *API) registerAccessRoutes(mux *routeTable, base string) {
	users := joinPath(base, "admin/users")
	mux.HandleFunc("GET "+users, api.handleListUsers)
	mux.HandleFunc("POST "+users, api.handleGrantAdmin)
	mux.HandleFunc("DELETE "+users, api.handleDeleteUser)

	emails := joinPath(base, "admin/allowed-emails")
	mux.HandleFunc("GET "+emails, api.handleListAllowed)
	mux.HandleFunc("POST "+emails, api.handleAllowEmail)
	mux.HandleFunc("DELETE "+emails, api.handleRevokeEmail)

	mux.HandleFunc("GET "+joinPath(base, "auth/claims"), api.handleClaims)
	mux.HandleFunc("GET "+joinPath(base, "auth/invite"), api.handleInvite)
	mux.HandleFunc("POST "+joinPath(base, "auth/register"), api.handleRegister)
}

func (api *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if api.users == nil {
		unavailable(w)
		return
	}
	users, err := api.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (api *API) handleGrantAdmin(w http.ResponseWriter, r *http.Request) {
	if api.users == nil {
		unavailable(w)
		return
	}
	var req uidRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json payload")
		return
	}
	if err := api.users.GrantAdmin(r.Context(), strings.TrimSpace(req.UID)); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func (api *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if api.users == nil {
		unavailable(w)
		return
	}
	if err := api.users.Delete(r.Context(), strings.TrimSpace(r.URL.Query().Get("uid"))); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func (api *API) handleListAllowed(w http.ResponseWriter, r *http.Request) {
	if api.allowList == nil {
		unavailable(w)
		return
	}
	entries, err := api.allowList.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (api *API) handleAllowEmail(w http.ResponseWriter, r *http.Request) {
	if api.allowList == nil {
		unavailable(w)
		return
	}
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json payload")
		return
	}
	if err := api.allowList.Add(r.Context(), req.Email, req.Admin); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func (api *API) handleRevokeEmail(w http.ResponseWriter, r *http.Request) {
	if api.allowList == nil {
		unavailable(w)
		return
	}
	if err := api.allowList.Remove(r.Context(), r.URL.Query().Get("email")); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func (api *API) handleClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := access.RequireUser(r.Context(), "read claims")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

// handleInvite reports whether an email may register. It is the pre-check
// run before the identity provider creates the account.
func (api *API) handleInvite(w http.ResponseWriter, r *http.Request) {
	if api.allowList == nil {
		unavailable(w)
		return
	}
	email := access.NormalizeEmail(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, access.ErrEmailRequired)
		return
	}
	allowed, err := api.allowList.CheckInvite(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inviteResponse{Email: email, Allowed: allowed})
}

func (api *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if api.accounts == nil {
		unavailable(w)
		return
	}
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json payload")
		return
	}
	user, err := api.accounts.Register(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := registerResponse{User: user}
	if api.issuer != nil {
		token, err := api.issuer.Issue(access.Claims{UID: user.UID, Admin: user.Admin, Email: user.Email})
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Token = token
	}
	writeJSON(w, http.StatusOK, resp)
}
