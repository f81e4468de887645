package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/blobs"
	"github.com/goliatone/go-stagecms/internal/forms"
	"github.com/goliatone/go-stagecms/internal/pages"
	"github.com/goliatone/go-stagecms/internal/promotions"
	"github.com/goliatone/go-stagecms/internal/schema"
	"github.com/goliatone/go-stagecms/internal/staging"
	"github.com/goliatone/go-stagecms/internal/tags"
	"github.com/goliatone/go-stagecms/internal/transform"
	"github.com/goliatone/go-stagecms/internal/validation"
)

type errorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message,omitempty"`
	Issues  []validation.ValidationIssue `json:"issues,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// statusWriteDisabled is reported with 200 when the deployment rejects writes.
const statusWriteDisabled = "write disabled"

func joinPath(base, suffix string) string {
	base = strings.TrimRight(base, "/")
	if suffix == "" {
		return base
	}
	if !strings.HasPrefix(suffix, "/") {
		suffix = "/" + suffix
	}
	return base + suffix
}

func decodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: message})
}

func mapError(err error) (int, any) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}
	if errors.Is(err, access.ErrWritesDisabled) {
		return http.StatusOK, statusResponse{Status: statusWriteDisabled}
	}

	var schemaErr *schema.DocumentError
	if errors.As(err, &schemaErr) {
		return http.StatusBadRequest, errorResponse{Error: "schema_invalid", Message: err.Error(), Issues: schemaErr.Issues()}
	}
	var docErr *validation.DocumentValidationError
	if errors.As(err, &docErr) {
		return http.StatusBadRequest, errorResponse{Error: "validation_failed", Message: err.Error(), Issues: docErr.Issues}
	}

	switch {
	case errors.Is(err, access.ErrUnauthenticated), errors.Is(err, access.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse{Error: "unauthenticated", Message: err.Error()}
	case errors.Is(err, access.ErrForbidden), errors.Is(err, access.ErrEmailNotAllowed):
		return http.StatusForbidden, errorResponse{Error: "forbidden", Message: err.Error()}
	case pages.IsNotFound(err),
		errors.Is(err, schema.ErrSchemaNotFound),
		errors.Is(err, tags.ErrTagNotFound),
		errors.Is(err, access.ErrUserNotFound),
		errors.Is(err, blobs.ErrBlobNotFound),
		errors.Is(err, promotions.ErrRecordNotFound):
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()}
	case errors.Is(err, staging.ErrTitleTaken),
		errors.Is(err, tags.ErrTagExists),
		errors.Is(err, access.ErrUserExists),
		errors.Is(err, promotions.ErrAlreadyComplete):
		return http.StatusBadRequest, errorResponse{Error: "conflict", Message: err.Error()}
	case errors.Is(err, transform.ErrInvalidLink):
		return http.StatusBadRequest, errorResponse{Error: "invalid_link", Message: err.Error()}
	case errors.Is(err, pages.ErrTitleRequired),
		errors.Is(err, pages.ErrUnknownCollection),
		errors.Is(err, forms.ErrTitleRequired),
		errors.Is(err, forms.ErrShortDescTooLong),
		errors.Is(err, schema.ErrSchemaUnresolved),
		errors.Is(err, schema.ErrInvalidSchemaID),
		errors.Is(err, tags.ErrNameRequired),
		errors.Is(err, access.ErrEmailRequired),
		errors.Is(err, access.ErrUIDRequired),
		errors.Is(err, blobs.ErrNoFile),
		errors.Is(err, blobs.ErrNotImage),
		errors.Is(err, blobs.ErrTooLarge),
		errors.Is(err, blobs.ErrInvalidImage),
		errors.Is(err, blobs.ErrImageDimension),
		errors.Is(err, blobs.ErrInvalidName):
		return http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: err.Error()}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: err.Error()}
}

func queryBool(r *http.Request, key string) bool {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	return err == nil && value
}
