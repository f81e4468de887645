package http

import (
	"errors"
	"net/http"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/blobs"
)

// multipartOverhead is allowed on top of the file limit for form framing.
const multipartOverhead = 64 << 10

func (api *API) registerUploadRoutes(mux *routeTable, base string) {
	mux.HandleFunc("POST "+joinPath(base, "upload"), api.handleUpload)
}

func (api *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	if api.uploader == nil {
		unavailable(w)
		return
	}
	if _, err := access.RequireUser(r.Context(), "upload image"); err != nil {
		writeError(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, api.maxUpload+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, blobs.ErrTooLarge)
		default:
			writeError(w, blobs.ErrNoFile)
		}
		return
	}
	defer file.Close()

	result, err := api.uploader.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, err)
		return
	}
	api.logger.Info("http.upload.stored", "file", result.FileName, "width", result.Dimensions.Width, "height", result.Dimensions.Height)
	writeJSON(w, http.StatusOK, result)
}
