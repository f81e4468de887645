package http

import (
	"context"
	"net/http"

	"github.com/goliatone/go-stagecms/internal/openapi"
)

const (
	documentTitle   = "stagecms"
	documentVersion = "v1"
)

// routeTable records every pattern it mounts so the API can describe itself.
type routeTable struct {
	mux      *http.ServeMux
	patterns []string
}

func (t *routeTable) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	t.patterns = append(t.patterns, pattern)
	if t.mux != nil {
		t.mux.HandleFunc(pattern, handler)
	}
}

func (api *API) mount(table *routeTable) {
	api.registerSchemaRoutes(table, api.basePath)
	api.registerPageRoutes(table, api.basePath)
	api.registerStagingRoutes(table, api.basePath)
	api.registerAccessRoutes(table, api.basePath)
	api.registerTagRoutes(table, api.basePath)
	api.registerUploadRoutes(table, api.basePath)
	table.HandleFunc("GET "+joinPath(api.basePath, "openapi.json"), api.handleOpenAPI)
}

// Document describes the mounted routes and, when a schema registry is
// configured, the page shape of every form schema.
func (api *API) Document(ctx context.Context) (*openapi.Document, error) {
	doc := openapi.NewDocument(documentTitle, documentVersion)
	table := &routeTable{}
	api.mount(table)
	for _, pattern := range table.patterns {
		doc.AddRoute(pattern)
	}
	if api.schemas == nil {
		return doc, nil
	}
	summaries, err := api.schemas.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, summary := range summaries {
		s, err := api.schemas.Get(ctx, summary.ID)
		if err != nil {
			return nil, err
		}
		doc.AddSchema("Page_"+s.ID, openapi.PageSchema(s))
	}
	return doc, nil
}

func (api *API) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := api.Document(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc.AsMap())
}
