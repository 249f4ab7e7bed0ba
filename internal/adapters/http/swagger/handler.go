// Package swagger serves the embedded OpenAPI document of the HTTP API.
package swagger

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
)

// Register attaches the OpenAPI document route to router.
//
//	GET /openapi.yaml -> embedded OpenAPI document
func Register(_ context.Context, router *mux.Router) {
	if router == nil {
		panic("router is nil")
	}
	router.HandleFunc("/openapi.yaml", ServeOpenAPI).Methods(http.MethodGet)
}

// ServeOpenAPI writes the embedded OpenAPI document.
func ServeOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(OpenAPI)
}
