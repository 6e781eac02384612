package handler

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIHandler serves the OpenAPI document describing this API.
type OpenAPIHandler struct {
	doc *openapi3.T
}

// NewOpenAPIHandler creates a new OpenAPIHandler for a prebuilt document.
func NewOpenAPIHandler(doc *openapi3.T) *OpenAPIHandler {
	return &OpenAPIHandler{doc: doc}
}

// ServeSpec returns the OpenAPI document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.doc)
}
