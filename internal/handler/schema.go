package handler

import (
	"net/http"

	"github.com/HolgerKurtz/meta-ads-insights/internal/schema"
)

// SchemaHandler exposes the schema registry so clients can populate their
// selection widgets.
type SchemaHandler struct {
	registry *schema.Registry
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(reg *schema.Registry) *SchemaHandler {
	return &SchemaHandler{registry: reg}
}

// GetSchema returns the registry: vocabularies, defaults and field types.
// GET /api/v1/schema
func (h *SchemaHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.File())
}
