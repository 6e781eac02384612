package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/HolgerKurtz/meta-ads-insights/internal/fetch"
	"github.com/HolgerKurtz/meta-ads-insights/internal/model"
	"github.com/HolgerKurtz/meta-ads-insights/internal/query"
	"github.com/HolgerKurtz/meta-ads-insights/internal/redact"
	"github.com/HolgerKurtz/meta-ads-insights/internal/service"
)

// Cache is the fetch cache surface the API exposes.
type Cache interface {
	Stats() fetch.Stats
	Forget(url string) bool
	Purge()
}

// InsightsHandler builds request URLs and runs the insights pipeline.
type InsightsHandler struct {
	svc    *service.InsightsService
	cache  Cache
	logger *slog.Logger
}

// NewInsightsHandler creates a new InsightsHandler.
func NewInsightsHandler(svc *service.InsightsService, cache Cache, logger *slog.Logger) *InsightsHandler {
	return &InsightsHandler{svc: svc, cache: cache, logger: logger}
}

// decodeSpec reads an InsightsRequest body. On failure it writes the error
// response and returns false.
func (h *InsightsHandler) decodeSpec(w http.ResponseWriter, r *http.Request) (query.Spec, bool) {
	var req model.InsightsRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return query.Spec{}, false
	}
	spec, err := req.Spec()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date: "+err.Error())
		return query.Spec{}, false
	}
	return h.svc.Prepare(spec), true
}

// BuildURL returns the request URL for a selection. The access token is
// redacted unless ?reveal=true is given.
// POST /api/v1/url
func (h *InsightsHandler) BuildURL(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.decodeSpec(w, r)
	if !ok {
		return
	}
	u, err := query.BuildURL(h.svc.BaseURL(), spec)
	if errors.Is(err, query.ErrMissingCredentials) {
		writeError(w, http.StatusUnprocessableEntity, query.MissingCredentialsMessage)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build URL: "+err.Error())
		return
	}
	if !queryBool(r, "reveal") {
		u = redact.Token(u, spec.AccessToken)
	}
	resp := model.URLResponse{URL: u}
	if spec.IncompleteRange() {
		resp.Warning = service.IncompleteRangeWarning
	}
	writeJSON(w, http.StatusOK, resp)
}

// Run executes the pipeline and returns the typed table.
// POST /api/v1/insights
func (h *InsightsHandler) Run(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	spec, ok := h.decodeSpec(w, r)
	if !ok {
		return
	}
	if err := query.Validate(h.svc.Registry(), spec); err != nil {
		if errors.Is(err, query.ErrMissingCredentials) {
			writeError(w, http.StatusUnprocessableEntity, query.MissingCredentialsMessage)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep := h.svc.Run(r.Context(), spec)
	switch {
	case rep.ValidationMessage != "":
		writeError(w, http.StatusUnprocessableEntity, rep.ValidationMessage)
		return
	case rep.Error != "":
		writeError(w, http.StatusBadGateway, rep.Error, map[string]any{"url": rep.URL})
		return
	}

	resp := model.InsightsResponse{
		URL:       rep.URL,
		RowCount:  rep.RowCount,
		Truncated: rep.Truncated,
		Columns:   rep.Table.Describe(),
		Rows:      rep.Table.Records(),
		TookMs:    float64(time.Since(start).Microseconds()) / 1000.0,
	}
	if rep.Truncated {
		resp.Warning = service.TruncatedWarning
	} else if spec.IncompleteRange() {
		resp.Warning = service.IncompleteRangeWarning
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to encode insights response", "url", rep.URL, "error", err)
	}
}

// CacheStats reports fetch cache counters.
// GET /api/v1/cache
func (h *InsightsHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats())
}

// PurgeCache drops every memoized fetch result, or only the one for the
// request URL given as ?url=.
// DELETE /api/v1/cache
func (h *InsightsHandler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	if u := r.URL.Query().Get("url"); u != "" {
		forgotten := h.cache.Forget(u)
		h.logger.Info("fetch cache entry forgotten", "url", redact.Secrets(u), "forgotten", forgotten)
		writeJSON(w, http.StatusOK, map[string]bool{"forgotten": forgotten})
		return
	}
	purged := h.cache.Stats().Entries
	h.cache.Purge()
	h.logger.Info("fetch cache purged", "entries", purged)
	writeJSON(w, http.StatusOK, map[string]int{"purged": purged})
}
