package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fernwell/nodeatlas/internal/catalog"
	"github.com/fernwell/nodeatlas/internal/connection"
	"github.com/fernwell/nodeatlas/internal/resolver"
)

// Handler holds API route handlers. All routes are observational views
// over the mined knowledge; nothing here mutates it.
type Handler struct {
	res      *resolver.Resolver
	cat      catalog.Catalog
	analyzer *connection.Analyzer
}

// NewHandler creates a new Handler.
func NewHandler(res *resolver.Resolver, cat catalog.Catalog, analyzer *connection.Analyzer) *Handler {
	return &Handler{res: res, cat: cat, analyzer: analyzer}
}

// Resolve handles GET /api/resolve?name=. A not-found resolution is still
// a 200: it is a legitimate result with provenance "not_found", not an
// HTTP error.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	writeJSON(w, http.StatusOK, h.res.Resolve(r.Context(), name))
}

// SearchTypes handles GET /api/types?q=&limit=.
func (h *Handler) SearchTypes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rows, err := h.cat.SearchTypes(q, limit)
	if err != nil {
		slog.Error("search types failed", slog.String("q", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if rows == nil {
		rows = []catalog.TypeRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"types": rows})
}

// Recommendations handles GET /api/recommendations/{type}. A type with no
// observations is a 404, distinct from an empty-but-found result.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	typeName := chi.URLParam(r, "type")
	rec, ok := h.analyzer.Recommendations(typeName)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no connection data for type"))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// TopPatterns handles GET /api/patterns?limit=.
func (h *Handler) TopPatterns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.cat.TopPatterns(limit)
	if err != nil {
		slog.Error("top patterns failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if rows == nil {
		rows = []catalog.PatternRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"patterns": rows})
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	types, patterns, err := h.cat.Stats()
	if err != nil {
		slog.Error("stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"types":    types,
		"patterns": patterns,
		"triplets": h.analyzer.Len(),
	})
}
