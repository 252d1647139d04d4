// Package health serves the bot's liveness and readiness probes.
//
// /healthz reports liveness: a process that can answer HTTP is alive.
// /readyz reports whether the bot can actually run games, which takes two
// things: a non-empty character catalog and a reachable game store. The JSON
// body names both probes so an operator can see which one is failing.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// probeTimeout bounds a single readiness probe. The store ping is the only
// probe that can block; a probe slower than this is as bad as a failed one.
const probeTimeout = 5 * time.Second

// Checker probes one of the bot's game-running dependencies. It returns nil
// when the dependency is usable and must respect context cancellation.
type Checker func(ctx context.Context) error

// readiness is the /readyz response body. Each field holds "ok" or
// "fail: <reason>".
type readiness struct {
	Status   string `json:"status"`
	Catalog  string `json:"catalog"`
	Database string `json:"database"`
}

// Handler serves the probe endpoints. Safe for concurrent use; both checkers
// are fixed at construction.
type Handler struct {
	catalog  Checker
	database Checker
}

// New builds a probe handler over the catalog and database checkers. A nil
// checker always passes, which keeps database-less deployments ready.
func New(catalog, database Checker) *Handler {
	return &Handler{catalog: catalog, database: database}
}

// Healthz always returns 200. A process serving HTTP is alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}

// Readyz runs both probes and returns 200 only when the bot could start a
// game right now. Any failure yields 503 with the failing probe named in the
// body.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	res := readiness{Status: "ok", Catalog: "ok", Database: "ok"}
	status := http.StatusOK

	if err := h.probe(r.Context(), h.catalog); err != nil {
		res.Catalog = "fail: " + err.Error()
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	if err := h.probe(r.Context(), h.database); err != nil {
		res.Database = "fail: " + err.Error()
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, res)
}

func (h *Handler) probe(ctx context.Context, c Checker) error {
	if c == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return c(ctx)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
