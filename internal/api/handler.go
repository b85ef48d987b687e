// Package api provides the HTTP surface of the server: tool dispatch under
// /v1/tools, the tool listing, and a health probe.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/datamesa/datamesa/internal/domain"
	"github.com/datamesa/datamesa/internal/engine"
	"github.com/datamesa/datamesa/internal/middleware"
	"github.com/datamesa/datamesa/internal/tools"
)

// Request bodies over this size are rejected.
const maxBodyBytes = 1 << 20

// Options carries the router knobs main resolves from config.
type Options struct {
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// TableCounter reports how many base tables are currently loaded.
type TableCounter interface {
	TableCount() int
}

// Handler serves the tool API on top of the registry.
type Handler struct {
	reg     *tools.Registry
	duckDB  *sql.DB
	tables  TableCounter
	logger  *slog.Logger
	started time.Time
}

// NewRouter builds the chi router with request IDs, logging, panic recovery,
// CORS, and rate limiting around the tool endpoints.
func NewRouter(reg *tools.Registry, duckDB *sql.DB, tables TableCounter, logger *slog.Logger, opts Options) http.Handler {
	h := &Handler{reg: reg, duckDB: duckDB, tables: tables, logger: logger, started: time.Now()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}
	if opts.RateLimitRPS > 0 {
		r.Use(middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst).Handler)
	}

	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/tools", h.listTools)
		r.Post("/tools/{tool}", h.callTool)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status":         "ok",
		"duckdb_version": engine.Version(r.Context(), h.duckDB),
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	}
	if h.tables != nil {
		payload["tables"] = h.tables.TableCount()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) listTools(w http.ResponseWriter, r *http.Request) {
	list := h.reg.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"tools": list,
			"count": len(list),
		},
		"request_id": middleware.RequestIDFromContext(r.Context()),
	})
}

func (h *Handler) callTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "tool")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, r, domain.ErrValidation("reading request body: %v", err))
		return
	}

	var args json.RawMessage
	if len(body) > 0 {
		args = body
	}

	result, err := h.reg.Call(r.Context(), name, args)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       result,
		"request_id": middleware.RequestIDFromContext(r.Context()),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.RequestIDFromContext(r.Context())
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("tool call failed", "error", err, "request_id", requestID)
	}

	payload := map[string]interface{}{
		"error":      err.Error(),
		"request_id": requestID,
	}
	var queryErr *domain.QueryError
	if errors.As(err, &queryErr) {
		payload["query"] = queryErr.Query
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
