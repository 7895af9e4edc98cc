// Package handlers is the HTTP surface: upload an export, then query the
// analyzers against the parsed session.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/celldb"
	"github.com/jalad-shrimali/cdr-insight/logger"
	"github.com/jalad-shrimali/cdr-insight/report"
)

// Options configure a Handler. Cells is optional; UploadRate <= 0 leaves
// uploads unthrottled.
type Options struct {
	MaxUploadBytes  int64
	UploadRate      float64
	UploadBurst     int
	TopN            int
	MinInteractions int
	Cells           *celldb.DB
}

// Handler owns the session store and metrics of one server.
type Handler struct {
	opts    Options
	store   *Store
	metrics *Metrics
	limiter *rate.Limiter
	log     *slog.Logger
}

func New(opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.MinInteractions <= 0 {
		opts.MinInteractions = 1
	}
	h := &Handler{
		opts:    opts,
		store:   NewStore(),
		metrics: NewMetrics(),
		log:     logger.With("handlers"),
	}
	if opts.UploadRate > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(opts.UploadRate), max(opts.UploadBurst, 1))
	}
	return h
}

// Routes returns the full router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/api/cdr", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.With(h.uploadLimit).Post("/", h.upload)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(h.SessionCtx)
			r.Get("/", h.getSession)
			r.Delete("/", h.deleteSession)
			r.Get("/temporal", h.getTemporal)
			r.Get("/network", h.getNetwork)
			r.Get("/clusters", h.getClusters)
			r.Get("/contacts", h.getContacts)
			r.Get("/contacts/{contact}", h.getContactTimeline)
			r.Get("/common/{other}", h.getCommon)
			r.Get("/locations", h.getLocations)
			r.Get("/movement", h.getMovement)
			r.Get("/device", h.getDevice)
			r.Get("/records", h.getRecords)
			r.Get("/report", h.getReport)
			r.Get("/report.xlsx", h.getReportXLSX)
		})
	})
	return r
}

func (h *Handler) reportOptions() report.Options {
	return report.Options{TopN: h.opts.TopN, MinInteractions: h.opts.MinInteractions, Cells: h.opts.Cells}
}

/* ──────────── session context ──────────── */

type ctxKey struct{}

// SessionCtx loads the {id} session into the request context or answers 404.
func (h *Handler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.store.Get(chi.URLParam(r, "id"))
		if !ok {
			h.fail(w, r, http.StatusNotFound, errSessionNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *Session {
	return r.Context().Value(ctxKey{}).(*Session)
}

// uploadLimit answers 429 once the shared upload budget is spent.
func (h *Handler) uploadLimit(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			h.log.Warn("upload rate limit exceeded", slog.String("remote_addr", r.RemoteAddr))
			w.Header().Set("Retry-After", "1")
			h.fail(w, r, http.StatusTooManyRequests, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

/* ──────────── errors ──────────── */

var (
	errSessionNotFound = errors.New("session not found")
	errMissingFile     = errors.New(`multipart field "file" is required`)
	errRateLimited     = errors.New("upload rate limit exceeded, retry shortly")
)

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	} else {
		h.log.Debug("request rejected", slog.String("path", r.URL.Path), slog.Int("status", status), slog.Any("error", err))
	}
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}

// statusFor maps parser failures to 422 and everything else to 500.
func statusFor(err error) int {
	var pe *cdr.ParseError
	if errors.As(err, &pe) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"status": "ok", "sessions": h.store.Len()})
}
