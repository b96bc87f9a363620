package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"credito/internal/credit/models"
	dErrors "credito/pkg/domain-errors"
	"credito/pkg/platform/httputil"
	"credito/pkg/requestcontext"
)

// Service is the credit lookup surface the handler needs.
type Service interface {
	FindByNumeroNfse(ctx context.Context, numeroNfse string) ([]*models.View, error)
	FindByNumeroCredito(ctx context.Context, numeroCredito string) (*models.View, error)
}

// Handler serves the credit lookup endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a credit Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the lookup routes under /api/creditos.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/creditos", func(r chi.Router) {
		r.Get("/credito/{numeroCredito}", h.handleGetByNumeroCredito)
		r.Get("/{numeroNfse}", h.handleGetByNumeroNfse)
	})
}

func (h *Handler) handleGetByNumeroNfse(w http.ResponseWriter, r *http.Request) {
	key := pathParam(r, "numeroNfse")
	views, err := h.service.FindByNumeroNfse(r.Context(), key)
	if err != nil {
		h.writeError(w, r, key, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGetByNumeroCredito(w http.ResponseWriter, r *http.Request) {
	key := pathParam(r, "numeroCredito")
	view, err := h.service.FindByNumeroCredito(r.Context(), key)
	if err != nil {
		h.writeError(w, r, key, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, key string, err error) {
	h.logger.InfoContext(r.Context(), "credit lookup rejected",
		"route", chi.RouteContext(r.Context()).RoutePattern(),
		"key", key,
		"code", dErrors.CodeOf(err),
		"request_id", requestcontext.RequestID(r.Context()),
	)
	httputil.WriteError(w, err)
}

// pathParam returns the decoded route parameter. chi routes on RawPath when the
// request has one, which leaves escapes in the captured value.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
