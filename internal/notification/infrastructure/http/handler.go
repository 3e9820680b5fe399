package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmehra2102/storefront/internal/auth"
	"github.com/dmehra2102/storefront/internal/notification/application"
	"github.com/dmehra2102/storefront/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) AdminRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireAdmin(h.log))
	r.Get("/", h.list)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"notifications": items})
}
