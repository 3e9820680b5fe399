package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmehra2102/storefront/internal/auth"
	"github.com/dmehra2102/storefront/internal/customrequest/application"
	"github.com/dmehra2102/storefront/internal/customrequest/domain"
	"github.com/dmehra2102/storefront/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

// Routes accepts submissions from anyone, signed in or not.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.submit)
	return r
}

func (h *Handler) AdminRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireAdmin(h.log))
	r.Get("/", h.list)
	return r
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := httpx.ParseForm(r); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	image, closeImage, err := httpx.FormImage(r, "reference_image")
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	defer closeImage()

	saved, err := h.service.Submit(r.Context(), domain.CustomRequest{
		Name:            r.FormValue("name"),
		PhoneNumber:     r.FormValue("phone_number"),
		IdeaDescription: r.FormValue("idea_description"),
	}, image)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Thanks! We will get back to you about your idea.",
		"request": saved,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.List(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}
