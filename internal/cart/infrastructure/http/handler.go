package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/internal/cart/application"
	"github.com/dmehra2102/storefront/internal/session"
	"github.com/dmehra2102/storefront/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("cart-http"),
	}
}

// Routes expects session.Middleware to run first.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.view)
	r.Post("/items/{id}", h.add)
	r.Delete("/items/{id}", h.remove)
	return r
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CartDetail")
	defer span.End()

	snap, err := h.service.View(ctx, session.IDFromContext(ctx))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, snap)
}

type addResp struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Count     int   `json:"count"`
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CartAdd")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	span.SetAttributes(attribute.Int64("product.id", id))

	sid := session.IDFromContext(ctx)
	qty, err := h.service.Add(ctx, sid, id)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	count, err := h.service.Count(ctx, sid)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, addResp{ProductID: id, Quantity: qty, Count: count})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CartRemove")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if err := h.service.Remove(ctx, session.IDFromContext(ctx), id); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
