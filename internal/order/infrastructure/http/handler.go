package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/internal/auth"
	"github.com/dmehra2102/storefront/internal/order/application"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/session"
	"github.com/dmehra2102/storefront/pkg/apperr"
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
		tracer:  otel.Tracer("order-http"),
	}
}

// Register adds the shopper's routes to r next to whatever else is served
// at the root. It expects session and auth middleware to have run.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(h.log))
		r.Post("/checkout", h.checkout)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
	})
}

// AdminRoutes is the back-office surface.
func (h *Handler) AdminRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireAdmin(h.log))
	r.Get("/orders", h.adminList)
	r.Patch("/orders/{id}/status", h.changeStatus)
	return r
}

type checkoutResp struct {
	Message string       `json:"message"`
	Order   domain.Order `json:"order"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Checkout")
	defer span.End()

	user, _ := auth.UserFromContext(ctx)
	if err := httpx.ParseForm(r); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	proof, closeProof, err := httpx.FormImage(r, "payment_screenshot")
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	defer closeProof()

	form := domain.Form{
		FullName:      r.FormValue("full_name"),
		PhoneNumber:   r.FormValue("phone_number"),
		Address:       r.FormValue("address"),
		PaymentMethod: r.FormValue("payment_method"),
	}
	o, err := h.service.PlaceOrder(ctx, user.ID, session.IDFromContext(ctx), form, proof)
	if err != nil {
		span.RecordError(err)
		httpx.WriteError(w, r, h.log, err)
		return
	}
	span.SetAttributes(attribute.Int64("order.id", o.ID))
	httpx.WriteJSON(w, http.StatusCreated, checkoutResp{
		Message: "Order placed! Waiting for admin approval.",
		Order:   o,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	orders, err := h.service.History(r.Context(), user.ID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	o, err := h.service.Get(r.Context(), user.ID, id)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) adminList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

type changeStatusReq struct {
	Status string `json:"status"`
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChangeOrderStatus")
	defer span.End()

	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	var req changeStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, h.log, apperr.Wrap(apperr.KindUserInput, "invalid body", err))
		return
	}
	span.SetAttributes(attribute.Int64("order.id", id), attribute.String("order.status", req.Status))

	o, err := h.service.ChangeStatus(ctx, id, req.Status)
	if err != nil {
		span.RecordError(err)
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}
