package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/internal/catalog/application"
	"github.com/dmehra2102/storefront/internal/catalog/domain"
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
		tracer:  otel.Tracer("catalog-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.home)
	r.Get("/categories", h.categories)
	r.Get("/categories/{slug}", h.category)
	r.Get("/products/{ref}", h.product)
	r.Get("/search", h.search)
	return r
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Home")
	defer span.End()

	home, err := h.service.Home(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, home)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) category(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CategoryDetail")
	defer span.End()

	page, err := h.service.Category(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) product(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ProductDetail")
	defer span.End()

	// Products are addressed by numeric id or by slug.
	var (
		p   domain.Product
		err error
	)
	ref := chi.URLParam(r, "ref")
	if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		p, err = h.service.Product(ctx, id)
	} else {
		p, err = h.service.ProductBySlug(ctx, ref)
	}
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Search")
	defer span.End()

	q := r.URL.Query().Get("q")
	results, err := h.service.Search(ctx, q)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"query": q, "results": results})
}
