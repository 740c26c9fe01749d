package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/shopvista/internal/domain"
	"github.com/utafrali/shopvista/internal/service"
	"github.com/utafrali/shopvista/pkg/httputil"
	"github.com/utafrali/shopvista/pkg/validator"
)

// ProductHandler serves the read-only catalog endpoints.
type ProductHandler struct {
	service *service.StorefrontService
	logger  *slog.Logger
}

// NewProductHandler creates a new catalog HTTP handler.
func NewProductHandler(svc *service.StorefrontService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := ListProductsQuery{
		Category: q.Get("category"),
		Q:        q.Get("q"),
		Sort:     q.Get("sort"),
	}
	if err := validator.Validate(query); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	category, err := domain.ParseCategory(query.Category)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: err.Error()},
		})
		return
	}

	sortKey := domain.SortByName
	if query.Sort != "" {
		sortKey = domain.SortKey(query.Sort)
	}

	products := h.service.ListProducts(r.Context(), service.ListProductsInput{
		Category: category,
		Query:    query.Q,
		Sort:     sortKey,
	})

	httputil.WriteJSON(w, http.StatusOK, httputil.NewListResponse(products))
}

// GetProduct handles GET /api/v1/products/{productId}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// ListCategories handles GET /api/v1/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.NewListResponse(h.service.Categories()))
}
