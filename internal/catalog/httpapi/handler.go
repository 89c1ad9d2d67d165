// Package httpapi exposes the product catalog over HTTP. The gateway strips
// its /api/products prefix, so routes here are service-local.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/imamhossain-git/e-commerce/internal/catalog/domain"
	"github.com/imamhossain-git/e-commerce/internal/catalog/repository"
	"github.com/imamhossain-git/e-commerce/internal/httpx"
)

type Handler struct {
	products repository.ProductRepository
	log      *slog.Logger
}

func NewHandler(products repository.ProductRepository, log *slog.Logger) *Handler {
	return &Handler{products: products, log: log}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Post("/products", h.CreateProduct)
	r.Put("/products/{id}", h.UpdateProduct)
	r.Delete("/products/{id}", h.DeleteProduct)
	return r
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		h.respondRepoError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		h.respondRepoError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, product)
}

type productRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	ImageURL      string  `json:"image_url"`
	StockQuantity int     `json:"stock_quantity"`
}

func (req *productRequest) validate() string {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return "name is required"
	case req.Price < 0:
		return "price cannot be negative"
	case req.StockQuantity < 0:
		return "stock quantity cannot be negative"
	}
	return ""
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_product", msg)
		return
	}

	product := &domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		ImageURL:      req.ImageURL,
		StockQuantity: req.StockQuantity,
	}
	if err := h.products.CreateProduct(r.Context(), product); err != nil {
		h.respondRepoError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_product", msg)
		return
	}

	product := &domain.Product{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		ImageURL:      req.ImageURL,
		StockQuantity: req.StockQuantity,
	}
	if err := h.products.UpdateProduct(r.Context(), product); err != nil {
		h.respondRepoError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		h.respondRepoError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondRepoError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repository.ErrProductNotFound) {
		httpx.RespondError(w, http.StatusNotFound, "product_not_found", "product not found")
		return
	}
	h.log.ErrorContext(r.Context(), "catalog operation failed", "error", err)
	httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
