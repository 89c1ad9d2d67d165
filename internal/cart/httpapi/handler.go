// Package httpapi exposes the cart service over HTTP. The gateway strips its
// /api/cart prefix, so routes here are service-local. GET /cart is also the
// snapshot the order service consumes when a checkout starts.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/imamhossain-git/e-commerce/internal/cart/domain"
	"github.com/imamhossain-git/e-commerce/internal/cart/service"
	"github.com/imamhossain-git/e-commerce/internal/httpx"
	"github.com/imamhossain-git/e-commerce/internal/session"
)

type Handler struct {
	carts *service.CartService
	log   *slog.Logger
}

func NewHandler(carts *service.CartService, log *slog.Logger) *Handler {
	return &Handler{carts: carts, log: log}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/cart", h.GetCart)
	r.Post("/cart", h.AddItem)
	r.Put("/cart/{product_id}", h.UpdateQuantity)
	r.Delete("/cart/{product_id}", h.RemoveItem)
	r.Delete("/cart", h.ClearCart)
	return r
}

// cartLine is the wire shape of one cart entry.
type cartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// detailedLine is a cart line decorated with catalog details for display.
// The embedded fields keep GET /cart a superset of the plain line shape the
// order service snapshots.
type detailedLine struct {
	cartLine
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
}

// lines flattens a cart most-recently-touched first.
func lines(cart *domain.Cart) []cartLine {
	items := append([]domain.CartItem(nil), cart.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AddedAt.After(items[j].AddedAt)
	})

	out := make([]cartLine, 0, len(items))
	for _, item := range items {
		out = append(out, cartLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(r.Context(), sid)
	if err != nil {
		h.respondCartError(w, r, err)
		return
	}

	details := h.carts.DescribeLines(r.Context(), cart.Items)
	out := make([]detailedLine, 0, len(cart.Items))
	for _, l := range lines(cart) {
		d := details[l.ProductID]
		out = append(out, detailedLine{
			cartLine: l,
			Name:     d.Name,
			Price:    d.Price,
			ImageURL: d.ImageURL,
		})
	}
	httpx.RespondJSON(w, http.StatusOK, out)
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	if err := h.carts.AddItem(r.Context(), sid, req.ProductID, req.Quantity); err != nil {
		h.respondCartError(w, r, err)
		return
	}

	cart, err := h.carts.GetCart(r.Context(), sid)
	if err != nil {
		h.respondCartError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, lines(cart))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), sid, productID, req.Quantity); err != nil {
		h.respondCartError(w, r, err)
		return
	}

	cart, err := h.carts.GetCart(r.Context(), sid)
	if err != nil {
		h.respondCartError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, lines(cart))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	if err := h.carts.RemoveItem(r.Context(), sid, productID); err != nil {
		h.respondCartError(w, r, err)
		return
	}

	cart, err := h.carts.GetCart(r.Context(), sid)
	if err != nil {
		h.respondCartError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, lines(cart))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	removed, err := h.carts.ClearCart(r.Context(), sid)
	if err != nil {
		h.respondCartError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]int{"items_removed": removed})
}

func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid := r.Header.Get(session.Header)
	if sid == "" {
		httpx.RespondError(w, http.StatusBadRequest, "session_required", "session ID required")
		return "", false
	}
	return sid, true
}

func (h *Handler) respondCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		httpx.RespondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
	case errors.Is(err, service.ErrUnknownProduct):
		httpx.RespondError(w, http.StatusBadRequest, "product_not_found", "product does not exist")
	case errors.Is(err, service.ErrItemNotFound):
		httpx.RespondError(w, http.StatusNotFound, "item_not_found", "item not in cart")
	default:
		h.log.ErrorContext(r.Context(), "cart operation failed", "error", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
