// Package httpapi exposes the order service over HTTP. The gateway strips
// its /api/orders prefix, so routes here are service-local.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/imamhossain-git/e-commerce/internal/httpx"
	"github.com/imamhossain-git/e-commerce/internal/orders/domain"
	"github.com/imamhossain-git/e-commerce/internal/orders/repository"
	"github.com/imamhossain-git/e-commerce/internal/orders/service"
	"github.com/imamhossain-git/e-commerce/internal/session"
)

type Handler struct {
	orchestrator *service.Orchestrator
	log          *slog.Logger
}

func NewHandler(orchestrator *service.Orchestrator, log *slog.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, log: log}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{id}", h.GetOrder)
	r.Put("/orders/{id}/status", h.UpdateStatus)
	return r
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(session.Header)

	order, err := h.orchestrator.CreateOrder(r.Context(), sid)
	if err != nil {
		h.respondSagaError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(session.Header)

	orders, err := h.orchestrator.ListOrders(r.Context(), sid)
	if err != nil {
		h.respondSagaError(w, r, err)
		return
	}
	if orders == nil {
		// empty JSON array, not null
		orders = []*domain.Order{}
	}
	httpx.RespondJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(session.Header)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a positive integer")
		return
	}

	order, err := h.orchestrator.GetOrder(r.Context(), id, sid)
	if err != nil {
		h.respondSagaError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(session.Header)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a positive integer")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orchestrator.SetOrderStatus(r.Context(), id, sid, req.Status)
	if err != nil {
		h.respondSagaError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, order)
}

// respondSagaError maps every orchestrator failure to exactly one stable
// error category. Raw internal detail stays in the logs.
func (h *Handler) respondSagaError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		productErr *service.ProductUnavailableError
		depErr     *service.DependencyError
		ledgerErr  *service.LedgerError
	)

	switch {
	case errors.Is(err, service.ErrSessionRequired):
		httpx.RespondError(w, http.StatusBadRequest, "session_required", "session ID required")
	case errors.Is(err, service.ErrCartEmpty):
		httpx.RespondError(w, http.StatusBadRequest, "cart_empty", "cart is empty")
	case errors.Is(err, service.ErrInvalidStatus):
		httpx.RespondError(w, http.StatusBadRequest, "invalid_status",
			"status must be one of: pending, processing, shipped, delivered, cancelled")
	case errors.Is(err, repository.ErrOrderNotFound):
		httpx.RespondError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.As(err, &productErr):
		httpx.RespondError(w, http.StatusBadRequest, "product_unavailable", productErr.Error())
	case errors.As(err, &depErr):
		h.log.ErrorContext(r.Context(), "dependency unavailable", "backend", depErr.Backend, "error", depErr.Err)
		httpx.RespondError(w, http.StatusBadGateway, "dependency_unavailable",
			depErr.Backend+" service unavailable")
	case errors.As(err, &ledgerErr):
		h.log.ErrorContext(r.Context(), "ledger transaction failed", "error", ledgerErr.Err)
		httpx.RespondError(w, http.StatusInternalServerError, "ledger_error", "failed to persist order")
	default:
		h.log.ErrorContext(r.Context(), "unhandled order error", "error", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
