// Package httpapi exposes the user service over HTTP. The gateway strips its
// /api/users prefix, so routes here are service-local.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/imamhossain-git/e-commerce/internal/httpx"
	"github.com/imamhossain-git/e-commerce/internal/session"
	"github.com/imamhossain-git/e-commerce/internal/users/service"
)

type Handler struct {
	users *service.UserService
	log   *slog.Logger
}

func NewHandler(users *service.UserService, log *slog.Logger) *Handler {
	return &Handler{users: users, log: log}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Get("/me", h.Me)
	return r
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.users.Register(r.Context(), r.Header.Get(session.Header), req.Email, req.Password, req.Name)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.users.Login(r.Context(), r.Header.Get(session.Header), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Me(r.Context(), r.Header.Get(session.Header))
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		httpx.RespondError(w, http.StatusBadRequest, "invalid_email", "invalid email address")
	case errors.Is(err, service.ErrWeakPassword):
		httpx.RespondError(w, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
	case errors.Is(err, service.ErrEmailTaken):
		httpx.RespondError(w, http.StatusConflict, "email_taken", "email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.RespondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, service.ErrNotAuthenticated):
		httpx.RespondError(w, http.StatusUnauthorized, "not_authenticated", "login required")
	default:
		h.log.ErrorContext(r.Context(), "user operation failed", "error", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
