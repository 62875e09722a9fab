package handlers

import (
	"net/http"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/http/response"
	"github.com/diagnosis/frontdesk/internal/service"
	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	Auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

func (h *AuthHandler) Routes(limiter func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(limiter).Post("/login", h.login)
	return r
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Auth.Login(r.Context(), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, "Logged in", out)
}
