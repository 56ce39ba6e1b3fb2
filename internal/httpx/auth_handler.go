package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-stockorders/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type AuthService interface {
	Register(ctx context.Context, r auth.Registration) (auth.User, error)
	Login(ctx context.Context, login, password string, rememberMe bool) (auth.TokenPair, error)
	Refresh(ctx context.Context, refresh string) (auth.TokenPair, error)
	Logout(ctx context.Context, userID int64) error
	Me(ctx context.Context, userID int64) (auth.User, error)
	Authenticator
}

type AuthHandler struct {
	Service AuthService
	Log     zerolog.Logger
}

type loginReq struct {
	Username   string `json:"username"` // username or email
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Post("/auth/refresh", h.refresh)
}

func (h *AuthHandler) RegisterPrivate(r chi.Router) {
	r.Post("/auth/logout", h.logout)
	r.Get("/auth/me", h.me)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req auth.Registration
	if err := decode(r, &req); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.Service.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decode(r, &req); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	pair, err := h.Service.Login(r.Context(), req.Username, req.Password, req.RememberMe)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := decode(r, &req); err != nil || req.RefreshToken == "" {
		writeMsg(w, http.StatusBadRequest, "refresh_token is required")
		return
	}
	pair, err := h.Service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	if err := h.Service.Logout(r.Context(), p.UserID); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	u, err := h.Service.Me(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
