package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"taeu.kr/kirosumi/internal/account"
	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/platform/web"
	"taeu.kr/kirosumi/internal/rpc"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/auth/login", web.Handler(h.handleLogin))
	mux.Handle("POST /api/auth/signup", web.Handler(h.handleSignup))
	mux.Handle("POST /api/auth/refresh", web.Handler(h.handleRefresh))
	mux.Handle("POST /api/auth/logout", web.Handler(h.handleLogout))
	mux.Handle("GET /api/auth/me", web.Handler(h.handleMe))
}

type privateData struct {
	Message string      `json:"message"`
	User    rpc.Session `json:"user"`
}

// RegisterProcedures는 인증 확인용 privateData procedure를 등록합니다
func (h *Handler) RegisterProcedures(r *rpc.Router) {
	rpc.Query(r, "privateData", func(_ context.Context, s rpc.Session, _ rpc.Empty) (privateData, error) {
		return privateData{Message: "This is private", User: s}, nil
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authUserResponse struct {
	ID       int64  `json:"id"`
	PublicID string `json:"publicId"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

func userResponse(user *account.User) map[string]any {
	return map[string]any{
		"user": authUserResponse{
			ID:       user.ID,
			PublicID: user.PublicID,
			Username: user.Username,
			Nickname: user.Nickname,
			Role:     string(user.Role),
		},
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) *web.Error {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &web.Error{Code: http.StatusBadRequest, Message: "Invalid request body", Err: err}
	}

	tokenPair, user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return &web.Error{Code: http.StatusUnauthorized, Message: "Invalid credentials", Err: err}
		}
		return &web.Error{Code: http.StatusInternalServerError, Message: "Failed to login", Err: err}
	}

	h.setAuthCookies(w, r, tokenPair)
	return web.WriteJSON(w, http.StatusOK, userResponse(user))
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) *web.Error {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &web.Error{Code: http.StatusBadRequest, Message: "Invalid request body", Err: err}
	}

	tokenPair, user, err := h.service.Signup(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSignupDisabled):
			return &web.Error{Code: http.StatusForbidden, Message: "Signup is disabled", Err: err}
		case errors.Is(err, apperr.ErrValidation):
			return &web.Error{Code: http.StatusBadRequest, Message: err.Error(), Err: err}
		case errors.Is(err, apperr.ErrConflict):
			return &web.Error{Code: http.StatusConflict, Message: err.Error(), Err: err}
		}
		return &web.Error{Code: http.StatusInternalServerError, Message: "Failed to sign up", Err: err}
	}

	h.setAuthCookies(w, r, tokenPair)
	return web.WriteJSON(w, http.StatusCreated, userResponse(user))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) *web.Error {
	refreshCookie, err := r.Cookie(RefreshCookieName)
	if err != nil || refreshCookie.Value == "" {
		return &web.Error{Code: http.StatusUnauthorized, Message: "Refresh token not found", Err: err}
	}

	tokenPair, user, err := h.service.Refresh(r.Context(), refreshCookie.Value)
	if err != nil {
		return &web.Error{Code: http.StatusUnauthorized, Message: "Invalid refresh token", Err: err}
	}

	h.setAuthCookies(w, r, tokenPair)
	return web.WriteJSON(w, http.StatusOK, userResponse(user))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) *web.Error {
	if refreshCookie, err := r.Cookie(RefreshCookieName); err == nil {
		if err := h.service.Logout(r.Context(), refreshCookie.Value); err != nil {
			return &web.Error{Code: http.StatusInternalServerError, Message: "Failed to logout", Err: err}
		}
	}
	clearAuthCookies(w, r)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) *web.Error {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return &web.Error{Code: http.StatusUnauthorized, Message: "Unauthorized"}
	}

	return web.WriteJSON(w, http.StatusOK, authUserResponse{
		ID:       claims.UserID,
		PublicID: claims.PublicID,
		Username: claims.Username,
		Nickname: claims.Nickname,
		Role:     string(claims.Role),
	})
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, r *http.Request, tokenPair *TokenPair) {
	secure := r.TLS != nil
	now := time.Now()
	cfg := h.service.Config()

	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    tokenPair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(cfg.AccessTokenTTL),
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    tokenPair.RefreshToken,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(cfg.RefreshTTL),
	})
}

func clearAuthCookies(w http.ResponseWriter, r *http.Request) {
	secure := r.TLS != nil
	expired := time.Unix(0, 0)

	for _, c := range []struct{ name, path string }{
		{AccessCookieName, "/"},
		{RefreshCookieName, refreshCookiePath},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     c.path,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			Expires:  expired,
			MaxAge:   -1,
		})
	}
}
