package account

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/platform/web"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/accounts", web.Handler(h.handleList))
	mux.Handle("POST /api/accounts", web.Handler(h.handleCreate))
	mux.Handle("PATCH /api/accounts/{id}", web.Handler(h.handleUpdate))
	mux.Handle("DELETE /api/accounts/{id}", web.Handler(h.handleDelete))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) *web.Error {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		return &web.Error{Code: http.StatusInternalServerError, Message: "Failed to list users", Err: err}
	}
	return web.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) *web.Error {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &web.Error{Code: http.StatusBadRequest, Message: "Invalid request body", Err: err}
	}
	user, err := h.service.CreateUser(r.Context(), &req)
	if err != nil {
		return toWebError(err, "Failed to create user")
	}
	return web.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) *web.Error {
	id, webErr := pathID(r)
	if webErr != nil {
		return webErr
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &web.Error{Code: http.StatusBadRequest, Message: "Invalid request body", Err: err}
	}
	user, err := h.service.UpdateUser(r.Context(), id, &req)
	if err != nil {
		return toWebError(err, "Failed to update user")
	}
	return web.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) *web.Error {
	id, webErr := pathID(r)
	if webErr != nil {
		return webErr
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		return toWebError(err, "Failed to delete user")
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func pathID(r *http.Request) (int64, *web.Error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &web.Error{Code: http.StatusBadRequest, Message: "Invalid account id", Err: err}
	}
	return id, nil
}

// toWebError는 서비스 에러 종류를 HTTP 상태로 변환합니다
func toWebError(err error, fallback string) *web.Error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return &web.Error{Code: http.StatusBadRequest, Message: err.Error(), Err: err}
	case errors.Is(err, apperr.ErrNotFound):
		return &web.Error{Code: http.StatusNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, apperr.ErrConflict):
		return &web.Error{Code: http.StatusConflict, Message: err.Error(), Err: err}
	case errors.Is(err, apperr.ErrForbidden):
		return &web.Error{Code: http.StatusForbidden, Message: err.Error(), Err: err}
	default:
		return &web.Error{Code: http.StatusInternalServerError, Message: fallback, Err: err}
	}
}
