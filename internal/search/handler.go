package search

import (
	"context"

	"taeu.kr/kirosumi/internal/rpc"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *rpc.Router) {
	rpc.Query(r, "search.query", h.query)
}

func (h *Handler) query(ctx context.Context, s rpc.Session, in Query) (*Response, error) {
	resp, err := h.service.Search(ctx, s.UserID, in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to search")
	}
	return resp, nil
}
