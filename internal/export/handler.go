package export

import (
	"context"
	"strconv"

	"taeu.kr/kirosumi/internal/rpc"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *rpc.Router) {
	rpc.Query(r, "export.snapshot", h.snapshot)
	rpc.Mutation(r, "export.upload", h.upload)
}

func (h *Handler) snapshot(ctx context.Context, s rpc.Session, _ rpc.Empty) (*Snapshot, error) {
	snap, err := h.service.Snapshot(ctx, s.UserID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to export data")
	}
	return snap, nil
}

func (h *Handler) upload(ctx context.Context, s rpc.Session, _ rpc.Empty) (*UploadResult, error) {
	owner := s.PublicID
	if owner == "" {
		owner = strconv.FormatInt(s.UserID, 10)
	}
	res, err := h.service.Upload(ctx, s.UserID, owner)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to upload export")
	}
	return res, nil
}
