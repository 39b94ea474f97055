package handler

import (
	"context"
	"errors"
	"strings"

	"taeu.kr/kirosumi/internal/rpc"
	"taeu.kr/kirosumi/internal/status"
)

type Handler struct {
	service *status.Service
}

func NewHandler(service *status.Service) *Handler {
	return &Handler{service: service}
}

type spaceInput struct {
	SpacePublicID string `json:"spacePublicId"`
}

func (in *spaceInput) Validate() error {
	in.SpacePublicID = strings.TrimSpace(in.SpacePublicID)
	if in.SpacePublicID == "" {
		return errors.New("spacePublicId is required")
	}
	return nil
}

// Register는 status.* procedure를 등록합니다
func (h *Handler) Register(r *rpc.Router) {
	rpc.Query(r, "status.allBySpaceId", h.allBySpaceID)
	rpc.Query(r, "status.byId", h.byID)
	rpc.Query(r, "status.byPublicId", h.byPublicID)
	rpc.Mutation(r, "status.create", h.create)
	rpc.Mutation(r, "status.update", h.update)
	rpc.Mutation(r, "status.softDelete", h.softDelete)
	rpc.Mutation(r, "status.hardDelete", h.hardDelete)
}

func (h *Handler) allBySpaceID(ctx context.Context, s rpc.Session, in spaceInput) ([]*status.Status, error) {
	statuses, err := h.service.ListBySpace(ctx, s.UserID, in.SpacePublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch statuses")
	}
	return statuses, nil
}

func (h *Handler) byID(ctx context.Context, s rpc.Session, in rpc.IDInput) (*status.Status, error) {
	st, err := h.service.Get(ctx, s.UserID, in.ID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch status")
	}
	return st, nil
}

func (h *Handler) byPublicID(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*status.Status, error) {
	st, err := h.service.GetByPublicID(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch status")
	}
	return st, nil
}

func (h *Handler) create(ctx context.Context, s rpc.Session, in status.CreateRequest) (*status.Status, error) {
	st, err := h.service.Create(ctx, s.UserID, &in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to create status")
	}
	return st, nil
}

func (h *Handler) update(ctx context.Context, s rpc.Session, in status.UpdateRequest) (*status.Status, error) {
	st, err := h.service.Update(ctx, s.UserID, &in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to update status")
	}
	return st, nil
}

func (h *Handler) softDelete(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*status.Status, error) {
	st, err := h.service.SoftDelete(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to delete status")
	}
	return st, nil
}

func (h *Handler) hardDelete(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*status.Status, error) {
	st, err := h.service.HardDelete(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to delete status")
	}
	return st, nil
}
