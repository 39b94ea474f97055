package handler

import (
	"context"

	"taeu.kr/kirosumi/internal/rpc"
	"taeu.kr/kirosumi/internal/space"
)

type Handler struct {
	service *space.Service
}

func NewHandler(service *space.Service) *Handler {
	return &Handler{service: service}
}

// Register는 space.* procedure를 등록합니다
func (h *Handler) Register(r *rpc.Router) {
	rpc.Mutation(r, "space.createDefaultSpace", h.createDefault)
	rpc.Query(r, "space.all", h.all)
	rpc.Query(r, "space.defaultSpace", h.defaultSpace)
	rpc.Query(r, "space.byId", h.byID)
	rpc.Mutation(r, "space.create", h.create)
	rpc.Mutation(r, "space.update", h.update)
	rpc.Mutation(r, "space.softDelete", h.softDelete)
	rpc.Mutation(r, "space.hardDelete", h.hardDelete)
}

func (h *Handler) createDefault(ctx context.Context, s rpc.Session, _ rpc.Empty) (*space.Space, error) {
	sp, err := h.service.CreateDefault(ctx, s.UserID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to create default space")
	}
	return sp, nil
}

func (h *Handler) all(ctx context.Context, s rpc.Session, _ rpc.Empty) ([]*space.Space, error) {
	spaces, err := h.service.List(ctx, s.UserID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch spaces")
	}
	return spaces, nil
}

func (h *Handler) defaultSpace(ctx context.Context, s rpc.Session, _ rpc.Empty) (*space.DefaultSpace, error) {
	sp, err := h.service.Default(ctx, s.UserID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch default space")
	}
	return sp, nil
}

func (h *Handler) byID(ctx context.Context, s rpc.Session, in rpc.RefInput) (*space.Detail, error) {
	detail, err := h.service.Detail(ctx, s.UserID, in.ID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch space")
	}
	return detail, nil
}

func (h *Handler) create(ctx context.Context, s rpc.Session, in space.CreateRequest) (*space.Space, error) {
	sp, err := h.service.Create(ctx, s.UserID, &in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to create space")
	}
	return sp, nil
}

func (h *Handler) update(ctx context.Context, s rpc.Session, in space.UpdateRequest) (*space.Space, error) {
	sp, err := h.service.Update(ctx, s.UserID, &in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to update space")
	}
	return sp, nil
}

func (h *Handler) softDelete(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*space.Space, error) {
	sp, err := h.service.SoftDelete(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to delete space")
	}
	return sp, nil
}

func (h *Handler) hardDelete(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*space.Space, error) {
	sp, err := h.service.HardDelete(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to delete space")
	}
	return sp, nil
}
