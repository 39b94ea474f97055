package handler

import (
	"context"

	"taeu.kr/kirosumi/internal/capture"
	"taeu.kr/kirosumi/internal/item"
	"taeu.kr/kirosumi/internal/rpc"
)

type Handler struct {
	service *capture.Service
}

func NewHandler(service *capture.Service) *Handler {
	return &Handler{service: service}
}

// Register는 capture.* procedure를 등록합니다
func (h *Handler) Register(r *rpc.Router) {
	rpc.Query(r, "capture.all", h.all)
	rpc.Query(r, "capture.byId", h.byID)
	rpc.Mutation(r, "capture.create", h.create)
	rpc.Mutation(r, "capture.update", h.update)
	rpc.Mutation(r, "capture.softDelete", h.softDelete)
	rpc.Mutation(r, "capture.hardDelete", h.hardDelete)
	rpc.Mutation(r, "capture.convertToTask", h.convertToTask)
}

func (h *Handler) all(ctx context.Context, s rpc.Session, _ rpc.Empty) ([]*capture.Capture, error) {
	captures, err := h.service.List(ctx, s.UserID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch captures")
	}
	return captures, nil
}

func (h *Handler) byID(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*capture.Capture, error) {
	c, err := h.service.Get(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch capture")
	}
	return c, nil
}

func (h *Handler) create(ctx context.Context, s rpc.Session, in capture.CreateRequest) (*capture.Capture, error) {
	c, err := h.service.Create(ctx, s.UserID, &in)
	if err != nil {
		return nil, rpc.FromError(err, "Unable to create capture")
	}
	return c, nil
}

func (h *Handler) update(ctx context.Context, s rpc.Session, in capture.UpdateRequest) (*capture.Capture, error) {
	c, err := h.service.Update(ctx, s.UserID, &in)
	if err != nil {
		return nil, rpc.FromError(err, "Unable to update capture")
	}
	return c, nil
}

func (h *Handler) softDelete(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*capture.Capture, error) {
	c, err := h.service.SoftDelete(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Unable to delete capture")
	}
	return c, nil
}

func (h *Handler) hardDelete(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*capture.Capture, error) {
	c, err := h.service.HardDelete(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Unable to delete capture")
	}
	return c, nil
}

func (h *Handler) convertToTask(ctx context.Context, s rpc.Session, in capture.ConvertRequest) (*item.Item, error) {
	task, err := h.service.ConvertToTask(ctx, s.UserID, &in)
	if err != nil {
		return nil, rpc.FromError(err, "Unable to convert capture")
	}
	return task, nil
}
