package handler

import (
	"context"

	"taeu.kr/kirosumi/internal/item"
	"taeu.kr/kirosumi/internal/rpc"
)

type Handler struct {
	service *item.Service
}

func NewHandler(service *item.Service) *Handler {
	return &Handler{service: service}
}

// Register는 item.* procedure를 등록합니다
func (h *Handler) Register(r *rpc.Router) {
	rpc.Query(r, "item.all", h.all)
	rpc.Query(r, "item.inbox", h.inbox)
	rpc.Query(r, "item.byProject", h.byProject)
	rpc.Query(r, "item.byId", h.byID)
	rpc.Mutation(r, "item.create", h.create)
	rpc.Mutation(r, "item.update", h.update)
	rpc.Mutation(r, "item.toggleComplete", h.toggleComplete)
	rpc.Mutation(r, "item.delete", h.softDelete)
	rpc.Mutation(r, "item.hardDelete", h.hardDelete)
}

func (h *Handler) all(ctx context.Context, s rpc.Session, in item.ListFilter) ([]*item.Item, error) {
	items, err := h.service.List(ctx, s.UserID, in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch items")
	}
	return items, nil
}

func (h *Handler) inbox(ctx context.Context, s rpc.Session, in item.InboxRequest) ([]*item.Item, error) {
	items, err := h.service.Inbox(ctx, s.UserID, in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch inbox")
	}
	return items, nil
}

func (h *Handler) byProject(ctx context.Context, s rpc.Session, in item.ByProjectRequest) ([]*item.Item, error) {
	items, err := h.service.ListByProject(ctx, s.UserID, in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch items")
	}
	return items, nil
}

func (h *Handler) byID(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*item.Item, error) {
	it, err := h.service.Get(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch item")
	}
	return it, nil
}

func (h *Handler) create(ctx context.Context, s rpc.Session, in item.CreateRequest) (*item.Item, error) {
	it, err := h.service.Create(ctx, s.UserID, &in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to create item")
	}
	return it, nil
}

func (h *Handler) update(ctx context.Context, s rpc.Session, in item.UpdateRequest) (*item.Item, error) {
	it, err := h.service.Update(ctx, s.UserID, &in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to update item")
	}
	return it, nil
}

func (h *Handler) toggleComplete(ctx context.Context, s rpc.Session, in item.ToggleRequest) (*item.Item, error) {
	it, err := h.service.ToggleComplete(ctx, s.UserID, &in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to update completion status")
	}
	return it, nil
}

func (h *Handler) softDelete(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*item.Item, error) {
	it, err := h.service.SoftDelete(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to delete item")
	}
	return it, nil
}

func (h *Handler) hardDelete(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*item.Item, error) {
	it, err := h.service.HardDelete(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to delete item")
	}
	return it, nil
}
