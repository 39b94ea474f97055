package handler

import (
	"context"
	"errors"
	"strings"

	"taeu.kr/kirosumi/internal/project"
	"taeu.kr/kirosumi/internal/rpc"
)

type Handler struct {
	service *project.Service
}

func NewHandler(service *project.Service) *Handler {
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

// Register는 project.* procedure를 등록합니다
func (h *Handler) Register(r *rpc.Router) {
	rpc.Mutation(r, "project.createDefaultProject", h.createDefault)
	rpc.Query(r, "project.all", h.all)
	rpc.Query(r, "project.bySpaceId", h.bySpaceID)
	rpc.Query(r, "project.byId", h.byID)
	rpc.Mutation(r, "project.create", h.create)
	rpc.Mutation(r, "project.update", h.update)
	rpc.Mutation(r, "project.delete", h.softDelete)
	rpc.Mutation(r, "project.hardDelete", h.hardDelete)
}

func (h *Handler) createDefault(ctx context.Context, s rpc.Session, in spaceInput) (*project.Project, error) {
	p, err := h.service.CreateDefault(ctx, s.UserID, in.SpacePublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to create default project")
	}
	return p, nil
}

func (h *Handler) all(ctx context.Context, s rpc.Session, _ rpc.Empty) ([]*project.Project, error) {
	projects, err := h.service.List(ctx, s.UserID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch projects")
	}
	return projects, nil
}

func (h *Handler) bySpaceID(ctx context.Context, s rpc.Session, in spaceInput) ([]*project.Project, error) {
	projects, err := h.service.ListBySpace(ctx, s.UserID, in.SpacePublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch projects")
	}
	return projects, nil
}

func (h *Handler) byID(ctx context.Context, s rpc.Session, in rpc.RefInput) (*project.Project, error) {
	p, err := h.service.Get(ctx, s.UserID, in.ID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to fetch project")
	}
	return p, nil
}

func (h *Handler) create(ctx context.Context, s rpc.Session, in project.CreateRequest) (*project.Project, error) {
	p, err := h.service.Create(ctx, s.UserID, &in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to create project")
	}
	return p, nil
}

func (h *Handler) update(ctx context.Context, s rpc.Session, in project.UpdateRequest) (*project.Project, error) {
	p, err := h.service.Update(ctx, s.UserID, &in)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to update project")
	}
	return p, nil
}

func (h *Handler) softDelete(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*project.Project, error) {
	p, err := h.service.SoftDelete(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to delete project")
	}
	return p, nil
}

func (h *Handler) hardDelete(ctx context.Context, s rpc.Session, in rpc.PublicIDInput) (*project.Project, error) {
	p, err := h.service.HardDelete(ctx, s.UserID, in.PublicID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to delete project")
	}
	return p, nil
}
