package project

import (
	"context"
	"strings"

	"taeu.kr/kirosumi/internal/platform/apperr"
)

var ErrProjectNotFound = apperr.NotFound("Project")

type Storer interface {
	List(ctx context.Context, userID int64) ([]*Project, error)
	ListBySpace(ctx context.Context, userID int64, spacePublicID string) ([]*Project, error)
	GetByPublicID(ctx context.Context, userID int64, publicID string) (*Project, error)
	Count(ctx context.Context, userID int64) (int, error)
	Create(ctx context.Context, userID int64, req *CreateRequest) (*Project, error)
	CreateDefault(ctx context.Context, userID int64, spacePublicID string) (*Project, error)
	Update(ctx context.Context, userID int64, req *UpdateRequest) (*Project, error)
	SoftDelete(ctx context.Context, userID int64, publicID string) (*Project, error)
	HardDelete(ctx context.Context, userID int64, publicID string) (*Project, error)
}

type Service struct {
	store Storer
}

func NewService(store Storer) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Project, error) {
	return s.store.List(ctx, userID)
}

func (s *Service) ListBySpace(ctx context.Context, userID int64, spacePublicID string) ([]*Project, error) {
	if strings.TrimSpace(spacePublicID) == "" {
		return nil, apperr.Invalid("spacePublicId is required")
	}
	return s.store.ListBySpace(ctx, userID, spacePublicID)
}

func (s *Service) Get(ctx context.Context, userID int64, publicID string) (*Project, error) {
	return s.store.GetByPublicID(ctx, userID, publicID)
}

func (s *Service) Count(ctx context.Context, userID int64) (int, error) {
	return s.store.Count(ctx, userID)
}

func (s *Service) Create(ctx context.Context, userID int64, req *CreateRequest) (*Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, userID, req)
}

// CreateDefault는 지정한 space에 "My First Project"를 만듭니다
func (s *Service) CreateDefault(ctx context.Context, userID int64, spacePublicID string) (*Project, error) {
	if strings.TrimSpace(spacePublicID) == "" {
		return nil, apperr.Invalid("spacePublicId is required")
	}
	return s.store.CreateDefault(ctx, userID, spacePublicID)
}

func (s *Service) Update(ctx context.Context, userID int64, req *UpdateRequest) (*Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, userID, req)
}

func (s *Service) SoftDelete(ctx context.Context, userID int64, publicID string) (*Project, error) {
	return s.store.SoftDelete(ctx, userID, publicID)
}

func (s *Service) HardDelete(ctx context.Context, userID int64, publicID string) (*Project, error) {
	return s.store.HardDelete(ctx, userID, publicID)
}
