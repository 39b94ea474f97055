package status

import (
	"context"
	"strings"

	"taeu.kr/kirosumi/internal/platform/apperr"
)

var ErrStatusNotFound = apperr.NotFound("Status")

type Storer interface {
	ListBySpace(ctx context.Context, userID int64, spacePublicID string) ([]*Status, error)
	GetByID(ctx context.Context, userID, id int64) (*Status, error)
	GetByPublicID(ctx context.Context, userID int64, publicID string) (*Status, error)
	Create(ctx context.Context, userID int64, req *CreateRequest) (*Status, error)
	Update(ctx context.Context, userID int64, req *UpdateRequest) (*Status, error)
	SoftDelete(ctx context.Context, userID int64, publicID string) (*Status, error)
	HardDelete(ctx context.Context, userID int64, publicID string) (*Status, error)
}

type Service struct {
	store Storer
}

func NewService(store Storer) *Service {
	return &Service{store: store}
}

func (s *Service) ListBySpace(ctx context.Context, userID int64, spacePublicID string) ([]*Status, error) {
	if strings.TrimSpace(spacePublicID) == "" {
		return nil, apperr.Invalid("spacePublicId is required")
	}
	return s.store.ListBySpace(ctx, userID, spacePublicID)
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*Status, error) {
	if id <= 0 {
		return nil, apperr.Invalid("id must be a positive integer")
	}
	return s.store.GetByID(ctx, userID, id)
}

func (s *Service) GetByPublicID(ctx context.Context, userID int64, publicID string) (*Status, error) {
	return s.store.GetByPublicID(ctx, userID, publicID)
}

func (s *Service) Create(ctx context.Context, userID int64, req *CreateRequest) (*Status, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, userID, req)
}

func (s *Service) Update(ctx context.Context, userID int64, req *UpdateRequest) (*Status, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, userID, req)
}

func (s *Service) SoftDelete(ctx context.Context, userID int64, publicID string) (*Status, error) {
	return s.store.SoftDelete(ctx, userID, publicID)
}

func (s *Service) HardDelete(ctx context.Context, userID int64, publicID string) (*Status, error) {
	return s.store.HardDelete(ctx, userID, publicID)
}
