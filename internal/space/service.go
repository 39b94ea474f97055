package space

import (
	"context"

	"taeu.kr/kirosumi/internal/platform/apperr"
)

var (
	ErrSpaceNotFound        = apperr.NotFound("Space")
	ErrDefaultSpaceNotFound = apperr.NotFound("Default space")
	ErrSystemSpace          = apperr.Forbidden("system spaces cannot be modified")
)

type Storer interface {
	CreateDefault(ctx context.Context, userID int64) (*Space, error)
	List(ctx context.Context, userID int64) ([]*Space, error)
	GetDefault(ctx context.Context, userID int64) (*DefaultSpace, error)
	GetDetail(ctx context.Context, userID int64, publicID string) (*Detail, error)
	Create(ctx context.Context, userID int64, req *CreateRequest) (*Space, error)
	Update(ctx context.Context, userID int64, req *UpdateRequest) (*Space, error)
	SoftDelete(ctx context.Context, userID int64, publicID string) (*Space, []string, error)
	HardDelete(ctx context.Context, userID int64, publicID string) (*Space, []string, error)
}

// Indexer는 space와 함께 지워진 item을 검색 색인에서 뺍니다
type Indexer interface {
	RemoveItem(ctx context.Context, userID int64, publicID string)
}

type Service struct {
	store   Storer
	indexer Indexer
}

func NewService(store Storer) *Service {
	return &Service{store: store}
}

// CreateDefault는 기본 space와 기본 status를 만듭니다. 이미 있으면 기존 space를 반환한다.
func (s *Service) SetIndexer(indexer Indexer) {
	s.indexer = indexer
}

func (s *Service) CreateDefault(ctx context.Context, userID int64) (*Space, error) {
	return s.store.CreateDefault(ctx, userID)
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Space, error) {
	return s.store.List(ctx, userID)
}

func (s *Service) Default(ctx context.Context, userID int64) (*DefaultSpace, error) {
	return s.store.GetDefault(ctx, userID)
}

func (s *Service) Detail(ctx context.Context, userID int64, publicID string) (*Detail, error) {
	return s.store.GetDetail(ctx, userID, publicID)
}

func (s *Service) Create(ctx context.Context, userID int64, req *CreateRequest) (*Space, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, userID, req)
}

func (s *Service) Update(ctx context.Context, userID int64, req *UpdateRequest) (*Space, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, userID, req)
}

func (s *Service) SoftDelete(ctx context.Context, userID int64, publicID string) (*Space, error) {
	deleted, itemIDs, err := s.store.SoftDelete(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}
	s.removeItems(ctx, userID, itemIDs)
	return deleted, nil
}

func (s *Service) HardDelete(ctx context.Context, userID int64, publicID string) (*Space, error) {
	removed, itemIDs, err := s.store.HardDelete(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}
	s.removeItems(ctx, userID, itemIDs)
	return removed, nil
}

func (s *Service) removeItems(ctx context.Context, userID int64, publicIDs []string) {
	if s.indexer == nil {
		return
	}
	for _, id := range publicIDs {
		s.indexer.RemoveItem(ctx, userID, id)
	}
}
