package capture

import (
	"context"

	"taeu.kr/kirosumi/internal/item"
	"taeu.kr/kirosumi/internal/platform/apperr"
)

var ErrCaptureNotFound = apperr.NotFound("Capture")

type Storer interface {
	List(ctx context.Context, userID int64) ([]*Capture, error)
	GetByPublicID(ctx context.Context, userID int64, publicID string) (*Capture, error)
	Create(ctx context.Context, userID int64, req *CreateRequest) (*Capture, error)
	Update(ctx context.Context, userID int64, req *UpdateRequest) (*Capture, error)
	SoftDelete(ctx context.Context, userID int64, publicID string) (*Capture, error)
	HardDelete(ctx context.Context, userID int64, publicID string) (*Capture, error)
	ConvertToTask(ctx context.Context, userID int64, req *ConvertRequest) (*item.Item, error)
}

// Indexer는 capture 변경과 변환으로 생긴 task를 검색 색인에 반영합니다
type Indexer interface {
	IndexCapture(ctx context.Context, c *Capture)
	RemoveCapture(ctx context.Context, userID int64, publicID string)
	IndexItem(ctx context.Context, it *item.Item)
}

type Service struct {
	store   Storer
	indexer Indexer
}

func NewService(store Storer) *Service {
	return &Service{store: store}
}

func (s *Service) SetIndexer(indexer Indexer) {
	s.indexer = indexer
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Capture, error) {
	return s.store.List(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID int64, publicID string) (*Capture, error) {
	return s.store.GetByPublicID(ctx, userID, publicID)
}

func (s *Service) Create(ctx context.Context, userID int64, req *CreateRequest) (*Capture, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	created, err := s.store.Create(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if s.indexer != nil {
		s.indexer.IndexCapture(ctx, created)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, userID int64, req *UpdateRequest) (*Capture, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if s.indexer != nil {
		s.indexer.IndexCapture(ctx, updated)
	}
	return updated, nil
}

func (s *Service) SoftDelete(ctx context.Context, userID int64, publicID string) (*Capture, error) {
	deleted, err := s.store.SoftDelete(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}
	s.remove(ctx, userID, deleted.PublicID)
	return deleted, nil
}

func (s *Service) HardDelete(ctx context.Context, userID int64, publicID string) (*Capture, error) {
	removed, err := s.store.HardDelete(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}
	s.remove(ctx, userID, removed.PublicID)
	return removed, nil
}

// ConvertToTask는 capture로부터 task를 만들고 capture를 soft delete 합니다
func (s *Service) ConvertToTask(ctx context.Context, userID int64, req *ConvertRequest) (*item.Item, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	task, err := s.store.ConvertToTask(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if s.indexer != nil {
		s.indexer.RemoveCapture(ctx, userID, req.PublicID)
		s.indexer.IndexItem(ctx, task)
	}
	return task, nil
}

func (s *Service) remove(ctx context.Context, userID int64, publicID string) {
	if s.indexer != nil {
		s.indexer.RemoveCapture(ctx, userID, publicID)
	}
}
