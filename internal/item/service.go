package item

import (
	"context"

	"taeu.kr/kirosumi/internal/platform/apperr"
)

var ErrItemNotFound = apperr.NotFound("Item")

type Storer interface {
	List(ctx context.Context, userID int64, filter ListFilter) ([]*Item, error)
	Inbox(ctx context.Context, userID int64, spacePublicID string) ([]*Item, error)
	ListByProject(ctx context.Context, userID int64, projectPublicID string, includeCompleted bool) ([]*Item, error)
	GetByPublicID(ctx context.Context, userID int64, publicID string) (*Item, error)
	Create(ctx context.Context, userID int64, req *CreateRequest) (*Item, error)
	Update(ctx context.Context, userID int64, req *UpdateRequest) (*Item, error)
	SetCompleted(ctx context.Context, userID int64, publicID string, completed bool) (*Item, error)
	SoftDelete(ctx context.Context, userID int64, publicID string) (*Item, error)
	HardDelete(ctx context.Context, userID int64, publicID string) (*Item, error)
}

// Indexer는 item 변경을 검색 색인에 반영합니다
type Indexer interface {
	IndexItem(ctx context.Context, it *Item)
	RemoveItem(ctx context.Context, userID int64, publicID string)
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

func (s *Service) List(ctx context.Context, userID int64, filter ListFilter) ([]*Item, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.store.List(ctx, userID, filter)
}

func (s *Service) Inbox(ctx context.Context, userID int64, req InboxRequest) ([]*Item, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.Inbox(ctx, userID, req.SpacePublicID)
}

func (s *Service) ListByProject(ctx context.Context, userID int64, req ByProjectRequest) ([]*Item, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListByProject(ctx, userID, req.ProjectPublicID, req.IncludeCompleted)
}

func (s *Service) Get(ctx context.Context, userID int64, publicID string) (*Item, error) {
	return s.store.GetByPublicID(ctx, userID, publicID)
}

func (s *Service) Create(ctx context.Context, userID int64, req *CreateRequest) (*Item, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	created, err := s.store.Create(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	s.index(ctx, created)
	return created, nil
}

func (s *Service) Update(ctx context.Context, userID int64, req *UpdateRequest) (*Item, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	s.index(ctx, updated)
	return updated, nil
}

// ToggleComplete는 completed가 없으면 현재 값을 뒤집습니다.
// 이미 같은 상태라면 ErrConflict.
func (s *Service) ToggleComplete(ctx context.Context, userID int64, req *ToggleRequest) (*Item, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.store.GetByPublicID(ctx, userID, req.PublicID)
	if err != nil {
		return nil, err
	}

	completed := !existing.IsCompleted
	if req.Completed != nil {
		completed = *req.Completed
	}
	if completed == existing.IsCompleted {
		return nil, apperr.Conflict("item is already %s", completionWord(completed))
	}

	updated, err := s.store.SetCompleted(ctx, userID, req.PublicID, completed)
	if err != nil {
		return nil, err
	}
	s.index(ctx, updated)
	return updated, nil
}

func (s *Service) SoftDelete(ctx context.Context, userID int64, publicID string) (*Item, error) {
	deleted, err := s.store.SoftDelete(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}
	s.remove(ctx, userID, deleted.PublicID)
	return deleted, nil
}

func (s *Service) HardDelete(ctx context.Context, userID int64, publicID string) (*Item, error) {
	removed, err := s.store.HardDelete(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}
	s.remove(ctx, userID, removed.PublicID)
	return removed, nil
}

func (s *Service) index(ctx context.Context, it *Item) {
	if s.indexer != nil {
		s.indexer.IndexItem(ctx, it)
	}
}

func (s *Service) remove(ctx context.Context, userID int64, publicID string) {
	if s.indexer != nil {
		s.indexer.RemoveItem(ctx, userID, publicID)
	}
}

func completionWord(completed bool) string {
	if completed {
		return "completed"
	}
	return "incomplete"
}
