package search

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"taeu.kr/kirosumi/internal/capture"
	"taeu.kr/kirosumi/internal/item"
	"taeu.kr/kirosumi/internal/richtext"
)

// Engine은 Meili가 구현하는 색인 쪽 동작입니다. 테스트에서 대체한다.
type Engine interface {
	Searcher
	Index(docs ...Document) error
	Delete(publicID string) error
	Clear() error
}

// recoveryNotifier는 engine이 장애에서 돌아왔을 때 알려 줍니다
type recoveryNotifier interface {
	OnRecover(fn func())
}

// Service는 engine이 건강하면 engine으로, 아니면 database로 검색합니다.
// item.Indexer와 capture.Indexer를 구현하며 색인은 비동기로 처리한다.
type Service struct {
	engine   Engine
	fallback *Database
	wg       sync.WaitGroup
}

// NewService의 engine은 nil일 수 있습니다
func NewService(engine Engine, fallback *Database) *Service {
	s := &Service{engine: engine, fallback: fallback}
	if n, ok := engine.(recoveryNotifier); ok {
		n.OnRecover(s.reindexAfterRecovery)
	}
	return s
}

// reindexAfterRecovery는 장애 동안 건너뛴 색인과 삭제를 맞춥니다
func (s *Service) reindexAfterRecovery() {
	s.wg.Add(1)
	defer s.wg.Done()
	if err := s.Reindex(context.Background()); err != nil {
		log.Warn().Err(err).Msg("[Search] reindex after recovery failed")
	}
}

func (s *Service) engineReady() bool {
	return s.engine != nil && s.engine.Healthy()
}

func (s *Service) Search(ctx context.Context, userID int64, q Query) (*Response, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if s.engineReady() {
		hits, err := s.engine.Search(ctx, userID, q)
		if err == nil {
			return &Response{Hits: nonNil(hits), Query: q.Text, Engine: "meilisearch"}, nil
		}
		log.Warn().Err(err).Msg("[Search] meilisearch failed, falling back to database")
	}

	hits, err := s.fallback.Search(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return &Response{Hits: nonNil(hits), Query: q.Text, Engine: "database"}, nil
}

func (s *Service) IndexItem(_ context.Context, it *item.Item) {
	if it == nil || it.Kind == item.KindCapture {
		return
	}
	s.index(Document{
		ID:      it.PublicID,
		UserID:  it.UserID,
		Kind:    Kind(it.Kind),
		Title:   it.Name,
		Body:    richtext.PlainText(it.Content),
		SpaceID: it.SpaceID,
	})
}

func (s *Service) RemoveItem(_ context.Context, _ int64, publicID string) {
	s.remove(publicID)
}

func (s *Service) IndexCapture(_ context.Context, c *capture.Capture) {
	if c == nil {
		return
	}
	s.index(Document{
		ID:     c.PublicID,
		UserID: c.CreatedBy,
		Kind:   KindCapture,
		Title:  c.Title,
		Body:   richtext.PlainText(c.Description),
	})
}

func (s *Service) RemoveCapture(_ context.Context, _ int64, publicID string) {
	s.remove(publicID)
}

func (s *Service) index(doc Document) {
	if !s.engineReady() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.engine.Index(doc); err != nil {
			log.Warn().Err(err).Str("id", doc.ID).Msg("[Search] index document")
		}
	}()
}

func (s *Service) remove(publicID string) {
	if !s.engineReady() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.engine.Delete(publicID); err != nil {
			log.Warn().Err(err).Str("id", publicID).Msg("[Search] delete document")
		}
	}()
}

// Reindex는 engine을 비우고 database의 모든 문서를 다시 밀어 넣습니다.
// 비우지 않으면 database에서 이미 지워진 문서가 남는다.
func (s *Service) Reindex(ctx context.Context) error {
	if !s.engineReady() {
		return nil
	}
	docs, err := s.fallback.LoadAll(ctx)
	if err != nil {
		return err
	}
	if err := s.engine.Clear(); err != nil {
		return err
	}
	if err := s.engine.Index(docs...); err != nil {
		return err
	}
	log.Info().Int("documents", len(docs)).Msg("[Search] reindexed")
	return nil
}

// Healthy는 /api/status에서 씁니다. engine이 없으면 fallback만으로 건강하다.
func (s *Service) Healthy() bool {
	if s.engine == nil {
		return true
	}
	return s.engine.Healthy()
}

// Wait는 진행 중인 비동기 색인이 끝날 때까지 기다립니다
func (s *Service) Wait() {
	s.wg.Wait()
}

func nonNil(hits []Hit) []Hit {
	if hits == nil {
		return []Hit{}
	}
	return hits
}
