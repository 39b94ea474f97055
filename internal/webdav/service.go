package webdav

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/webdav"
	"taeu.kr/kirosumi/internal/notefs"
)

/*
요청마다 사용자의 note 트리를 새로 만들고 그 트리를 노출하는 webdav.Handler를 만든다.
LockSystem은 하나를 공유한다. 트리가 읽기 전용이라 LOCK은 핸들러 단에서 막힌다.
*/

const Prefix = "/dav"

type Service struct {
	builder *notefs.Builder
	locks   webdav.LockSystem
}

func NewService(builder *notefs.Builder) *Service {
	return &Service{
		builder: builder,
		locks:   webdav.NewMemLS(),
	}
}

// Handler는 ctx의 사용자 트리를 서빙하는 핸들러를 반환합니다
func (s *Service) Handler(ctx context.Context) (http.Handler, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, errNoUser
	}
	tree, err := s.builder.Build(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.handlerFor(tree), nil
}

func (s *Service) handlerFor(tree *notefs.Tree) http.Handler {
	return &webdav.Handler{
		Prefix:     Prefix,
		FileSystem: NewTreeFS(tree),
		LockSystem: s.locks,
		Logger: func(r *http.Request, err error) {
			if err != nil {
				log.Debug().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("[WebDAV] request failed")
			}
		},
	}
}

// RootOptionsHandler는 인증 전 DAV 핸드셰이크용 빈 트리 핸들러입니다
func (s *Service) RootOptionsHandler() http.Handler {
	return s.handlerFor(notefs.Empty())
}
