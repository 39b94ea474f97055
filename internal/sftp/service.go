package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	gliderssh "github.com/gliderlabs/ssh"
	pkgsftp "github.com/pkg/sftp"
	"github.com/rs/zerolog/log"
	"taeu.kr/kirosumi/internal/account"
	"taeu.kr/kirosumi/internal/notefs"
)

const (
	defaultPort     = 2222
	shutdownTimeout = 3 * time.Second
	idleTimeout     = 5 * time.Minute
)

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*account.User, bool)
}

type userIDContextKey struct{}

// Service는 사용자별 note 트리를 읽기 전용 SFTP로 노출합니다
type Service struct {
	builder       *notefs.Builder
	authenticator Authenticator
	enabled       bool
	port          int

	mu     sync.RWMutex
	server *gliderssh.Server
	addr   net.Addr
}

func NewService(builder *notefs.Builder, authenticator Authenticator, enabled bool, port int) *Service {
	if port <= 0 {
		port = defaultPort
	}
	return &Service{
		builder:       builder,
		authenticator: authenticator,
		enabled:       enabled,
		port:          port,
	}
}

// Start는 포트를 바로 열어 bind 실패를 호출자에게 돌려줍니다. 비활성화면 아무것도 하지 않는다.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.server != nil {
		return nil
	}

	keyPath, err := resolveHostKeyPath()
	if err != nil {
		return err
	}
	hostSigner, err := loadOrCreateHostSigner(keyPath)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to start sftp server on port %d: %w", s.port, err)
	}

	server := &gliderssh.Server{
		Handler: func(session gliderssh.Session) {
			_, _ = io.WriteString(session, "Only the sftp subsystem is available.\n")
			_ = session.Exit(1)
		},
		PasswordHandler: s.passwordHandler,
		SubsystemHandlers: map[string]gliderssh.SubsystemHandler{
			"sftp": s.handleSubsystem,
		},
		IdleTimeout: idleTimeout,
	}
	server.AddHostKey(hostSigner)

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, gliderssh.ErrServerClosed) {
			log.Error().Err(err).Msg("[SFTP] server stopped unexpectedly")
		}
	}()

	s.server = server
	s.addr = ln.Addr()
	log.Info().Str("addr", s.addr.String()).Str("host_key", keyPath).Msg("[SFTP] server started")
	return nil
}

func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.server = nil
	s.addr = nil
	if err != nil && !errors.Is(err, gliderssh.ErrServerClosed) {
		return err
	}
	log.Info().Msg("[SFTP] server stopped")
	return nil
}

// Running은 /api/status 점검에 씁니다
func (s *Service) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.server != nil
}

func (s *Service) passwordHandler(ctx gliderssh.Context, password string) bool {
	user, ok := s.authenticator.Authenticate(ctx, ctx.User(), password)
	if !ok {
		log.Warn().Str("user", ctx.User()).Str("remote", ctx.RemoteAddr().String()).Msg("[SFTP] invalid credentials")
		return false
	}
	ctx.SetValue(userIDContextKey{}, user.ID)
	return true
}

// handleSubsystem은 세션 시작 시점의 트리를 고정해서 서빙합니다
func (s *Service) handleSubsystem(session gliderssh.Session) {
	userID, ok := session.Context().Value(userIDContextKey{}).(int64)
	if !ok {
		_ = session.Exit(1)
		return
	}

	tree, err := s.builder.Build(session.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user", session.User()).Msg("[SFTP] failed to build notes tree")
		_ = session.Exit(1)
		return
	}

	h := newTreeHandlers(tree)
	server := pkgsftp.NewRequestServer(session, pkgsftp.Handlers{
		FileGet:  h,
		FilePut:  h,
		FileCmd:  h,
		FileList: h,
	})
	defer server.Close()

	if err := server.Serve(); err != nil && !errors.Is(err, io.EOF) {
		log.Warn().Err(err).Str("user", session.User()).Msg("[SFTP] request server error")
	}
}
