package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"taeu.kr/kirosumi/internal/platform/apperr"
)

var (
	ErrUserNotFound          = apperr.NotFound("User")
	ErrInitialSetupCompleted = apperr.Conflict("initial admin already exists")
)

type Storer interface {
	ListUsers(ctx context.Context) ([]*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, req *CreateUserRequest, passwordHash string) (*User, error)
	UpdateUser(ctx context.Context, id int64, req *UpdateUserRequest, passwordHash *string) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
	CountAdmins(ctx context.Context) (int, error)
}

// Provisioner는 새 사용자의 기본 작업 공간을 준비합니다
type Provisioner interface {
	ProvisionUser(ctx context.Context, userID int64) error
}

type Service struct {
	store       Storer
	provisioner Provisioner
}

func NewService(store Storer) *Service {
	return &Service{store: store}
}

func (s *Service) SetProvisioner(p Provisioner) {
	s.provisioner = p
}

// EnsureDefaultAdmin은 설정에 관리자 계정이 지정된 경우에만 생성합니다.
// 약한 기본 비밀번호로 관리자를 만들지 않는다.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, admin AdminBootstrap) error {
	username := strings.TrimSpace(admin.Username)
	password := strings.TrimSpace(admin.Password)
	if username == "" || password == "" {
		return nil
	}

	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil
	}

	nickname := strings.TrimSpace(admin.Nickname)
	if nickname == "" {
		nickname = "Administrator"
	}

	_, err := s.BootstrapInitialAdmin(ctx, &CreateUserRequest{
		Username: username,
		Password: password,
		Nickname: nickname,
	})
	if err != nil {
		return err
	}
	log.Info().Str("username", username).Msg("[Account] initial admin created")
	return nil
}

func (s *Service) NeedsBootstrap(ctx context.Context) (bool, error) {
	count, err := s.store.CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (s *Service) BootstrapInitialAdmin(ctx context.Context, req *CreateUserRequest) (*User, error) {
	needs, err := s.NeedsBootstrap(ctx)
	if err != nil {
		return nil, err
	}
	if !needs {
		return nil, ErrInitialSetupCompleted
	}
	if req == nil {
		return nil, apperr.Invalid("request is required")
	}
	req.Role = RoleAdmin
	return s.CreateUser(ctx, req)
}

func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) GetUserByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// CreateUser는 사용자를 만들고 provisioner가 있으면 기본 space/project를 준비합니다
func (s *Service) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	if err := validateCreateUser(req); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.store.CreateUser(ctx, req, hash)
	if err != nil {
		return nil, err
	}

	if s.provisioner != nil {
		if err := s.provisioner.ProvisionUser(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("provision user %s: %w", user.Username, err)
		}
	}
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error) {
	if id <= 0 {
		return nil, apperr.Invalid("invalid user id")
	}
	if req == nil {
		return nil, apperr.Invalid("request is required")
	}

	if req.Role != nil && *req.Role != RoleAdmin && *req.Role != RoleUser {
		return nil, apperr.Invalid("role must be admin or user")
	}
	if req.Nickname != nil {
		trimmed := strings.TrimSpace(*req.Nickname)
		if trimmed == "" {
			return nil, apperr.Invalid("nickname is required")
		}
		req.Nickname = &trimmed
	}

	var passwordHash *string
	if req.Password != nil {
		trimmed := strings.TrimSpace(*req.Password)
		if len(trimmed) < 6 {
			return nil, apperr.Invalid("password must be at least 6 characters")
		}
		hash, err := hashPassword(trimmed)
		if err != nil {
			return nil, err
		}
		passwordHash = &hash
	}

	current, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Role == RoleAdmin && req.Role != nil && *req.Role == RoleUser {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return nil, err
		}
	}

	return s.store.UpdateUser(ctx, id, req, passwordHash)
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}
	return s.store.DeleteUser(ctx, id)
}

func (s *Service) ensureAnotherAdmin(ctx context.Context) error {
	adminCount, err := s.store.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if adminCount <= 1 {
		return apperr.Conflict("at least one admin user must remain")
	}
	return nil
}

// Authenticate는 자격 증명이 맞으면 비밀번호 해시를 지운 사용자를 반환합니다
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, bool) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, false
	}
	user.PasswordHash = ""
	return user, true
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func validateCreateUser(req *CreateUserRequest) error {
	if req == nil {
		return apperr.Invalid("request is required")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Username == "" {
		return apperr.Invalid("username is required")
	}
	if len(req.Username) < 3 {
		return apperr.Invalid("username must be at least 3 characters")
	}
	if strings.ContainsAny(req.Username, "/\\ ") {
		return apperr.Invalid("username must not contain spaces or slashes")
	}
	if req.Nickname == "" {
		req.Nickname = req.Username
	}
	if len(strings.TrimSpace(req.Password)) < 6 {
		return apperr.Invalid("password must be at least 6 characters")
	}
	if req.Role == "" {
		req.Role = RoleUser
	}
	if req.Role != RoleAdmin && req.Role != RoleUser {
		return apperr.Invalid("role must be admin or user")
	}
	return nil
}
