package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"taeu.kr/kirosumi/internal/account"
	"taeu.kr/kirosumi/internal/session"
)

type Claims struct {
	UserID   int64        `json:"userId"`
	PublicID string       `json:"publicId"`
	Username string       `json:"username"`
	Nickname string       `json:"nickname"`
	Role     account.Role `json:"role"`
	Type     string       `json:"type"`
	jwt.RegisteredClaims
}

type SignupRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type Service struct {
	accountService *account.Service
	sessions       session.Store
	config         Config
}

func NewService(accountService *account.Service, sessions session.Store, config Config) *Service {
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	return &Service{
		accountService: accountService,
		sessions:       sessions,
		config:         config,
	}
}

func (s *Service) Config() Config {
	return s.config
}

func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, *account.User, error) {
	user, ok := s.accountService.Authenticate(ctx, username, password)
	if !ok {
		return nil, nil, ErrInvalidCredentials
	}

	tokenPair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return tokenPair, user, nil
}

// Signup은 일반 사용자를 만들고 바로 로그인 상태로 만듭니다.
// 기본 space/status/project 준비는 account 서비스의 provisioner가 담당한다.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*TokenPair, *account.User, error) {
	if !s.config.AllowSignup {
		return nil, nil, ErrSignupDisabled
	}

	user, err := s.accountService.CreateUser(ctx, &account.CreateUserRequest{
		Username: req.Username,
		Password: req.Password,
		Nickname: req.DisplayName,
		Role:     account.RoleUser,
	})
	if err != nil {
		return nil, nil, err
	}

	tokenPair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("username", user.Username).Msg("[Auth] user signed up")
	return tokenPair, user, nil
}

// Refresh는 refresh 토큰을 회전시킵니다. 사용된 jti는 즉시 폐기된다.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *account.User, error) {
	claims, err := s.ParseToken(refreshToken, "refresh")
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	data, err := s.sessions.Lookup(ctx, claims.ID)
	if err != nil || data.UserID != claims.UserID {
		return nil, nil, ErrInvalidToken
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return nil, nil, err
	}

	user, err := s.accountService.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	tokenPair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return tokenPair, user, nil
}

// Logout은 refresh 세션을 폐기합니다. 이미 무효한 토큰은 무시한다.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.ParseToken(refreshToken, "refresh")
	if err != nil {
		return nil
	}
	return s.sessions.Revoke(ctx, claims.ID)
}

func (s *Service) IssueTokenPair(ctx context.Context, user *account.User) (*TokenPair, error) {
	access, _, err := s.signToken(user, "access", s.config.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := s.signToken(user, "refresh", s.config.RefreshTTL)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, refreshClaims.ID, user.ID, refreshClaims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("save refresh session: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *Service) ParseToken(tokenString string, expectedType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != expectedType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) signToken(user *account.User, tokenType string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		PublicID: user.PublicID,
		Username: user.Username,
		Nickname: user.Nickname,
		Role:     user.Role,
		Type:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   user.PublicID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", nil, errors.New("failed to sign token")
	}
	return signedToken, claims, nil
}
