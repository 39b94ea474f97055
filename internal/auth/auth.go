package auth

import (
	"errors"
	"time"
)

const (
	AccessCookieName  = "kirosumi_access_token"
	RefreshCookieName = "kirosumi_refresh_token"

	refreshCookiePath = "/api/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSignupDisabled     = errors.New("signup is disabled")
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Config struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
	RefreshTTL     time.Duration
	AllowSignup    bool
}
