package auth

import (
	"context"

	"taeu.kr/kirosumi/internal/rpc"
)

type claimsContextKey struct{}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok
}

// RPCSession은 rpc.Router가 사용하는 세션 조회 함수입니다
func RPCSession(ctx context.Context) (rpc.Session, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return rpc.Session{}, false
	}
	return rpc.Session{
		UserID:   claims.UserID,
		PublicID: claims.PublicID,
		Username: claims.Username,
		Nickname: claims.Nickname,
		Role:     string(claims.Role),
	}, true
}
