package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"taeu.kr/kirosumi/internal/account"
)

var publicAPIPaths = map[string]struct{}{
	"/api/health":       {},
	"/api/auth/login":   {},
	"/api/auth/signup":  {},
	"/api/auth/refresh": {},
	"/api/auth/logout":  {},
}

// rpc 라우터는 procedure 별로 인증 여부를 판단하므로 토큰이 없어도 통과시킨다
var optionalAuthPrefixes = []string{
	"/api/trpc/",
}

var adminOnlyPrefixes = []string{
	"/api/accounts",
}

var adminOnlyPaths = map[string]struct{}{
	"/api/config": {},
}

func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := publicAPIPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.claimsFromRequest(r)
		if err != nil {
			if isOptionalAuthPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			writeUnauthorized(w)
			return
		}

		if isAdminOnlyPath(r.URL.Path) && claims.Role != account.RoleAdmin {
			writeForbidden(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// claimsFromRequest는 access 쿠키를 먼저 보고, 없으면 Bearer 헤더를 봅니다
func (s *Service) claimsFromRequest(r *http.Request) (*Claims, error) {
	token := ""
	if accessCookie, err := r.Cookie(AccessCookieName); err == nil {
		token = accessCookie.Value
	}
	if token == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
	}
	if token == "" {
		return nil, ErrInvalidToken
	}
	return s.ParseToken(token, "access")
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Unauthorized",
	})
}

func writeForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Forbidden",
	})
}

func isOptionalAuthPath(path string) bool {
	for _, prefix := range optionalAuthPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isAdminOnlyPath(path string) bool {
	if _, ok := adminOnlyPaths[path]; ok {
		return true
	}
	for _, prefix := range adminOnlyPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
