package webdav

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"taeu.kr/kirosumi/internal/account"
	"taeu.kr/kirosumi/internal/platform/web"
	"taeu.kr/kirosumi/internal/webdav"
)

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*account.User, bool)
}

type Handler struct {
	webDavService *webdav.Service
	authenticator Authenticator
}

func NewHandler(webDavService *webdav.Service, authenticator Authenticator) *Handler {
	return &Handler{
		webDavService: webDavService,
		authenticator: authenticator,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) *web.Error {
	// 루트 OPTIONS(/dav, /dav/)는 무인증으로 허용해 DAV 핸드셰이크를 통과시킨다.
	if r.Method == http.MethodOptions && isWebDAVRootPath(r.URL.Path) {
		if h.webDavService != nil {
			h.webDavService.RootOptionsHandler().ServeHTTP(w, r)
			return nil
		}
		writeWebDAVRootOptionsFallback(w)
		return nil
	}

	username, password, ok := r.BasicAuth()
	if !ok {
		writeWebDAVUnauthorized(w)
		return nil
	}
	user, authed := h.authenticator.Authenticate(r.Context(), username, password)
	if !authed {
		writeWebDAVUnauthorized(w)
		return nil
	}

	if !isReadOnlyMethod(r.Method) {
		return &web.Error{
			Code:    http.StatusForbidden,
			Message: "WebDAV mount is read-only",
		}
	}

	normalizePROPFINDDepth(r)

	ctx := webdav.WithUserID(r.Context(), user.ID)
	log.Debug().Str("user", username).Str("method", r.Method).Str("path", r.URL.Path).Msg("[WebDAV] request")

	davHandler, err := h.webDavService.Handler(ctx)
	if err != nil {
		return &web.Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to build notes tree",
			Err:     err,
		}
	}

	davHandler.ServeHTTP(w, r.WithContext(ctx))
	return nil
}

func isReadOnlyMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, "PROPFIND":
		return true
	default:
		return false
	}
}

func writeWebDAVUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Kirosumi notes"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte("Unauthorized"))
}

func isWebDAVRootPath(path string) bool {
	trimmed := strings.TrimRight(strings.TrimSpace(path), "/")
	return trimmed == webdav.Prefix
}

func writeWebDAVRootOptionsFallback(w http.ResponseWriter) {
	w.Header().Set("DAV", "1, 2")
	w.Header().Set("MS-Author-Via", "DAV")
	w.WriteHeader(http.StatusOK)
}

func normalizePROPFINDDepth(r *http.Request) {
	if r.Method != "PROPFIND" {
		return
	}

	depth := strings.ToLower(strings.TrimSpace(r.Header.Get("Depth")))
	switch depth {
	case "0", "1":
		return
	default:
		// 무한/생략/비정상 Depth는 1로 고정해 재귀 전체 스캔을 방지한다.
		r.Header.Set("Depth", "1")
	}
}
