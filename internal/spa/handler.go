package spa

import (
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
)

type spaResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

// WriteHeader SPA 응답을 위한 WriteHeader 메서드
func (w *spaResponseWriter) WriteHeader(status int) {
	w.status = status
	w.wroteHeader = true

	// 404가 아닌 경우 바로 전달
	if status != http.StatusNotFound {
		w.ResponseWriter.WriteHeader(status)
	}
}

// Write SPA 응답을 위한 Write 메서드
func (w *spaResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	// 404인 경우 버림
	if w.status == http.StatusNotFound {
		return len(b), nil
	}

	return w.ResponseWriter.Write(b)
}

// FromDir은 server.web_dir에 빌드된 웹 클라이언트를 서빙합니다
func FromDir(dir string) (http.HandlerFunc, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("web dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("web dir %s is not a directory", dir)
	}
	return NewSPAHandler(os.DirFS(dir))
}

// NewSPAHandler SPA 핸들러 생성 함수
func NewSPAHandler(distFS fs.FS) (http.HandlerFunc, error) {
	if _, err := fs.Stat(distFS, "index.html"); err != nil {
		return nil, fmt.Errorf("index.html not found: %w", err)
	}

	// 정적 파일 핸들러 설정
	fileServer := http.FileServer(http.FS(distFS))

	return func(w http.ResponseWriter, r *http.Request) {
		// Wrapper 생성
		wrapper := &spaResponseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}

		// FileServer 위임
		fileServer.ServeHTTP(wrapper, r)

		// 404인 경우 index.html 서빙
		if wrapper.status == http.StatusNotFound {
			file, err := distFS.Open("index.html")
			if err != nil {
				log.Error().Err(err).Msg("[SPA] failed to open index.html")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			defer file.Close()

			wrapper.Header().Set("Content-Type", "text/html; charset=utf-8")
			wrapper.WriteHeader(http.StatusOK)

			if _, err := io.Copy(wrapper, file); err != nil {
				log.Error().Err(err).Msg("[SPA] failed to serve index.html")
			}
		}
	}, nil
}
