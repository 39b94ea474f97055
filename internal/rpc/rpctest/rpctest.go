// Package rpctest drives registered procedures through the HTTP surface in tests.
package rpctest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"taeu.kr/kirosumi/internal/rpc"
)

type sessionKey struct{}

// NewRouter는 요청 컨텍스트에 심은 세션을 사용하는 라우터를 만듭니다
func NewRouter() *rpc.Router {
	return rpc.NewRouter(func(ctx context.Context) (rpc.Session, bool) {
		s, ok := ctx.Value(sessionKey{}).(rpc.Session)
		return s, ok
	})
}

// Response는 단건 호출의 응답입니다. 실패하면 Code에 tRPC 에러 코드가 들어간다.
type Response struct {
	Status int
	Data   json.RawMessage
	Code   rpc.Code
	Msg    string
}

func (r Response) Decode(t *testing.T, dst any) {
	t.Helper()
	if r.Code != "" {
		t.Fatalf("procedure failed with %s: %s", r.Code, r.Msg)
	}
	if err := json.Unmarshal(r.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", r.Data, err)
	}
}

func Query(t *testing.T, r *rpc.Router, userID int64, path string, input any) Response {
	t.Helper()
	target := "/api/trpc/" + path
	if input != nil {
		target += "?input=" + url.QueryEscape(string(mustJSON(t, input)))
	}
	return serve(t, r, userID, httptest.NewRequest(http.MethodGet, target, nil))
}

func Mutation(t *testing.T, r *rpc.Router, userID int64, path string, input any) Response {
	t.Helper()
	var body []byte
	if input != nil {
		body = mustJSON(t, input)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/trpc/"+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(t, r, userID, req)
}

// serve는 userID가 0이면 세션 없이 호출합니다
func serve(t *testing.T, r *rpc.Router, userID int64, req *http.Request) Response {
	t.Helper()
	if userID != 0 {
		req = req.WithContext(context.WithValue(req.Context(), sessionKey{}, rpc.Session{UserID: userID}))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env struct {
		Result *struct {
			Data json.RawMessage `json:"data"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
			Data    struct {
				Code rpc.Code `json:"code"`
			} `json:"data"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}

	resp := Response{Status: rec.Code}
	if env.Error != nil {
		resp.Code = env.Error.Data.Code
		resp.Msg = env.Error.Message
		return resp
	}
	if env.Result != nil {
		resp.Data = env.Result.Data
	}
	return resp
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encode input: %v", err)
	}
	return b
}
