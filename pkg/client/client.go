// Package client는 kirosumi 서버의 RPC 표면(/api/trpc)을 위한 Go 클라이언트입니다.
//
// 인증은 서버가 내려주는 쿠키(access/refresh)로 처리하며, 호출이 UNAUTHORIZED로
// 실패하면 refresh를 한 번 시도한 뒤 재호출합니다. QueryCache와 MutateOptimistic은
// 목록 화면에서 쓰는 낙관적 갱신을 제공합니다.
//
// Client는 여러 goroutine에서 함께 써도 안전합니다.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// 서버의 인증 쿠키 이름과 일치해야 합니다
const (
	accessCookieName  = "kirosumi_access_token"
	refreshCookieName = "kirosumi_refresh_token"
	refreshCookiePath = "/api/auth"

	rpcPrefix = "/api/trpc/"
)

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        *cookiejar.Jar
	cache      *QueryCache
}

// User는 로그인/refresh 응답의 사용자 정보입니다
type User struct {
	ID       int64  `json:"id"`
	PublicID string `json:"publicId"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

// Tokens는 프로세스 사이에 세션을 이어가기 위한 쿠키 값입니다
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// New는 baseURL(예: "http://localhost:3000")을 대상으로 하는 Client를 만듭니다.
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: u,
		jar:     jar,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		cache: NewQueryCache(),
	}, nil
}

func (c *Client) Cache() *QueryCache {
	return c.cache
}

func (c *Client) endpoint(path string) *url.URL {
	return c.baseURL.JoinPath(path)
}

// Login은 자격 증명으로 로그인하고 쿠키를 jar에 저장합니다
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	body := map[string]string{"username": username, "password": password}
	return c.authCall(ctx, "/api/auth/login", body)
}

// Refresh는 refresh 쿠키로 access 쿠키를 재발급받습니다
func (c *Client) Refresh(ctx context.Context) (*User, error) {
	return c.authCall(ctx, "/api/auth/refresh", nil)
}

func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, c.endpoint("/api/auth/logout"), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return restError(resp)
	}
	c.cache.Clear()
	return nil
}

func (c *Client) authCall(ctx context.Context, path string, body any) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, c.endpoint(path), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, restError(resp)
	}

	var result struct {
		User User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result.User, nil
}

// Tokens는 jar에 있는 인증 쿠키 값을 돌려줍니다
func (c *Client) Tokens() Tokens {
	var t Tokens
	for _, ck := range c.jar.Cookies(c.endpoint("/")) {
		if ck.Name == accessCookieName {
			t.Access = ck.Value
		}
	}
	for _, ck := range c.jar.Cookies(c.endpoint(refreshCookiePath + "/refresh")) {
		if ck.Name == refreshCookieName {
			t.Refresh = ck.Value
		}
	}
	return t
}

// SetTokens는 저장해 둔 세션을 jar에 되살립니다
func (c *Client) SetTokens(t Tokens) {
	if t.Access != "" {
		c.jar.SetCookies(c.endpoint("/"), []*http.Cookie{{Name: accessCookieName, Value: t.Access, Path: "/"}})
	}
	if t.Refresh != "" {
		c.jar.SetCookies(c.endpoint(refreshCookiePath), []*http.Cookie{{Name: refreshCookieName, Value: t.Refresh, Path: refreshCookiePath}})
	}
}

// Query는 GET /api/trpc/<path>?input=<json> 을 호출합니다.
func Query[O any](ctx context.Context, c *Client, path string, input any) (O, error) {
	var out O
	raw, err := c.call(ctx, http.MethodGet, path, input)
	if err != nil {
		return out, err
	}
	return out, decodeData(raw, &out)
}

// Mutate는 POST /api/trpc/<path> 에 input을 JSON body로 보냅니다.
func Mutate[O any](ctx context.Context, c *Client, path string, input any) (O, error) {
	var out O
	raw, err := c.call(ctx, http.MethodPost, path, input)
	if err != nil {
		return out, err
	}
	return out, decodeData(raw, &out)
}

func (c *Client) call(ctx context.Context, method, path string, input any) (json.RawMessage, error) {
	raw, err := c.callOnce(ctx, method, path, input)
	if !IsCode(err, CodeUnauthorized) || c.Tokens().Refresh == "" {
		return raw, err
	}
	if _, refreshErr := c.Refresh(ctx); refreshErr != nil {
		return nil, err
	}
	return c.callOnce(ctx, method, path, input)
}

func (c *Client) callOnce(ctx context.Context, method, path string, input any) (json.RawMessage, error) {
	u := c.endpoint(rpcPrefix + path)

	var body any
	if method == http.MethodGet {
		if input != nil {
			encoded, err := json.Marshal(input)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal input: %w", err)
			}
			q := u.Query()
			q.Set("input", string(encoded))
			u.RawQuery = q.Encode()
		}
	} else {
		body = input
	}

	resp, err := c.doRequest(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(resp, path)
}

func (c *Client) doRequest(ctx context.Context, method string, u *url.URL, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

type envelope struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
		Data    struct {
			Code       string `json:"code"`
			HTTPStatus int    `json:"httpStatus"`
		} `json:"data"`
	} `json:"error"`
}

func decodeEnvelope(resp *http.Response, path string) (json.RawMessage, error) {
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &Error{Status: resp.StatusCode, Code: CodeInternal, Message: "unreadable response", Path: path}
	}
	if env.Error != nil {
		return nil, &Error{
			Status:  resp.StatusCode,
			Code:    env.Error.Data.Code,
			Message: env.Error.Message,
			Path:    path,
		}
	}
	if env.Result == nil {
		return nil, &Error{Status: resp.StatusCode, Code: CodeInternal, Message: "missing result", Path: path}
	}
	return env.Result.Data, nil
}

func decodeData(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// restError는 /api/auth 계열의 {"error": "..."} 응답을 Error로 바꿉니다
func restError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Code: codeForStatus(resp.StatusCode), Message: body.Error}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	}
	return CodeInternal
}

// IsCode는 err가 주어진 RPC 코드의 Error인지 확인합니다
func IsCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
