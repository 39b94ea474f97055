// Package rpc serves typed query and mutation procedures over HTTP using the
// tRPC wire format, so the existing web client can talk to it unchanged.
//
// Queries are GET /api/trpc/<path>?input=<json>, mutations are POST with a JSON
// body. Batched calls (?batch=1, comma separated paths) are supported.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const routePrefix = "/api/trpc/"

// Session은 인증된 호출자의 정보입니다
type Session struct {
	UserID   int64  `json:"id"`
	PublicID string `json:"publicId"`
	Username string `json:"username"`
	Nickname string `json:"name"`
	Role     string `json:"role"`
}

// SessionFunc는 요청 컨텍스트에서 세션을 꺼냅니다
type SessionFunc func(ctx context.Context) (Session, bool)

// Validator는 입력 디코딩 직후 호출됩니다
type Validator interface {
	Validate() error
}

// Empty는 입력이 없는 procedure용 입력 타입입니다
type Empty struct{}

type kind int

const (
	kindQuery kind = iota
	kindMutation
)

func (k kind) String() string {
	if k == kindMutation {
		return "mutation"
	}
	return "query"
}

type procedure struct {
	kind      kind
	protected bool
	call      func(ctx context.Context, sess *Session, input json.RawMessage) (any, error)
}

type Router struct {
	procs   map[string]*procedure
	session SessionFunc
}

func NewRouter(session SessionFunc) *Router {
	if session == nil {
		session = func(context.Context) (Session, bool) { return Session{}, false }
	}
	return &Router{
		procs:   make(map[string]*procedure),
		session: session,
	}
}

// RegisterRoutes는 /api/trpc/ 하위를 라우터에 연결합니다
func (r *Router) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle(routePrefix, r)
}

// Procedures는 등록된 procedure 경로를 정렬해 반환합니다
func (r *Router) Procedures() []string {
	paths := make([]string, 0, len(r.procs))
	for path := range r.procs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Query는 인증이 필요한 query를 등록합니다
func Query[I, O any](r *Router, path string, fn func(ctx context.Context, s Session, in I) (O, error)) {
	register(r, path, kindQuery, true, func(ctx context.Context, s *Session, in I) (O, error) {
		return fn(ctx, *s, in)
	})
}

// Mutation은 인증이 필요한 mutation을 등록합니다
func Mutation[I, O any](r *Router, path string, fn func(ctx context.Context, s Session, in I) (O, error)) {
	register(r, path, kindMutation, true, func(ctx context.Context, s *Session, in I) (O, error) {
		return fn(ctx, *s, in)
	})
}

// PublicQuery는 인증 없이 호출 가능한 query를 등록합니다
func PublicQuery[I, O any](r *Router, path string, fn func(ctx context.Context, in I) (O, error)) {
	register(r, path, kindQuery, false, func(ctx context.Context, _ *Session, in I) (O, error) {
		return fn(ctx, in)
	})
}

func register[I, O any](r *Router, path string, k kind, protected bool, fn func(ctx context.Context, s *Session, in I) (O, error)) {
	if _, exists := r.procs[path]; exists {
		panic(fmt.Sprintf("rpc: procedure %q registered twice", path))
	}
	r.procs[path] = &procedure{
		kind:      k,
		protected: protected,
		call: func(ctx context.Context, sess *Session, raw json.RawMessage) (any, error) {
			var in I
			if err := decodeInput(raw, &in); err != nil {
				return nil, err
			}
			if v, ok := any(&in).(Validator); ok {
				if err := v.Validate(); err != nil {
					return nil, &Error{Code: CodeBadRequest, Message: err.Error(), Cause: err}
				}
			}
			return fn(ctx, sess, in)
		},
	}
}

func decodeInput(raw json.RawMessage, dst any) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(trimmed), dst); err != nil {
		return &Error{Code: CodeParseError, Message: "Invalid input", Cause: err}
	}
	return nil
}

type resultEnvelope struct {
	Result struct {
		Data any `json:"data"`
	} `json:"result"`
}

type errorEnvelope struct {
	Error errorShape `json:"error"`
}

type errorShape struct {
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Data    errorData `json:"data"`
}

type errorData struct {
	Code       Code   `json:"code"`
	HTTPStatus int    `json:"httpStatus"`
	Path       string `json:"path,omitempty"`
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, routePrefix)
	batch := req.URL.Query().Get("batch") == "1"

	var k kind
	switch req.Method {
	case http.MethodGet:
		k = kindQuery
	case http.MethodPost:
		k = kindMutation
	default:
		writeEnvelope(w, http.StatusMethodNotAllowed, errorBody(path, NewError(CodeMethodNotSupported, "Unsupported HTTP method "+req.Method)))
		return
	}

	rawInput, err := readInput(req)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, errorBody(path, &Error{Code: CodeParseError, Message: "Unable to read input", Cause: err}))
		return
	}

	if !batch {
		data, rpcErr := r.invoke(req, k, path, rawInput)
		if rpcErr != nil {
			writeEnvelope(w, rpcErr.Code.HTTPStatus(), errorBody(path, rpcErr))
			return
		}
		writeEnvelope(w, http.StatusOK, resultBody(data))
		return
	}

	paths := strings.Split(path, ",")
	inputs := map[string]json.RawMessage{}
	if len(rawInput) > 0 {
		if err := json.Unmarshal(rawInput, &inputs); err != nil {
			writeEnvelope(w, http.StatusBadRequest, errorBody(path, &Error{Code: CodeParseError, Message: "Invalid batch input", Cause: err}))
			return
		}
	}

	bodies := make([]any, len(paths))
	statuses := make(map[int]struct{})
	for i, p := range paths {
		data, rpcErr := r.invoke(req, k, p, inputs[strconv.Itoa(i)])
		if rpcErr != nil {
			bodies[i] = errorBody(p, rpcErr)
			statuses[rpcErr.Code.HTTPStatus()] = struct{}{}
			continue
		}
		bodies[i] = resultBody(data)
		statuses[http.StatusOK] = struct{}{}
	}

	// 모든 호출의 상태가 같으면 그 상태를, 섞여 있으면 207
	status := http.StatusMultiStatus
	if len(statuses) == 1 {
		for s := range statuses {
			status = s
		}
	}
	writeEnvelope(w, status, bodies)
}

func (r *Router) invoke(req *http.Request, k kind, path string, raw json.RawMessage) (any, *Error) {
	proc, ok := r.procs[path]
	if !ok {
		return nil, NewError(CodeNotFound, fmt.Sprintf("No %q-procedure on path %q", k, path))
	}
	if proc.kind != k {
		return nil, NewError(CodeMethodNotSupported, fmt.Sprintf("Unsupported method for %s %q", proc.kind, path))
	}

	ctx := req.Context()
	var sess *Session
	if s, ok := r.session(ctx); ok {
		sess = &s
	}
	if proc.protected && sess == nil {
		return nil, NewError(CodeUnauthorized, "Authentication required")
	}

	data, err := proc.call(ctx, sess, raw)
	if err != nil {
		rpcErr := FromError(err, "Internal server error")
		event := log.Warn()
		if rpcErr.Code == CodeInternal {
			event = log.Error()
		}
		event.Err(rpcErr.Cause).
			Str("path", path).
			Str("code", string(rpcErr.Code)).
			Msg("[RPC] " + rpcErr.Message)
		return nil, rpcErr
	}
	return data, nil
}

func readInput(req *http.Request) (json.RawMessage, error) {
	if req.Method == http.MethodGet {
		input := req.URL.Query().Get("input")
		if input == "" {
			return nil, nil
		}
		return json.RawMessage(input), nil
	}

	if req.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func resultBody(data any) resultEnvelope {
	var env resultEnvelope
	env.Result.Data = data
	return env
}

func errorBody(path string, err *Error) errorEnvelope {
	return errorEnvelope{Error: errorShape{
		Message: err.Message,
		Code:    err.Code.JSONRPCCode(),
		Data: errorData{
			Code:       err.Code,
			HTTPStatus: err.Code.HTTPStatus(),
			Path:       path,
		},
	}}
}

func writeEnvelope(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("[RPC] failed to encode response")
	}
}
