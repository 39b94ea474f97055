package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// QueryCache는 procedure + input 을 키로 응답 JSON을 보관합니다.
// 값을 raw JSON으로 두기 때문에 꺼낸 쪽이 수정해도 캐시는 바뀌지 않습니다.
// 무효화된 항목은 계속 읽을 수 있지만 CachedQuery가 다시 받아옵니다.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	raw   json.RawMessage
	stale bool
}

func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string]*cacheEntry)}
}

// Key는 path와 input으로 캐시 키를 만듭니다. input이 nil이면 path 그대로입니다.
func Key(path string, input any) string {
	if input == nil {
		return path
	}
	encoded, err := json.Marshal(input)
	if err != nil || string(encoded) == "null" || string(encoded) == "{}" {
		return path
	}
	return path + "?" + string(encoded)
}

func (q *QueryCache) get(key string) (json.RawMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[key]
	if !ok {
		return nil, false
	}
	return e.raw, true
}

func (q *QueryCache) fresh(key string) (json.RawMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	return e.raw, true
}

func (q *QueryCache) set(key string, raw json.RawMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[key] = &cacheEntry{raw: raw}
}

// Stale은 key가 무효화되었거나 없으면 true입니다
func (q *QueryCache) Stale(key string) bool {
	_, ok := q.fresh(key)
	return !ok
}

// Get은 캐시된 값을 dst로 디코딩합니다. 없으면 false.
func (q *QueryCache) Get(key string, dst any) (bool, error) {
	raw, ok := q.get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

func (q *QueryCache) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cached %s: %w", key, err)
	}
	q.set(key, raw)
	return nil
}

// Invalidate는 키를 stale로 표시합니다. 키가 "capture."처럼 '.'로 끝나면 접두사로 취급합니다.
func (q *QueryCache) Invalidate(keys ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, key := range keys {
		if strings.HasSuffix(key, ".") {
			for k, e := range q.entries {
				if strings.HasPrefix(k, key) {
					e.stale = true
				}
			}
			continue
		}
		if e, ok := q.entries[key]; ok {
			e.stale = true
		}
	}
}

func (q *QueryCache) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.entries)
}

// CachedQuery는 캐시에 값이 있으면 그대로, 없으면 서버에서 받아 저장합니다.
func CachedQuery[O any](ctx context.Context, c *Client, path string, input any) (O, error) {
	var out O
	key := Key(path, input)
	if raw, ok := c.cache.fresh(key); ok {
		return out, decodeData(raw, &out)
	}

	raw, err := c.call(ctx, http.MethodGet, path, input)
	if err != nil {
		return out, err
	}
	c.cache.set(key, raw)
	return out, decodeData(raw, &out)
}

// Optimistic은 mutation 전에 캐시에 미리 반영할 변경입니다.
// Key 항목이 캐시에 없으면 Apply는 호출되지 않습니다.
type Optimistic[T any] struct {
	Key        string
	Apply      func(T) T
	Invalidate []string
}

// MutateOptimistic은 Key의 현재 값을 보관해 두고 Apply를 캐시에 반영한 뒤
// mutation을 호출합니다. 실패하면 보관한 값으로 되돌리고, 끝나면 결과와
// 상관없이 Key와 Invalidate를 stale로 표시해 다음 조회가 서버 값을 받게 합니다.
func MutateOptimistic[O, T any](ctx context.Context, c *Client, path string, input any, opt Optimistic[T]) (O, error) {
	snapshot, cached := c.cache.get(opt.Key)
	if cached && opt.Apply != nil {
		var current T
		if err := json.Unmarshal(snapshot, &current); err != nil {
			var zero O
			return zero, fmt.Errorf("failed to decode cached %s: %w", opt.Key, err)
		}
		if err := c.cache.Set(opt.Key, opt.Apply(current)); err != nil {
			var zero O
			return zero, err
		}
	}

	out, err := Mutate[O](ctx, c, path, input)
	if err != nil && cached {
		c.cache.set(opt.Key, snapshot)
	}
	c.cache.Invalidate(append([]string{opt.Key}, opt.Invalidate...)...)
	return out, err
}

// UpdateListItem은 publicID가 같은 원소에 fn을 적용한 새 목록을 돌려줍니다.
func UpdateListItem[T any](list []T, publicID string, idOf func(T) string, fn func(T) T) []T {
	out := make([]T, len(list))
	for i, v := range list {
		if idOf(v) == publicID {
			v = fn(v)
		}
		out[i] = v
	}
	return out
}

// RemoveListItem은 publicID가 같은 원소를 뺀 새 목록을 돌려줍니다.
func RemoveListItem[T any](list []T, publicID string, idOf func(T) string) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if idOf(v) != publicID {
			out = append(out, v)
		}
	}
	return out
}
