package modal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 5

// RedisStore는 stack을 JSON 한 덩어리로 저장하고 WATCH로 동시 갱신을 막습니다
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{
		client: client,
		prefix: "kirosumi:modal:",
		ttl:    ttl,
	}
}

func (s *RedisStore) key(userID int64) string {
	return s.prefix + strconv.FormatInt(userID, 10)
}

func (s *RedisStore) Load(ctx context.Context, userID int64) (*Stack, error) {
	return s.get(ctx, s.client, s.key(userID))
}

func (s *RedisStore) get(ctx context.Context, c redis.Cmdable, key string) (*Stack, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewStack(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load modal stack: %w", err)
	}

	st := NewStack()
	if err := json.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("unmarshal modal stack: %w", err)
	}
	if st.Modals == nil {
		st.Modals = []Modal{}
	}
	if st.States == nil {
		st.States = map[string]json.RawMessage{}
	}
	return st, nil
}

// Update는 다른 요청이 먼저 쓰면 처음부터 다시 시도합니다
func (s *RedisStore) Update(ctx context.Context, userID int64, fn func(*Stack) error) (*Stack, error) {
	key := s.key(userID)

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var next *Stack
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			st, err := s.get(ctx, tx, key)
			if err != nil {
				return err
			}
			if err := fn(st); err != nil {
				return err
			}
			payload, err := json.Marshal(st)
			if err != nil {
				return fmt.Errorf("marshal modal stack: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, s.ttl)
				return nil
			})
			if err == nil {
				next = st
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return next, nil
	}
	return nil, fmt.Errorf("update modal stack: too much contention for user %d", userID)
}
