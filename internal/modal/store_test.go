package modal

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestStores(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := store.Load(ctx, 1)
			require.NoError(t, err)
			assert.Empty(t, empty.Modals)

			_, err = store.Update(ctx, 1, func(st *Stack) error {
				st.SetState("CREATE_CAPTURE", json.RawMessage(`{"title":"draft"}`))
				return st.Open(CreateCapture, "", "", true)
			})
			require.NoError(t, err)

			loaded, err := store.Load(ctx, 1)
			require.NoError(t, err)
			require.Len(t, loaded.Modals, 1)
			state, ok := loaded.State("CREATE_CAPTURE")
			require.True(t, ok)
			assert.JSONEq(t, `{"title":"draft"}`, string(state))

			other, err := store.Load(ctx, 2)
			require.NoError(t, err)
			assert.Empty(t, other.Modals, "stacks are per user")

			boom := errors.New("boom")
			_, err = store.Update(ctx, 1, func(st *Stack) error {
				st.Clear()
				return boom
			})
			assert.ErrorIs(t, err, boom)

			loaded, err = store.Load(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, loaded.Modals, 1, "failed update is not persisted")
		})
	}
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Update(ctx, 1, func(st *Stack) error { return st.Open(CreateCapture, "", "", true) })
	require.NoError(t, err)

	loaded, err := store.Load(ctx, 1)
	require.NoError(t, err)
	loaded.Clear()

	again, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, again.Modals, 1)
}

func TestRedisStore_SetsTTL(t *testing.T) {
	store, mr := newRedisStore(t)

	_, err := store.Update(context.Background(), 7, func(st *Stack) error { return st.Open(CaptureDetails, "CAP-1", "", true) })
	require.NoError(t, err)

	assert.Equal(t, time.Hour, mr.TTL("kirosumi:modal:7"))

	mr.FastForward(2 * time.Hour)
	loaded, err := store.Load(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, loaded.Modals, "expired stacks start over")
}
