package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "capture.all", Key("capture.all", nil))
	assert.Equal(t, "item.all", Key("item.all", struct{}{}))
	assert.Equal(t, `item.all?{"kind":"task"}`, Key("item.all", map[string]string{"kind": "task"}))
}

func TestQueryCacheInvalidate(t *testing.T) {
	q := NewQueryCache()
	require.NoError(t, q.Set("capture.all", []int{1}))
	require.NoError(t, q.Set(`capture.byId?{"publicId":"CAP-1"}`, 1))
	require.NoError(t, q.Set("space.all", []int{2}))

	q.Invalidate("capture.")
	assert.True(t, q.Stale("capture.all"))
	assert.True(t, q.Stale(`capture.byId?{"publicId":"CAP-1"}`))
	assert.False(t, q.Stale("space.all"))

	// stale 항목도 읽을 수는 있다
	var got []int
	ok, err := q.Get("capture.all", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{1}, got)

	q.Clear()
	ok, err = q.Get("space.all", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachedQuery(t *testing.T) {
	f, c := setup(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	for range 3 {
		rows, err := CachedQuery[[]captureRow](ctx, c, "capture.all", nil)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	}
	assert.Equal(t, 1, f.listCalls)

	c.Cache().Invalidate("capture.all")
	_, err = CachedQuery[[]captureRow](ctx, c, "capture.all", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, f.listCalls)
}

func TestMutateOptimisticAppliesBeforeCall(t *testing.T) {
	f, c := setup(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	_, err = CachedQuery[[]captureRow](ctx, c, "capture.all", nil)
	require.NoError(t, err)

	var during []captureRow
	f.onDelete = func() {
		_, _ = c.Cache().Get("capture.all", &during)
	}

	_, err = MutateOptimistic[captureRow](ctx, c, "capture.softDelete", map[string]string{"publicId": "CAP-1"}, Optimistic[[]captureRow]{
		Key: "capture.all",
		Apply: func(rows []captureRow) []captureRow {
			return RemoveListItem(rows, "CAP-1", captureID)
		},
	})
	require.NoError(t, err)

	require.Len(t, during, 1)
	assert.Equal(t, "CAP-2", during[0].PublicID)
	assert.True(t, c.Cache().Stale("capture.all"))

	rows, err := CachedQuery[[]captureRow](ctx, c, "capture.all", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CAP-2", rows[0].PublicID)
}

func TestMutateOptimisticRollsBack(t *testing.T) {
	_, c := setup(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	_, err = CachedQuery[[]captureRow](ctx, c, "capture.all", nil)
	require.NoError(t, err)

	_, err = MutateOptimistic[captureRow](ctx, c, "capture.softDelete", map[string]string{"publicId": "CAP-missing"}, Optimistic[[]captureRow]{
		Key: "capture.all",
		Apply: func(rows []captureRow) []captureRow {
			return nil
		},
		Invalidate: []string{"item."},
	})
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeNotFound))

	var rows []captureRow
	ok, err := c.Cache().Get("capture.all", &rows)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, rows, 2)
	assert.True(t, c.Cache().Stale("capture.all"))
}

func TestUpdateListItem(t *testing.T) {
	rows := []captureRow{{PublicID: "CAP-1", Title: "a"}, {PublicID: "CAP-2", Title: "b"}}

	updated := UpdateListItem(rows, "CAP-2", captureID, func(c captureRow) captureRow {
		c.Title = "renamed"
		return c
	})
	assert.Equal(t, "renamed", updated[1].Title)
	assert.Equal(t, "b", rows[1].Title)
	assert.Equal(t, "a", updated[0].Title)

	assert.Equal(t, rows, UpdateListItem(rows, "CAP-404", captureID, func(c captureRow) captureRow {
		c.Title = "x"
		return c
	}))
}
