package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taeu.kr/kirosumi/internal/item"
	"taeu.kr/kirosumi/internal/item/store"
	"taeu.kr/kirosumi/internal/platform/database/dbtest"
	"taeu.kr/kirosumi/internal/rpc"
	"taeu.kr/kirosumi/internal/rpc/rpctest"
)

func TestProcedures(t *testing.T) {
	db := dbtest.Open(t)
	alice := dbtest.SeedUser(t, db, "alice")
	bob := dbtest.SeedUser(t, db, "bob")
	_, spacePublicID := dbtest.SeedSpace(t, db, alice, "Work", true)

	r := rpctest.NewRouter()
	NewHandler(item.NewService(store.NewStore(db))).Register(r)

	resp := rpctest.Mutation(t, r, alice, "item.create", map[string]any{"name": "x", "kind": "capture"})
	assert.Equal(t, rpc.CodeBadRequest, resp.Code)

	resp = rpctest.Query(t, r, 0, "item.all", nil)
	assert.Equal(t, rpc.CodeUnauthorized, resp.Code)

	var task item.Item
	rpctest.Mutation(t, r, alice, "item.create", map[string]any{
		"name":          "Write docs",
		"kind":          "task",
		"priority":      3,
		"spacePublicId": spacePublicID,
	}).Decode(t, &task)
	assert.Equal(t, item.KindTask, task.Kind)
	assert.Equal(t, 3, task.Priority)

	var note item.Item
	rpctest.Mutation(t, r, alice, "item.create", map[string]any{"name": "Reading list", "kind": "note"}).Decode(t, &note)

	resp = rpctest.Query(t, r, bob, "item.byId", map[string]string{"publicId": task.PublicID})
	assert.Equal(t, rpc.CodeNotFound, resp.Code)

	var toggled item.Item
	rpctest.Mutation(t, r, alice, "item.toggleComplete", map[string]string{"publicId": task.PublicID}).Decode(t, &toggled)
	assert.True(t, toggled.IsCompleted)
	require.NotNil(t, toggled.CompletedAt)

	resp = rpctest.Mutation(t, r, alice, "item.toggleComplete", map[string]any{"publicId": task.PublicID, "completed": true})
	assert.Equal(t, rpc.CodeConflict, resp.Code)

	var open []item.Item
	rpctest.Query(t, r, alice, "item.all", nil).Decode(t, &open)
	require.Len(t, open, 1)
	assert.Equal(t, note.PublicID, open[0].PublicID)

	var all []item.Item
	rpctest.Query(t, r, alice, "item.all", map[string]any{"includeCompleted": true, "kind": "task"}).Decode(t, &all)
	require.Len(t, all, 1)
	assert.Equal(t, task.PublicID, all[0].PublicID)

	rpctest.Mutation(t, r, alice, "item.delete", map[string]string{"publicId": note.PublicID}).Decode(t, &note)
	resp = rpctest.Query(t, r, alice, "item.byId", map[string]string{"publicId": note.PublicID})
	assert.Equal(t, rpc.CodeNotFound, resp.Code)
}
