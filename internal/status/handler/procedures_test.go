package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taeu.kr/kirosumi/internal/platform/database/dbtest"
	"taeu.kr/kirosumi/internal/rpc"
	"taeu.kr/kirosumi/internal/rpc/rpctest"
	"taeu.kr/kirosumi/internal/status"
	"taeu.kr/kirosumi/internal/status/store"
)

func TestProcedures(t *testing.T) {
	db := dbtest.Open(t)
	alice := dbtest.SeedUser(t, db, "alice")
	bob := dbtest.SeedUser(t, db, "bob")
	_, spacePublicID := dbtest.SeedSpace(t, db, alice, "Work", true)

	r := rpctest.NewRouter()
	NewHandler(status.NewService(store.NewStore(db))).Register(r)

	resp := rpctest.Mutation(t, r, alice, "status.create", map[string]string{
		"spacePublicId": spacePublicID,
		"name":          "Blocked",
		"color":         "red",
	})
	assert.Equal(t, rpc.CodeBadRequest, resp.Code)

	resp = rpctest.Mutation(t, r, bob, "status.create", map[string]string{"spacePublicId": spacePublicID, "name": "Mine"})
	assert.Equal(t, rpc.CodeNotFound, resp.Code)

	var created status.Status
	rpctest.Mutation(t, r, alice, "status.create", map[string]string{
		"spacePublicId": spacePublicID,
		"name":          "Blocked",
		"color":         "#ff0000",
	}).Decode(t, &created)
	assert.Equal(t, status.TypeBacklog, created.Type)

	var list []status.Status
	rpctest.Query(t, r, alice, "status.allBySpaceId", map[string]string{"spacePublicId": spacePublicID}).Decode(t, &list)
	require.Len(t, list, 1)

	resp = rpctest.Query(t, r, bob, "status.byPublicId", map[string]string{"publicId": created.PublicID})
	assert.Equal(t, rpc.CodeNotFound, resp.Code)

	var byID status.Status
	rpctest.Query(t, r, alice, "status.byId", map[string]int64{"id": created.ID}).Decode(t, &byID)
	assert.Equal(t, created.PublicID, byID.PublicID)

	var updated status.Status
	rpctest.Mutation(t, r, alice, "status.update", map[string]string{"publicId": created.PublicID, "type": "In Progress"}).Decode(t, &updated)
	assert.Equal(t, status.TypeInProgress, updated.Type)

	rpctest.Mutation(t, r, alice, "status.softDelete", map[string]string{"publicId": created.PublicID}).Decode(t, &updated)
	resp = rpctest.Query(t, r, alice, "status.byPublicId", map[string]string{"publicId": created.PublicID})
	assert.Equal(t, rpc.CodeNotFound, resp.Code)
}
