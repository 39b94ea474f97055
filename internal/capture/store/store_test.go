package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taeu.kr/kirosumi/internal/capture"
	"taeu.kr/kirosumi/internal/item"
	itemstore "taeu.kr/kirosumi/internal/item/store"
	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/platform/database/dbtest"
	"taeu.kr/kirosumi/internal/project"
	projectstore "taeu.kr/kirosumi/internal/project/store"
	spacestore "taeu.kr/kirosumi/internal/space/store"
	"taeu.kr/kirosumi/internal/status"
)

func TestStore_CRUDWithOwnership(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, db, "alice")
	bob := dbtest.SeedUser(t, db, "bob")
	st := NewStore(db)

	first, err := st.Create(ctx, alice, &capture.CreateRequest{Title: "buy milk"})
	require.NoError(t, err)
	assert.Regexp(t, `^CAP-[0-9a-z]{12}$`, first.PublicID)
	assert.Equal(t, alice, first.CreatedBy)
	second, err := st.Create(ctx, alice, &capture.CreateRequest{Title: "call mom"})
	require.NoError(t, err)

	list, err := st.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.PublicID, list[0].PublicID, "newest first")

	others, err := st.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = st.GetByPublicID(ctx, bob, first.PublicID)
	assert.ErrorIs(t, err, capture.ErrCaptureNotFound)

	title := "buy oat milk"
	description := json.RawMessage(`{"type":"doc"}`)
	updated, err := st.Update(ctx, alice, &capture.UpdateRequest{PublicID: first.PublicID, Title: &title, Description: description})
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", updated.Title)
	assert.JSONEq(t, `{"type":"doc"}`, string(updated.Description))

	deleted, err := st.SoftDelete(ctx, alice, first.PublicID)
	require.NoError(t, err)
	require.NotNil(t, deleted.DeletedAt)

	_, err = st.GetByPublicID(ctx, alice, first.PublicID)
	assert.ErrorIs(t, err, capture.ErrCaptureNotFound)

	_, err = st.HardDelete(ctx, bob, second.PublicID)
	assert.ErrorIs(t, err, capture.ErrCaptureNotFound)

	removed, err := st.HardDelete(ctx, alice, second.PublicID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, removed.ID)
}

func TestStore_ConvertToTask_Defaults(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, db, "alice")
	st := NewStore(db)

	sp, err := spacestore.NewStore(db).CreateDefault(ctx, alice)
	require.NoError(t, err)

	description := json.RawMessage(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"2L"}]}]}`)
	c, err := st.Create(ctx, alice, &capture.CreateRequest{Title: "buy milk", Description: description})
	require.NoError(t, err)

	task, err := st.ConvertToTask(ctx, alice, &capture.ConvertRequest{PublicID: c.PublicID})
	require.NoError(t, err)
	assert.Equal(t, item.KindTask, task.Kind)
	assert.Regexp(t, `^TASK-`, task.PublicID)
	assert.Equal(t, "buy milk", task.Name)
	assert.Equal(t, sp.ID, *task.SpaceID)
	assert.JSONEq(t, string(description), string(task.Content))
	require.NotNil(t, task.Status)
	assert.Equal(t, "Not started", task.Status.Name)
	assert.Equal(t, status.TypeBacklog, task.Status.Type)

	_, err = st.GetByPublicID(ctx, alice, c.PublicID)
	assert.ErrorIs(t, err, capture.ErrCaptureNotFound, "capture is soft deleted")

	_, err = st.ConvertToTask(ctx, alice, &capture.ConvertRequest{PublicID: c.PublicID})
	assert.ErrorIs(t, err, capture.ErrCaptureNotFound)
}

func TestStore_ConvertToTask_ExplicitTargetsAndRollback(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, db, "alice")
	bob := dbtest.SeedUser(t, db, "bob")
	st := NewStore(db)
	_, spacePublicID := dbtest.SeedSpace(t, db, alice, "Work", false)
	_, bobSpace := dbtest.SeedSpace(t, db, bob, "Bob", true)

	p, err := projectstore.NewStore(db).Create(ctx, alice, &project.CreateRequest{SpacePublicID: spacePublicID, Name: "Launch"})
	require.NoError(t, err)
	c, err := st.Create(ctx, alice, &capture.CreateRequest{Title: "ship it"})
	require.NoError(t, err)

	_, err = st.ConvertToTask(ctx, alice, &capture.ConvertRequest{PublicID: c.PublicID, SpacePublicID: bobSpace})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	still, err := st.GetByPublicID(ctx, alice, c.PublicID)
	require.NoError(t, err, "failed conversion leaves the capture alone")
	assert.Nil(t, still.DeletedAt)

	priority := 4
	task, err := st.ConvertToTask(ctx, alice, &capture.ConvertRequest{
		PublicID:        c.PublicID,
		SpacePublicID:   spacePublicID,
		ProjectPublicID: p.PublicID,
		Priority:        &priority,
	})
	require.NoError(t, err)
	assert.Equal(t, p.ID, *task.ProjectID)
	assert.Equal(t, 4, task.Priority)
	assert.Nil(t, task.Status, "space without statuses leaves status empty")

	tasks, err := itemstore.NewStore(db).ListByProject(ctx, alice, p.PublicID, false)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}

func TestStore_ConvertToTask_NoDefaultSpace(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, db, "alice")
	st := NewStore(db)

	c, err := st.Create(ctx, alice, &capture.CreateRequest{Title: "orphan"})
	require.NoError(t, err)

	_, err = st.ConvertToTask(ctx, alice, &capture.ConvertRequest{PublicID: c.PublicID})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStore_ConvertToTask_PlacementFollowsProject(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, db, "alice")
	st := NewStore(db)

	home, err := spacestore.NewStore(db).CreateDefault(ctx, alice)
	require.NoError(t, err)
	workID, work := dbtest.SeedSpace(t, db, alice, "Work", false)
	p, err := projectstore.NewStore(db).Create(ctx, alice, &project.CreateRequest{SpacePublicID: work, Name: "Launch"})
	require.NoError(t, err)

	c, err := st.Create(ctx, alice, &capture.CreateRequest{Title: "ship it"})
	require.NoError(t, err)

	_, err = st.ConvertToTask(ctx, alice, &capture.ConvertRequest{PublicID: c.PublicID, SpacePublicID: home.PublicID, ProjectPublicID: p.PublicID})
	assert.ErrorIs(t, err, apperr.ErrValidation, "project lives in another space")

	task, err := st.ConvertToTask(ctx, alice, &capture.ConvertRequest{PublicID: c.PublicID, ProjectPublicID: p.PublicID})
	require.NoError(t, err)
	assert.Equal(t, workID, *task.SpaceID)
	assert.Equal(t, p.ID, *task.ProjectID)
}
