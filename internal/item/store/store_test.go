package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taeu.kr/kirosumi/internal/item"
	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/platform/database"
	"taeu.kr/kirosumi/internal/platform/database/dbtest"
	"taeu.kr/kirosumi/internal/project"
	projectstore "taeu.kr/kirosumi/internal/project/store"
	"taeu.kr/kirosumi/internal/status"
	statusstore "taeu.kr/kirosumi/internal/status/store"
)

type fixture struct {
	db      *database.DB
	store   *Store
	alice   int64
	bob     int64
	space   string
	spaceID int64
	project *project.Project
	backlog *status.Status
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := dbtest.Open(t)
	f := &fixture{db: db, store: NewStore(db)}
	f.alice = dbtest.SeedUser(t, db, "alice")
	f.bob = dbtest.SeedUser(t, db, "bob")
	f.spaceID, f.space = dbtest.SeedSpace(t, db, f.alice, "Personal", true)

	var err error
	f.project, err = projectstore.NewStore(db).Create(ctx, f.alice, &project.CreateRequest{SpacePublicID: f.space, Name: "Launch"})
	require.NoError(t, err)
	f.backlog, err = statusstore.Insert(ctx, db, db.Builder(), f.spaceID, "Not started", status.TypeBacklog, nil, nil)
	require.NoError(t, err)
	return f
}

func TestStore_CreateResolvesReferences(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	content := json.RawMessage(`{"type":"doc","content":[]}`)
	created, err := f.store.Create(ctx, f.alice, &item.CreateRequest{
		Name:            "Write docs",
		Kind:            item.KindTask,
		Priority:        2,
		Content:         content,
		SpacePublicID:   f.space,
		ProjectPublicID: f.project.PublicID,
		StatusPublicID:  f.backlog.PublicID,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^TASK-[0-9a-z]{12}$`, created.PublicID)
	assert.Equal(t, f.spaceID, *created.SpaceID)
	assert.Equal(t, f.project.ID, *created.ProjectID)
	require.NotNil(t, created.Status)
	assert.Equal(t, "Not started", created.Status.Name)
	assert.JSONEq(t, string(content), string(created.Content))
	assert.False(t, created.IsCompleted)

	child, err := f.store.Create(ctx, f.alice, &item.CreateRequest{Name: "Sub", Kind: item.KindNote, ParentPublicID: created.PublicID})
	require.NoError(t, err)
	assert.Regexp(t, `^NOTE-`, child.PublicID)
	assert.Equal(t, created.ID, *child.ParentID)
	assert.Nil(t, child.Status)

	_, err = f.store.Create(ctx, f.bob, &item.CreateRequest{Name: "Sneaky", Kind: item.KindTask, SpacePublicID: f.space})
	assert.ErrorIs(t, err, apperr.ErrNotFound, "bob must not reach alice's space")

	_, err = f.store.Create(ctx, f.bob, &item.CreateRequest{Name: "Sneaky", Kind: item.KindTask, StatusPublicID: f.backlog.PublicID})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStore_CreatePlacement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	workID, work := dbtest.SeedSpace(t, f.db, f.alice, "Work", false)
	workProject, err := projectstore.NewStore(f.db).Create(ctx, f.alice, &project.CreateRequest{SpacePublicID: work, Name: "Hiring"})
	require.NoError(t, err)
	workStatus, err := statusstore.Insert(ctx, f.db, f.db.Builder(), workID, "Todo", status.TypeBacklog, nil, nil)
	require.NoError(t, err)

	loose, err := f.store.Create(ctx, f.alice, &item.CreateRequest{Name: "loose", Kind: item.KindNote})
	require.NoError(t, err)
	require.NotNil(t, loose.SpaceID)
	assert.Equal(t, f.spaceID, *loose.SpaceID, "default space when nothing is given")

	viaProject, err := f.store.Create(ctx, f.alice, &item.CreateRequest{Name: "interview", Kind: item.KindTask, ProjectPublicID: workProject.PublicID, StatusPublicID: workStatus.PublicID})
	require.NoError(t, err)
	require.NotNil(t, viaProject.SpaceID)
	assert.Equal(t, workID, *viaProject.SpaceID, "space follows the project")

	_, err = f.store.Create(ctx, f.alice, &item.CreateRequest{Name: "x", Kind: item.KindTask, SpacePublicID: f.space, ProjectPublicID: workProject.PublicID})
	assert.ErrorIs(t, err, apperr.ErrValidation, "project of another space")

	_, err = f.store.Create(ctx, f.alice, &item.CreateRequest{Name: "x", Kind: item.KindTask, ProjectPublicID: workProject.PublicID, StatusPublicID: f.backlog.PublicID})
	assert.ErrorIs(t, err, apperr.ErrValidation, "status of another space")

	other := f.backlog.PublicID
	_, err = f.store.Update(ctx, f.alice, &item.UpdateRequest{PublicID: viaProject.PublicID, StatusPublicID: &other})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	todo := workStatus.PublicID
	updated, err := f.store.Update(ctx, f.alice, &item.UpdateRequest{PublicID: viaProject.PublicID, StatusPublicID: &todo})
	require.NoError(t, err)
	assert.Equal(t, "Todo", updated.Status.Name)
}

func TestStore_ListOrderingAndFilters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	mk := func(name string, kind item.Kind, priority int, projectID string) *item.Item {
		it, err := f.store.Create(ctx, f.alice, &item.CreateRequest{
			Name: name, Kind: kind, Priority: priority, SpacePublicID: f.space, ProjectPublicID: projectID,
		})
		require.NoError(t, err)
		return it
	}
	low := mk("low", item.KindTask, 0, "")
	high := mk("high", item.KindTask, 5, f.project.PublicID)
	newer := mk("newer", item.KindNote, 0, "")
	mk("scratch", item.KindScratch, 1, "")

	list, err := f.store.List(ctx, f.alice, item.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, high.PublicID, list[0].PublicID, "priority first")
	assert.Equal(t, newer.PublicID, list[2].PublicID, "then newest")
	assert.Equal(t, low.PublicID, list[3].PublicID)

	tasks, err := f.store.List(ctx, f.alice, item.ListFilter{Kind: item.KindTask, SpacePublicID: f.space})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	_, err = f.store.SetCompleted(ctx, f.alice, low.PublicID, true)
	require.NoError(t, err)

	tasks, err = f.store.List(ctx, f.alice, item.ListFilter{Kind: item.KindTask})
	require.NoError(t, err)
	assert.Len(t, tasks, 1, "completed items are hidden by default")

	tasks, err = f.store.List(ctx, f.alice, item.ListFilter{Kind: item.KindTask, IncludeCompleted: true})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	byProject, err := f.store.ListByProject(ctx, f.alice, f.project.PublicID, false)
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, "high", byProject[0].Name)

	others, err := f.store.List(ctx, f.bob, item.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestStore_Inbox(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	loose, err := f.store.Create(ctx, f.alice, &item.CreateRequest{Name: "loose task", Kind: item.KindTask, SpacePublicID: f.space})
	require.NoError(t, err)
	_, err = f.store.Create(ctx, f.alice, &item.CreateRequest{Name: "planned", Kind: item.KindTask, SpacePublicID: f.space, ProjectPublicID: f.project.PublicID})
	require.NoError(t, err)
	_, err = f.store.Create(ctx, f.alice, &item.CreateRequest{Name: "note", Kind: item.KindNote, SpacePublicID: f.space})
	require.NoError(t, err)
	spaceID := f.spaceID
	capture, err := f.store.Insert(ctx, f.db, NewItem{UserID: f.alice, SpaceID: &spaceID, Name: "idea", Kind: item.KindCapture})
	require.NoError(t, err)
	assert.Regexp(t, `^CAP-`, capture.PublicID)

	inbox, err := f.store.Inbox(ctx, f.alice, f.space)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, capture.PublicID, inbox[0].PublicID)
	assert.Equal(t, loose.PublicID, inbox[1].PublicID)
}

func TestStore_UpdateCompleteAndDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.store.Create(ctx, f.alice, &item.CreateRequest{Name: "task", Kind: item.KindTask, SpacePublicID: f.space, StatusPublicID: f.backlog.PublicID})
	require.NoError(t, err)

	name := "renamed"
	priority := 3
	none := ""
	updated, err := f.store.Update(ctx, f.alice, &item.UpdateRequest{PublicID: created.PublicID, Name: &name, Priority: &priority, StatusPublicID: &none})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, 3, updated.Priority)
	assert.Nil(t, updated.StatusID)
	assert.Nil(t, updated.Status)
	assert.Equal(t, f.spaceID, *updated.SpaceID, "space is untouched")

	_, err = f.store.Update(ctx, f.bob, &item.UpdateRequest{PublicID: created.PublicID, Name: &name})
	assert.ErrorIs(t, err, item.ErrItemNotFound)

	done, err := f.store.SetCompleted(ctx, f.alice, created.PublicID, true)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	require.NotNil(t, done.CompletedAt)

	_, err = f.store.SetCompleted(ctx, f.alice, created.PublicID, true)
	assert.ErrorIs(t, err, apperr.ErrConflict, "another request already completed it")

	_, err = f.store.SetCompleted(ctx, f.alice, "TASK-missing", true)
	assert.ErrorIs(t, err, item.ErrItemNotFound)

	undone, err := f.store.SetCompleted(ctx, f.alice, created.PublicID, false)
	require.NoError(t, err)
	assert.False(t, undone.IsCompleted)
	assert.Nil(t, undone.CompletedAt)

	deleted, err := f.store.SoftDelete(ctx, f.alice, created.PublicID)
	require.NoError(t, err)
	require.NotNil(t, deleted.DeletedAt)

	_, err = f.store.GetByPublicID(ctx, f.alice, created.PublicID)
	assert.ErrorIs(t, err, item.ErrItemNotFound)

	removed, err := f.store.HardDelete(ctx, f.alice, created.PublicID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, removed.ID)
}

func TestStore_StatusJoinSkipsDeletedStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.store.Create(ctx, f.alice, &item.CreateRequest{Name: "task", Kind: item.KindTask, StatusPublicID: f.backlog.PublicID})
	require.NoError(t, err)
	require.NotNil(t, created.Status)

	_, err = statusstore.NewStore(f.db).SoftDelete(ctx, f.alice, f.backlog.PublicID)
	require.NoError(t, err)

	got, err := f.store.GetByPublicID(ctx, f.alice, created.PublicID)
	require.NoError(t, err)
	assert.Nil(t, got.Status)
	require.NotNil(t, got.StatusID)
}
