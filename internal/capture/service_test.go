package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taeu.kr/kirosumi/internal/item"
	"taeu.kr/kirosumi/internal/platform/apperr"
)

type stubStore struct {
	Storer
	converted *ConvertRequest
}

func (s *stubStore) Create(_ context.Context, userID int64, req *CreateRequest) (*Capture, error) {
	return &Capture{PublicID: "CAP-1", CreatedBy: userID, Title: req.Title}, nil
}

func (s *stubStore) ConvertToTask(_ context.Context, _ int64, req *ConvertRequest) (*item.Item, error) {
	s.converted = req
	return &item.Item{PublicID: "TASK-1", Kind: item.KindTask}, nil
}

type events struct {
	log []string
}

func (e *events) IndexCapture(_ context.Context, c *Capture) { e.log = append(e.log, "index "+c.PublicID) }
func (e *events) RemoveCapture(_ context.Context, _ int64, publicID string) {
	e.log = append(e.log, "remove "+publicID)
}
func (e *events) IndexItem(_ context.Context, it *item.Item) { e.log = append(e.log, "index "+it.PublicID) }

func TestService_IndexesChanges(t *testing.T) {
	store := &stubStore{}
	ev := &events{}
	svc := NewService(store)
	svc.SetIndexer(ev)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, &CreateRequest{Title: " note "})
	require.NoError(t, err)

	task, err := svc.ConvertToTask(ctx, 1, &ConvertRequest{PublicID: " CAP-1 "})
	require.NoError(t, err)
	assert.Equal(t, "TASK-1", task.PublicID)
	assert.Equal(t, "CAP-1", store.converted.PublicID, "input is trimmed")
	assert.Equal(t, []string{"index CAP-1", "remove CAP-1", "index TASK-1"}, ev.log)
}

func TestService_ValidationStopsEarly(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store)

	_, err := svc.Create(context.Background(), 1, &CreateRequest{Title: ""})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.ConvertToTask(context.Background(), 1, &ConvertRequest{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Nil(t, store.converted)
}
