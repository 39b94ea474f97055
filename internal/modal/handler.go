package modal

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"taeu.kr/kirosumi/internal/rpc"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

type openInput struct {
	ContentType         ContentType `json:"contentType"`
	EntityID            string      `json:"entityId,omitempty"`
	EntityLabel         string      `json:"entityLabel,omitempty"`
	CloseOnClickOutside *bool       `json:"closeOnClickOutside,omitempty"`
}

type closeManyInput struct {
	Count int `json:"count"`
}

type typeInput struct {
	Type string `json:"type"`
}

func (in *typeInput) Validate() error {
	in.Type = strings.TrimSpace(in.Type)
	if in.Type == "" {
		return errors.New("type is required")
	}
	return nil
}

type setStateInput struct {
	Type  string          `json:"type"`
	State json.RawMessage `json:"state"`
}

func (in *setStateInput) Validate() error {
	in.Type = strings.TrimSpace(in.Type)
	if in.Type == "" {
		return errors.New("type is required")
	}
	return nil
}

// Register는 modal.* procedure를 등록합니다
func (h *Handler) Register(r *rpc.Router) {
	rpc.Query(r, "modal.current", h.current)
	rpc.Mutation(r, "modal.open", h.open)
	rpc.Mutation(r, "modal.close", h.closeOne)
	rpc.Mutation(r, "modal.closeMany", h.closeMany)
	rpc.Mutation(r, "modal.clear", h.clear)
	rpc.Mutation(r, "modal.setState", h.setState)
	rpc.Query(r, "modal.getState", h.getState)
	rpc.Mutation(r, "modal.clearState", h.clearState)
	rpc.Mutation(r, "modal.clearAllStates", h.clearAllStates)
}

func (h *Handler) current(ctx context.Context, s rpc.Session, _ rpc.Empty) (View, error) {
	st, err := h.store.Load(ctx, s.UserID)
	if err != nil {
		return View{}, rpc.FromError(err, "Failed to load modal stack")
	}
	return st.View(), nil
}

func (h *Handler) open(ctx context.Context, s rpc.Session, in openInput) (View, error) {
	closeOnClickOutside := true
	if in.CloseOnClickOutside != nil {
		closeOnClickOutside = *in.CloseOnClickOutside
	}
	return h.update(ctx, s.UserID, func(st *Stack) error {
		return st.Open(in.ContentType, in.EntityID, in.EntityLabel, closeOnClickOutside)
	})
}

func (h *Handler) closeOne(ctx context.Context, s rpc.Session, _ rpc.Empty) (View, error) {
	return h.update(ctx, s.UserID, func(st *Stack) error {
		st.Close()
		return nil
	})
}

func (h *Handler) closeMany(ctx context.Context, s rpc.Session, in closeManyInput) (View, error) {
	return h.update(ctx, s.UserID, func(st *Stack) error {
		st.CloseN(in.Count)
		return nil
	})
}

func (h *Handler) clear(ctx context.Context, s rpc.Session, _ rpc.Empty) (View, error) {
	return h.update(ctx, s.UserID, func(st *Stack) error {
		st.Clear()
		return nil
	})
}

func (h *Handler) setState(ctx context.Context, s rpc.Session, in setStateInput) (json.RawMessage, error) {
	if _, err := h.store.Update(ctx, s.UserID, func(st *Stack) error {
		st.SetState(in.Type, in.State)
		return nil
	}); err != nil {
		return nil, rpc.FromError(err, "Failed to update modal state")
	}
	return in.State, nil
}

// getState는 저장된 값이 없으면 null을 돌려줍니다
func (h *Handler) getState(ctx context.Context, s rpc.Session, in typeInput) (json.RawMessage, error) {
	st, err := h.store.Load(ctx, s.UserID)
	if err != nil {
		return nil, rpc.FromError(err, "Failed to load modal state")
	}
	state, ok := st.State(in.Type)
	if !ok {
		return json.RawMessage("null"), nil
	}
	return state, nil
}

func (h *Handler) clearState(ctx context.Context, s rpc.Session, in typeInput) (bool, error) {
	if _, err := h.store.Update(ctx, s.UserID, func(st *Stack) error {
		st.ClearState(in.Type)
		return nil
	}); err != nil {
		return false, rpc.FromError(err, "Failed to clear modal state")
	}
	return true, nil
}

func (h *Handler) clearAllStates(ctx context.Context, s rpc.Session, _ rpc.Empty) (bool, error) {
	if _, err := h.store.Update(ctx, s.UserID, func(st *Stack) error {
		st.ClearStates()
		return nil
	}); err != nil {
		return false, rpc.FromError(err, "Failed to clear modal states")
	}
	return true, nil
}

func (h *Handler) update(ctx context.Context, userID int64, fn func(*Stack) error) (View, error) {
	st, err := h.store.Update(ctx, userID, fn)
	if err != nil {
		return View{}, rpc.FromError(err, "Failed to update modal stack")
	}
	return st.View(), nil
}
