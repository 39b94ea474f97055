package modal

import (
	"context"
	"sync"
)

// Store는 사용자별 stack을 보관합니다. Update는 fn을 원자적으로 적용한다.
type Store interface {
	Load(ctx context.Context, userID int64) (*Stack, error)
	Update(ctx context.Context, userID int64, fn func(*Stack) error) (*Stack, error)
}

type MemoryStore struct {
	mu     sync.Mutex
	stacks map[int64]*Stack
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stacks: make(map[int64]*Stack)}
}

func (m *MemoryStore) Load(_ context.Context, userID int64) (*Stack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.stacks[userID]; ok {
		return st.clone(), nil
	}
	return NewStack(), nil
}

func (m *MemoryStore) Update(_ context.Context, userID int64, fn func(*Stack) error) (*Stack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.stacks[userID]
	if !ok {
		st = NewStack()
	}
	next := st.clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	m.stacks[userID] = next
	return next.clone(), nil
}
