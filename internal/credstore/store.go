// Package credstore keeps the access and refresh tokens of the current
// session. Stores hold strings only; they never inspect token contents.
package credstore

import (
	"context"
	"sync"

	"github.com/BuzzLyutic/taskdesk/internal/model"
)

// Kind names a token slot. The values double as persistence keys.
type Kind string

const (
	Access  Kind = "access_token"
	Refresh Kind = "refresh_token"
)

// Store is the credential storage contract. Get returns "" for an absent
// token. Every write is visible to the next Get.
type Store interface {
	Get(ctx context.Context, kind Kind) (string, error)
	Set(ctx context.Context, kind Kind, value string) error
	SetPair(ctx context.Context, pair model.TokenPair) error
	Clear(ctx context.Context, kind Kind) error
	ClearAll(ctx context.Context) error
}

// Pair reads both tokens. ok is false unless both are present; a session
// holding only one of them counts as logged out.
func Pair(ctx context.Context, s Store) (model.TokenPair, bool, error) {
	access, err := s.Get(ctx, Access)
	if err != nil {
		return model.TokenPair{}, false, err
	}
	refresh, err := s.Get(ctx, Refresh)
	if err != nil {
		return model.TokenPair{}, false, err
	}
	p := model.TokenPair{Access: access, Refresh: refresh}
	return p, access != "" && refresh != "", nil
}

type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[Kind]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[Kind]string, 2)}
}

func (m *MemoryStore) Get(_ context.Context, kind Kind) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens[kind], nil
}

func (m *MemoryStore) Set(_ context.Context, kind Kind, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[kind] = value
	return nil
}

func (m *MemoryStore) SetPair(_ context.Context, pair model.TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[Access] = pair.Access
	m.tokens[Refresh] = pair.Refresh
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, kind Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, kind)
	return nil
}

func (m *MemoryStore) ClearAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.tokens)
	return nil
}
