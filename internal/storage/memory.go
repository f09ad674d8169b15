package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

// MemoryRepository keeps all documents in memory. It is the default
// backend for local development and the one the tests run against.
type MemoryRepository struct {
	mu    sync.Mutex
	txs   map[string]core.Transaction
	users map[string]auth.UserRecord // keyed by lowercased email
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		txs:   make(map[string]core.Transaction),
		users: make(map[string]auth.UserRecord),
	}
}

func (r *MemoryRepository) ListByUser(_ context.Context, uid string) ([]core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []core.Transaction
	for _, tx := range r.txs {
		if tx.UID == uid {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) Insert(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now().UTC()
	r.txs[tx.ID] = tx
	return tx, nil
}

func (r *MemoryRepository) Update(_ context.Context, uid, id string, tx core.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.txs[id]
	if !ok {
		return store.ErrNotFound
	}
	if existing.UID != uid {
		return store.ErrOwnershipMismatch
	}
	tx.ID = existing.ID
	tx.UID = existing.UID
	tx.CreatedAt = existing.CreatedAt
	r.txs[id] = tx
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, uid, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.txs[id]
	if !ok {
		return store.ErrNotFound
	}
	if existing.UID != uid {
		return store.ErrOwnershipMismatch
	}
	delete(r.txs, id)
	return nil
}

func (r *MemoryRepository) CreateUser(_ context.Context, u auth.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := r.users[key]; exists {
		return auth.ErrEmailTaken
	}
	r.users[key] = u
	return nil
}

func (r *MemoryRepository) UserByEmail(_ context.Context, email string) (auth.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[strings.ToLower(email)]
	if !ok {
		return auth.UserRecord{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryRepository) UpdateDisplayName(_ context.Context, uid, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, u := range r.users {
		if u.UID == uid {
			u.DisplayName = name
			r.users[key] = u
			return nil
		}
	}
	return auth.ErrUserNotFound
}

// Close implements the backend cleanup contract; nothing to release.
func (r *MemoryRepository) Close() error {
	return nil
}
