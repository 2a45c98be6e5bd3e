// Package memstore holds process-local implementations of the service
// repositories, used when no database is configured and in tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
)

type UserRepository struct {
	mu     sync.RWMutex
	byName map[string]domain.User
	nextID int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byName: make(map[string]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[u.Username]; ok {
		return domain.ErrUserExists
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.byName[u.Username] = *u

	return nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byName[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}
