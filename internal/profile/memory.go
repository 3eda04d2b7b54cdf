package profile

import (
	"context"
	"strings"
	"sync"

	"paytrack/internal/core"
)

const kindUser = "user"

// MemoryRepository is a Repository kept in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRepository) CreateUser(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := r.byEmail[key]; ok {
		return ErrEmailExists
	}
	r.byID[u.ID] = u
	r.byEmail[key] = u.ID
	return nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, core.NewNotFoundError(kindUser, email)
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, core.NewNotFoundError(kindUser, id)
	}
	return u, nil
}

func (r *MemoryRepository) UpdateUser(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byID[u.ID]
	if !ok {
		return core.NewNotFoundError(kindUser, u.ID)
	}
	if !strings.EqualFold(old.Email, u.Email) {
		key := strings.ToLower(u.Email)
		if _, taken := r.byEmail[key]; taken {
			return ErrEmailExists
		}
		delete(r.byEmail, strings.ToLower(old.Email))
		r.byEmail[key] = u.ID
	}
	r.byID[u.ID] = u
	return nil
}
