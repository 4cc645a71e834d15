package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/microblog/internal/domain/user"
	"github.com/google/uuid"
)

type UsersRepo struct {
	mu         sync.RWMutex
	items      map[string]user.User // by id
	byUsername map[string]string
	byEmail    map[string]string
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:      make(map[string]user.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	if passwordHash == "" {
		return user.User{}, user.ErrEmptyPasswordHash
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[username]; ok {
		return user.User{}, user.ErrUsernameTaken
	}

	if _, ok := r.byEmail[email]; ok {
		return user.User{}, user.ErrEmailTaken
	}

	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	r.items[u.ID] = u
	r.byUsername[username] = u.ID
	r.byEmail[email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return copyUser(u), nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookup(r.byUsername, username)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookup(r.byEmail, email)
}

func (r *UsersRepo) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.ErrNotFound
	}

	at = at.UTC()
	u.LastSeen = &at
	r.items[id] = u

	return nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return nil
}

// caller holds the read lock
func (r *UsersRepo) lookup(index map[string]string, key string) (user.User, error) {
	id, ok := index[key]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return copyUser(r.items[id]), nil
}

// callers must not be able to mutate the stored LastSeen through the pointer
func copyUser(u user.User) user.User {
	if u.LastSeen != nil {
		t := *u.LastSeen
		u.LastSeen = &t
	}
	return u
}
