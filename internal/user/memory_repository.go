package user

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository implements Repository in process memory. It backs the
// "memory" store driver and is safe for concurrent use.
type MemoryRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*User
	now   func() time.Time
}

// NewMemoryRepository creates an empty in-memory Repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[uuid.UUID]*User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneUser(u *User) *User {
	c := *u
	c.Username = cloneString(u.Username)
	c.PasswordHash = cloneString(u.PasswordHash)
	c.GoogleID = cloneString(u.GoogleID)
	c.Secret = cloneString(u.Secret)
	return &c
}

// conflict returns the sentinel for the first unique field of u already in use.
// Callers must hold mu.
func (r *MemoryRepository) conflict(u *User) error {
	for _, existing := range r.users {
		if u.Username != nil && ByUsername(*u.Username).matches(existing) {
			return ErrUsernameTaken
		}
		if u.GoogleID != nil && ByGoogleID(*u.GoogleID).matches(existing) {
			return ErrGoogleIDTaken
		}
	}
	return nil
}

// insert stores a copy of u. Callers must hold mu.
func (r *MemoryRepository) insert(u *User) error {
	if !u.Reachable() {
		return ErrUnreachable
	}
	if err := r.conflict(u); err != nil {
		return err
	}

	now := r.now()
	u.ID = uuid.New()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = cloneUser(u)
	return nil
}

// find returns the stored user matching key. Callers must hold mu.
func (r *MemoryRepository) find(key Key) *User {
	for _, u := range r.users {
		if key.matches(u) {
			return u
		}
	}
	return nil
}

// Create inserts a new user record.
func (r *MemoryRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(u)
}

// GetByID retrieves a single user by its UUID.
func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

// Find retrieves a single user by a unique identity field.
func (r *MemoryRepository) Find(_ context.Context, key Key) (*User, error) {
	if !key.valid() {
		return nil, ErrInvalidKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.find(key)
	if u == nil {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

// FindOrCreate holds the lock across lookup and insert.
func (r *MemoryRepository) FindOrCreate(_ context.Context, key Key, build func() *User) (*User, bool, error) {
	if !key.valid() {
		return nil, false, ErrInvalidKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if u := r.find(key); u != nil {
		return cloneUser(u), false, nil
	}

	u := build()
	key.apply(u)
	if err := r.insert(u); err != nil {
		return nil, false, err
	}
	return cloneUser(u), true, nil
}

// SetSecret overwrites the secret of the given user.
func (r *MemoryRepository) SetSecret(_ context.Context, id uuid.UUID, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Secret = &secret
	u.UpdatedAt = r.now()
	return nil
}

// ListWithSecrets retrieves all users with a non-empty secret, ordered by creation time.
func (r *MemoryRepository) ListWithSecrets(_ context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := []User{}
	for _, u := range r.users {
		if u.SecretText() != "" {
			users = append(users, *cloneUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID.String() < users[j].ID.String()
	})
	return users, nil
}

// Ping always succeeds.
func (r *MemoryRepository) Ping(_ context.Context) error {
	return nil
}
