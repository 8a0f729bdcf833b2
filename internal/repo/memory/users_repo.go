package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lmoreau/profilhub/internal/domain/user"
)

// UsersRepo is an in-memory store with the same semantics as the mongo repo:
// unique email, opaque ids, partial updates. Used by tests and local runs.
type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User
	byEmail map[string]string
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) Create(_ context.Context, params user.NewUserParams) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(params.Email)

	if _, exists := r.byEmail[key]; exists {
		return user.User{}, user.ErrEmailTaken
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		LastName:     params.LastName,
		FirstName:    params.FirstName,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Address:      params.Address,
		BirthDate:    params.BirthDate,
		PhoneNumber:  params.PhoneNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.items[u.ID] = u
	r.byEmail[key] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.items[id], nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) Update(_ context.Context, id string, params user.UpdateParams) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if params.LastName != nil {
		u.LastName = *params.LastName
	}
	if params.FirstName != nil {
		u.FirstName = *params.FirstName
	}
	if params.Address != nil {
		u.Address = *params.Address
	}
	if params.BirthDate != nil {
		u.BirthDate = *params.BirthDate
	}
	if params.PhoneNumber != nil {
		u.PhoneNumber = *params.PhoneNumber
	}

	if !params.Empty() {
		u.UpdatedAt = time.Now().UTC()
	}

	r.items[id] = u

	return u, nil
}

// Delete removes a user. Tests use it to simulate a valid token whose
// subject no longer exists.
func (r *UsersRepo) Delete(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return
	}

	delete(r.byEmail, strings.ToLower(u.Email))
	delete(r.items, id)
}
