package auth

import (
	"context"
	"sync"
)

// fakeStore is an in-memory Store used across the auth tests. It mirrors the
// GormStore's contract, including the duplicate-email conflict.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*User // keyed by user ID
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*User)}
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	normalized := NormalizeEmail(email)
	for _, u := range f.users {
		if u.Email == normalized {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, ErrUserNotFound
}

func (f *fakeStore) Create(_ context.Context, user *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.Email = NormalizeEmail(user.Email)
	for _, u := range f.users {
		if u.Email == user.Email {
			return ErrEmailTaken
		}
	}
	clone := *user
	f.users[user.UserID] = &clone
	return nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summaries := make([]UserSummary, 0, len(f.users))
	for _, u := range f.users {
		summaries = append(summaries, UserSummary{ID: u.UserID, Name: u.Name, IsAdmin: u.IsAdmin})
	}
	return summaries, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}
