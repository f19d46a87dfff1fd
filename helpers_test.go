package authkit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("unit-test-primary-secret")
	cfg.JWT.ResetSecret = []byte("unit-test-reset-secret")
	// keep hashing cheap in tests
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

type testStore struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]*User

	// failNext makes every store call fail until cleared.
	failNext error
}

func newTestStore() *testStore {
	return &testStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]*User),
	}
}

func (s *testStore) put(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u
}

func (s *testStore) get(id string) User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.byID[id]
}

func (s *testStore) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failNext != nil {
		return nil, s.failNext
	}
	u, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *testStore) GetByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failNext != nil {
		return nil, s.failNext
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *testStore) UpdatePassword(_ context.Context, id, hash string) error {
	return s.mutate(id, func(u *User) { u.PasswordHash = hash })
}

func (s *testStore) SetResetToken(_ context.Context, id, token string) error {
	return s.mutate(id, func(u *User) { u.ResetToken = token })
}

func (s *testStore) ClearResetToken(_ context.Context, id string) error {
	return s.mutate(id, func(u *User) { u.ResetToken = "" })
}

func (s *testStore) SetTwoFactorSecret(_ context.Context, id, secret string) error {
	return s.mutate(id, func(u *User) {
		u.TwoFactorSecret = secret
		u.TwoFactorEnabled = true
	})
}

func (s *testStore) ClearTwoFactor(_ context.Context, id string) error {
	return s.mutate(id, func(u *User) {
		u.TwoFactorSecret = ""
		u.TwoFactorEnabled = false
	})
}

func (s *testStore) mutate(id string, fn func(*User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		return s.failNext
	}
	u, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(u)
	return nil
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *testStore) {
	t.Helper()

	store := newTestStore()
	engine, err := New().
		WithConfig(cfg).
		WithUserStore(store).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, store
}

func seedUser(t *testing.T, engine *Engine, store *testStore, id, email, username, plaintext string) {
	t.Helper()

	hash, err := engine.passwordHash.Hash(plaintext)
	if err != nil {
		t.Fatalf("seed hash failed: %v", err)
	}
	store.put(&User{
		ID:           id,
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	})
}

func codeForSecret(t *testing.T, secret string, cfg TOTPConfig, offset int64) string {
	t.Helper()

	key, err := b32.DecodeString(secret)
	if err != nil {
		t.Fatalf("decode secret failed: %v", err)
	}
	counter := time.Now().Unix()/int64(cfg.Period) + offset
	code, err := hotpCode(key, counter, cfg.Digits, cfg.Algorithm)
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}
	return code
}
