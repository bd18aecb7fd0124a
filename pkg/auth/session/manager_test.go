package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	sets map[string]map[string]struct{}
}

func newMockStore() *mockStore {
	return &mockStore{
		data: make(map[string]string),
		sets: make(map[string]map[string]struct{}),
	}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		delete(m.sets, key)
	}
	return nil
}

func (m *mockStore) SAdd(ctx context.Context, key string, members ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	for _, member := range members {
		set[fmt.Sprint(member)] = struct{}{}
	}
	return nil
}

func (m *mockStore) SRem(ctx context.Context, key string, members ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		return nil
	}
	for _, member := range members {
		delete(set, fmt.Sprint(member))
	}
	return nil
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		return nil, nil
	}
	members := make([]string, 0, len(set))
	for member := range set {
		members = append(members, member)
	}
	return members, nil
}

func (m *mockStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:access:%s", accessID)
}

func (m *mockStore) UserSessionSetKey(userID string) string {
	return fmt.Sprintf("sess:user:%s", userID)
}

func newTestManager(store *mockStore) *Manager {
	return &Manager{
		store: store,
		keyer: store,
		ttl:   time.Hour,
	}
}

func TestManagerStartAndHasSession(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	if err := manager.Start(ctx, "user-1", "access-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	ok, err := manager.HasSession(ctx, "access-1")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if !ok {
		t.Fatal("expected session to exist")
	}

	ok, err = manager.HasSession(ctx, "access-unknown")
	if err != nil {
		t.Fatalf("has session unknown: %v", err)
	}
	if ok {
		t.Fatal("expected no session for unknown access id")
	}
}

func TestManagerRevoke(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	if err := manager.Start(ctx, "user-1", "access-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := manager.Revoke(ctx, "user-1", "access-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	ok, err := manager.HasSession(ctx, "access-1")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if ok {
		t.Fatal("expected session to be gone after revoke")
	}
	if _, exists := store.sets[store.UserSessionSetKey("user-1")]["access-1"]; exists {
		t.Fatal("expected access id removed from user set")
	}
}

func TestManagerRevokeAllForUser(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	for _, accessID := range []string{"access-1", "access-2", "access-3"} {
		if err := manager.Start(ctx, "user-1", accessID); err != nil {
			t.Fatalf("start %s: %v", accessID, err)
		}
	}
	if err := manager.Start(ctx, "user-2", "access-other"); err != nil {
		t.Fatalf("start other user: %v", err)
	}

	if err := manager.RevokeAllForUser(ctx, "user-1"); err != nil {
		t.Fatalf("revoke all: %v", err)
	}

	for _, accessID := range []string{"access-1", "access-2", "access-3"} {
		ok, err := manager.HasSession(ctx, accessID)
		if err != nil {
			t.Fatalf("has session %s: %v", accessID, err)
		}
		if ok {
			t.Fatalf("expected %s revoked", accessID)
		}
	}

	ok, err := manager.HasSession(ctx, "access-other")
	if err != nil {
		t.Fatalf("has session other: %v", err)
	}
	if !ok {
		t.Fatal("expected other user's session untouched")
	}
}

func TestManagerInputValidation(t *testing.T) {
	manager := newTestManager(newMockStore())
	ctx := context.Background()

	if err := manager.Start(ctx, "", "access-1"); err == nil {
		t.Fatal("expected error for empty user id")
	}
	if err := manager.Start(ctx, "user-1", ""); err == nil {
		t.Fatal("expected error for empty access id")
	}
	if _, err := manager.HasSession(ctx, " "); err == nil {
		t.Fatal("expected error for blank access id")
	}
	if err := manager.RevokeAllForUser(ctx, ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}
