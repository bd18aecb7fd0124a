package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/greenbuddy/greenbuddy-backend/pkg/config"
	redisclient "github.com/greenbuddy/greenbuddy-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...any) error
	SRem(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
	UserSessionSetKey(userID string) string
}

// Manager tracks which access token IDs (jti) still map to a live session.
// Each session also registers in a per-user set so every token a user holds
// can be revoked at once when the account is deleted.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl < accessTTL {
		return nil, fmt.Errorf("session ttl (%s) must cover access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Start records a fresh session for the given user and access ID.
func (m *Manager) Start(ctx context.Context, userID, accessID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), userID, m.ttl); err != nil {
		return err
	}
	setKey := m.keyer.UserSessionSetKey(userID)
	if err := m.store.SAdd(ctx, setKey, accessID); err != nil {
		return err
	}
	// Keep the set from outliving its last session.
	return m.store.Expire(ctx, setKey, m.ttl)
}

// HasSession reports whether the provided access ID still has an active session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	if _, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Revoke ends a single session.
func (m *Manager) Revoke(ctx context.Context, userID, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	var errs error
	if err := m.store.Del(ctx, m.keyer.AccessSessionKey(accessID)); err != nil {
		errs = multierr.Append(errs, err)
	}
	if strings.TrimSpace(userID) != "" {
		if err := m.store.SRem(ctx, m.keyer.UserSessionSetKey(userID), accessID); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// RevokeAllForUser ends every active session the user holds.
func (m *Manager) RevokeAllForUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	setKey := m.keyer.UserSessionSetKey(userID)
	accessIDs, err := m.store.SMembers(ctx, setKey)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil
		}
		return err
	}

	var errs error
	for _, accessID := range accessIDs {
		if err := m.store.Del(ctx, m.keyer.AccessSessionKey(accessID)); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if err := m.store.Del(ctx, setKey); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}
