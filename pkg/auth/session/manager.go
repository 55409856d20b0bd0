// Package session tracks live operator sessions in redis so a logout can
// revoke a token before it expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/songqueue-backend/pkg/config"
	redisclient "github.com/angelmondragon/songqueue-backend/pkg/redis"
)

var errBlankAccessID = errors.New("access id is required")

type backend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager keys sessions by the access token jti. A session lives exactly as
// long as the token it was issued with.
type Manager struct {
	backend backend
	ttl     time.Duration
}

func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	ttl := cfg.TTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	return &Manager{backend: client, ttl: ttl}, nil
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", errBlankAccessID
	}
	return m.backend.AccessSessionKey(accessID), nil
}

// Start stores role under the session key.
func (m *Manager) Start(ctx context.Context, accessID, role string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.backend.Set(ctx, key, role, m.ttl)
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.backend.Del(ctx, key)
}

// HasSession returns false without error for unknown or expired sessions.
// Any other backend failure is returned so callers can fail closed.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	key, err := m.key(accessID)
	if err != nil {
		return false, err
	}
	_, err = m.backend.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redislib.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("lookup session: %w", err)
	}
}

// NewAccessID mints the identifier shared by the JWT jti and the redis key.
func NewAccessID() string {
	return uuid.NewString()
}
