package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"whatsapp-launcher-core/internal/domain"
	"whatsapp-launcher-core/internal/ports"
)

const stateKeyPrefix = "oauth_state:"

// RedisStateStore keeps OAuth states in Redis with native TTL expiry.
// GETDEL makes consumption atomic, so a replayed nonce finds nothing.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore creates a Redis-backed state store.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// SaveState stores the state under its nonce with the remaining TTL.
func (s *RedisStateStore) SaveState(ctx context.Context, state *domain.OAuthState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: marshal oauth state: %v", domain.ErrPersistence, err)
	}

	ttl := time.Until(state.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, stateKeyPrefix+state.Nonce, raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: save oauth state: %v", domain.ErrPersistence, err)
	}
	return nil
}

// ConsumeState fetches and deletes the state in one GETDEL.
func (s *RedisStateStore) ConsumeState(ctx context.Context, nonce string) (*domain.OAuthState, error) {
	raw, err := s.client.GetDel(ctx, stateKeyPrefix+nonce).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: consume oauth state: %v", domain.ErrPersistence, err)
	}

	var state domain.OAuthState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("%w: parse oauth state: %v", domain.ErrPersistence, err)
	}
	if state.Expired(time.Now()) {
		return nil, nil
	}
	return &state, nil
}

var _ ports.StateRepository = (*RedisStateStore)(nil)
