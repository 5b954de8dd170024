package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/taskconsole/domain"
	"github.com/you/taskconsole/internal/session"
)

// RedisSessionProvider implements domain.SessionProvider using Redis, one key per slot
type RedisSessionProvider struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionProvider creates a new Redis backed session provider
func NewRedisSessionProvider(client *redis.Client, ttl time.Duration) *RedisSessionProvider {
	return &RedisSessionProvider{
		client: client,
		prefix: "console:session:",
		ttl:    ttl,
	}
}

// Slot implements domain.SessionProvider
func (p *RedisSessionProvider) Slot(slotID string) domain.SessionStore {
	return &RedisSessionRepository{client: p.client, key: p.prefix + slotID, ttl: p.ttl}
}

// RedisSessionRepository implements domain.SessionStore for a single Redis key
type RedisSessionRepository struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// Save implements domain.SessionStore
func (r *RedisSessionRepository) Save(ctx context.Context, s *domain.Session) error {
	data, err := session.Encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Load implements domain.SessionStore
func (r *RedisSessionRepository) Load(ctx context.Context) (*domain.Session, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	res := session.Decode(data)
	switch res.Status {
	case session.OK:
		return res.Session, nil
	case session.Corrupt:
		slog.Default().WarnContext(ctx, "discarding corrupt session entry", "key", r.key)
		if err := r.client.Del(ctx, r.key).Err(); err != nil {
			slog.Default().ErrorContext(ctx, "failed to clear corrupt session", "key", r.key, "error", err)
		}
	}
	return nil, domain.ErrSessionNotFound
}

// Clear implements domain.SessionStore
func (r *RedisSessionRepository) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
