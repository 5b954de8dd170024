package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/taskconsole/domain"
)

// RedisFlowRepository implements domain.FlowRepository using Redis keys with a TTL
type RedisFlowRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisFlowRepository creates a new flow repository
func NewRedisFlowRepository(client *redis.Client, ttl time.Duration) *RedisFlowRepository {
	return &RedisFlowRepository{
		client: client,
		prefix: "console:flow:",
		ttl:    ttl,
	}
}

// Get implements domain.FlowRepository. A missing or unreadable flow is nil, nil.
func (r *RedisFlowRepository) Get(ctx context.Context, flowID string) (*domain.AuthFlowState, error) {
	data, err := r.client.Get(ctx, r.prefix+flowID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read flow: %w", err)
	}

	var state domain.AuthFlowState
	if err := json.Unmarshal(data, &state); err != nil || state.Nonce == "" {
		slog.Default().WarnContext(ctx, "discarding unreadable flow", "module", "flow", "flow_id", flowID)
		if err := r.client.Del(ctx, r.prefix+flowID).Err(); err != nil {
			slog.Default().ErrorContext(ctx, "failed to clear unreadable flow",
				"module", "flow",
				"operation", "get",
				"outcome", "failure",
				"flow_id", flowID,
				"error", err)
		}
		return nil, nil
	}
	return &state, nil
}

// Put implements domain.FlowRepository
func (r *RedisFlowRepository) Put(ctx context.Context, flowID string, state *domain.AuthFlowState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}
	return r.client.Set(ctx, r.prefix+flowID, data, r.ttl).Err()
}

// Delete implements domain.FlowRepository
func (r *RedisFlowRepository) Delete(ctx context.Context, flowID string) error {
	return r.client.Del(ctx, r.prefix+flowID).Err()
}

// MemoryFlowRepository implements domain.FlowRepository in process memory.
// Used by the CLI and when no Redis is configured. Entries expire ttl after
// their last Put; expired entries are invisible to Get and swept on Put.
type MemoryFlowRepository struct {
	mu    sync.Mutex
	ttl   time.Duration
	nowFn func() time.Time
	flows map[string]memoryFlow
}

type memoryFlow struct {
	state     domain.AuthFlowState
	expiresAt time.Time
}

// NewMemoryFlowRepository creates an empty in-memory flow repository.
// A non-positive ttl keeps flows until they are deleted.
func NewMemoryFlowRepository(ttl time.Duration) *MemoryFlowRepository {
	return &MemoryFlowRepository{
		ttl:   ttl,
		nowFn: time.Now,
		flows: make(map[string]memoryFlow),
	}
}

func (r *MemoryFlowRepository) expired(f memoryFlow, now time.Time) bool {
	return r.ttl > 0 && !now.Before(f.expiresAt)
}

// Get implements domain.FlowRepository
func (r *MemoryFlowRepository) Get(ctx context.Context, flowID string) (*domain.AuthFlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[flowID]
	if !ok {
		return nil, nil
	}
	if r.expired(f, r.nowFn()) {
		delete(r.flows, flowID)
		return nil, nil
	}
	state := f.state
	return &state, nil
}

// Put implements domain.FlowRepository
func (r *MemoryFlowRepository) Put(ctx context.Context, flowID string, state *domain.AuthFlowState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.nowFn()
	for id, f := range r.flows {
		if r.expired(f, now) {
			delete(r.flows, id)
		}
	}
	r.flows[flowID] = memoryFlow{state: *state, expiresAt: now.Add(r.ttl)}
	return nil
}

// Delete implements domain.FlowRepository
func (r *MemoryFlowRepository) Delete(ctx context.Context, flowID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flows, flowID)
	return nil
}

// Len reports how many flows are held, expired ones included until swept
func (r *MemoryFlowRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}
