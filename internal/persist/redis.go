package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

const stateKeyPrefix = "hud:state:"

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Client redis.UniversalClient
}

// Validate checks the configuration.
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.New("persist: redis config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.New("persist: redis client cannot be nil")
	}
	return nil
}

// RedisStore persists one JSON blob per subject under hud:state:<subject>.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore constructs a Redis-backed store.
func NewRedisStore(cfg *RedisConfig) (*RedisStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RedisStore{client: cfg.Client}, nil
}

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context, subject string) (*state.State, error) {
	if subject == "" {
		return nil, errors.New("persist: subject cannot be empty")
	}
	raw, err := r.client.Get(ctx, stateKeyPrefix+subject).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persist: failed to load state for %s: %w", subject, err)
	}
	var st state.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("persist: corrupt state blob for %s: %w", subject, err)
	}
	return &st, nil
}

// Save implements Store.
func (r *RedisStore) Save(ctx context.Context, subject string, st *state.State) error {
	if subject == "" {
		return errors.New("persist: subject cannot be empty")
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("persist: failed to marshal state for %s: %w", subject, err)
	}
	if err := r.client.Set(ctx, stateKeyPrefix+subject, data, 0).Err(); err != nil {
		return fmt.Errorf("persist: failed to save state for %s: %w", subject, err)
	}
	return nil
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, subject string) error {
	if subject == "" {
		return errors.New("persist: subject cannot be empty")
	}
	if err := r.client.Del(ctx, stateKeyPrefix+subject).Err(); err != nil {
		return fmt.Errorf("persist: failed to delete state for %s: %w", subject, err)
	}
	return nil
}
