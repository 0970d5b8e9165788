package authflowrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisRepo keeps auth flow states in Redis so that any replica can serve the callback.
// Expiry is delegated to Redis key TTLs.
type RedisRepo struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ Repo = (*RedisRepo)(nil)

// NewRedisRepo connects to Redis and verifies the connection with a PING.
func NewRedisRepo(ctx context.Context, cfg RedisConfig) (*RedisRepo, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  DefaultDialTimeout,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisRepoWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisRepoWithClient wraps an already configured client.
func NewRedisRepoWithClient(client redis.UniversalClient, keyPrefix string) *RedisRepo {
	return &RedisRepo{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisRepo) key(state string) string {
	return r.keyPrefix + state
}

// Save stores the state with a TTL derived from ExpiresAt.
func (r *RedisRepo) Save(ctx context.Context, state string, authState *AuthFlowState) error {
	if state == "" {
		return ErrEmptyState
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	ttl := time.Until(authState.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("state already expired at %s", authState.ExpiresAt.Format(time.RFC3339))
	}

	data, err := json.Marshal(authState)
	if err != nil {
		return fmt.Errorf("failed to marshal auth flow state: %w", err)
	}
	return r.client.Set(ctx, r.key(state), data, ttl).Err()
}

// Take atomically reads and deletes the state with GETDEL.
func (r *RedisRepo) Take(ctx context.Context, state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, ErrEmptyState
	}

	data, err := r.client.GetDel(ctx, r.key(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take auth flow state: %w", err)
	}

	var authState AuthFlowState
	if err := json.Unmarshal(data, &authState); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth flow state: %w", err)
	}
	return &authState, nil
}

// Close releases the underlying connection pool.
func (r *RedisRepo) Close() error {
	return r.client.Close()
}
