package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/teller/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// farFuture scores sessions without expiration in the index (2100-01-01).
const farFuture = 4102444800

// Store implements ports.StateStore and ports.Pruner using Redis.
//
// Each session is a JSON string under prefix+id. Two sorted sets track it:
// prefix+"index" scored by expiry for lazy cleanup, and prefix+"updated"
// scored by last write for pruning.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "teller:session:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying connection so lockers and logs can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) updatedKey() string {
	return s.prefix + "updated"
}

// Save persists the state to Redis.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}
	updated := state.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(sessionID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: sessionID})
	pipe.ZAdd(ctx, s.updatedKey(), backend.Z{Score: float64(updated.Unix()), Member: sessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the state from Redis.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var state domain.SessionState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	pipe.ZRem(ctx, s.updatedKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns live sessions, most recently updated first.
// Expired entries are pruned from the indexes lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	expired, err := s.client.ZRangeByScore(ctx, s.indexKey(), &backend.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan expired sessions: %w", err)
	}
	if len(expired) > 0 {
		members := make([]any, len(expired))
		for i, id := range expired {
			members[i] = id
		}
		pipe := s.client.Pipeline()
		pipe.ZRem(ctx, s.indexKey(), members...)
		pipe.ZRem(ctx, s.updatedKey(), members...)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
		}
	}

	sessions, err := s.client.ZRevRange(ctx, s.updatedKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Prune deletes sessions whose last write is older than before.
func (s *Store) Prune(ctx context.Context, before time.Time) ([]string, error) {
	max := fmt.Sprintf("(%d", before.Unix())
	ids, err := s.client.ZRangeByScore(ctx, s.updatedKey(), &backend.ZRangeBy{Min: "-inf", Max: max}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan idle sessions: %w", err)
	}
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to prune session %s: %w", id, err)
		}
	}
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
