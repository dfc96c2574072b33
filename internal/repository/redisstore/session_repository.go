package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"screening-bot-be/pkg/session"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// SessionRepository stores session state as JSON under session:<id> with a TTL,
// so in-flight sessions survive a process restart.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

var _ session.Repository = (*SessionRepository)(nil)

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

func (r *SessionRepository) Create(ctx context.Context, state *session.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, key(state.SessionID), data, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return session.ErrExists
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*session.State, error) {
	data, err := r.client.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state session.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *SessionRepository) Save(ctx context.Context, state *session.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key(state.SessionID), data, r.ttl).Err()
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, key(sessionID)).Err()
}
