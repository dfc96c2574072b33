package memory

import (
	"context"
	"time"

	"screening-bot-be/pkg/session"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps session state in process memory. Entries expire after
// the configured TTL so abandoned sessions do not accumulate.
type SessionRepository struct {
	cache *cache.Cache
}

var _ session.Repository = (*SessionRepository)(nil)

func NewSessionRepository(ttl, cleanupInterval time.Duration) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (r *SessionRepository) Create(ctx context.Context, state *session.State) error {
	if err := r.cache.Add(state.SessionID, state.Clone(), cache.DefaultExpiration); err != nil {
		return session.ErrExists
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*session.State, error) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*session.State).Clone(), nil
	}
	return nil, nil
}

func (r *SessionRepository) Save(ctx context.Context, state *session.State) error {
	r.cache.Set(state.SessionID, state.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}
