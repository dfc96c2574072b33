package session

import (
	"context"
	"errors"
)

// ErrExists is returned by Repository.Create when the id is taken.
var ErrExists = errors.New("session state already exists")

// Repository stores session state. Get returns nil, nil when the id is unknown.
type Repository interface {
	Create(ctx context.Context, state *State) error
	Get(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context, sessionID string) error
}
