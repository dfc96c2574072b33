package session

import (
	"context"
	"errors"

	"screening-bot-be/internal/pkg/apperror"
	"screening-bot-be/internal/pkg/logger"
)

// Manager owns session state. Its methods do not lock; callers that run a whole
// turn hold Lock(sessionID) for its duration.
type Manager struct {
	repo   Repository
	locks  *KeyedMutex
	logger logger.ILogger
}

func NewManager(repo Repository, logger logger.ILogger) *Manager {
	return &Manager{
		repo:   repo,
		locks:  NewKeyedMutex(),
		logger: logger,
	}
}

func (m *Manager) Lock(sessionID string) func() {
	return m.locks.Lock(sessionID)
}

func (m *Manager) Create(ctx context.Context, sessionID, questionnaireName string) (*State, error) {
	state := NewState(sessionID, questionnaireName)
	if err := m.repo.Create(ctx, state); err != nil {
		if errors.Is(err, ErrExists) {
			return nil, apperror.Conflict(apperror.CodeDuplicateSession, "session already exists")
		}
		return nil, apperror.Internal(apperror.CodePersistenceFailure, "failed to create session state", err)
	}

	m.logger.Debug("SessionManager", "Session state created", map[string]interface{}{
		"session_id":    sessionID,
		"questionnaire": questionnaireName,
	})
	return state.Clone(), nil
}

func (m *Manager) Get(ctx context.Context, sessionID string) (*State, error) {
	state, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, apperror.Internal(apperror.CodePersistenceFailure, "failed to load session state", err)
	}
	if state == nil {
		return nil, apperror.NotFound(apperror.CodeSessionNotFound, "session not found")
	}
	return state, nil
}

// MarkAsked adds index to the asked set. Adding an index twice is a no-op.
func (m *Manager) MarkAsked(ctx context.Context, sessionID string, index int) error {
	return m.update(ctx, sessionID, func(s *State) { s.AddAsked(index) })
}

func (m *Manager) SetLast(ctx context.Context, sessionID string, index int) error {
	return m.update(ctx, sessionID, func(s *State) { s.LastQuestionIndex = index })
}

func (m *Manager) MarkComplete(ctx context.Context, sessionID string) error {
	return m.update(ctx, sessionID, func(s *State) { s.IsComplete = true })
}

// Apply mutates the state in one read-modify-write. The asked set only grows:
// whatever fn does to it, previously asked indices are restored.
func (m *Manager) Apply(ctx context.Context, sessionID string, fn func(s *State)) (*State, error) {
	state, err := m.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	before := append([]int(nil), state.AskedIndices...)
	fn(state)
	for _, idx := range before {
		state.AddAsked(idx)
	}

	if err := m.repo.Save(ctx, state); err != nil {
		return nil, apperror.Internal(apperror.CodePersistenceFailure, "failed to save session state", err)
	}
	return state.Clone(), nil
}

// Evict drops the state. Unknown ids are ignored.
func (m *Manager) Evict(ctx context.Context, sessionID string) error {
	if err := m.repo.Delete(ctx, sessionID); err != nil {
		return apperror.Internal(apperror.CodePersistenceFailure, "failed to evict session state", err)
	}
	m.logger.Debug("SessionManager", "Session state evicted", map[string]interface{}{
		"session_id": sessionID,
	})
	return nil
}

func (m *Manager) update(ctx context.Context, sessionID string, fn func(s *State)) error {
	_, err := m.Apply(ctx, sessionID, fn)
	return err
}
