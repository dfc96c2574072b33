package contract

import (
	"context"
	"errors"

	"screening-bot-be/internal/entity"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicate      = errors.New("record already exists")
)

type ChatRecordFilter struct {
	School            string
	QuestionnaireName string
	// WithConversation includes the transcript; listings usually leave it out.
	WithConversation bool
}

// ChatRecordRepository persists one document per session. Update methods return
// ErrRecordNotFound for unknown sessions.
type ChatRecordRepository interface {
	Create(ctx context.Context, record *entity.ChatRecord) error
	// FindBySessionId returns nil, nil when the session has no record.
	FindBySessionId(ctx context.Context, sessionId string) (*entity.ChatRecord, error)
	AppendTurn(ctx context.Context, sessionId string, turn entity.ConversationTurn) error
	AppendResponse(ctx context.Context, sessionId string, response entity.QuestionResponse, isFollowUp bool) error
	SetFeedback(ctx context.Context, sessionId string, feedback string) error
	SetDiagnosis(ctx context.Context, sessionId string, diagnosis string) error
	// FindAll lists records newest first.
	FindAll(ctx context.Context, filter ChatRecordFilter) ([]*entity.ChatRecord, error)
	DistinctSchools(ctx context.Context) ([]string, error)
}
