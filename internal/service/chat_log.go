package service

import (
	"context"
	"errors"
	"time"

	"screening-bot-be/internal/entity"
	"screening-bot-be/internal/pkg/apperror"
	"screening-bot-be/internal/repository/contract"
)

// TurnPayload is the role-specific content of one transcript entry. BOT turns
// carry the selected question; USER and FEEDBACK turns only a message.
type TurnPayload struct {
	QuestionIndex *int
	Question      string
	Message       string
}

// ChatLog is the write path for a session's chat record. The service holds the
// session lock around every call, so each record has a single writer.
type ChatLog struct {
	repo contract.ChatRecordRepository
}

func NewChatLog(repo contract.ChatRecordRepository) *ChatLog {
	return &ChatLog{repo: repo}
}

// AppendTurn adds a USER or BOT turn to the transcript. FEEDBACK replaces the
// record's single feedback field instead.
func (l *ChatLog) AppendTurn(ctx context.Context, sessionId string, role entity.ChatRole, payload TurnPayload) error {
	var err error
	switch role {
	case entity.ChatRoleFeedback:
		err = l.repo.SetFeedback(ctx, sessionId, payload.Message)
	case entity.ChatRoleBot:
		err = l.repo.AppendTurn(ctx, sessionId, entity.ConversationTurn{
			Role:          role,
			QuestionIndex: payload.QuestionIndex,
			Question:      payload.Question,
			Message:       payload.Message,
			CreatedAt:     time.Now(),
		})
	default:
		err = l.repo.AppendTurn(ctx, sessionId, entity.ConversationTurn{
			Role:      entity.ChatRoleUser,
			Message:   payload.Message,
			CreatedAt: time.Now(),
		})
	}
	return translateRecordError(err)
}

func (l *ChatLog) RecordAnswer(ctx context.Context, sessionId, question, answer string, answerIndex int, isFollowUp bool) error {
	err := l.repo.AppendResponse(ctx, sessionId, entity.QuestionResponse{
		Question:    question,
		Answer:      answer,
		AnswerIndex: answerIndex,
	}, isFollowUp)
	return translateRecordError(err)
}

func (l *ChatLog) SetDiagnosis(ctx context.Context, sessionId, diagnosis string) error {
	return translateRecordError(l.repo.SetDiagnosis(ctx, sessionId, diagnosis))
}

func (l *ChatLog) Read(ctx context.Context, sessionId string) (*entity.ChatRecord, error) {
	record, err := l.repo.FindBySessionId(ctx, sessionId)
	if err != nil {
		return nil, translateRecordError(err)
	}
	if record == nil {
		return nil, apperror.NotFound(apperror.CodeSessionNotFound, "chat record not found")
	}
	return record, nil
}

func translateRecordError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, contract.ErrRecordNotFound):
		return apperror.NotFound(apperror.CodeSessionNotFound, "chat record not found")
	default:
		return apperror.Internal(apperror.CodePersistenceFailure, "failed to write chat record", err)
	}
}
