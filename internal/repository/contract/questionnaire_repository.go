package contract

import (
	"context"

	"screening-bot-be/internal/entity"
)

type QuestionnaireRepository interface {
	// Create fails with ErrDuplicate when the name is taken.
	Create(ctx context.Context, questionnaire *entity.Questionnaire) error
	// FindByName returns nil, nil when no questionnaire has that name.
	FindByName(ctx context.Context, name string) (*entity.Questionnaire, error)
	// FindAll returns every questionnaire without its questions.
	FindAll(ctx context.Context) ([]*entity.Questionnaire, error)
}
