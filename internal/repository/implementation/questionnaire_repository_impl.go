package implementation

import (
	"context"
	"errors"

	"screening-bot-be/internal/entity"
	"screening-bot-be/internal/mapper"
	"screening-bot-be/internal/model"
	"screening-bot-be/internal/repository/contract"
	"screening-bot-be/internal/repository/scope"

	"gorm.io/gorm"
)

type QuestionnaireRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuestionnaireMapper
}

func NewQuestionnaireRepository(db *gorm.DB) contract.QuestionnaireRepository {
	return &QuestionnaireRepositoryImpl{
		db:     db,
		mapper: mapper.NewQuestionnaireMapper(),
	}
}

func (r *QuestionnaireRepositoryImpl) Create(ctx context.Context, questionnaire *entity.Questionnaire) error {
	m := r.mapper.ToModel(questionnaire)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(m).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return contract.ErrDuplicate
		}
		return err
	}
	*questionnaire = *r.mapper.ToEntity(m)
	return nil
}

func (r *QuestionnaireRepositoryImpl) FindByName(ctx context.Context, name string) (*entity.Questionnaire, error) {
	var m model.Questionnaire
	err := r.db.WithContext(ctx).
		Preload("Questions", scope.OrderByPosition).
		Where("name = ?", name).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *QuestionnaireRepositoryImpl) FindAll(ctx context.Context) ([]*entity.Questionnaire, error) {
	var models []*model.Questionnaire
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*entity.Questionnaire, 0, len(models))
	for _, m := range models {
		out = append(out, r.mapper.ToEntity(m))
	}
	return out, nil
}
