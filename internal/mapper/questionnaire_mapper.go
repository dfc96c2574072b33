package mapper

import (
	"screening-bot-be/internal/entity"
	"screening-bot-be/internal/model"
	"screening-bot-be/pkg/questionnaire"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type QuestionnaireMapper struct{}

func NewQuestionnaireMapper() *QuestionnaireMapper {
	return &QuestionnaireMapper{}
}

func (m *QuestionnaireMapper) ToEntity(q *model.Questionnaire) *entity.Questionnaire {
	if q == nil {
		return nil
	}

	questions := make([]entity.Question, 0, len(q.Questions))
	for _, qq := range q.Questions {
		questions = append(questions, entity.Question{
			Index:     qq.Position,
			Text:      qq.Text,
			Options:   []string(qq.Options),
			Type:      qq.Type,
			Embedding: qq.Embedding.Slice(),
		})
	}

	return &entity.Questionnaire{
		Id:           q.Id,
		Name:         q.Name,
		Instructions: q.Instructions,
		Questions:    questions,
		CreatedAt:    q.CreatedAt,
	}
}

func (m *QuestionnaireMapper) ToModel(q *entity.Questionnaire) *model.Questionnaire {
	if q == nil {
		return nil
	}

	questions := make([]model.QuestionnaireQuestion, 0, len(q.Questions))
	for _, qq := range q.Questions {
		questions = append(questions, model.QuestionnaireQuestion{
			QuestionnaireId: q.Id,
			Position:        qq.Index,
			Text:            qq.Text,
			Options:         datatypes.JSONSlice[string](qq.Options),
			Type:            qq.Type,
			Embedding:       pgvector.NewVector(qq.Embedding),
		})
	}

	return &model.Questionnaire{
		Id:           q.Id,
		Name:         q.Name,
		Instructions: q.Instructions,
		Questions:    questions,
		CreatedAt:    q.CreatedAt,
	}
}

// ToBank converts a stored questionnaire into the selector's question bank.
// Questions are re-indexed by position so bank indices stay dense.
func (m *QuestionnaireMapper) ToBank(q *entity.Questionnaire) *questionnaire.Bank {
	if q == nil {
		return nil
	}

	records := make([]questionnaire.QuestionRecord, 0, len(q.Questions))
	for i, qq := range q.Questions {
		records = append(records, questionnaire.QuestionRecord{
			Index:     i,
			Text:      qq.Text,
			Options:   append([]string(nil), qq.Options...),
			Type:      questionnaire.QuestionType(qq.Type),
			Embedding: qq.Embedding,
		})
	}

	return &questionnaire.Bank{
		Name:         q.Name,
		Instructions: q.Instructions,
		Questions:    records,
	}
}
