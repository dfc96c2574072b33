package implementation

import (
	"context"
	"encoding/json"
	"errors"

	"screening-bot-be/internal/entity"
	"screening-bot-be/internal/mapper"
	"screening-bot-be/internal/model"
	"screening-bot-be/internal/repository/contract"
	"screening-bot-be/internal/repository/scope"
	"screening-bot-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ChatRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatRecordMapper
}

func NewChatRecordRepository(db *gorm.DB) contract.ChatRecordRepository {
	return &ChatRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatRecordMapper(),
	}
}

func (r *ChatRecordRepositoryImpl) Create(ctx context.Context, record *entity.ChatRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return contract.ErrDuplicate
		}
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *ChatRecordRepositoryImpl) FindBySessionId(ctx context.Context, sessionId string) (*entity.ChatRecord, error) {
	var m model.ChatRecord
	if err := r.db.WithContext(ctx).Scopes(specification.BySessionId{SessionId: sessionId}.Apply).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// appendJSON appends items to a jsonb array column in a single statement.
func (r *ChatRecordRepositoryImpl) appendJSON(ctx context.Context, sessionId, column string, items interface{}) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&model.ChatRecord{}).
		Scopes(specification.BySessionId{SessionId: sessionId}.Apply).
		Update(column, gorm.Expr("COALESCE("+column+", '[]'::jsonb) || ?::jsonb", string(payload)))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrRecordNotFound
	}
	return nil
}

func (r *ChatRecordRepositoryImpl) AppendTurn(ctx context.Context, sessionId string, turn entity.ConversationTurn) error {
	return r.appendJSON(ctx, sessionId, "conversation", []model.ConversationItem{r.mapper.TurnToModel(turn)})
}

func (r *ChatRecordRepositoryImpl) AppendResponse(ctx context.Context, sessionId string, response entity.QuestionResponse, isFollowUp bool) error {
	column := "responses"
	if isFollowUp {
		column = "follow_up_responses"
	}
	return r.appendJSON(ctx, sessionId, column, []model.ResponseItem{r.mapper.ResponseToModel(response)})
}

func (r *ChatRecordRepositoryImpl) setText(ctx context.Context, sessionId, column, value string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ChatRecord{}).
		Scopes(specification.BySessionId{SessionId: sessionId}.Apply).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrRecordNotFound
	}
	return nil
}

func (r *ChatRecordRepositoryImpl) SetFeedback(ctx context.Context, sessionId string, feedback string) error {
	return r.setText(ctx, sessionId, "feedback", feedback)
}

func (r *ChatRecordRepositoryImpl) SetDiagnosis(ctx context.Context, sessionId string, diagnosis string) error {
	return r.setText(ctx, sessionId, "diagnosis", diagnosis)
}

func (r *ChatRecordRepositoryImpl) FindAll(ctx context.Context, filter contract.ChatRecordFilter) ([]*entity.ChatRecord, error) {
	specs := []specification.Specification{
		specification.Filter("school", filter.School),
		specification.Filter("questionnaire_name", filter.QuestionnaireName),
	}
	if !filter.WithConversation {
		specs = append(specs, specification.Omit{Fields: []string{"conversation"}})
	}

	query := specification.Apply(r.db.WithContext(ctx).Model(&model.ChatRecord{}), specs...)

	var models []*model.ChatRecord
	if err := query.Scopes(scope.OrderByCreatedDesc).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ChatRecordRepositoryImpl) DistinctSchools(ctx context.Context) ([]string, error) {
	var schools []string
	err := r.db.WithContext(ctx).
		Model(&model.ChatRecord{}).
		Scopes(specification.NotBlank{Field: "school"}.Apply).
		Distinct("school").
		Order("school ASC").
		Pluck("school", &schools).Error
	if err != nil {
		return nil, err
	}
	return schools, nil
}
