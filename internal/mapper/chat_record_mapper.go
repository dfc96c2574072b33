package mapper

import (
	"time"

	"screening-bot-be/internal/entity"
	"screening-bot-be/internal/model"

	"gorm.io/datatypes"
)

type ChatRecordMapper struct{}

func NewChatRecordMapper() *ChatRecordMapper {
	return &ChatRecordMapper{}
}

func (m *ChatRecordMapper) ToEntity(r *model.ChatRecord) *entity.ChatRecord {
	if r == nil {
		return nil
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatRecord{
		Id:                r.Id,
		SessionId:         r.SessionId,
		QuestionnaireName: r.QuestionnaireName,
		Student: entity.StudentProfile{
			Name:        r.StudentName,
			DateOfBirth: r.StudentDob,
			Gender:      r.StudentGender,
			Age:         r.StudentAge,
			School:      r.School,
		},
		Guardian: entity.GuardianProfile{
			Role:          entity.GuardianRole(r.GuardianRole),
			Name:          r.GuardianName,
			ParentName:    r.ParentName,
			ParentMobile:  r.ParentMobile,
			TeacherName:   r.TeacherName,
			TeacherMobile: r.TeacherMobile,
		},
		TncAccepted:       r.TncAccepted,
		Responses:         m.ResponsesToEntity(r.Responses),
		FollowUpResponses: m.ResponsesToEntity(r.FollowUpResponses),
		Conversation:      m.ConversationToEntity(r.Conversation),
		Diagnosis:         r.Diagnosis,
		Feedback:          r.Feedback,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *ChatRecordMapper) ToModel(r *entity.ChatRecord) *model.ChatRecord {
	if r == nil {
		return nil
	}

	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}

	return &model.ChatRecord{
		Id:                r.Id,
		SessionId:         r.SessionId,
		QuestionnaireName: r.QuestionnaireName,
		StudentName:       r.Student.Name,
		StudentDob:        r.Student.DateOfBirth,
		StudentGender:     r.Student.Gender,
		StudentAge:        r.Student.Age,
		School:            r.Student.School,
		GuardianRole:      string(r.Guardian.Role),
		GuardianName:      r.Guardian.Name,
		ParentName:        r.Guardian.ParentName,
		ParentMobile:      r.Guardian.ParentMobile,
		TeacherName:       r.Guardian.TeacherName,
		TeacherMobile:     r.Guardian.TeacherMobile,
		TncAccepted:       r.TncAccepted,
		Responses:         m.ResponsesToModel(r.Responses),
		FollowUpResponses: m.ResponsesToModel(r.FollowUpResponses),
		Conversation:      m.ConversationToModel(r.Conversation),
		Diagnosis:         r.Diagnosis,
		Feedback:          r.Feedback,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *ChatRecordMapper) ToEntities(records []*model.ChatRecord) []*entity.ChatRecord {
	out := make([]*entity.ChatRecord, 0, len(records))
	for _, r := range records {
		out = append(out, m.ToEntity(r))
	}
	return out
}

func (m *ChatRecordMapper) ResponseToModel(r entity.QuestionResponse) model.ResponseItem {
	return model.ResponseItem{
		Question:    r.Question,
		Answer:      r.Answer,
		AnswerIndex: r.AnswerIndex,
	}
}

func (m *ChatRecordMapper) ResponsesToEntity(items datatypes.JSONSlice[model.ResponseItem]) []entity.QuestionResponse {
	out := make([]entity.QuestionResponse, 0, len(items))
	for _, it := range items {
		out = append(out, entity.QuestionResponse{
			Question:    it.Question,
			Answer:      it.Answer,
			AnswerIndex: it.AnswerIndex,
		})
	}
	return out
}

func (m *ChatRecordMapper) ResponsesToModel(items []entity.QuestionResponse) datatypes.JSONSlice[model.ResponseItem] {
	out := make(datatypes.JSONSlice[model.ResponseItem], 0, len(items))
	for _, it := range items {
		out = append(out, m.ResponseToModel(it))
	}
	return out
}

func (m *ChatRecordMapper) TurnToModel(t entity.ConversationTurn) model.ConversationItem {
	return model.ConversationItem{
		Role:          string(t.Role),
		QuestionIndex: t.QuestionIndex,
		Question:      t.Question,
		Message:       t.Message,
		CreatedAt:     t.CreatedAt,
	}
}

func (m *ChatRecordMapper) ConversationToEntity(items datatypes.JSONSlice[model.ConversationItem]) []entity.ConversationTurn {
	out := make([]entity.ConversationTurn, 0, len(items))
	for _, it := range items {
		out = append(out, entity.ConversationTurn{
			Role:          entity.ChatRole(it.Role),
			QuestionIndex: it.QuestionIndex,
			Question:      it.Question,
			Message:       it.Message,
			CreatedAt:     it.CreatedAt,
		})
	}
	return out
}

func (m *ChatRecordMapper) ConversationToModel(turns []entity.ConversationTurn) datatypes.JSONSlice[model.ConversationItem] {
	out := make(datatypes.JSONSlice[model.ConversationItem], 0, len(turns))
	for _, t := range turns {
		out = append(out, m.TurnToModel(t))
	}
	return out
}
