package mongodb

import (
	"time"

	"screening-bot-be/internal/entity"

	"github.com/google/uuid"
)

type responseDocument struct {
	Question    string `bson:"question"`
	Answer      string `bson:"answer"`
	AnswerIndex int    `bson:"answer_index"`
}

type turnDocument struct {
	Role          string    `bson:"role"`
	QuestionIndex *int      `bson:"question_index,omitempty"`
	Question      string    `bson:"question,omitempty"`
	Message       string    `bson:"message"`
	CreatedAt     time.Time `bson:"created_at"`
}

type chatRecordDocument struct {
	ID                string             `bson:"_id"`
	SessionID         string             `bson:"session_id"`
	QuestionnaireName string             `bson:"questionnaire_name"`
	StudentName       string             `bson:"student_name"`
	StudentDob        string             `bson:"student_dob"`
	StudentGender     string             `bson:"student_gender"`
	StudentAge        int                `bson:"student_age"`
	School            string             `bson:"school"`
	GuardianRole      string             `bson:"guardian_role"`
	GuardianName      string             `bson:"guardian_name"`
	ParentName        string             `bson:"parent_name"`
	ParentMobile      string             `bson:"parent_mobile"`
	TeacherName       string             `bson:"teacher_name,omitempty"`
	TeacherMobile     string             `bson:"teacher_mobile,omitempty"`
	TncAccepted       bool               `bson:"tnc_accepted"`
	Responses         []responseDocument `bson:"responses"`
	FollowUpResponses []responseDocument `bson:"follow_up_responses"`
	Conversation      []turnDocument     `bson:"conversation"`
	Diagnosis         *string            `bson:"diagnosis,omitempty"`
	Feedback          *string            `bson:"feedback,omitempty"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

type questionDocument struct {
	Question       string    `bson:"question"`
	Options        []string  `bson:"options"`
	Type           int       `bson:"type"`
	QuestionVector []float32 `bson:"question_vector"`
}

type questionnaireDocument struct {
	ID           string             `bson:"_id"`
	Name         string             `bson:"questionnaire"`
	Instructions string             `bson:"instructions"`
	Questions    []questionDocument `bson:"questions,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func toResponseDocuments(items []entity.QuestionResponse) []responseDocument {
	out := make([]responseDocument, 0, len(items))
	for _, it := range items {
		out = append(out, responseDocument{Question: it.Question, Answer: it.Answer, AnswerIndex: it.AnswerIndex})
	}
	return out
}

func fromResponseDocuments(items []responseDocument) []entity.QuestionResponse {
	out := make([]entity.QuestionResponse, 0, len(items))
	for _, it := range items {
		out = append(out, entity.QuestionResponse{Question: it.Question, Answer: it.Answer, AnswerIndex: it.AnswerIndex})
	}
	return out
}

func toTurnDocument(t entity.ConversationTurn) turnDocument {
	return turnDocument{
		Role:          string(t.Role),
		QuestionIndex: t.QuestionIndex,
		Question:      t.Question,
		Message:       t.Message,
		CreatedAt:     t.CreatedAt,
	}
}

func toChatRecordDocument(r *entity.ChatRecord) *chatRecordDocument {
	turns := make([]turnDocument, 0, len(r.Conversation))
	for _, t := range r.Conversation {
		turns = append(turns, toTurnDocument(t))
	}

	return &chatRecordDocument{
		ID:                r.Id.String(),
		SessionID:         r.SessionId,
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
		Responses:         toResponseDocuments(r.Responses),
		FollowUpResponses: toResponseDocuments(r.FollowUpResponses),
		Conversation:      turns,
		Diagnosis:         r.Diagnosis,
		Feedback:          r.Feedback,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.CreatedAt,
	}
}

func (d *chatRecordDocument) toEntity() *entity.ChatRecord {
	turns := make([]entity.ConversationTurn, 0, len(d.Conversation))
	for _, t := range d.Conversation {
		turns = append(turns, entity.ConversationTurn{
			Role:          entity.ChatRole(t.Role),
			QuestionIndex: t.QuestionIndex,
			Question:      t.Question,
			Message:       t.Message,
			CreatedAt:     t.CreatedAt,
		})
	}

	id, _ := uuid.Parse(d.ID)
	updatedAt := d.UpdatedAt
	return &entity.ChatRecord{
		Id:                id,
		SessionId:         d.SessionID,
		QuestionnaireName: d.QuestionnaireName,
		Student: entity.StudentProfile{
			Name:        d.StudentName,
			DateOfBirth: d.StudentDob,
			Gender:      d.StudentGender,
			Age:         d.StudentAge,
			School:      d.School,
		},
		Guardian: entity.GuardianProfile{
			Role:          entity.GuardianRole(d.GuardianRole),
			Name:          d.GuardianName,
			ParentName:    d.ParentName,
			ParentMobile:  d.ParentMobile,
			TeacherName:   d.TeacherName,
			TeacherMobile: d.TeacherMobile,
		},
		TncAccepted:       d.TncAccepted,
		Responses:         fromResponseDocuments(d.Responses),
		FollowUpResponses: fromResponseDocuments(d.FollowUpResponses),
		Conversation:      turns,
		Diagnosis:         d.Diagnosis,
		Feedback:          d.Feedback,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         &updatedAt,
	}
}

func toQuestionnaireDocument(q *entity.Questionnaire) *questionnaireDocument {
	questions := make([]questionDocument, 0, len(q.Questions))
	for _, qq := range q.Questions {
		questions = append(questions, questionDocument{
			Question:       qq.Text,
			Options:        qq.Options,
			Type:           qq.Type,
			QuestionVector: qq.Embedding,
		})
	}
	return &questionnaireDocument{
		ID:           q.Id.String(),
		Name:         q.Name,
		Instructions: q.Instructions,
		Questions:    questions,
		CreatedAt:    q.CreatedAt,
	}
}

func (d *questionnaireDocument) toEntity() *entity.Questionnaire {
	questions := make([]entity.Question, 0, len(d.Questions))
	for i, qq := range d.Questions {
		questions = append(questions, entity.Question{
			Index:     i,
			Text:      qq.Question,
			Options:   qq.Options,
			Type:      qq.Type,
			Embedding: qq.QuestionVector,
		})
	}
	id, _ := uuid.Parse(d.ID)
	return &entity.Questionnaire{
		Id:           id,
		Name:         d.Name,
		Instructions: d.Instructions,
		Questions:    questions,
		CreatedAt:    d.CreatedAt,
	}
}
