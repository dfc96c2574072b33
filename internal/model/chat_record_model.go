package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ResponseItem struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	AnswerIndex int    `json:"answer_index"`
}

type ConversationItem struct {
	Role          string    `json:"role"`
	QuestionIndex *int      `json:"question_index,omitempty"`
	Question      string    `json:"question,omitempty"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

type ChatRecord struct {
	Id                uuid.UUID                             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId         string                                `gorm:"type:text;uniqueIndex;not null"`
	QuestionnaireName string                                `gorm:"type:text;not null;index"`
	StudentName       string                                `gorm:"type:text"`
	StudentDob        string                                `gorm:"type:text"`
	StudentGender     string                                `gorm:"type:text"`
	StudentAge        int                                   `gorm:"default:0"`
	School            string                                `gorm:"type:text;index"`
	GuardianRole      string                                `gorm:"type:text"`
	GuardianName      string                                `gorm:"type:text"`
	ParentName        string                                `gorm:"type:text"`
	ParentMobile      string                                `gorm:"type:text"`
	TeacherName       string                                `gorm:"type:text"`
	TeacherMobile     string                                `gorm:"type:text"`
	TncAccepted       bool                                  `gorm:"not null;default:false"`
	Responses         datatypes.JSONSlice[ResponseItem]     `gorm:"type:jsonb"`
	FollowUpResponses datatypes.JSONSlice[ResponseItem]     `gorm:"type:jsonb"`
	Conversation      datatypes.JSONSlice[ConversationItem] `gorm:"type:jsonb"`
	Diagnosis         *string                               `gorm:"type:text"`
	Feedback          *string                               `gorm:"type:text"`
	CreatedAt         time.Time                             `gorm:"autoCreateTime"`
	UpdatedAt         time.Time                             `gorm:"autoUpdateTime"`
}

func (ChatRecord) TableName() string {
	return "chat_records"
}
