package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatRole string

const (
	ChatRoleUser     ChatRole = "USER"
	ChatRoleBot      ChatRole = "BOT"
	ChatRoleFeedback ChatRole = "FEEDBACK"
)

type GuardianRole string

const (
	GuardianRoleParent  GuardianRole = "parent"
	GuardianRoleTeacher GuardianRole = "teacher"
)

type StudentProfile struct {
	Name        string
	DateOfBirth string
	Gender      string
	Age         int
	School      string
}

type GuardianProfile struct {
	Role          GuardianRole
	Name          string
	ParentName    string
	ParentMobile  string
	TeacherName   string
	TeacherMobile string
}

type QuestionResponse struct {
	Question    string
	Answer      string
	AnswerIndex int
}

// ConversationTurn is one line of the transcript. QuestionIndex and Question are
// only set on bot turns.
type ConversationTurn struct {
	Role          ChatRole
	QuestionIndex *int
	Question      string
	Message       string
	CreatedAt     time.Time
}

type ChatRecord struct {
	Id                uuid.UUID
	SessionId         string
	QuestionnaireName string
	Student           StudentProfile
	Guardian          GuardianProfile
	TncAccepted       bool
	Responses         []QuestionResponse
	FollowUpResponses []QuestionResponse
	Conversation      []ConversationTurn
	Diagnosis         *string
	Feedback          *string
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}
