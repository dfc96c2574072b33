package dto

import "time"

type ChatStreamRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Question  string `json:"question" validate:"required"`
	Model     string `json:"model"`
	Age       int    `json:"age" validate:"gte=0,lte=120"`
}

// StreamFrame is one SSE data frame. Intermediate frames carry a chunk; the
// single terminal frame has Complete set and either FullAnswer or Error.
type StreamFrame struct {
	Chunk      string `json:"chunk"`
	Complete   bool   `json:"complete"`
	FullAnswer string `json:"full_answer,omitempty"`
	Model      string `json:"model,omitempty"`
	Status     bool   `json:"status"`
	Error      string `json:"error,omitempty"`
	ErrorType  string `json:"error_type,omitempty"`
}

type ModelListResponse struct {
	Models []string `json:"models"`
}

type PingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ResponseDTO struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	AnswerIndex int    `json:"answer_index"`
}

type ConversationTurnDTO struct {
	Role          string    `json:"role"`
	QuestionIndex *int      `json:"question_index,omitempty"`
	Question      string    `json:"question,omitempty"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

type ChatRecordResponse struct {
	SessionId         string                `json:"session_id"`
	QuestionnaireName string                `json:"questionnaire_name"`
	StudentName       string                `json:"student_name"`
	StudentDob        string                `json:"student_dob"`
	StudentGender     string                `json:"student_gender"`
	StudentAge        int                   `json:"student_age"`
	School            string                `json:"school"`
	GuardianRole      string                `json:"guardian_role"`
	GuardianName      string                `json:"guardian_name"`
	ParentName        string                `json:"parent_name"`
	ParentMobile      string                `json:"parent_mobile"`
	TeacherName       string                `json:"teacher_name,omitempty"`
	TeacherMobile     string                `json:"teacher_mobile,omitempty"`
	TncAccepted       bool                  `json:"tnc_accepted"`
	Responses         []ResponseDTO         `json:"responses"`
	FollowUpResponses []ResponseDTO         `json:"follow_up_responses"`
	Conversation      []ConversationTurnDTO `json:"conversation,omitempty"`
	Diagnosis         *string               `json:"diagnosis"`
	Feedback          *string               `json:"feedback"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         *time.Time            `json:"updated_at,omitempty"`
}
