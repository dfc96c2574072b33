package dto

type StartQuestionnaireRequest struct {
	SessionId         string `json:"session_id" validate:"omitempty,max=128"`
	QuestionnaireName string `json:"questionnaire_name" validate:"required"`
	StudentName       string `json:"student_name" validate:"required"`
	StudentDob        string `json:"student_dob" validate:"required,datetime=2006-01-02"`
	StudentGender     string `json:"student_gender" validate:"required"`
	ParentName        string `json:"parent_name" validate:"required"`
	ParentMobile      string `json:"parent_mobile" validate:"required"`
	School            string `json:"school" validate:"required"`
	TeacherName       string `json:"teacher_name"`
	TeacherMobile     string `json:"teacher_mobile"`
	TncAccepted       bool   `json:"tnc_accepted"`
}

type StartQuestionnaireResponse struct {
	SessionId string `json:"session_id"`
}

type EndQuestionnaireRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Feedback  string `json:"feedback"`
}

type EndQuestionnaireResponse struct {
	Message string `json:"message"`
}

type QuestionnaireSummary struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}

type QuestionnaireListResponse struct {
	Questionnaires []QuestionnaireSummary `json:"questionnaires"`
}

// QuestionDTO is a bank question as clients see it. Embeddings never leave the server.
type QuestionDTO struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Type     int      `json:"type"`
}

type QuestionnaireResponse struct {
	Questionnaire string        `json:"questionnaire"`
	Instructions  string        `json:"instructions"`
	Questions     []QuestionDTO `json:"questions"`
}

// ImportQuestionnaireRequest mirrors the on-disk questionnaire definition files.
type ImportQuestionnaireRequest struct {
	Questionnaire string              `json:"questionnaire" validate:"required"`
	Instructions  string              `json:"instructions"`
	Questions     []ImportQuestionDTO `json:"questions" validate:"required,min=1,dive"`
}

type ImportQuestionDTO struct {
	Question string   `json:"question" validate:"required"`
	Options  []string `json:"options"`
	Type     int      `json:"type" validate:"oneof=0 1"`
}

type ImportQuestionnaireResponse struct {
	Name      string `json:"name"`
	Questions int    `json:"questions"`
}
