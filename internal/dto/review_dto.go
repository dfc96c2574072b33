package dto

type UpdateDiagnosisRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Diagnosis string `json:"diagnosis" validate:"required"`
}

type UpdateDiagnosisResponse struct {
	Message string `json:"message"`
}

type ChatResponsesQuery struct {
	School        string `query:"school"`
	Questionnaire string `query:"questionnaire"`
}

type SchoolListResponse struct {
	Schools []string `json:"schools"`
}
