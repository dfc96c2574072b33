package service

import (
	"context"

	"screening-bot-be/internal/dto"
	"screening-bot-be/internal/entity"
	"screening-bot-be/internal/pkg/apperror"
	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/internal/repository/contract"
	"screening-bot-be/pkg/events"
)

// IReviewService is the read side used by participants (their own transcript)
// and by psychologists reviewing completed screenings.
type IReviewService interface {
	GetChat(ctx context.Context, sessionId string) (*dto.ChatRecordResponse, error)
	ListResponses(ctx context.Context, query *dto.ChatResponsesQuery) ([]*dto.ChatRecordResponse, error)
	UpdateDiagnosis(ctx context.Context, req *dto.UpdateDiagnosisRequest) (*dto.UpdateDiagnosisResponse, error)
	Schools(ctx context.Context) (*dto.SchoolListResponse, error)
}

type reviewService struct {
	chatRecordRepo contract.ChatRecordRepository
	chatLog        *ChatLog
	publisher      IPublisherService
	logger         logger.ILogger
}

func NewReviewService(chatRecordRepo contract.ChatRecordRepository, publisher IPublisherService, logger logger.ILogger) IReviewService {
	return &reviewService{
		chatRecordRepo: chatRecordRepo,
		chatLog:        NewChatLog(chatRecordRepo),
		publisher:      publisher,
		logger:         logger,
	}
}

func (s *reviewService) GetChat(ctx context.Context, sessionId string) (*dto.ChatRecordResponse, error) {
	record, err := s.chatLog.Read(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return toChatRecordResponse(record, true), nil
}

func (s *reviewService) ListResponses(ctx context.Context, query *dto.ChatResponsesQuery) ([]*dto.ChatRecordResponse, error) {
	records, err := s.chatRecordRepo.FindAll(ctx, contract.ChatRecordFilter{
		School:            query.School,
		QuestionnaireName: query.Questionnaire,
	})
	if err != nil {
		return nil, apperror.Internal(apperror.CodePersistenceFailure, "failed to list chat records", err)
	}

	res := make([]*dto.ChatRecordResponse, 0, len(records))
	for _, r := range records {
		res = append(res, toChatRecordResponse(r, false))
	}
	return res, nil
}

func (s *reviewService) UpdateDiagnosis(ctx context.Context, req *dto.UpdateDiagnosisRequest) (*dto.UpdateDiagnosisResponse, error) {
	if err := s.chatLog.SetDiagnosis(ctx, req.SessionId, req.Diagnosis); err != nil {
		return nil, err
	}

	s.logger.Info("ReviewService", "Diagnosis updated", map[string]interface{}{
		"session_id": req.SessionId,
	})
	publishQuietly(ctx, s.publisher, s.logger, "ReviewService", events.NewSessionEvent(events.TypeSessionDiagnosis, req.SessionId, nil))

	return &dto.UpdateDiagnosisResponse{Message: "Diagnosis updated successfully"}, nil
}

func (s *reviewService) Schools(ctx context.Context) (*dto.SchoolListResponse, error) {
	schools, err := s.chatRecordRepo.DistinctSchools(ctx)
	if err != nil {
		return nil, apperror.Internal(apperror.CodePersistenceFailure, "failed to list schools", err)
	}
	if schools == nil {
		schools = []string{}
	}
	return &dto.SchoolListResponse{Schools: schools}, nil
}

func toResponseDTOs(items []entity.QuestionResponse) []dto.ResponseDTO {
	out := make([]dto.ResponseDTO, 0, len(items))
	for _, r := range items {
		out = append(out, dto.ResponseDTO{
			Question:    r.Question,
			Answer:      r.Answer,
			AnswerIndex: r.AnswerIndex,
		})
	}
	return out
}

func toChatRecordResponse(r *entity.ChatRecord, withConversation bool) *dto.ChatRecordResponse {
	res := &dto.ChatRecordResponse{
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
		Responses:         toResponseDTOs(r.Responses),
		FollowUpResponses: toResponseDTOs(r.FollowUpResponses),
		Diagnosis:         r.Diagnosis,
		Feedback:          r.Feedback,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}

	if withConversation {
		res.Conversation = make([]dto.ConversationTurnDTO, 0, len(r.Conversation))
		for _, t := range r.Conversation {
			res.Conversation = append(res.Conversation, dto.ConversationTurnDTO{
				Role:          string(t.Role),
				QuestionIndex: t.QuestionIndex,
				Question:      t.Question,
				Message:       t.Message,
				CreatedAt:     t.CreatedAt,
			})
		}
	}
	return res
}
