package service

import (
	"context"
	"errors"
	"time"

	"screening-bot-be/internal/dto"
	"screening-bot-be/internal/entity"
	"screening-bot-be/internal/mapper"
	"screening-bot-be/internal/pkg/apperror"
	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/internal/repository/contract"
	"screening-bot-be/pkg/events"
	"screening-bot-be/pkg/questionnaire"
	"screening-bot-be/pkg/session"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const feedbackSavedMessage = "Thank you for your feedback. Feedback saved successfully! You may now leave the page"

type IQuestionnaireService interface {
	Start(ctx context.Context, req *dto.StartQuestionnaireRequest) (*dto.StartQuestionnaireResponse, error)
	End(ctx context.Context, req *dto.EndQuestionnaireRequest) (*dto.EndQuestionnaireResponse, error)
	Show(ctx context.Context, name string) (*dto.QuestionnaireResponse, error)
	List(ctx context.Context) (*dto.QuestionnaireListResponse, error)
	Import(ctx context.Context, req *dto.ImportQuestionnaireRequest) (*dto.ImportQuestionnaireResponse, error)
	// LoadBank returns the selector view of a questionnaire. Banks are cached;
	// a questionnaire never changes once imported.
	LoadBank(ctx context.Context, name string) (*questionnaire.Bank, error)
}

type questionnaireService struct {
	questionnaireRepo contract.QuestionnaireRepository
	chatRecordRepo    contract.ChatRecordRepository
	chatLog           *ChatLog
	sessions          *session.Manager
	embedder          questionnaire.Embedder
	publisher         IPublisherService
	banks             *cache.Cache
	mapper            *mapper.QuestionnaireMapper
	logger            logger.ILogger
	now               func() time.Time
}

func NewQuestionnaireService(
	questionnaireRepo contract.QuestionnaireRepository,
	chatRecordRepo contract.ChatRecordRepository,
	sessions *session.Manager,
	embedder questionnaire.Embedder,
	publisher IPublisherService,
	logger logger.ILogger,
) IQuestionnaireService {
	return &questionnaireService{
		questionnaireRepo: questionnaireRepo,
		chatRecordRepo:    chatRecordRepo,
		chatLog:           NewChatLog(chatRecordRepo),
		sessions:          sessions,
		embedder:          embedder,
		publisher:         publisher,
		banks:             cache.New(time.Hour, 10*time.Minute),
		mapper:            mapper.NewQuestionnaireMapper(),
		logger:            logger,
		now:               time.Now,
	}
}

func (s *questionnaireService) Start(ctx context.Context, req *dto.StartQuestionnaireRequest) (*dto.StartQuestionnaireResponse, error) {
	if !req.TncAccepted {
		return nil, apperror.Validation(apperror.CodeTermsNotAccepted, "Terms and Conditions must be accepted to start the questionnaire")
	}

	if _, err := s.LoadBank(ctx, req.QuestionnaireName); err != nil {
		return nil, err
	}

	sessionId := req.SessionId
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	unlock := s.sessions.Lock(sessionId)
	defer unlock()

	if _, err := s.sessions.Create(ctx, sessionId, req.QuestionnaireName); err != nil {
		return nil, err
	}

	record := s.newChatRecord(sessionId, req)
	if err := s.chatRecordRepo.Create(ctx, record); err != nil {
		// A record without live state (or the reverse) would break the turn loop.
		_ = s.sessions.Evict(ctx, sessionId)
		if errors.Is(err, contract.ErrDuplicate) {
			return nil, apperror.Conflict(apperror.CodeDuplicateSession, "session already exists")
		}
		return nil, apperror.Internal(apperror.CodePersistenceFailure, "failed to create chat record", err)
	}

	s.logger.Info("QuestionnaireService", "Session started", map[string]interface{}{
		"session_id":    sessionId,
		"questionnaire": req.QuestionnaireName,
		"guardian_role": string(record.Guardian.Role),
	})

	publishQuietly(ctx, s.publisher, s.logger, "QuestionnaireService", events.NewSessionEvent(events.TypeSessionStarted, sessionId, map[string]interface{}{
		"questionnaire": req.QuestionnaireName,
		"school":        req.School,
	}))

	return &dto.StartQuestionnaireResponse{SessionId: sessionId}, nil
}

func (s *questionnaireService) newChatRecord(sessionId string, req *dto.StartQuestionnaireRequest) *entity.ChatRecord {
	guardian := entity.GuardianProfile{
		Role:          entity.GuardianRoleParent,
		Name:          req.ParentName,
		ParentName:    req.ParentName,
		ParentMobile:  req.ParentMobile,
		TeacherName:   req.TeacherName,
		TeacherMobile: req.TeacherMobile,
	}
	if req.TeacherName != "" {
		guardian.Role = entity.GuardianRoleTeacher
		guardian.Name = req.TeacherName
	}

	return &entity.ChatRecord{
		Id:                uuid.New(),
		SessionId:         sessionId,
		QuestionnaireName: req.QuestionnaireName,
		Student: entity.StudentProfile{
			Name:        req.StudentName,
			DateOfBirth: req.StudentDob,
			Gender:      req.StudentGender,
			Age:         ageFromDob(req.StudentDob, s.now()),
			School:      req.School,
		},
		Guardian:          guardian,
		TncAccepted:       req.TncAccepted,
		Responses:         []entity.QuestionResponse{},
		FollowUpResponses: []entity.QuestionResponse{},
		Conversation:      []entity.ConversationTurn{},
		CreatedAt:         s.now(),
	}
}

// ageFromDob is the difference in calendar years; birthdays are not considered.
func ageFromDob(dob string, now time.Time) int {
	born, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return 0
	}
	return now.Year() - born.Year()
}

func (s *questionnaireService) End(ctx context.Context, req *dto.EndQuestionnaireRequest) (*dto.EndQuestionnaireResponse, error) {
	unlock := s.sessions.Lock(req.SessionId)
	defer unlock()

	if err := s.chatLog.AppendTurn(ctx, req.SessionId, entity.ChatRoleFeedback, TurnPayload{Message: req.Feedback}); err != nil {
		return nil, err
	}

	if err := s.sessions.Evict(ctx, req.SessionId); err != nil {
		s.logger.Warn("QuestionnaireService", "Failed to evict session state", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err,
		})
	}

	publishQuietly(ctx, s.publisher, s.logger, "QuestionnaireService", events.NewSessionEvent(events.TypeSessionFeedback, req.SessionId, map[string]interface{}{
		"feedback": req.Feedback,
	}))

	return &dto.EndQuestionnaireResponse{Message: feedbackSavedMessage}, nil
}

func (s *questionnaireService) Show(ctx context.Context, name string) (*dto.QuestionnaireResponse, error) {
	q, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}

	questions := make([]dto.QuestionDTO, 0, len(q.Questions))
	for _, qq := range q.Questions {
		options := qq.Options
		if options == nil {
			options = []string{}
		}
		questions = append(questions, dto.QuestionDTO{
			Question: qq.Text,
			Options:  options,
			Type:     qq.Type,
		})
	}

	return &dto.QuestionnaireResponse{
		Questionnaire: q.Name,
		Instructions:  q.Instructions,
		Questions:     questions,
	}, nil
}

func (s *questionnaireService) List(ctx context.Context) (*dto.QuestionnaireListResponse, error) {
	all, err := s.questionnaireRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal(apperror.CodePersistenceFailure, "failed to list questionnaires", err)
	}

	res := &dto.QuestionnaireListResponse{Questionnaires: make([]dto.QuestionnaireSummary, 0, len(all))}
	for _, q := range all {
		res.Questionnaires = append(res.Questionnaires, dto.QuestionnaireSummary{
			Name:         q.Name,
			Instructions: q.Instructions,
		})
	}
	return res, nil
}

// Import embeds every question and stores the questionnaire. Existing names are
// left untouched.
func (s *questionnaireService) Import(ctx context.Context, req *dto.ImportQuestionnaireRequest) (*dto.ImportQuestionnaireResponse, error) {
	existing, err := s.questionnaireRepo.FindByName(ctx, req.Questionnaire)
	if err != nil {
		return nil, apperror.Internal(apperror.CodePersistenceFailure, "failed to load questionnaire", err)
	}
	if existing != nil {
		return nil, apperror.Conflict(apperror.CodeDuplicateQuestionnaire, "questionnaire already exists")
	}

	q := &entity.Questionnaire{
		Id:           uuid.New(),
		Name:         req.Questionnaire,
		Instructions: req.Instructions,
		Questions:    make([]entity.Question, 0, len(req.Questions)),
		CreatedAt:    s.now(),
	}
	for i, item := range req.Questions {
		vector, err := s.embedder.Embed(ctx, item.Question)
		if err != nil {
			return nil, apperror.Upstream(apperror.CodeEmbeddingFailure, "failed to embed question", err)
		}
		q.Questions = append(q.Questions, entity.Question{
			Index:     i,
			Text:      item.Question,
			Options:   item.Options,
			Type:      item.Type,
			Embedding: vector,
		})
	}

	if err := s.questionnaireRepo.Create(ctx, q); err != nil {
		if errors.Is(err, contract.ErrDuplicate) {
			return nil, apperror.Conflict(apperror.CodeDuplicateQuestionnaire, "questionnaire already exists")
		}
		return nil, apperror.Internal(apperror.CodePersistenceFailure, "failed to store questionnaire", err)
	}

	s.logger.Info("QuestionnaireService", "Questionnaire imported", map[string]interface{}{
		"questionnaire": q.Name,
		"questions":     len(q.Questions),
	})

	return &dto.ImportQuestionnaireResponse{Name: q.Name, Questions: len(q.Questions)}, nil
}

func (s *questionnaireService) LoadBank(ctx context.Context, name string) (*questionnaire.Bank, error) {
	if cached, ok := s.banks.Get(name); ok {
		return cached.(*questionnaire.Bank), nil
	}

	q, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}

	bank := s.mapper.ToBank(q)
	s.banks.SetDefault(name, bank)
	return bank, nil
}

func (s *questionnaireService) find(ctx context.Context, name string) (*entity.Questionnaire, error) {
	q, err := s.questionnaireRepo.FindByName(ctx, name)
	if err != nil {
		return nil, apperror.Internal(apperror.CodePersistenceFailure, "failed to load questionnaire", err)
	}
	if q == nil {
		return nil, apperror.NotFound(apperror.CodeQuestionnaireNotFound, "Questionnaire '"+name+"' not found")
	}
	return q, nil
}
