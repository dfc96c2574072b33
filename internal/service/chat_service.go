package service

import (
	"context"
	"errors"
	"sync"

	"screening-bot-be/internal/dto"
	"screening-bot-be/internal/entity"
	"screening-bot-be/internal/pkg/apperror"
	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/internal/repository/contract"
	"screening-bot-be/pkg/events"
	"screening-bot-be/pkg/questionnaire"
	"screening-bot-be/pkg/render"
	"screening-bot-be/pkg/session"
)

const (
	defaultAge          = 15
	promptHistoryLength = 20
)

type IChatService interface {
	// BeginTurn does everything that can still fail with an HTTP status: model
	// lookup, session checks, question selection and the user-side writes. On
	// success the session stays locked until the Turn is streamed or aborted.
	BeginTurn(ctx context.Context, req *dto.ChatStreamRequest) (*Turn, error)
	Models() []string
}

type chatService struct {
	sessions       *session.Manager
	questionnaires IQuestionnaireService
	chatLog        *ChatLog
	selector       *questionnaire.Selector
	registry       *render.Registry
	publisher      IPublisherService
	defaultModel   string
	logger         logger.ILogger
}

func NewChatService(
	sessions *session.Manager,
	questionnaires IQuestionnaireService,
	chatRecordRepo contract.ChatRecordRepository,
	selector *questionnaire.Selector,
	registry *render.Registry,
	publisher IPublisherService,
	defaultModel string,
	logger logger.ILogger,
) IChatService {
	return &chatService{
		sessions:       sessions,
		questionnaires: questionnaires,
		chatLog:        NewChatLog(chatRecordRepo),
		selector:       selector,
		registry:       registry,
		publisher:      publisher,
		defaultModel:   defaultModel,
		logger:         logger,
	}
}

func (s *chatService) Models() []string {
	return s.registry.Names()
}

func (s *chatService) BeginTurn(ctx context.Context, req *dto.ChatStreamRequest) (*Turn, error) {
	model := req.Model
	if model == "" {
		model = s.defaultModel
	}
	renderer, err := s.registry.Lookup(model)
	if err != nil {
		return nil, err
	}

	unlock := s.sessions.Lock(req.SessionId)
	turn, err := s.prepare(ctx, req, renderer)
	if err != nil {
		unlock()
		return nil, err
	}

	var once sync.Once
	turn.release = func() { once.Do(unlock) }
	return turn, nil
}

func (s *chatService) prepare(ctx context.Context, req *dto.ChatStreamRequest, renderer *render.Renderer) (*Turn, error) {
	state, err := s.sessions.Get(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}
	if state.IsComplete {
		return nil, apperror.Validation(apperror.CodeSessionComplete, "questionnaire is already complete")
	}

	bank, err := s.questionnaires.LoadBank(ctx, state.QuestionnaireName)
	if err != nil {
		return nil, err
	}

	record, err := s.chatLog.Read(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}

	// The query context includes the message being answered, as the stored
	// transcript will once the user turn is appended.
	sel, err := s.selector.Select(ctx, bank, questionnaire.Input{
		Message:           req.Question,
		RecentTurns:       append(transcriptMessages(record.Conversation), req.Question),
		LastQuestionIndex: state.LastQuestionIndex,
		Asked:             state.AskedIndices,
	})
	if err != nil {
		return nil, err
	}

	if err := s.chatLog.AppendTurn(ctx, req.SessionId, entity.ChatRoleUser, TurnPayload{Message: req.Question}); err != nil {
		return nil, err
	}
	if !sel.Restart {
		if err := s.captureAnswer(ctx, bank, state, req.Question); err != nil {
			return nil, err
		}
	}

	s.logger.Info("ChatService", "Next step selected", map[string]interface{}{
		"session_id": req.SessionId,
		"kind":       sel.Kind.String(),
		"index":      sel.Index,
		"model":      renderer.Name(),
	})

	turn := &Turn{
		SessionId: req.SessionId,
		Model:     renderer.Name(),
		selection: sel,
		svc:       s,
	}

	switch sel.Kind {
	case questionnaire.KindClarification:
		pseudo := sel.PseudoIndex()
		turn.question = render.ClarificationText
		turn.questionIndex = &pseudo
		turn.render = func(context.Context) render.Stream { return render.Fixed(render.ClarificationText) }
	case questionnaire.KindComplete:
		turn.question = render.CompletionText
		turn.render = func(context.Context) render.Stream { return render.Fixed(render.CompletionText) }
	default:
		q, _ := bank.Question(sel.Index)
		index := sel.Index
		age := req.Age
		if age <= 0 {
			age = defaultAge
		}
		in := render.Input{
			SessionID:         req.SessionId,
			CanonicalQuestion: q.Text,
			Conversation:      promptHistory(record.Conversation),
			UserInput:         req.Question,
			UserAge:           age,
		}
		turn.question = q.Text
		turn.questionIndex = &index
		turn.render = func(ctx context.Context) render.Stream { return renderer.Render(ctx, in) }
	}

	return turn, nil
}

// captureAnswer files the message as the answer to whatever the bot asked last:
// a clarification reply is a follow-up for the clarified question, otherwise
// the question's own type decides the array.
func (s *chatService) captureAnswer(ctx context.Context, bank *questionnaire.Bank, state *session.State, answer string) error {
	index := state.LastQuestionIndex
	q, ok := bank.Question(index)
	if !ok {
		return nil
	}

	switch {
	case state.AwaitingClarification:
		return s.chatLog.RecordAnswer(ctx, state.SessionID, q.Text, answer, index, true)
	case state.HasAsked(index):
		return s.chatLog.RecordAnswer(ctx, state.SessionID, q.Text, answer, index, q.Type == questionnaire.FollowUpEligible)
	default:
		return nil
	}
}

// commit persists the bot turn and advances session state. It runs only after
// the rendering finished, so an aborted turn leaves no bot text behind.
func (s *chatService) commit(ctx context.Context, t *Turn, answer string) (bool, error) {
	err := s.chatLog.AppendTurn(ctx, t.SessionId, entity.ChatRoleBot, TurnPayload{
		QuestionIndex: t.questionIndex,
		Question:      t.question,
		Message:       answer,
	})
	if err != nil {
		return false, err
	}

	state, err := s.sessions.Apply(ctx, t.SessionId, func(st *session.State) {
		applySelection(st, t.selection)
	})
	if err != nil {
		return false, err
	}

	if state.IsComplete {
		s.logger.Info("ChatService", "Questionnaire completed", map[string]interface{}{
			"session_id": t.SessionId,
			"asked":      len(state.AskedIndices),
		})
		publishQuietly(ctx, s.publisher, s.logger, "ChatService", events.NewSessionEvent(events.TypeSessionCompleted, t.SessionId, map[string]interface{}{
			"questionnaire": state.QuestionnaireName,
		}))
	}
	return state.IsComplete, nil
}

func applySelection(st *session.State, sel questionnaire.Selection) {
	switch sel.Kind {
	case questionnaire.KindQuestion:
		st.AddAsked(sel.Index)
		st.LastQuestionIndex = sel.Index
		st.AwaitingClarification = false
	case questionnaire.KindClarification:
		st.AddAsked(sel.PseudoIndex())
		st.AwaitingClarification = true
	case questionnaire.KindComplete:
		st.IsComplete = true
		st.AwaitingClarification = false
	}
}

func transcriptMessages(turns []entity.ConversationTurn) []string {
	out := make([]string, 0, len(turns)+1)
	for _, t := range turns {
		out = append(out, t.Message)
	}
	return out
}

func promptHistory(turns []entity.ConversationTurn) []string {
	if len(turns) > promptHistoryLength {
		turns = turns[len(turns)-promptHistoryLength:]
	}
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, string(t.Role)+": "+t.Message)
	}
	return out
}

// Turn is one selected bot reply waiting to be rendered. It holds the session
// lock; Stream or Abort releases it.
type Turn struct {
	SessionId string
	Model     string

	selection     questionnaire.Selection
	question      string
	questionIndex *int
	render        func(ctx context.Context) render.Stream
	svc           *chatService
	release       func()
}

func (t *Turn) Selection() questionnaire.Selection {
	return t.selection
}

// Abort releases the session without rendering.
func (t *Turn) Abort() {
	t.release()
}

// Stream renders the reply and hands each frame to emit. Unless emit itself
// fails, exactly one terminal frame is emitted: the completion frame after the
// bot turn is persisted, or an error frame. A failing emit (client gone)
// cancels the rendering.
func (t *Turn) Stream(ctx context.Context, emit func(dto.StreamFrame) error) error {
	defer t.release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for ev := range t.render(ctx) {
		switch {
		case ev.Err != nil:
			return t.fail(emit, ev.Err)
		case ev.Done:
			complete, err := t.svc.commit(context.WithoutCancel(ctx), t, ev.FullText)
			if err != nil {
				return t.fail(emit, err)
			}
			return emit(dto.StreamFrame{
				Complete:   true,
				FullAnswer: ev.FullText,
				Model:      t.Model,
				Status:     complete,
			})
		default:
			if err := emit(dto.StreamFrame{Chunk: ev.Chunk}); err != nil {
				return err
			}
		}
	}

	return t.fail(emit, apperror.Upstream(apperror.CodeRenderFailure, "render cancelled", ctx.Err()))
}

func (t *Turn) fail(emit func(dto.StreamFrame) error, err error) error {
	t.svc.logger.Error("ChatService", "Turn failed mid-stream", map[string]interface{}{
		"session_id": t.SessionId,
		"model":      t.Model,
		"error":      err,
	})

	message := "internal error"
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	if emitErr := emit(dto.StreamFrame{
		Complete:  true,
		Model:     t.Model,
		Error:     message,
		ErrorType: apperror.CodeOf(err),
	}); emitErr != nil {
		return emitErr
	}
	return err
}
