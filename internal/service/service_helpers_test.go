package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"screening-bot-be/internal/dto"
	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/internal/repository/memory"
	"screening-bot-be/pkg/events"
	"screening-bot-be/pkg/llm"
	"screening-bot-be/pkg/questionnaire"
	"screening-bot-be/pkg/render"
	"screening-bot-be/pkg/session"

	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text to the vector of the earliest keyword in it, so the
// message (which leads every query) wins over older context.
type keywordEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	queries []string
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries = append(e.queries, text)
	if e.err != nil {
		return nil, e.err
	}
	lower := strings.ToLower(text)
	best, bestAt := []float32{1, 1}, -1
	for keyword, v := range e.vectors {
		at := strings.Index(lower, keyword)
		if at >= 0 && (bestAt < 0 || at < bestAt) {
			best, bestAt = v, at
		}
	}
	return best, nil
}

func (e *keywordEmbedder) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queries)
}

type scriptedModel struct {
	mu      sync.Mutex
	chunks  []string
	failAt  int
	prompts []string
}

func (m *scriptedModel) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (m *scriptedModel) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (m *scriptedModel) ChatStream(ctx context.Context, history []llm.Message, onChunk llm.ChunkHandler, options ...llm.Option) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, history[0].Content)
	chunks, failAt := m.chunks, m.failAt
	m.mu.Unlock()

	full := ""
	for i, c := range chunks {
		if i == failAt {
			return "", errors.New("upstream closed connection")
		}
		if err := onChunk(c); err != nil {
			return "", err
		}
		full += c
	}
	return full, nil
}

func (m *scriptedModel) promptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type harness struct {
	questionnaireRepo *memory.QuestionnaireRepository
	chatRecordRepo    *memory.ChatRecordRepository
	sessions          *session.Manager
	embedder          *keywordEmbedder
	model             *scriptedModel
	publisher         *recordingPublisher
	questionnaires    IQuestionnaireService
	chats             IChatService
	reviews           IReviewService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewNopLogger()

	h := &harness{
		questionnaireRepo: memory.NewQuestionnaireRepository(),
		chatRecordRepo:    memory.NewChatRecordRepository(),
		embedder: &keywordEmbedder{vectors: map[string][]float32{
			"sleep":  {1, 0},
			"friend": {0, 1},
			"worry":  {0.7, 0.7},
		}},
		model:     &scriptedModel{chunks: []string{"Could you ", "tell me more?"}, failAt: -1},
		publisher: &recordingPublisher{},
	}
	h.sessions = session.NewManager(memory.NewSessionRepository(time.Hour, time.Minute), log)

	registry := render.NewRegistry()
	registry.Register(render.NewStreamRenderer("Llama", h.model, render.Settings{Timeout: 5 * time.Second}, log))

	h.questionnaires = NewQuestionnaireService(h.questionnaireRepo, h.chatRecordRepo, h.sessions, h.embedder, h.publisher, log)
	h.chats = NewChatService(h.sessions, h.questionnaires, h.chatRecordRepo, questionnaire.NewSelector(h.embedder), registry, h.publisher, "Llama", log)
	h.reviews = NewReviewService(h.chatRecordRepo, h.publisher, log)
	return h
}

// seed imports a bank with two DIRECT questions and one FOLLOW_UP_ELIGIBLE one.
func (h *harness) seed(t *testing.T) {
	t.Helper()
	_, err := h.questionnaires.Import(context.Background(), &dto.ImportQuestionnaireRequest{
		Questionnaire: "Wellbeing",
		Instructions:  "Answer honestly.",
		Questions: []dto.ImportQuestionDTO{
			{Question: "How do you sleep at night?", Options: []string{"Well", "Badly"}, Type: 0},
			{Question: "Do you have a close friend?", Options: []string{"Yes", "No"}, Type: 0},
			{Question: "What do you worry about most?", Type: 1},
		},
	})
	require.NoError(t, err)
}

func startRequest(sessionId string) *dto.StartQuestionnaireRequest {
	return &dto.StartQuestionnaireRequest{
		SessionId:         sessionId,
		QuestionnaireName: "Wellbeing",
		StudentName:       "Asha",
		StudentDob:        "2012-04-09",
		StudentGender:     "F",
		ParentName:        "Ravi",
		ParentMobile:      "555-0101",
		School:            "Hillside",
		TncAccepted:       true,
	}
}

func (h *harness) start(t *testing.T, sessionId string) {
	t.Helper()
	_, err := h.questionnaires.Start(context.Background(), startRequest(sessionId))
	require.NoError(t, err)
}

// say runs one full turn and returns every emitted frame.
func (h *harness) say(t *testing.T, sessionId, message string) []dto.StreamFrame {
	t.Helper()
	turn, err := h.chats.BeginTurn(context.Background(), &dto.ChatStreamRequest{
		SessionId: sessionId,
		Question:  message,
		Age:       12,
	})
	require.NoError(t, err)

	var frames []dto.StreamFrame
	_ = turn.Stream(context.Background(), func(f dto.StreamFrame) error {
		frames = append(frames, f)
		return nil
	})
	return frames
}

func terminal(t *testing.T, frames []dto.StreamFrame) dto.StreamFrame {
	t.Helper()
	count := 0
	var last dto.StreamFrame
	for _, f := range frames {
		if f.Complete {
			count++
			last = f
		}
	}
	require.Equal(t, 1, count, "exactly one terminal frame")
	require.True(t, frames[len(frames)-1].Complete, "terminal frame comes last")
	return last
}
