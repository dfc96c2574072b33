package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"screening-bot-be/internal/bootstrap"
	"screening-bot-be/internal/config"
	"screening-bot-be/internal/controller"
	"screening-bot-be/internal/dto"
	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/internal/pkg/serverutils"
	"screening-bot-be/internal/repository/memory"
	"screening-bot-be/internal/service"
	"screening-bot-be/pkg/events"
	"screening-bot-be/pkg/llm"
	"screening-bot-be/pkg/questionnaire"
	"screening-bot-be/pkg/render"
	"screening-bot-be/pkg/session"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "reviewer-secret"

type flatEmbedder struct{}

func (flatEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(strings.ToLower(text), "friend") {
		return []float32{0, 1}, nil
	}
	return []float32{1, 0}, nil
}

type cannedModel struct{}

func (cannedModel) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "How do you usually sleep?", nil
}

func (cannedModel) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, event events.Event) error { return nil }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	log := logger.NewNopLogger()

	questionnaireRepo := memory.NewQuestionnaireRepository()
	chatRecordRepo := memory.NewChatRecordRepository()
	sessions := session.NewManager(memory.NewSessionRepository(time.Hour, time.Minute), log)

	registry := render.NewRegistry()
	registry.Register(render.NewOnceRenderer("Gemini", cannedModel{}, render.Settings{Timeout: 5 * time.Second}, log))

	questionnaires := service.NewQuestionnaireService(questionnaireRepo, chatRecordRepo, sessions, flatEmbedder{}, nopPublisher{}, log)
	chats := service.NewChatService(sessions, questionnaires, chatRecordRepo, questionnaire.NewSelector(flatEmbedder{}), registry, nopPublisher{}, "Gemini", log)
	reviews := service.NewReviewService(chatRecordRepo, nopPublisher{}, log)

	_, err := questionnaires.Import(context.Background(), &dto.ImportQuestionnaireRequest{
		Questionnaire: "Wellbeing",
		Questions: []dto.ImportQuestionDTO{
			{Question: "How do you sleep at night?", Type: 0},
			{Question: "Do you have a close friend?", Type: 0},
		},
	})
	require.NoError(t, err)

	container := &bootstrap.Container{
		QuestionnaireController: controller.NewQuestionnaireController(questionnaires),
		ChatController:          controller.NewChatController(chats, log),
		GetterController:        controller.NewGetterController(questionnaires, chats, reviews),
		ReviewController:        controller.NewReviewController(reviews, questionnaires),
		JwtMiddleware:           serverutils.NewJwtMiddleware(testSecret),
		Logger:                  log,
	}

	cfg := &config.Config{App: config.AppConfig{Port: "0", CorsAllowedOrigins: "http://localhost:5173"}}
	return New(cfg, container).GetApp()
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readFrames(t *testing.T, body io.Reader) []dto.StreamFrame {
	t.Helper()
	var frames []dto.StreamFrame
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame dto.StreamFrame
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
		frames = append(frames, frame)
	}
	require.NoError(t, scanner.Err())
	return frames
}

func startSession(t *testing.T, app *fiber.App, sessionId string) {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/questionnaire/start", map[string]interface{}{
		"session_id":         sessionId,
		"questionnaire_name": "Wellbeing",
		"student_name":       "Asha",
		"student_dob":        "2012-04-09",
		"student_gender":     "F",
		"parent_name":        "Ravi",
		"parent_mobile":      "555-0101",
		"school":             "Hillside",
		"tnc_accepted":       true,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPing(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/get/ping", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChatStream_EmitsFramesEndingInTerminal(t *testing.T) {
	app := newTestApp(t)
	startSession(t, app, "s-http")

	resp := doJSON(t, app, http.MethodPost, "/api/chat/stream", map[string]interface{}{
		"session_id": "s-http",
		"question":   "I can't sleep well",
		"age":        12,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := readFrames(t, resp.Body)
	require.NotEmpty(t, frames)
	last := frames[len(frames)-1]
	assert.True(t, last.Complete)
	assert.Equal(t, "How do you usually sleep?", last.FullAnswer)
	assert.Equal(t, "Gemini", last.Model)
	assert.Empty(t, last.Error)
}

func TestChatStream_UnknownModelIsNotFound(t *testing.T) {
	app := newTestApp(t)
	startSession(t, app, "s-model")

	resp := doJSON(t, app, http.MethodPost, "/api/chat/stream", map[string]interface{}{
		"session_id": "s-model",
		"question":   "hello",
		"model":      "GPT-9",
	}, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body serverutils.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "MODEL_UNAVAILABLE", body.ErrorType)
}

func TestChatStream_MissingFieldsIsBadRequest(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/chat/stream", map[string]interface{}{
		"question": "hello",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReviewRoutes_RequireBearerToken(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/psychologist/schools", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "rev-1",
		"role":    "psychologist",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	resp = doJSON(t, app, http.MethodGet, "/api/psychologist/schools", nil, map[string]string{
		"Authorization": "Bearer " + signed,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetChat_UnknownSessionIsNotFound(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/get/chat/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
