package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"screening-bot-be/internal/dto"
	"screening-bot-be/internal/entity"
	"screening-bot-be/internal/pkg/apperror"
	"screening-bot-be/pkg/events"
	"screening-bot-be/pkg/questionnaire"
	"screening-bot-be/pkg/render"
	"screening-bot-be/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatFullQuestionnaire(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.start(t, "s-flow")
	ctx := context.Background()

	// restart always asks the first question through the model
	frames := h.say(t, "s-flow", "/start")
	end := terminal(t, frames)
	assert.Equal(t, "Could you tell me more?", end.FullAnswer)
	assert.Equal(t, "Llama", end.Model)
	assert.False(t, end.Status)
	assert.Equal(t, "Could you ", frames[0].Chunk)

	state, err := h.sessions.Get(ctx, "s-flow")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, state.AskedIndices)
	assert.Equal(t, 0, state.LastQuestionIndex)

	// similarity picks the friendship question
	terminal(t, h.say(t, "s-flow", "I rarely see my friend lately"))
	state, _ = h.sessions.Get(ctx, "s-flow")
	assert.Equal(t, 1, state.LastQuestionIndex)

	// a short reply gets the fixed clarification line without a model call
	before := h.model.promptCount()
	end = terminal(t, h.say(t, "s-flow", "not sure"))
	assert.Equal(t, render.ClarificationText, end.FullAnswer)
	assert.Equal(t, before, h.model.promptCount())
	state, _ = h.sessions.Get(ctx, "s-flow")
	assert.Contains(t, state.AskedIndices, questionnaire.PseudoIndexFor(1))

	// DIRECT pool is exhausted, the FOLLOW_UP question comes next
	terminal(t, h.say(t, "s-flow", "I worry about school every day"))
	state, _ = h.sessions.Get(ctx, "s-flow")
	assert.Equal(t, 2, state.LastQuestionIndex)

	terminal(t, h.say(t, "s-flow", "exams mostly"))

	embedsBefore := h.embedder.calls()
	end = terminal(t, h.say(t, "s-flow", "they make me very anxious"))
	assert.Equal(t, render.CompletionText, end.FullAnswer)
	assert.True(t, end.Status)
	assert.Equal(t, embedsBefore, h.embedder.calls(), "completion needs no embedding")

	// the completion message is produced exactly once
	_, err = h.chats.BeginTurn(ctx, &dto.ChatStreamRequest{SessionId: "s-flow", Question: "hello?"})
	assert.True(t, errors.Is(err, apperror.ErrSessionComplete))

	record, err := h.chatRecordRepo.FindBySessionId(ctx, "s-flow")
	require.NoError(t, err)
	require.Len(t, record.Conversation, 12)
	assert.Equal(t, entity.ChatRoleUser, record.Conversation[0].Role)
	assert.Equal(t, entity.ChatRoleBot, record.Conversation[1].Role)
	require.NotNil(t, record.Conversation[1].QuestionIndex)
	assert.Equal(t, 0, *record.Conversation[1].QuestionIndex)
	assert.Equal(t, "How do you sleep at night?", record.Conversation[1].Question)
	assert.Equal(t, -2, *record.Conversation[5].QuestionIndex)
	assert.Nil(t, record.Conversation[11].QuestionIndex)

	require.Len(t, record.Responses, 2)
	assert.Equal(t, entity.QuestionResponse{Question: "How do you sleep at night?", Answer: "I rarely see my friend lately", AnswerIndex: 0}, record.Responses[0])
	assert.Equal(t, 1, record.Responses[1].AnswerIndex)

	require.Len(t, record.FollowUpResponses, 3)
	assert.Equal(t, "I worry about school every day", record.FollowUpResponses[0].Answer)
	assert.Equal(t, 1, record.FollowUpResponses[0].AnswerIndex)
	assert.Equal(t, 2, record.FollowUpResponses[1].AnswerIndex)
	assert.Equal(t, 2, record.FollowUpResponses[2].AnswerIndex)

	assert.Equal(t, []string{events.TypeSessionStarted, events.TypeSessionCompleted}, h.publisher.types())
}

func TestChatAskedSetNeverShrinks(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.start(t, "s-grow")
	ctx := context.Background()

	messages := []string{"/start", "my friend moved away last year", "ok", "/start", "I worry all the time about tests"}
	var previous []int
	for _, m := range messages {
		terminal(t, h.say(t, "s-grow", m))
		state, err := h.sessions.Get(ctx, "s-grow")
		require.NoError(t, err)
		for _, idx := range previous {
			assert.Contains(t, state.AskedIndices, idx)
		}

		seen := map[int]bool{}
		for _, idx := range state.AskedIndices {
			assert.False(t, seen[idx], "duplicate asked index %d", idx)
			seen[idx] = true
		}
		previous = state.AskedIndices
	}
}

func TestChatRejectsUnknownModel(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.start(t, "s-model")

	_, err := h.chats.BeginTurn(context.Background(), &dto.ChatStreamRequest{SessionId: "s-model", Question: "/start", Model: "Zephyr"})
	assert.True(t, errors.Is(err, apperror.ErrModelUnavailable))
	assert.Equal(t, 404, apperror.HTTPStatus(err))
	assert.Equal(t, []string{"Llama"}, h.chats.Models())
}

func TestChatUnknownSessionReleasesLock(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 2; i++ {
		_, err := h.chats.BeginTurn(context.Background(), &dto.ChatStreamRequest{SessionId: "ghost", Question: "hi"})
		assert.True(t, errors.Is(err, apperror.ErrSessionNotFound))
	}
}

func TestChatEmbeddingFailureIsPreStream(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.start(t, "s-embed")
	terminal(t, h.say(t, "s-embed", "/start"))

	h.embedder.err = errors.New("embedding service down")
	_, err := h.chats.BeginTurn(context.Background(), &dto.ChatStreamRequest{SessionId: "s-embed", Question: "I do not sleep well at all"})
	assert.True(t, errors.Is(err, apperror.ErrEmbeddingFailure))
	assert.Equal(t, 502, apperror.HTTPStatus(err))

	record, _ := h.chatRecordRepo.FindBySessionId(context.Background(), "s-embed")
	assert.Len(t, record.Conversation, 2, "failed selection writes nothing")
	assert.Empty(t, record.Responses)
}

func TestChatRenderFailureEmitsErrorFrame(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.start(t, "s-fail")
	h.model.failAt = 1

	frames := h.say(t, "s-fail", "/start")
	end := terminal(t, frames)
	assert.Equal(t, "Could you ", frames[0].Chunk)
	assert.Equal(t, apperror.CodeRenderFailure, end.ErrorType)
	assert.NotEmpty(t, end.Error)
	assert.Empty(t, end.FullAnswer)

	record, _ := h.chatRecordRepo.FindBySessionId(context.Background(), "s-fail")
	require.Len(t, record.Conversation, 1, "no partial bot text is persisted")
	assert.Equal(t, entity.ChatRoleUser, record.Conversation[0].Role)

	state, _ := h.sessions.Get(context.Background(), "s-fail")
	assert.Empty(t, state.AskedIndices)
}

func TestChatClientGoneReleasesSession(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.start(t, "s-gone")

	turn, err := h.chats.BeginTurn(context.Background(), &dto.ChatStreamRequest{SessionId: "s-gone", Question: "/start"})
	require.NoError(t, err)

	gone := errors.New("broken pipe")
	err = turn.Stream(context.Background(), func(dto.StreamFrame) error { return gone })
	assert.ErrorIs(t, err, gone)

	done := make(chan struct{})
	go func() {
		defer close(done)
		terminal(t, h.say(t, "s-gone", "/start"))
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session still locked after client disconnect")
	}
}

func TestChatAbortReleasesSession(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.start(t, "s-abort")

	turn, err := h.chats.BeginTurn(context.Background(), &dto.ChatStreamRequest{SessionId: "s-abort", Question: "/start"})
	require.NoError(t, err)
	assert.Equal(t, questionnaire.KindQuestion, turn.Selection().Kind)
	turn.Abort()
	turn.Abort()

	terminal(t, h.say(t, "s-abort", "/start"))
}

func TestChatPromptUsesAgeGroup(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.start(t, "s-age")

	terminal(t, h.say(t, "s-age", "/start"))
	require.Equal(t, 1, h.model.promptCount())
	assert.Contains(t, h.model.prompts[0], "The user is a child.")
	assert.Contains(t, h.model.prompts[0], "How do you sleep at night?")
}

func TestChatNoQuestionsAvailable(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.questionnaireRepo.Create(context.Background(), &entity.Questionnaire{Name: "Empty"}))

	req := startRequest("s-empty")
	req.QuestionnaireName = "Empty"
	_, err := h.questionnaires.Start(context.Background(), req)
	require.NoError(t, err)

	_, err = h.chats.BeginTurn(context.Background(), &dto.ChatStreamRequest{SessionId: "s-empty", Question: "/start"})
	assert.True(t, errors.Is(err, apperror.ErrNoQuestionsAvailable))
}

func TestApplySelection(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.start(t, "s-apply")
	ctx := context.Background()

	state, err := h.sessions.Apply(ctx, "s-apply", func(st *session.State) { applySelection(st, questionnaire.Clarification(0)) })
	require.NoError(t, err)
	assert.True(t, state.AwaitingClarification)
	assert.Equal(t, []int{-1}, state.AskedIndices)

	state, err = h.sessions.Apply(ctx, "s-apply", func(st *session.State) { applySelection(st, questionnaire.Question(2)) })
	require.NoError(t, err)
	assert.False(t, state.AwaitingClarification)
	assert.Equal(t, 2, state.LastQuestionIndex)
	assert.Equal(t, []int{-1, 2}, state.AskedIndices)

	state, err = h.sessions.Apply(ctx, "s-apply", func(st *session.State) { applySelection(st, questionnaire.Complete()) })
	require.NoError(t, err)
	assert.True(t, state.IsComplete)
}
