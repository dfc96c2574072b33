package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"screening-bot-be/internal/pkg/apperror"
	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStreamer struct {
	chunks  []string
	failAt  int // fail after this many chunks, -1 never
	block   bool
	prompts []string
}

func (f *fakeStreamer) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeStreamer) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeStreamer) ChatStream(ctx context.Context, history []llm.Message, onChunk llm.ChunkHandler, options ...llm.Option) (string, error) {
	f.prompts = append(f.prompts, history[0].Content)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	full := ""
	for i, c := range f.chunks {
		if i == f.failAt {
			return "", errors.New("connection reset")
		}
		full += c
		if err := onChunk(c); err != nil {
			return "", err
		}
	}
	return full, nil
}

type fakeOnce struct {
	answer string
	err    error
}

func (f *fakeOnce) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.answer, f.err
}

func (f *fakeOnce) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.answer, f.err
}

func collect(t *testing.T, s Stream) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-s:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("stream did not terminate")
		}
	}
}

func terminal(events []Event) int {
	n := 0
	for _, ev := range events {
		if ev.Done || ev.Err != nil {
			n++
		}
	}
	return n
}

var settings = Settings{Timeout: time.Second, MaxTokens: 128, Temperature: 0.7}

func sampleInput() Input {
	return Input{
		SessionID:         "s-1",
		CanonicalQuestion: "Do you often feel sad?",
		Conversation:      []string{"bot: How are you?", "user: fine"},
		UserInput:         "I have been feeling low lately",
		UserAge:           10,
	}
}

func TestStreamRendererEmitsChunksThenDone(t *testing.T) {
	p := &fakeStreamer{chunks: []string{"It sounds ", "hard. ", "Do you feel sad?"}, failAt: -1}
	r := NewStreamRenderer("Llama", p, settings, logger.NewNopLogger())

	events := collect(t, r.Render(context.Background(), sampleInput()))

	require.Len(t, events, 4)
	assert.Equal(t, "It sounds ", events[0].Chunk)
	last := events[len(events)-1]
	assert.True(t, last.Done)
	assert.Equal(t, "It sounds hard. Do you feel sad?", last.FullText)
	assert.Equal(t, 1, terminal(events))
	assert.Contains(t, p.prompts[0], "Do you often feel sad?")
}

func TestStreamRendererFailureMidStream(t *testing.T) {
	p := &fakeStreamer{chunks: []string{"a", "b", "c"}, failAt: 2}
	r := NewStreamRenderer("Llama", p, settings, logger.NewNopLogger())

	events := collect(t, r.Render(context.Background(), sampleInput()))

	require.Len(t, events, 3)
	last := events[2]
	assert.ErrorIs(t, last.Err, apperror.ErrRenderFailure)
	assert.False(t, last.Done)
	assert.Equal(t, 1, terminal(events))
}

func TestStreamRendererTimeout(t *testing.T) {
	p := &fakeStreamer{block: true}
	r := NewStreamRenderer("Llama", p, Settings{Timeout: 20 * time.Millisecond}, logger.NewNopLogger())

	events := collect(t, r.Render(context.Background(), sampleInput()))

	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, apperror.ErrRenderFailure)
	assert.Contains(t, events[0].Err.Error(), "timed out")
}

func TestStreamRendererStopsOnCancel(t *testing.T) {
	p := &fakeStreamer{chunks: []string{"a", "b", "c"}, failAt: -1}
	r := NewStreamRenderer("Llama", p, settings, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	s := r.Render(ctx, sampleInput())
	<-s
	cancel()

	// producer must exit and close the channel without anyone reading further
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-s:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("renderer kept running after cancel")
		}
	}
}

func TestOnceRendererSingleFragment(t *testing.T) {
	r := NewOnceRenderer("Gemini", &fakeOnce{answer: "How have you been sleeping?"}, settings, logger.NewNopLogger())

	events := collect(t, r.Render(context.Background(), sampleInput()))

	require.Len(t, events, 2)
	assert.Equal(t, "How have you been sleeping?", events[0].Chunk)
	assert.True(t, events[1].Done)
	assert.Equal(t, "How have you been sleeping?", events[1].FullText)
	assert.Equal(t, ModeOnce, r.Mode())
}

func TestOnceRendererFailure(t *testing.T) {
	r := NewOnceRenderer("Gemini", &fakeOnce{err: errors.New("quota")}, settings, logger.NewNopLogger())

	events := collect(t, r.Render(context.Background(), sampleInput()))

	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, apperror.ErrRenderFailure)
}

func TestRenderTerminatesOnceAcrossRepeats(t *testing.T) {
	p := &fakeStreamer{chunks: []string{"x", "y"}, failAt: -1}
	r := NewStreamRenderer("Llama", p, settings, logger.NewNopLogger())

	for i := 0; i < 3; i++ {
		assert.Equal(t, 1, terminal(collect(t, r.Render(context.Background(), sampleInput()))))
	}
}

func TestFixed(t *testing.T) {
	events := collect(t, Fixed(ClarificationText))

	require.Len(t, events, 2)
	assert.Equal(t, ClarificationText, events[0].Chunk)
	assert.True(t, events[1].Done)
	assert.Equal(t, ClarificationText, events[1].FullText)
}
