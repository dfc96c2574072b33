package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"screening-bot-be/internal/pkg/apperror"
	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/pkg/llm"
)

// Input is what one rendering needs.
type Input struct {
	SessionID         string
	CanonicalQuestion string
	Conversation      []string
	UserInput         string
	UserAge           int
}

// Event is one item of a rendering stream. The last event has Done set, or Err.
type Event struct {
	Chunk    string
	Done     bool
	FullText string
	Err      error
}

// Stream is a finite, single-use sequence of events. Consumers either drain it
// or cancel the context they passed to Render.
type Stream <-chan Event

type Mode string

const (
	ModeStream Mode = "stream"
	ModeOnce   Mode = "once"
)

type Settings struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// Renderer phrases a question through one configured model. Exactly one of
// once/stream is set, chosen by configuration.
type Renderer struct {
	name     string
	mode     Mode
	once     llm.LLMProvider
	stream   llm.StreamingProvider
	settings Settings
	log      logger.ILogger
}

func NewOnceRenderer(name string, provider llm.LLMProvider, settings Settings, log logger.ILogger) *Renderer {
	return &Renderer{name: name, mode: ModeOnce, once: provider, settings: settings, log: log}
}

func NewStreamRenderer(name string, provider llm.StreamingProvider, settings Settings, log logger.ILogger) *Renderer {
	return &Renderer{name: name, mode: ModeStream, stream: provider, settings: settings, log: log}
}

func (r *Renderer) Name() string { return r.name }
func (r *Renderer) Mode() Mode   { return r.mode }

// Render starts a rendering and returns its event stream.
func (r *Renderer) Render(ctx context.Context, in Input) Stream {
	out := make(chan Event)

	go func() {
		defer close(out)

		var (
			renderCtx context.Context
			cancel    context.CancelFunc
		)
		if r.settings.Timeout > 0 {
			renderCtx, cancel = context.WithTimeout(ctx, r.settings.Timeout)
		} else {
			renderCtx, cancel = context.WithCancel(ctx)
		}
		defer cancel()

		prompt := NewPromptBuilder(in).Build()
		r.log.Debug("Renderer", "Render started", map[string]interface{}{
			"session_id": in.SessionID,
			"model":      r.name,
			"mode":       string(r.mode),
			"prompt":     prompt,
		})

		history := []llm.Message{{Role: "user", Content: prompt}}
		opts := []llm.Option{
			llm.WithTemperature(r.settings.Temperature),
			llm.WithMaxTokens(r.settings.MaxTokens),
		}

		var (
			full string
			err  error
		)
		switch r.mode {
		case ModeStream:
			full, err = r.stream.ChatStream(renderCtx, history, func(chunk string) error {
				return send(renderCtx, out, Event{Chunk: chunk})
			}, opts...)
		default:
			full, err = r.once.Chat(renderCtx, history, opts...)
			if err == nil {
				err = send(renderCtx, out, Event{Chunk: full})
			}
		}

		if err != nil {
			err = r.classify(renderCtx, ctx, err)
			r.log.Error("Renderer", "Render failed", map[string]interface{}{
				"session_id": in.SessionID,
				"model":      r.name,
				"error":      err,
			})
			// renderCtx may already be expired; deliver on the caller's context
			send(ctx, out, Event{Err: err})
			return
		}

		r.log.Info("Renderer", "Render completed", map[string]interface{}{
			"session_id": in.SessionID,
			"model":      r.name,
			"answer":     full,
		})
		send(ctx, out, Event{Done: true, FullText: full})
	}()

	return out
}

func (r *Renderer) classify(renderCtx, parent context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		return apperror.Upstream(apperror.CodeRenderFailure, "render cancelled", parent.Err())
	case errors.Is(renderCtx.Err(), context.DeadlineExceeded):
		return apperror.Upstream(apperror.CodeRenderFailure, fmt.Sprintf("render timed out after %s", r.settings.Timeout), err)
	default:
		return apperror.Upstream(apperror.CodeRenderFailure, "model call failed", err)
	}
}

// Fixed streams text verbatim as a single fragment without calling any model.
func Fixed(text string) Stream {
	out := make(chan Event, 2)
	out <- Event{Chunk: text}
	out <- Event{Done: true, FullText: text}
	close(out)
	return out
}

func send(ctx context.Context, out chan<- Event, ev Event) error {
	select {
	case out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
