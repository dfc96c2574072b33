package questionnaire

import (
	"context"
	"strings"

	"screening-bot-be/internal/pkg/apperror"
)

const (
	RestartCommand     = "/start"
	shortReplyMaxWords = 3
	contextTurns       = 6
)

// Embedder turns free text into a vector comparable with question embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Input is everything the selector needs for one decision.
type Input struct {
	Message           string
	RecentTurns       []string // oldest first, only the last six are used
	LastQuestionIndex int
	Asked             []int
}

type Selector struct {
	embedder Embedder
}

func NewSelector(embedder Embedder) *Selector {
	return &Selector{embedder: embedder}
}

// IsRestart reports whether message is the restart command.
func IsRestart(message string) bool {
	return strings.ToLower(strings.TrimSpace(message)) == RestartCommand
}

// IsShortReply reports whether message has at most three words.
func IsShortReply(message string) bool {
	return len(strings.Fields(message)) <= shortReplyMaxWords
}

// Select decides what to ask next. It never mutates in; applying the result to
// session state is the caller's job.
func (s *Selector) Select(ctx context.Context, bank *Bank, in Input) (Selection, error) {
	if bank.Len() == 0 {
		return Selection{}, apperror.Validation(apperror.CodeNoQuestionsAvailable, "questionnaire has no questions")
	}

	if IsRestart(in.Message) {
		sel := Question(0)
		sel.Restart = true
		return sel, nil
	}

	asked := make(map[int]struct{}, len(in.Asked))
	for _, idx := range in.Asked {
		asked[idx] = struct{}{}
	}

	if IsShortReply(in.Message) {
		if _, used := asked[PseudoIndexFor(in.LastQuestionIndex)]; !used {
			return Clarification(in.LastQuestionIndex), nil
		}
	}

	direct := unasked(bank, asked, Direct)
	followUps := unasked(bank, asked, FollowUpEligible)
	if len(direct) == 0 && len(followUps) == 0 {
		return Complete(), nil
	}

	query, err := s.embedder.Embed(ctx, BuildQuery(in.Message, in.RecentTurns))
	if err != nil {
		return Selection{}, apperror.Upstream(apperror.CodeEmbeddingFailure, "failed to embed user message", err)
	}

	pool := direct
	if len(pool) == 0 {
		pool = followUps
	}

	best, err := mostSimilar(query, pool)
	if err != nil {
		return Selection{}, apperror.Internal(apperror.CodeEmbeddingFailure, "question embedding mismatch", err)
	}
	return Question(best.Index), nil
}

// BuildQuery joins the message with the text of the last six turns.
func BuildQuery(message string, turns []string) string {
	if len(turns) > contextTurns {
		turns = turns[len(turns)-contextTurns:]
	}

	var sb strings.Builder
	sb.WriteString(message)
	for _, turn := range turns {
		sb.WriteString(" ")
		sb.WriteString(turn)
	}
	return sb.String()
}

func unasked(bank *Bank, asked map[int]struct{}, qt QuestionType) []QuestionRecord {
	var out []QuestionRecord
	for _, q := range bank.Questions {
		if q.Type != qt {
			continue
		}
		if _, done := asked[q.Index]; done {
			continue
		}
		out = append(out, q)
	}
	return out
}

// mostSimilar scans in ascending order; only a strictly greater score replaces
// the current best, so ties keep the lowest index.
func mostSimilar(query []float32, pool []QuestionRecord) (QuestionRecord, error) {
	best := pool[0]
	bestScore := -2.0
	for _, q := range pool {
		score, err := CosineSimilarity(query, q.Embedding)
		if err != nil {
			return QuestionRecord{}, err
		}
		if score > bestScore {
			best, bestScore = q, score
		}
	}
	return best, nil
}
