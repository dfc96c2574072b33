package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"screening-bot-be/internal/entity"
	"screening-bot-be/internal/repository/contract"

	"github.com/google/uuid"
)

// ChatRecordRepository keeps chat records in a map. Used by tests and by
// DB_DRIVER=memory for local runs.
type ChatRecordRepository struct {
	mu      sync.RWMutex
	records map[string]*entity.ChatRecord
}

var _ contract.ChatRecordRepository = (*ChatRecordRepository)(nil)

func NewChatRecordRepository() *ChatRecordRepository {
	return &ChatRecordRepository{records: make(map[string]*entity.ChatRecord)}
}

func cloneRecord(r *entity.ChatRecord) *entity.ChatRecord {
	c := *r
	c.Responses = append([]entity.QuestionResponse{}, r.Responses...)
	c.FollowUpResponses = append([]entity.QuestionResponse{}, r.FollowUpResponses...)
	c.Conversation = append([]entity.ConversationTurn{}, r.Conversation...)
	if r.Diagnosis != nil {
		d := *r.Diagnosis
		c.Diagnosis = &d
	}
	if r.Feedback != nil {
		f := *r.Feedback
		c.Feedback = &f
	}
	return &c
}

func (r *ChatRecordRepository) Create(ctx context.Context, record *entity.ChatRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.SessionId]; exists {
		return contract.ErrDuplicate
	}
	if record.Id == uuid.Nil {
		record.Id = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	r.records[record.SessionId] = cloneRecord(record)
	return nil
}

func (r *ChatRecordRepository) FindBySessionId(ctx context.Context, sessionId string) (*entity.ChatRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[sessionId]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (r *ChatRecordRepository) mutate(sessionId string, fn func(rec *entity.ChatRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[sessionId]
	if !ok {
		return contract.ErrRecordNotFound
	}
	fn(rec)
	now := time.Now()
	rec.UpdatedAt = &now
	return nil
}

func (r *ChatRecordRepository) AppendTurn(ctx context.Context, sessionId string, turn entity.ConversationTurn) error {
	return r.mutate(sessionId, func(rec *entity.ChatRecord) {
		rec.Conversation = append(rec.Conversation, turn)
	})
}

func (r *ChatRecordRepository) AppendResponse(ctx context.Context, sessionId string, response entity.QuestionResponse, isFollowUp bool) error {
	return r.mutate(sessionId, func(rec *entity.ChatRecord) {
		if isFollowUp {
			rec.FollowUpResponses = append(rec.FollowUpResponses, response)
		} else {
			rec.Responses = append(rec.Responses, response)
		}
	})
}

func (r *ChatRecordRepository) SetFeedback(ctx context.Context, sessionId string, feedback string) error {
	return r.mutate(sessionId, func(rec *entity.ChatRecord) { rec.Feedback = &feedback })
}

func (r *ChatRecordRepository) SetDiagnosis(ctx context.Context, sessionId string, diagnosis string) error {
	return r.mutate(sessionId, func(rec *entity.ChatRecord) { rec.Diagnosis = &diagnosis })
}

func (r *ChatRecordRepository) FindAll(ctx context.Context, filter contract.ChatRecordFilter) ([]*entity.ChatRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.ChatRecord, 0, len(r.records))
	for _, rec := range r.records {
		if filter.School != "" && rec.Student.School != filter.School {
			continue
		}
		if filter.QuestionnaireName != "" && rec.QuestionnaireName != filter.QuestionnaireName {
			continue
		}
		c := cloneRecord(rec)
		if !filter.WithConversation {
			c.Conversation = []entity.ConversationTurn{}
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ChatRecordRepository) DistinctSchools(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	schools := []string{}
	for _, rec := range r.records {
		s := rec.Student.School
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		schools = append(schools, s)
	}
	sort.Strings(schools)
	return schools, nil
}
