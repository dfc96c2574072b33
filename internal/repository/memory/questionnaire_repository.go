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

type QuestionnaireRepository struct {
	mu    sync.RWMutex
	items map[string]*entity.Questionnaire
}

var _ contract.QuestionnaireRepository = (*QuestionnaireRepository)(nil)

func NewQuestionnaireRepository() *QuestionnaireRepository {
	return &QuestionnaireRepository{items: make(map[string]*entity.Questionnaire)}
}

func cloneQuestionnaire(q *entity.Questionnaire, withQuestions bool) *entity.Questionnaire {
	c := *q
	c.Questions = nil
	if withQuestions {
		c.Questions = make([]entity.Question, len(q.Questions))
		for i, qq := range q.Questions {
			qq.Options = append([]string(nil), qq.Options...)
			qq.Embedding = append([]float32(nil), qq.Embedding...)
			c.Questions[i] = qq
		}
	}
	return &c
}

func (r *QuestionnaireRepository) Create(ctx context.Context, questionnaire *entity.Questionnaire) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[questionnaire.Name]; exists {
		return contract.ErrDuplicate
	}
	if questionnaire.Id == uuid.Nil {
		questionnaire.Id = uuid.New()
	}
	if questionnaire.CreatedAt.IsZero() {
		questionnaire.CreatedAt = time.Now()
	}
	r.items[questionnaire.Name] = cloneQuestionnaire(questionnaire, true)
	return nil
}

func (r *QuestionnaireRepository) FindByName(ctx context.Context, name string) (*entity.Questionnaire, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.items[name]
	if !ok {
		return nil, nil
	}
	return cloneQuestionnaire(q, true), nil
}

func (r *QuestionnaireRepository) FindAll(ctx context.Context) ([]*entity.Questionnaire, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Questionnaire, 0, len(r.items))
	for _, q := range r.items {
		out = append(out, cloneQuestionnaire(q, false))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
