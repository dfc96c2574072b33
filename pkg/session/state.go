package session

import "time"

// State is the per-session progress the selector works against.
type State struct {
	SessionID             string    `json:"session_id"`
	QuestionnaireName     string    `json:"questionnaire_name"`
	AskedIndices          []int     `json:"asked_indices"`
	LastQuestionIndex     int       `json:"last_question_index"`
	AwaitingClarification bool      `json:"awaiting_clarification"`
	IsComplete            bool      `json:"is_complete"`
	CreatedAt             time.Time `json:"created_at"`
}

func NewState(sessionID, questionnaireName string) *State {
	return &State{
		SessionID:         sessionID,
		QuestionnaireName: questionnaireName,
		AskedIndices:      []int{},
		CreatedAt:         time.Now(),
	}
}

// HasAsked reports whether index (bank or pseudo) is in the asked set.
func (s *State) HasAsked(index int) bool {
	for _, i := range s.AskedIndices {
		if i == index {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores never share slices with callers.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.AskedIndices = append([]int(nil), s.AskedIndices...)
	return &c
}

// AddAsked appends index to the asked set unless already present.
func (s *State) AddAsked(index int) {
	if !s.HasAsked(index) {
		s.AskedIndices = append(s.AskedIndices, index)
	}
}
