package questionnaire

// QuestionType separates primary questions from the follow-up pool.
type QuestionType int

const (
	Direct           QuestionType = 0
	FollowUpEligible QuestionType = 1
)

func (t QuestionType) String() string {
	if t == FollowUpEligible {
		return "FOLLOW_UP_ELIGIBLE"
	}
	return "DIRECT"
}

// QuestionRecord is immutable once loaded.
type QuestionRecord struct {
	Index     int
	Text      string
	Options   []string
	Type      QuestionType
	Embedding []float32
}

// Bank is the ordered question set of one named questionnaire.
type Bank struct {
	Name         string
	Instructions string
	Questions    []QuestionRecord
}

func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Questions)
}

// Question returns the record at index, false when out of range.
func (b *Bank) Question(index int) (QuestionRecord, bool) {
	if b == nil || index < 0 || index >= len(b.Questions) {
		return QuestionRecord{}, false
	}
	return b.Questions[index], true
}
