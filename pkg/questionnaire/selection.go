package questionnaire

type SelectionKind int

const (
	KindQuestion SelectionKind = iota
	KindClarification
	KindComplete
)

func (k SelectionKind) String() string {
	switch k {
	case KindQuestion:
		return "question"
	case KindClarification:
		return "clarification"
	default:
		return "complete"
	}
}

// Selection is the outcome of one selector run.
// For KindQuestion, Index is the bank index to ask.
// For KindClarification, Index is the bank index being clarified.
// For KindComplete, Index is meaningless.
type Selection struct {
	Kind    SelectionKind
	Index   int
	Restart bool
}

func Question(index int) Selection {
	return Selection{Kind: KindQuestion, Index: index}
}

func Clarification(original int) Selection {
	return Selection{Kind: KindClarification, Index: original}
}

func Complete() Selection {
	return Selection{Kind: KindComplete, Index: -1}
}

// PseudoIndex is the negative marker recorded in the asked set for a clarification.
func (s Selection) PseudoIndex() int {
	return PseudoIndexFor(s.Index)
}

// PseudoIndexFor maps a bank index to its clarification marker: 0 -> -1, 2 -> -3.
func PseudoIndexFor(index int) int {
	return -index - 1
}

// OriginalIndex reverses PseudoIndexFor.
func OriginalIndex(pseudo int) int {
	return -pseudo - 1
}
