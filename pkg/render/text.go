package render

// Lines sent verbatim, never passed through a model.
const (
	ClarificationText = "Can you please elaborate on that?"
	CompletionText    = "The questionnaire is complete. Thank you for your responses! Please provide us with any additional comments or feedback."
)
