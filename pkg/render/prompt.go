package render

import (
	"fmt"
	"strings"

	"screening-bot-be/pkg/questionnaire"
)

type AgeGroup string

const (
	AgeGroupChild      AgeGroup = "child"
	AgeGroupAdolescent AgeGroup = "adolescent"
	AgeGroupAdult      AgeGroup = "adult"
)

// AgeGroupFor buckets an age: under 13 child, under 18 adolescent, else adult.
func AgeGroupFor(age int) AgeGroup {
	switch {
	case age < 13:
		return AgeGroupChild
	case age < 18:
		return AgeGroupAdolescent
	default:
		return AgeGroupAdult
	}
}

var toneByAgeGroup = map[AgeGroup]string{
	AgeGroupChild:      "The user is a child. Use very simple words, short sentences and a warm, playful tone.",
	AgeGroupAdolescent: "The user is a teenager. Be friendly and respectful, never patronising.",
	AgeGroupAdult:      "The user is an adult. Be calm, respectful and direct.",
}

// PromptBuilder assembles the rephrasing prompt for one question.
type PromptBuilder struct {
	in Input
}

func NewPromptBuilder(in Input) *PromptBuilder {
	return &PromptBuilder{in: in}
}

func (b *PromptBuilder) Build() string {
	var prompt strings.Builder

	b.writeRole(&prompt)
	b.writeConversation(&prompt)
	b.writeLatestInput(&prompt)
	b.writeQuestion(&prompt)
	b.writeInstructions(&prompt)

	return prompt.String()
}

func (b *PromptBuilder) writeRole(prompt *strings.Builder) {
	prompt.WriteString("You are a compassionate and thoughtful mental health professional.\n")
	prompt.WriteString("Your role is to gently guide the user through self-reflection and emotional awareness.\n")
	prompt.WriteString(toneByAgeGroup[AgeGroupFor(b.in.UserAge)])
	prompt.WriteString("\n\n")
}

func (b *PromptBuilder) writeConversation(prompt *strings.Builder) {
	prompt.WriteString("Here is the previous conversation:\n")
	if len(b.in.Conversation) == 0 {
		prompt.WriteString("No previous conversation\n\n")
		return
	}
	for _, turn := range b.in.Conversation {
		prompt.WriteString("- ")
		prompt.WriteString(turn)
		prompt.WriteString("\n")
	}
	prompt.WriteString("\n")
}

func (b *PromptBuilder) writeLatestInput(prompt *strings.Builder) {
	prompt.WriteString("The user's latest input was:\n")
	prompt.WriteString(b.in.UserInput)
	prompt.WriteString("\n")
	if !questionnaire.IsRestart(b.in.UserInput) {
		prompt.WriteString("Add one sentence acknowledging what the user said before asking the next question.\n")
	}
	prompt.WriteString("\n")
}

func (b *PromptBuilder) writeQuestion(prompt *strings.Builder) {
	prompt.WriteString(fmt.Sprintf("Now ask the following question as a mental health professional would:\n%q\n\n", b.in.CanonicalQuestion))
}

func (b *PromptBuilder) writeInstructions(prompt *strings.Builder) {
	prompt.WriteString("Instructions:\n")
	prompt.WriteString("- Rephrase the question in an empathetic and non-intrusive way but do not change its meaning.\n")
	prompt.WriteString("- Do not give advice and do not answer the question yourself.\n")
	prompt.WriteString("- Keep it short and simple.\n")
}
