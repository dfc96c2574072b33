package entity

import (
	"time"

	"github.com/google/uuid"
)

type Question struct {
	Index     int
	Text      string
	Options   []string
	Type      int
	Embedding []float32
}

type Questionnaire struct {
	Id           uuid.UUID
	Name         string
	Instructions string
	Questions    []Question
	CreatedAt    time.Time
}
