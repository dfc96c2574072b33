package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Questionnaire struct {
	Id           uuid.UUID               `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string                  `gorm:"type:text;uniqueIndex;not null"`
	Instructions string                  `gorm:"type:text"`
	Questions    []QuestionnaireQuestion `gorm:"foreignKey:QuestionnaireId;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time               `gorm:"autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"autoUpdateTime"`
}

func (Questionnaire) TableName() string {
	return "questionnaires"
}

// QuestionnaireQuestion stores one bank entry. Embedding dimensions depend on the
// configured embedding model, so the column is an unsized vector.
type QuestionnaireQuestion struct {
	Id              uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuestionnaireId uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Position        int                         `gorm:"not null"`
	Text            string                      `gorm:"type:text;not null"`
	Options         datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Type            int                         `gorm:"not null;default:0"`
	Embedding       pgvector.Vector             `gorm:"type:vector"`
}

func (QuestionnaireQuestion) TableName() string {
	return "questionnaire_questions"
}
