package specification

import (
	"fmt"

	"gorm.io/gorm"
)

// BySessionId filters by session id
type BySessionId struct {
	SessionId string
}

func (s BySessionId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionId)
}

// FilterBy matches a column exactly. An empty string value matches everything,
// which is how optional listing filters are expressed.
type FilterBy struct {
	Field string
	Value string
}

func (s FilterBy) Apply(db *gorm.DB) *gorm.DB {
	if s.Value == "" {
		return db
	}
	return db.Where(fmt.Sprintf("%s = ?", s.Field), s.Value)
}

func Filter(field, value string) Specification {
	return FilterBy{Field: field, Value: value}
}

// NotBlank drops rows whose column is empty
type NotBlank struct {
	Field string
}

func (s NotBlank) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(fmt.Sprintf("%s <> ''", s.Field))
}

// Omit leaves heavy columns out of the select
type Omit struct {
	Fields []string
}

func (s Omit) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Fields) == 0 {
		return db
	}
	return db.Omit(s.Fields...)
}
