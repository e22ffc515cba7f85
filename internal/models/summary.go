package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// SummarySection is one titled segment of an episode summary
type SummarySection struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// SummaryQuote is a notable quote pulled from the transcript
type SummaryQuote struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// SummarySections is a JSON column of ordered sections
type SummarySections []SummarySection

// Value implements driver.Valuer interface for SummarySections
func (s SummarySections) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner interface for SummarySections
func (s *SummarySections) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, isStr := value.(string); isStr {
			bytes = []byte(str)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}
	return json.Unmarshal(bytes, s)
}

// SummaryQuotes is a JSON column of quotes
type SummaryQuotes []SummaryQuote

// Value implements driver.Valuer interface for SummaryQuotes
func (q SummaryQuotes) Value() (driver.Value, error) {
	if q == nil {
		return nil, nil
	}
	return json.Marshal(q)
}

// Scan implements sql.Scanner interface for SummaryQuotes
func (q *SummaryQuotes) Scan(value interface{}) error {
	if value == nil {
		*q = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, isStr := value.(string); isStr {
			bytes = []byte(str)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}
	return json.Unmarshal(bytes, q)
}

// Summary is the structured summary of an episode. At most one exists per
// episode; its presence is the summarization-completion signal.
type Summary struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	EpisodeID      uint            `gorm:"uniqueIndex;not null" json:"episode_id"`
	Sections       SummarySections `gorm:"type:json" json:"sections"`
	Quotes         SummaryQuotes   `gorm:"type:json" json:"quotes"`
	SearchableText string          `gorm:"type:text" json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeSave derives the flattened text used for full-text search
func (s *Summary) BeforeSave(tx *gorm.DB) error {
	parts := make([]string, 0, len(s.Sections)+len(s.Quotes))
	for _, sec := range s.Sections {
		parts = append(parts, sec.Title+" "+sec.Content)
	}
	for _, q := range s.Quotes {
		parts = append(parts, q.Text)
	}
	s.SearchableText = strings.Join(parts, " ")
	return nil
}

// TableName specifies the table name for GORM
func (Summary) TableName() string {
	return "summaries"
}
