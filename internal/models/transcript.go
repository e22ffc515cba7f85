package models

import (
	"time"

	"gorm.io/gorm"
)

// Transcript holds the full transcription of an episode: raw text plus
// timestamped utterances, stored as the JSON document returned by the
// transcription provider. At most one transcript exists per episode; its
// presence is the transcription-completion signal shared by every
// processing unit referencing the episode.
type Transcript struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	EpisodeID uint           `gorm:"uniqueIndex;not null" json:"episode_id"`
	Content   string         `gorm:"type:text" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}
