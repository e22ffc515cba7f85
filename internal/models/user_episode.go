package models

import (
	"time"

	"gorm.io/gorm"
)

// Location represents which shelf a user has filed an episode under
type Location string

const (
	LocationInbox   Location = "inbox"
	LocationLibrary Location = "library"
	LocationArchive Location = "archive"
	LocationTrash   Location = "trash"
)

// UserEpisode is a user's per-copy of an episode: its location in their
// collection plus its own ProcessingState. Many user episodes may reference
// the same underlying episode; the Transcript/Summary dedup boundary lives
// on the episode, not here.
type UserEpisode struct {
	gorm.Model
	UserID    uint `json:"user_id" gorm:"not null;uniqueIndex:idx_user_episodes_user_episode"`
	EpisodeID uint `json:"episode_id" gorm:"not null;uniqueIndex:idx_user_episodes_user_episode;index"`

	Location  Location   `json:"location" gorm:"default:'inbox';not null"`
	TrashedAt *time.Time `json:"trashed_at"`

	ProcessingState `gorm:"embedded"`

	User    User    `json:"-" gorm:"foreignKey:UserID"`
	Episode Episode `json:"episode,omitempty" gorm:"foreignKey:EpisodeID"`
}

// MoveToLibrary files the episode in the user's library and resets
// processing state so a fresh pipeline run can be enqueued
func (ue *UserEpisode) MoveToLibrary() {
	ue.Location = LocationLibrary
	ue.TrashedAt = nil
	ue.ResetProcessing()
}

// MoveToTrash files the episode in trash and stamps the trashed time
func (ue *UserEpisode) MoveToTrash(now time.Time) {
	ue.Location = LocationTrash
	ue.TrashedAt = &now
}

// TableName specifies the table name for GORM
func (UserEpisode) TableName() string {
	return "user_episodes"
}
