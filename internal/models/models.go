package models

import (
	"time"

	"gorm.io/gorm"
)

// Podcast represents a podcast feed
type Podcast struct {
	gorm.Model
	Title       string    `json:"title" gorm:"not null"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	FeedURL     string    `json:"feed_url" gorm:"uniqueIndex;not null"`
	ImageURL    string    `json:"image_url"`
	Language    string    `json:"language"`
	Episodes    []Episode `json:"episodes,omitempty" gorm:"foreignKey:PodcastID"`
}

// Episode represents a podcast episode. It doubles as the shared canonical
// processing unit: its embedded ProcessingState tracks episode-level
// auto-processing, while each subscriber's UserEpisode tracks its own copy.
type Episode struct {
	gorm.Model
	PodcastID       uint      `json:"podcast_id" gorm:"not null;index"`
	GUID            string    `json:"guid" gorm:"uniqueIndex;not null"`
	Title           string    `json:"title" gorm:"not null"`
	Description     string    `json:"description" gorm:"type:text"`
	AudioURL        string    `json:"audio_url" gorm:"not null"`
	DurationSeconds *int      `json:"duration_seconds"`
	PublishedAt     time.Time `json:"published_at"`

	ProcessingState `gorm:"embedded"`

	Transcript *Transcript `json:"transcript,omitempty" gorm:"foreignKey:EpisodeID"`
	Summary    *Summary    `json:"summary,omitempty" gorm:"foreignKey:EpisodeID"`
}

// EstimatedCostCents estimates the external API spend for processing this
// episode: transcription at $0.00065 per second plus roughly ten cents of
// summarization.
func (e *Episode) EstimatedCostCents() int {
	if e.DurationSeconds == nil {
		return 0
	}
	transcription := int(float64(*e.DurationSeconds)*0.065 + 0.999)
	return transcription + 10
}

// User represents a user account
type User struct {
	gorm.Model
	Email        string        `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string        `json:"-" gorm:"not null"`
	IsActive     bool          `json:"is_active" gorm:"default:true"`
	UserEpisodes []UserEpisode `json:"user_episodes,omitempty" gorm:"foreignKey:UserID"`
}
