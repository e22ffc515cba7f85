package episodes

import (
	"context"

	"github.com/dpaola2/show-notes/internal/models"
)

// EpisodeService defines the business logic interface for episodes and
// their processing artifacts (transcript, summary)
type EpisodeService interface {
	GetEpisodeByID(ctx context.Context, id uint) (*models.Episode, error)
	GetEpisodeByGUID(ctx context.Context, guid string) (*models.Episode, error)

	// Artifact existence checks; nil result without error means absent
	GetTranscript(ctx context.Context, episodeID uint) (*models.Transcript, error)
	GetSummary(ctx context.Context, episodeID uint) (*models.Summary, error)
	HasArtifacts(ctx context.Context, episodeID uint) (hasTranscript, hasSummary bool, err error)

	// Create-if-absent operations backing the dedup boundary. The boolean
	// reports whether this call created the row; false means another writer
	// got there first and the existing artifact should be used.
	CreateTranscript(ctx context.Context, episodeID uint, content string) (bool, error)
	CreateSummary(ctx context.Context, episodeID uint, sections models.SummarySections, quotes models.SummaryQuotes) (bool, error)
}

// EpisodeRepository defines the persistence interface for episodes and
// their artifacts
type EpisodeRepository interface {
	GetEpisodeByID(ctx context.Context, id uint) (*models.Episode, error)
	GetEpisodeByGUID(ctx context.Context, guid string) (*models.Episode, error)
	CreateEpisode(ctx context.Context, episode *models.Episode) error

	GetTranscriptByEpisodeID(ctx context.Context, episodeID uint) (*models.Transcript, error)
	CreateTranscriptIfAbsent(ctx context.Context, transcript *models.Transcript) (bool, error)

	GetSummaryByEpisodeID(ctx context.Context, episodeID uint) (*models.Summary, error)
	CreateSummaryIfAbsent(ctx context.Context, summary *models.Summary) (bool, error)
}
