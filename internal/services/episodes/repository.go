package episodes

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dpaola2/show-notes/internal/models"
)

type Repository struct {
	db *gorm.DB
}

// Ensure Repository implements EpisodeRepository interface
var _ EpisodeRepository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetEpisodeByID(ctx context.Context, id uint) (*models.Episode, error) {
	var episode models.Episode
	if err := r.db.WithContext(ctx).First(&episode, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("episode", id)
		}
		return nil, fmt.Errorf("getting episode: %w", err)
	}
	return &episode, nil
}

func (r *Repository) GetEpisodeByGUID(ctx context.Context, guid string) (*models.Episode, error) {
	var episode models.Episode
	if err := r.db.WithContext(ctx).Where("guid = ?", guid).First(&episode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("episode", guid)
		}
		return nil, fmt.Errorf("getting episode by guid: %w", err)
	}
	return &episode, nil
}

func (r *Repository) CreateEpisode(ctx context.Context, episode *models.Episode) error {
	if err := r.db.WithContext(ctx).Create(episode).Error; err != nil {
		return fmt.Errorf("creating episode: %w", err)
	}
	return nil
}

func (r *Repository) GetTranscriptByEpisodeID(ctx context.Context, episodeID uint) (*models.Transcript, error) {
	var transcript models.Transcript
	err := r.db.WithContext(ctx).Where("episode_id = ?", episodeID).First(&transcript).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting transcript: %w", err)
	}
	return &transcript, nil
}

// CreateTranscriptIfAbsent inserts the transcript unless one already exists
// for the episode. The uniqueIndex on episode_id plus ON CONFLICT DO NOTHING
// turns a concurrent duplicate write into a clean "already exists" signal
// instead of a constraint error.
func (r *Repository) CreateTranscriptIfAbsent(ctx context.Context, transcript *models.Transcript) (bool, error) {
	if transcript == nil {
		return false, errors.New("transcript cannot be nil")
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "episode_id"}},
			DoNothing: true,
		}).
		Create(transcript)

	if result.Error != nil {
		return false, fmt.Errorf("creating transcript: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *Repository) GetSummaryByEpisodeID(ctx context.Context, episodeID uint) (*models.Summary, error) {
	var summary models.Summary
	err := r.db.WithContext(ctx).Where("episode_id = ?", episodeID).First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting summary: %w", err)
	}
	return &summary, nil
}

// CreateSummaryIfAbsent inserts the summary unless one already exists for
// the episode, with the same conflict semantics as transcripts
func (r *Repository) CreateSummaryIfAbsent(ctx context.Context, summary *models.Summary) (bool, error) {
	if summary == nil {
		return false, errors.New("summary cannot be nil")
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "episode_id"}},
			DoNothing: true,
		}).
		Create(summary)

	if result.Error != nil {
		return false, fmt.Errorf("creating summary: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
