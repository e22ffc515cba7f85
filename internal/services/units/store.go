package units

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dpaola2/show-notes/internal/models"
)

// gormStore implements Store over the episodes and user_episodes tables.
// Both tables embed the same ProcessingState columns, so state updates are
// the same column map applied to the kind's model.
type gormStore struct {
	db *gorm.DB
}

// NewStore creates a processing-unit store
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Get(ctx context.Context, ref Ref) (*Unit, error) {
	switch ref.Kind {
	case KindEpisode:
		var episode models.Episode
		if err := s.db.WithContext(ctx).First(&episode, ref.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, ref)
			}
			return nil, fmt.Errorf("getting episode unit: %w", err)
		}
		return &Unit{
			Ref:       ref,
			EpisodeID: episode.ID,
			AudioURL:  episode.AudioURL,
			State:     episode.ProcessingState,
		}, nil

	case KindUserEpisode:
		var userEpisode models.UserEpisode
		if err := s.db.WithContext(ctx).Preload("Episode").First(&userEpisode, ref.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, ref)
			}
			return nil, fmt.Errorf("getting user episode unit: %w", err)
		}
		return &Unit{
			Ref:       ref,
			EpisodeID: userEpisode.EpisodeID,
			AudioURL:  userEpisode.Episode.AudioURL,
			State:     userEpisode.ProcessingState,
		}, nil

	default:
		return nil, fmt.Errorf("unknown unit kind %q", ref.Kind)
	}
}

func (s *gormStore) SetStatus(ctx context.Context, ref Ref, status models.ProcessingStatus) error {
	return s.update(ctx, ref, map[string]interface{}{
		"processing_status": status,
	})
}

func (s *gormStore) MarkReady(ctx context.Context, ref Ref) error {
	return s.update(ctx, ref, map[string]interface{}{
		"processing_status": models.ProcessingStatusReady,
		"processing_error":  "",
		"retry_count":       0,
		"next_retry_at":     nil,
	})
}

func (s *gormStore) MarkError(ctx context.Context, ref Ref, message string, at time.Time) error {
	return s.update(ctx, ref, map[string]interface{}{
		"processing_status": models.ProcessingStatusError,
		"processing_error":  message,
		"last_error_at":     at,
		"next_retry_at":     nil,
	})
}

func (s *gormStore) ScheduleRetry(ctx context.Context, ref Ref, retryCount int, nextRetryAt time.Time, message string, at time.Time) error {
	return s.update(ctx, ref, map[string]interface{}{
		"retry_count":      retryCount,
		"next_retry_at":    nextRetryAt,
		"last_error_at":    at,
		"processing_error": message,
	})
}

func (s *gormStore) ResetProcessing(ctx context.Context, ref Ref) error {
	return s.update(ctx, ref, map[string]interface{}{
		"processing_status": models.ProcessingStatusPending,
		"processing_error":  "",
		"retry_count":       0,
		"next_retry_at":     nil,
		"last_error_at":     nil,
	})
}

// FailStuck sweeps both unit tables in one pass
func (s *gormStore) FailStuck(ctx context.Context, cutoff time.Time, message string, now time.Time) (map[Kind]int64, error) {
	counts := make(map[Kind]int64, 2)

	inFlight := []models.ProcessingStatus{
		models.ProcessingStatusTranscribing,
		models.ProcessingStatusSummarizing,
	}
	updates := map[string]interface{}{
		"processing_status": models.ProcessingStatusError,
		"processing_error":  message,
		"last_error_at":     now,
		"next_retry_at":     nil,
	}

	for kind, model := range map[Kind]interface{}{
		KindEpisode:     &models.Episode{},
		KindUserEpisode: &models.UserEpisode{},
	} {
		result := s.db.WithContext(ctx).
			Model(model).
			Where("processing_status IN ?", inFlight).
			Where("updated_at < ?", cutoff).
			Updates(updates)
		if result.Error != nil {
			return counts, fmt.Errorf("failing stuck %s units: %w", kind, result.Error)
		}
		counts[kind] = result.RowsAffected
	}

	return counts, nil
}

func (s *gormStore) update(ctx context.Context, ref Ref, updates map[string]interface{}) error {
	model, err := modelFor(ref.Kind)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Model(model).
		Where("id = ?", ref.ID).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("updating %s: %w", ref, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrUnitNotFound, ref)
	}
	return nil
}

func modelFor(kind Kind) (interface{}, error) {
	switch kind {
	case KindEpisode:
		return &models.Episode{}, nil
	case KindUserEpisode:
		return &models.UserEpisode{}, nil
	default:
		return nil, fmt.Errorf("unknown unit kind %q", kind)
	}
}
