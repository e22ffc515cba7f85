package library

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/dpaola2/show-notes/internal/models"
	"github.com/dpaola2/show-notes/internal/services/processing"
	"github.com/dpaola2/show-notes/internal/services/units"
)

// ErrUserEpisodeNotFound is returned when a user episode does not exist
var ErrUserEpisodeNotFound = errors.New("user episode not found")

type service struct {
	db       *gorm.DB
	pipeline processing.Service
}

// NewService creates a library service backed by the given database
func NewService(db *gorm.DB, pipeline processing.Service) Service {
	return &service{db: db, pipeline: pipeline}
}

// MoveToLibrary files the episode in the user's library and enqueues the
// processing pipeline for it. Creates the user episode row if the user
// has never touched this episode before.
func (s *service) MoveToLibrary(ctx context.Context, userID, episodeID uint) (*models.UserEpisode, *models.Job, error) {
	ue, err := s.findOrCreate(ctx, userID, episodeID)
	if err != nil {
		return nil, nil, err
	}

	ue.MoveToLibrary()
	if err := s.db.WithContext(ctx).Save(ue).Error; err != nil {
		return nil, nil, fmt.Errorf("saving user episode %d: %w", ue.ID, err)
	}

	job, err := s.pipeline.EnqueueProcessing(ctx, units.Ref{Kind: units.KindUserEpisode, ID: ue.ID})
	if err != nil {
		return nil, nil, fmt.Errorf("enqueueing processing for user episode %d: %w", ue.ID, err)
	}

	log.Printf("[INFO] User %d moved episode %d to library (user episode %d, job %d)", userID, episodeID, ue.ID, job.ID)
	return ue, job, nil
}

// MoveToArchive files the episode in the archive. Artifacts are kept.
func (s *service) MoveToArchive(ctx context.Context, userID, episodeID uint) (*models.UserEpisode, error) {
	return s.setLocation(ctx, userID, episodeID, func(ue *models.UserEpisode) {
		ue.Location = models.LocationArchive
		ue.TrashedAt = nil
	})
}

// MoveToTrash files the episode in trash and stamps the trashed time
func (s *service) MoveToTrash(ctx context.Context, userID, episodeID uint) (*models.UserEpisode, error) {
	now := time.Now()
	return s.setLocation(ctx, userID, episodeID, func(ue *models.UserEpisode) {
		ue.MoveToTrash(now)
	})
}

func (s *service) GetUserEpisode(ctx context.Context, id uint) (*models.UserEpisode, error) {
	var ue models.UserEpisode
	err := s.db.WithContext(ctx).Preload("Episode").First(&ue, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserEpisodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user episode %d: %w", id, err)
	}
	return &ue, nil
}

func (s *service) ListByLocation(ctx context.Context, userID uint, location models.Location) ([]models.UserEpisode, error) {
	var list []models.UserEpisode
	err := s.db.WithContext(ctx).
		Preload("Episode").
		Where("user_id = ? AND location = ?", userID, location).
		Order("updated_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing %s for user %d: %w", location, userID, err)
	}
	return list, nil
}

func (s *service) findOrCreate(ctx context.Context, userID, episodeID uint) (*models.UserEpisode, error) {
	var ue models.UserEpisode
	err := s.db.WithContext(ctx).
		Where(models.UserEpisode{UserID: userID, EpisodeID: episodeID}).
		FirstOrCreate(&ue).Error
	if err != nil {
		return nil, fmt.Errorf("finding user episode for user %d episode %d: %w", userID, episodeID, err)
	}
	return &ue, nil
}

func (s *service) setLocation(ctx context.Context, userID, episodeID uint, apply func(*models.UserEpisode)) (*models.UserEpisode, error) {
	ue, err := s.findOrCreate(ctx, userID, episodeID)
	if err != nil {
		return nil, err
	}
	apply(ue)
	if err := s.db.WithContext(ctx).Save(ue).Error; err != nil {
		return nil, fmt.Errorf("saving user episode %d: %w", ue.ID, err)
	}
	return ue, nil
}
