package episodes

import (
	"context"
	"log"

	"github.com/dpaola2/show-notes/internal/models"
)

// Service implements the EpisodeService interface
type Service struct {
	repository EpisodeRepository
}

// Ensure Service implements EpisodeService interface
var _ EpisodeService = (*Service)(nil)

// NewService creates a new episode service
func NewService(repository EpisodeRepository) *Service {
	return &Service{repository: repository}
}

func (s *Service) GetEpisodeByID(ctx context.Context, id uint) (*models.Episode, error) {
	return s.repository.GetEpisodeByID(ctx, id)
}

func (s *Service) GetEpisodeByGUID(ctx context.Context, guid string) (*models.Episode, error) {
	return s.repository.GetEpisodeByGUID(ctx, guid)
}

func (s *Service) GetTranscript(ctx context.Context, episodeID uint) (*models.Transcript, error) {
	return s.repository.GetTranscriptByEpisodeID(ctx, episodeID)
}

func (s *Service) GetSummary(ctx context.Context, episodeID uint) (*models.Summary, error) {
	return s.repository.GetSummaryByEpisodeID(ctx, episodeID)
}

// HasArtifacts reports which processing artifacts already exist for the
// episode. Both present means any unit referencing the episode can go
// straight to ready.
func (s *Service) HasArtifacts(ctx context.Context, episodeID uint) (bool, bool, error) {
	transcript, err := s.repository.GetTranscriptByEpisodeID(ctx, episodeID)
	if err != nil {
		return false, false, err
	}
	summary, err := s.repository.GetSummaryByEpisodeID(ctx, episodeID)
	if err != nil {
		return false, false, err
	}
	return transcript != nil, summary != nil, nil
}

func (s *Service) CreateTranscript(ctx context.Context, episodeID uint, content string) (bool, error) {
	created, err := s.repository.CreateTranscriptIfAbsent(ctx, &models.Transcript{
		EpisodeID: episodeID,
		Content:   content,
	})
	if err != nil {
		return false, err
	}
	if !created {
		log.Printf("[DEBUG] Transcript for episode %d already exists, skipping create", episodeID)
	}
	return created, nil
}

func (s *Service) CreateSummary(ctx context.Context, episodeID uint, sections models.SummarySections, quotes models.SummaryQuotes) (bool, error) {
	created, err := s.repository.CreateSummaryIfAbsent(ctx, &models.Summary{
		EpisodeID: episodeID,
		Sections:  sections,
		Quotes:    quotes,
	})
	if err != nil {
		return false, err
	}
	if !created {
		log.Printf("[DEBUG] Summary for episode %d already exists, skipping create", episodeID)
	}
	return created, nil
}
