package library

import (
	"context"

	"github.com/dpaola2/show-notes/internal/models"
)

// Service manages a user's episode collection. Moving an episode into
// the library is what kicks off transcription and summarization.
type Service interface {
	MoveToLibrary(ctx context.Context, userID, episodeID uint) (*models.UserEpisode, *models.Job, error)
	MoveToArchive(ctx context.Context, userID, episodeID uint) (*models.UserEpisode, error)
	MoveToTrash(ctx context.Context, userID, episodeID uint) (*models.UserEpisode, error)
	GetUserEpisode(ctx context.Context, id uint) (*models.UserEpisode, error)
	ListByLocation(ctx context.Context, userID uint, location models.Location) ([]models.UserEpisode, error)
}
