package types

import (
	"github.com/dpaola2/show-notes/internal/database"
	"github.com/dpaola2/show-notes/internal/services/episodes"
	"github.com/dpaola2/show-notes/internal/services/jobs"
	"github.com/dpaola2/show-notes/internal/services/library"
	"github.com/dpaola2/show-notes/internal/services/processing"
	"github.com/dpaola2/show-notes/internal/services/workers"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB             *database.DB
	EpisodeService episodes.EpisodeService
	LibraryService library.Service
	Pipeline       processing.Service
	JobService     jobs.Service
	WorkerPool     *workers.WorkerPool
}
