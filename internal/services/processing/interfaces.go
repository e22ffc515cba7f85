package processing

import (
	"context"

	"github.com/dpaola2/show-notes/internal/models"
	"github.com/dpaola2/show-notes/internal/services/anthropic"
	"github.com/dpaola2/show-notes/internal/services/assemblyai"
	"github.com/dpaola2/show-notes/internal/services/units"
)

// Transcriber converts an audio URL into a timestamped transcript
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (*assemblyai.Transcript, error)
}

// Summarizer converts a transcript document into sections and quotes,
// chunking internally when the transcript exceeds one model context
type Summarizer interface {
	SummarizeChunked(ctx context.Context, transcript string) (*anthropic.Summary, error)
}

// Notifier receives the completion notification emitted once per episode
// when its summary is first created. The OG-image generator subscribes
// here; the pipeline itself only guarantees the single emission.
type Notifier interface {
	SummaryReady(ctx context.Context, episodeID uint)
}

// Service is the pipeline surface exposed to collaborators (request
// handlers, feed ingestion)
type Service interface {
	// EnqueueProcessing schedules a pipeline run for the unit. Idempotent:
	// a unit with a live queued or running job is not enqueued again.
	EnqueueProcessing(ctx context.Context, ref units.Ref) (*models.Job, error)

	// RetryProcessing resets the unit's error/retry fields and enqueues a
	// fresh pipeline run
	RetryProcessing(ctx context.Context, ref units.Ref) (*models.Job, error)

	// Process drives one unit through the pipeline; called by workers
	Process(ctx context.Context, ref units.Ref) error
}
