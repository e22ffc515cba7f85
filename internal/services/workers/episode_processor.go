package workers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dpaola2/show-notes/internal/models"
	"github.com/dpaola2/show-notes/internal/services/anthropic"
	"github.com/dpaola2/show-notes/internal/services/assemblyai"
	"github.com/dpaola2/show-notes/internal/services/jobs"
	"github.com/dpaola2/show-notes/internal/services/processing"
)

// EpisodeProcessor handles episode_processing jobs by handing the unit
// to the processing orchestrator
type EpisodeProcessor struct {
	pipeline   processing.Service
	jobService jobs.Service
}

// NewEpisodeProcessor creates a processor for episode processing jobs
func NewEpisodeProcessor(pipeline processing.Service, jobService jobs.Service) *EpisodeProcessor {
	return &EpisodeProcessor{
		pipeline:   pipeline,
		jobService: jobService,
	}
}

// CanProcess returns true if this processor handles the job type
func (p *EpisodeProcessor) CanProcess(jobType models.JobType) bool {
	return jobType == models.JobTypeEpisodeProcessing
}

// JobTypes returns the job types this processor handles
func (p *EpisodeProcessor) JobTypes() []models.JobType {
	return []models.JobType{models.JobTypeEpisodeProcessing}
}

// ProcessJob runs the pipeline for the unit named in the job payload.
// ErrThrottled passes through untouched so the worker can release the
// job instead of failing it.
func (p *EpisodeProcessor) ProcessJob(ctx context.Context, job *models.Job) error {
	ref, err := processing.RefFromJob(job)
	if err != nil {
		return models.NewSystemError("INVALID_PAYLOAD", "job payload does not name a processing unit", err.Error(), err)
	}

	log.Printf("[INFO] Job %d: processing unit %s", job.ID, ref)

	if err := p.pipeline.Process(ctx, ref); err != nil {
		if errors.Is(err, processing.ErrThrottled) {
			return err
		}
		return p.wrapFailure(ref.String(), err)
	}

	result := models.JobResult{"unit": ref.String()}
	if err := p.jobService.CompleteJob(ctx, job.ID, result); err != nil {
		return fmt.Errorf("completing job %d: %w", job.ID, err)
	}
	return nil
}

// wrapFailure classifies a pipeline error for the job record. The
// unit's own processing_error already holds the user-facing message;
// this is operator-facing detail.
func (p *EpisodeProcessor) wrapFailure(unit string, err error) error {
	switch {
	case errors.Is(err, assemblyai.ErrRateLimited), errors.Is(err, assemblyai.ErrTranscriptionFailed):
		return models.NewTranscriptionError("TRANSCRIPTION_FAILED", fmt.Sprintf("transcription failed for unit %s", unit), err.Error(), err)
	case errors.Is(err, anthropic.ErrRateLimited), errors.Is(err, anthropic.ErrInvalidSummary):
		return models.NewSummarizationError("SUMMARIZATION_FAILED", fmt.Sprintf("summarization failed for unit %s", unit), err.Error(), err)
	default:
		return models.NewSystemError("PIPELINE_ERROR", fmt.Sprintf("processing failed for unit %s", unit), err.Error(), err)
	}
}
