package processing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dpaola2/show-notes/internal/models"
	"github.com/dpaola2/show-notes/internal/services/anthropic"
	"github.com/dpaola2/show-notes/internal/services/assemblyai"
	"github.com/dpaola2/show-notes/internal/services/episodes"
	"github.com/dpaola2/show-notes/internal/services/jobs"
	"github.com/dpaola2/show-notes/internal/services/throttle"
	"github.com/dpaola2/show-notes/internal/services/units"
)

const (
	// MaxRetries is the ceiling on rate-limit retries per unit
	MaxRetries = 5

	// BaseDelay is the first retry delay; each subsequent retry doubles it
	BaseDelay = 60 * time.Second
)

// ErrThrottled signals that no transcription slot was available. The
// worker releases the job back to the queue instead of failing it.
var ErrThrottled = errors.New("transcription concurrency limit reached")

// Orchestrator drives a processing unit through the
// pending -> transcribing -> summarizing -> ready pipeline
type Orchestrator struct {
	units       units.Store
	episodes    episodes.EpisodeService
	transcriber Transcriber
	summarizer  Summarizer
	limiter     *throttle.Limiter
	jobService  jobs.Service
	notifier    Notifier

	maxRetries int
	baseDelay  time.Duration
	now        func() time.Time
}

// OrchestratorConfig carries the orchestrator's collaborators.
// MaxRetries and BaseDelay default to the package constants when zero.
type OrchestratorConfig struct {
	Units       units.Store
	Episodes    episodes.EpisodeService
	Transcriber Transcriber
	Summarizer  Summarizer
	Limiter     *throttle.Limiter
	Jobs        jobs.Service
	Notifier    Notifier
	MaxRetries  int
	BaseDelay   time.Duration
	Now         func() time.Time
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	o := &Orchestrator{
		units:       cfg.Units,
		episodes:    cfg.Episodes,
		transcriber: cfg.Transcriber,
		summarizer:  cfg.Summarizer,
		limiter:     cfg.Limiter,
		jobService:  cfg.Jobs,
		notifier:    cfg.Notifier,
		maxRetries:  cfg.MaxRetries,
		baseDelay:   cfg.BaseDelay,
		now:         cfg.Now,
	}
	if o.maxRetries <= 0 {
		o.maxRetries = MaxRetries
	}
	if o.baseDelay <= 0 {
		o.baseDelay = BaseDelay
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.notifier == nil {
		o.notifier = NopNotifier{}
	}
	return o
}

// Process runs the pipeline for one unit. Stages already satisfied by an
// existing transcript or summary are skipped, so a retried or re-enqueued
// unit resumes where it left off rather than repeating paid API calls.
//
// Returns ErrThrottled when every transcription slot is taken; the caller
// should release the job back to the queue. Returns nil both on success
// and on handled failures (the unit's own status records those). Any
// other error is a system fault (database unreachable, unit missing).
func (o *Orchestrator) Process(ctx context.Context, ref units.Ref) error {
	unit, err := o.units.Get(ctx, ref)
	if err != nil {
		return fmt.Errorf("loading unit %s: %w", ref, err)
	}

	hasTranscript, hasSummary, err := o.episodes.HasArtifacts(ctx, unit.EpisodeID)
	if err != nil {
		return fmt.Errorf("checking artifacts for episode %d: %w", unit.EpisodeID, err)
	}

	if hasTranscript && hasSummary {
		log.Printf("[INFO] Unit %s: transcript and summary already exist, marking ready", ref)
		return o.units.MarkReady(ctx, ref)
	}

	if !hasTranscript {
		done, err := o.transcribe(ctx, unit)
		if err != nil || !done {
			return err
		}
	}

	transcript, err := o.episodes.GetTranscript(ctx, unit.EpisodeID)
	if err != nil {
		return fmt.Errorf("loading transcript for episode %d: %w", unit.EpisodeID, err)
	}
	if transcript == nil {
		return fmt.Errorf("episode %d has no transcript after transcription stage", unit.EpisodeID)
	}

	if !hasSummary {
		done, err := o.summarize(ctx, unit, transcript.Content)
		if err != nil || !done {
			return err
		}
	}

	if err := o.units.MarkReady(ctx, ref); err != nil {
		return fmt.Errorf("marking unit %s ready: %w", ref, err)
	}
	log.Printf("[INFO] Unit %s: processing complete", ref)
	return nil
}

// transcribe runs the transcription stage under the concurrency limit.
// Returns done=false with a nil error when the failure was handled by
// scheduling a retry or marking the unit errored.
func (o *Orchestrator) transcribe(ctx context.Context, unit *units.Unit) (bool, error) {
	release, ok := o.limiter.TryAcquire(throttle.KeyTranscription)
	if !ok {
		log.Printf("[DEBUG] Unit %s: all %d transcription slots busy, returning job to queue",
			unit.Ref, o.limiter.Limit(throttle.KeyTranscription))
		return false, ErrThrottled
	}
	defer release()

	// Another worker may have produced the transcript while this unit
	// waited in the queue; check again before paying for the API call.
	existing, err := o.episodes.GetTranscript(ctx, unit.EpisodeID)
	if err != nil {
		return false, fmt.Errorf("checking transcript for episode %d: %w", unit.EpisodeID, err)
	}
	if existing != nil {
		return true, nil
	}

	if err := o.units.SetStatus(ctx, unit.Ref, models.ProcessingStatusTranscribing); err != nil {
		return false, fmt.Errorf("setting unit %s transcribing: %w", unit.Ref, err)
	}

	log.Printf("[INFO] Unit %s: transcribing episode %d", unit.Ref, unit.EpisodeID)
	result, err := o.transcriber.Transcribe(ctx, unit.AudioURL)
	if err != nil {
		return false, o.handleFailure(ctx, unit, "transcription", err)
	}

	content, err := result.JSON()
	if err != nil {
		return false, o.failUnit(ctx, unit.Ref, fmt.Errorf("encoding transcript: %w", err))
	}

	if _, err := o.episodes.CreateTranscript(ctx, unit.EpisodeID, content); err != nil {
		return false, fmt.Errorf("saving transcript for episode %d: %w", unit.EpisodeID, err)
	}
	return true, nil
}

// summarize runs the summarization stage. Same done/error contract as
// transcribe.
func (o *Orchestrator) summarize(ctx context.Context, unit *units.Unit, transcript string) (bool, error) {
	// Re-check for the same reason as the transcription stage
	existing, err := o.episodes.GetSummary(ctx, unit.EpisodeID)
	if err != nil {
		return false, fmt.Errorf("checking summary for episode %d: %w", unit.EpisodeID, err)
	}
	if existing != nil {
		return true, nil
	}

	if err := o.units.SetStatus(ctx, unit.Ref, models.ProcessingStatusSummarizing); err != nil {
		return false, fmt.Errorf("setting unit %s summarizing: %w", unit.Ref, err)
	}

	log.Printf("[INFO] Unit %s: summarizing episode %d", unit.Ref, unit.EpisodeID)
	result, err := o.summarizer.SummarizeChunked(ctx, transcript)
	if err != nil {
		return false, o.handleFailure(ctx, unit, "summarization", err)
	}

	created, err := o.episodes.CreateSummary(ctx, unit.EpisodeID, result.Sections, result.Quotes)
	if err != nil {
		return false, fmt.Errorf("saving summary for episode %d: %w", unit.EpisodeID, err)
	}
	if created {
		o.notifier.SummaryReady(ctx, unit.EpisodeID)
	}
	return true, nil
}

// handleFailure resolves a stage failure. Rate-limit errors schedule an
// exponential-backoff retry until the ceiling is hit; anything else is
// terminal. Always returns nil unless recording the outcome itself fails.
func (o *Orchestrator) handleFailure(ctx context.Context, unit *units.Unit, stage string, cause error) error {
	if !isRetryable(cause) {
		log.Printf("[ERROR] Unit %s: %s failed permanently: %v", unit.Ref, stage, cause)
		return o.failUnit(ctx, unit.Ref, cause)
	}

	now := o.now()
	newCount := unit.State.RetryCount + 1
	if newCount > o.maxRetries {
		msg := fmt.Sprintf("%s error: %v (exceeded %d retries)", stage, cause, o.maxRetries)
		log.Printf("[ERROR] Unit %s: %s", unit.Ref, msg)
		return o.units.MarkError(ctx, unit.Ref, msg, now)
	}

	delay := o.baseDelay * (1 << (newCount - 1))
	nextAt := now.Add(delay)
	msg := fmt.Sprintf("Rate limited during %s: %v. Retrying %d/%d", stage, cause, newCount, o.maxRetries)
	log.Printf("[WARN] Unit %s: %s (next attempt in %s)", unit.Ref, msg, delay)

	if err := o.units.ScheduleRetry(ctx, unit.Ref, newCount, nextAt, msg, now); err != nil {
		return fmt.Errorf("scheduling retry for unit %s: %w", unit.Ref, err)
	}

	// The unit keeps its in-flight status while it waits; the delayed job
	// is what brings it back
	_, err := o.jobService.EnqueueJob(ctx, models.JobTypeEpisodeProcessing, payloadFor(unit.Ref),
		jobs.WithRunAt(nextAt), jobs.WithCreatedBy("retry-scheduler"))
	if err != nil {
		return fmt.Errorf("enqueueing retry for unit %s: %w", unit.Ref, err)
	}
	return nil
}

func (o *Orchestrator) failUnit(ctx context.Context, ref units.Ref, cause error) error {
	return o.units.MarkError(ctx, ref, truncateMessage(cause.Error(), 1000), o.now())
}

// isRetryable reports whether the failure is transient. Only the
// upstream rate-limit responses qualify; malformed output, failed
// transcriptions, and everything else would fail identically on retry.
func isRetryable(err error) bool {
	return errors.Is(err, assemblyai.ErrRateLimited) || errors.Is(err, anthropic.ErrRateLimited)
}

func truncateMessage(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
