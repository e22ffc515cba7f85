package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dpaola2/show-notes/internal/models"
)

func setupTestService(t *testing.T) Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "jobs.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}))
	return NewService(NewRepository(db))
}

func TestEnqueueAndClaim(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing, models.JobPayload{"unit": "episode/1"})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)

	claimed, err := svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeEpisodeProcessing})
	require.NoError(t, err)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, models.JobStatusProcessing, claimed.Status)
	assert.Equal(t, "worker-1", claimed.WorkerID)

	// Nothing else is claimable
	_, err = svc.ClaimNextJob(ctx, "worker-2", []models.JobType{models.JobTypeEpisodeProcessing})
	assert.ErrorIs(t, err, ErrNoJobsAvailable)
}

func TestClaimNextJob_SkipsFutureRunAt(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	// Job scheduled for the future stays invisible
	future := time.Now().Add(time.Hour)
	_, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing,
		models.JobPayload{"unit": "episode/1"}, WithRunAt(future))
	require.NoError(t, err)

	_, err = svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeEpisodeProcessing})
	assert.ErrorIs(t, err, ErrNoJobsAvailable)

	// Job whose run_at has passed is claimable
	past := time.Now().Add(-time.Second)
	due, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing,
		models.JobPayload{"unit": "episode/2"}, WithRunAt(past))
	require.NoError(t, err)

	claimed, err := svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeEpisodeProcessing})
	require.NoError(t, err)
	assert.Equal(t, due.ID, claimed.ID)
}

func TestClaimNextJob_PriorityAndFIFO(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	low, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing, models.JobPayload{"unit": "episode/1"})
	require.NoError(t, err)
	high, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing,
		models.JobPayload{"unit": "episode/2"}, WithPriority(10))
	require.NoError(t, err)

	first, err := svc.ClaimNextJob(ctx, "w", []models.JobType{models.JobTypeEpisodeProcessing})
	require.NoError(t, err)
	assert.Equal(t, high.ID, first.ID, "higher priority claims first")

	second, err := svc.ClaimNextJob(ctx, "w", []models.JobType{models.JobTypeEpisodeProcessing})
	require.NoError(t, err)
	assert.Equal(t, low.ID, second.ID)
}

func TestEnqueueUniqueJob(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	payload := models.JobPayload{"unit": "user_episode/42", "unit_kind": "user_episode", "unit_id": 42}

	first, err := svc.EnqueueUniqueJob(ctx, models.JobTypeEpisodeProcessing, payload, "unit")
	require.NoError(t, err)

	// Same unit while the first job is still live: no new job
	second, err := svc.EnqueueUniqueJob(ctx, models.JobTypeEpisodeProcessing, payload, "unit")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// After completion a new job may be enqueued
	require.NoError(t, svc.CompleteJob(ctx, first.ID, models.JobResult{"unit": "user_episode/42"}))
	third, err := svc.EnqueueUniqueJob(ctx, models.JobTypeEpisodeProcessing, payload, "unit")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestEnqueueUniqueJob_PromotesScheduledJob(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	payload := models.JobPayload{"unit": "episode/1", "unit_kind": "episode", "unit_id": 1}

	// A backoff retry waiting out its delay
	scheduled, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing, payload,
		WithRunAt(time.Now().Add(time.Hour)), WithCreatedBy("retry-scheduler"))
	require.NoError(t, err)

	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.ErrorIs(t, err, ErrNoJobsAvailable)

	// A direct enqueue for the same unit clears the schedule instead of
	// deduplicating into the remaining wait
	job, err := svc.EnqueueUniqueJob(ctx, models.JobTypeEpisodeProcessing, payload, "unit")
	require.NoError(t, err)
	assert.Equal(t, scheduled.ID, job.ID)
	assert.Nil(t, job.RunAt)

	claimed, err := svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	assert.Equal(t, scheduled.ID, claimed.ID)
}

func TestEnqueueUniqueJob_PendingBehindNewerTerminal(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	payload := models.JobPayload{"unit": "episode/9", "unit_kind": "episode", "unit_id": 9}

	pending, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing, payload)
	require.NoError(t, err)

	// A newer terminal job for the same unit must not shadow the live one
	done, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing, payload)
	require.NoError(t, err)
	repo := svc.(*service).repo.(*repository)
	require.NoError(t, repo.db.Model(&models.Job{}).Where("id = ?", done.ID).
		Updates(map[string]interface{}{
			"status":     models.JobStatusCompleted,
			"created_at": time.Now().Add(time.Minute),
		}).Error)

	dedup, err := svc.EnqueueUniqueJob(ctx, models.JobTypeEpisodeProcessing, payload, "unit")
	require.NoError(t, err)
	assert.Equal(t, pending.ID, dedup.ID)
}

func TestEnqueueUniqueJob_MissingKey(t *testing.T) {
	svc := setupTestService(t)
	_, err := svc.EnqueueUniqueJob(context.Background(), models.JobTypeEpisodeProcessing,
		models.JobPayload{"other": "x"}, "unit")
	assert.Error(t, err)
}

func TestReleaseJob(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing, models.JobPayload{"unit": "episode/1"})
	require.NoError(t, err)

	claimed, err := svc.ClaimNextJob(ctx, "worker-1", nil)
	require.NoError(t, err)
	require.Equal(t, job.ID, claimed.ID)

	require.NoError(t, svc.ReleaseJob(ctx, job.ID))

	released, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, released.Status)
	assert.Empty(t, released.WorkerID)
	assert.Nil(t, released.StartedAt)

	// A released job can be claimed again
	reclaimed, err := svc.ClaimNextJob(ctx, "worker-2", nil)
	require.NoError(t, err)
	assert.Equal(t, job.ID, reclaimed.ID)
	assert.Equal(t, "worker-2", reclaimed.WorkerID)

	// Releasing a job that is not processing fails
	require.NoError(t, svc.CompleteJob(ctx, job.ID, nil))
	assert.ErrorIs(t, svc.ReleaseJob(ctx, job.ID), ErrJobNotFound)
}

func TestFailJob_RetriesThenPermanent(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing,
		models.JobPayload{"unit": "episode/1"}, WithMaxRetries(2))
	require.NoError(t, err)

	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	require.NoError(t, svc.FailJob(ctx, job.ID, assert.AnError))

	failed, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, failed.Status)
	assert.Equal(t, 1, failed.RetryCount)

	// Failed-but-retryable jobs are claimable again; the claim bumps the count
	reclaimed, err := svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	require.Equal(t, job.ID, reclaimed.ID)

	require.NoError(t, svc.FailJob(ctx, job.ID, assert.AnError))
	final, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPermanentlyFailed, final.Status)

	_, err = svc.ClaimNextJob(ctx, "w", nil)
	assert.ErrorIs(t, err, ErrNoJobsAvailable)
}

func TestFailJobWithDetails(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing, models.JobPayload{"unit": "episode/1"})
	require.NoError(t, err)
	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)

	err = svc.FailJobWithDetails(ctx, job.ID, models.ErrorTypeTranscription,
		"TRANSCRIPTION_FAILED", "transcription failed for unit episode/1", "status 500")
	require.NoError(t, err)

	failed, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.ErrorTypeTranscription), failed.ErrorType)
	assert.Equal(t, "TRANSCRIPTION_FAILED", failed.ErrorCode)
	assert.Equal(t, "status 500", failed.ErrorDetails)
}

func TestCleanupOldJobs(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	old, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing, models.JobPayload{"unit": "episode/1"})
	require.NoError(t, err)
	require.NoError(t, svc.CompleteJob(ctx, old.ID, nil))

	// Backdate the completed job past the retention window
	repo := svc.(*service).repo.(*repository)
	require.NoError(t, repo.db.Model(&models.Job{}).Where("id = ?", old.ID).
		Update("created_at", time.Now().AddDate(0, 0, -10)).Error)

	// A live pending job in the same window is not touched
	pending, err := svc.EnqueueJob(ctx, models.JobTypeEpisodeProcessing, models.JobPayload{"unit": "episode/2"})
	require.NoError(t, err)
	require.NoError(t, repo.db.Model(&models.Job{}).Where("id = ?", pending.ID).
		Update("created_at", time.Now().AddDate(0, 0, -10)).Error)

	deleted, err := svc.CleanupOldJobs(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = svc.GetJob(ctx, old.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = svc.GetJob(ctx, pending.ID)
	assert.NoError(t, err)

	_, err = svc.CleanupOldJobs(ctx, 0)
	assert.Error(t, err)
}
