package workers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dpaola2/show-notes/internal/models"
	"github.com/dpaola2/show-notes/internal/services/anthropic"
	"github.com/dpaola2/show-notes/internal/services/assemblyai"
	"github.com/dpaola2/show-notes/internal/services/jobs"
	"github.com/dpaola2/show-notes/internal/services/processing"
	"github.com/dpaola2/show-notes/internal/services/units"
)

// stubPipeline satisfies processing.Service with a scripted Process result
type stubPipeline struct {
	processErr error
	processed  []units.Ref
}

func (s *stubPipeline) EnqueueProcessing(ctx context.Context, ref units.Ref) (*models.Job, error) {
	return nil, errors.New("not used")
}

func (s *stubPipeline) RetryProcessing(ctx context.Context, ref units.Ref) (*models.Job, error) {
	return nil, errors.New("not used")
}

func (s *stubPipeline) Process(ctx context.Context, ref units.Ref) error {
	s.processed = append(s.processed, ref)
	return s.processErr
}

func setupWorkerTest(t *testing.T) (jobs.Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "workers.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}))
	return jobs.NewService(jobs.NewRepository(db)), db
}

func enqueueUnitJob(t *testing.T, svc jobs.Service, kind string, id uint) *models.Job {
	t.Helper()
	job, err := svc.EnqueueJob(context.Background(), models.JobTypeEpisodeProcessing, models.JobPayload{
		processing.PayloadUnit:     fmt.Sprintf("%s/%d", kind, id),
		processing.PayloadUnitKind: kind,
		processing.PayloadUnitID:   id,
	})
	require.NoError(t, err)
	return job
}

func jobByID(t *testing.T, db *gorm.DB, id uint) models.Job {
	t.Helper()
	var job models.Job
	require.NoError(t, db.First(&job, id).Error)
	return job
}

func TestEpisodeProcessor_ProcessJob(t *testing.T) {
	jobService, db := setupWorkerTest(t)
	ctx := context.Background()
	pipeline := &stubPipeline{}
	processor := NewEpisodeProcessor(pipeline, jobService)

	job := enqueueUnitJob(t, jobService, "episode", 42)
	claimed, err := jobService.ClaimNextJob(ctx, "worker-test", processor.JobTypes())
	require.NoError(t, err)

	require.NoError(t, processor.ProcessJob(ctx, claimed))

	assert.Equal(t, []units.Ref{{Kind: units.KindEpisode, ID: 42}}, pipeline.processed)
	stored := jobByID(t, db, job.ID)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
	assert.Equal(t, "episode/42", stored.Result["unit"])
}

func TestEpisodeProcessor_ThrottledPassesThrough(t *testing.T) {
	jobService, _ := setupWorkerTest(t)
	ctx := context.Background()
	pipeline := &stubPipeline{processErr: processing.ErrThrottled}
	processor := NewEpisodeProcessor(pipeline, jobService)

	enqueueUnitJob(t, jobService, "episode", 1)
	claimed, err := jobService.ClaimNextJob(ctx, "worker-test", processor.JobTypes())
	require.NoError(t, err)

	err = processor.ProcessJob(ctx, claimed)
	assert.ErrorIs(t, err, processing.ErrThrottled)
}

func TestEpisodeProcessor_InvalidPayload(t *testing.T) {
	jobService, _ := setupWorkerTest(t)
	processor := NewEpisodeProcessor(&stubPipeline{}, jobService)

	err := processor.ProcessJob(context.Background(), &models.Job{Payload: models.JobPayload{"bogus": true}})
	require.Error(t, err)

	var structured *models.StructuredJobError
	require.ErrorAs(t, err, &structured)
	assert.Equal(t, models.ErrorTypeSystem, structured.Type)
	assert.Equal(t, "INVALID_PAYLOAD", structured.Code)
}

func TestEpisodeProcessor_ClassifiesFailures(t *testing.T) {
	cases := []struct {
		name     string
		cause    error
		wantType models.JobErrorType
		wantCode string
	}{
		{"transcription", fmt.Errorf("pipeline: %w", assemblyai.ErrTranscriptionFailed), models.ErrorTypeTranscription, "TRANSCRIPTION_FAILED"},
		{"summarization", fmt.Errorf("pipeline: %w", anthropic.ErrInvalidSummary), models.ErrorTypeSummarization, "SUMMARIZATION_FAILED"},
		{"system", errors.New("database locked"), models.ErrorTypeSystem, "PIPELINE_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			jobService, _ := setupWorkerTest(t)
			ctx := context.Background()
			processor := NewEpisodeProcessor(&stubPipeline{processErr: tc.cause}, jobService)

			enqueueUnitJob(t, jobService, "episode", 1)
			claimed, err := jobService.ClaimNextJob(ctx, "worker-test", processor.JobTypes())
			require.NoError(t, err)

			err = processor.ProcessJob(ctx, claimed)
			var structured *models.StructuredJobError
			require.ErrorAs(t, err, &structured)
			assert.Equal(t, tc.wantType, structured.Type)
			assert.Equal(t, tc.wantCode, structured.Code)
		})
	}
}

func TestWorker_ProcessNextJob(t *testing.T) {
	jobService, db := setupWorkerTest(t)
	ctx := context.Background()
	pipeline := &stubPipeline{}

	worker := NewWorker("worker-1", jobService, time.Millisecond)
	worker.RegisterProcessor(NewEpisodeProcessor(pipeline, jobService))

	job := enqueueUnitJob(t, jobService, "user_episode", 7)
	require.NoError(t, worker.processNextJob(ctx))

	assert.Equal(t, []units.Ref{{Kind: units.KindUserEpisode, ID: 7}}, pipeline.processed)
	assert.Equal(t, models.JobStatusCompleted, jobByID(t, db, job.ID).Status)

	// Empty queue is not an error
	require.NoError(t, worker.processNextJob(ctx))
}

func TestWorker_ThrottledJobIsReleased(t *testing.T) {
	jobService, db := setupWorkerTest(t)
	ctx := context.Background()
	pipeline := &stubPipeline{processErr: processing.ErrThrottled}

	worker := NewWorker("worker-1", jobService, time.Millisecond)
	worker.RegisterProcessor(NewEpisodeProcessor(pipeline, jobService))

	job := enqueueUnitJob(t, jobService, "episode", 3)
	require.NoError(t, worker.processNextJob(ctx))

	stored := jobByID(t, db, job.ID)
	assert.Equal(t, models.JobStatusPending, stored.Status)
	assert.Empty(t, stored.WorkerID)
	assert.Zero(t, stored.RetryCount, "a released job burns no retry")
}

func TestWorker_FailedJobRecordsClassification(t *testing.T) {
	jobService, db := setupWorkerTest(t)
	ctx := context.Background()
	pipeline := &stubPipeline{processErr: fmt.Errorf("pipeline: %w", assemblyai.ErrTranscriptionFailed)}

	worker := NewWorker("worker-1", jobService, time.Millisecond)
	worker.RegisterProcessor(NewEpisodeProcessor(pipeline, jobService))

	job := enqueueUnitJob(t, jobService, "episode", 3)
	err := worker.processNextJob(ctx)
	require.Error(t, err)

	stored := jobByID(t, db, job.ID)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
	assert.Equal(t, string(models.ErrorTypeTranscription), stored.ErrorType)
	assert.Equal(t, "TRANSCRIPTION_FAILED", stored.ErrorCode)
}

func TestWorker_NoProcessors(t *testing.T) {
	jobService, _ := setupWorkerTest(t)
	worker := NewWorker("worker-1", jobService, time.Millisecond)
	assert.Error(t, worker.processNextJob(context.Background()))
}

func TestWorkerPool_StartStop(t *testing.T) {
	jobService, _ := setupWorkerTest(t)
	pool := NewWorkerPool(jobService, 2, 10*time.Millisecond)
	pool.RegisterProcessor(NewEpisodeProcessor(&stubPipeline{}, jobService))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, pool.Start(ctx))
	assert.Error(t, pool.Start(ctx), "double start is rejected")
	pool.Stop()
	pool.Stop()
}