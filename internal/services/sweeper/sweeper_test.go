package sweeper

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
	"github.com/dpaola2/show-notes/internal/services/jobs"
	"github.com/dpaola2/show-notes/internal/services/units"
)

func setupSweeper(t *testing.T, now time.Time) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sweeper.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Podcast{}, &models.Episode{}, &models.UserEpisode{}, &models.Job{}))

	svc := NewService(Config{
		Units: units.NewStore(db),
		Jobs:  jobs.NewService(jobs.NewRepository(db)),
		Now:   func() time.Time { return now },
	})
	return svc, db
}

func createEpisodeAt(t *testing.T, db *gorm.DB, guid string, status models.ProcessingStatus, updatedAt time.Time) uint {
	t.Helper()
	episode := &models.Episode{
		GUID:     guid,
		Title:    guid,
		AudioURL: "https://example.com/" + guid + ".mp3",
	}
	require.NoError(t, db.Create(episode).Error)
	err := db.Model(&models.Episode{}).Where("id = ?", episode.ID).UpdateColumns(map[string]interface{}{
		"processing_status": status,
		"updated_at":        updatedAt,
	}).Error
	require.NoError(t, err)
	return episode.ID
}

func episodeByID(t *testing.T, db *gorm.DB, id uint) models.Episode {
	t.Helper()
	var episode models.Episode
	require.NoError(t, db.First(&episode, id).Error)
	return episode
}

func TestSweepStuck(t *testing.T) {
	now := time.Now().UTC()
	svc, db := setupSweeper(t, now)

	stuck := createEpisodeAt(t, db, "stuck", models.ProcessingStatusTranscribing, now.Add(-31*time.Minute))
	boundary := createEpisodeAt(t, db, "boundary", models.ProcessingStatusSummarizing, now.Add(-30*time.Minute))
	fresh := createEpisodeAt(t, db, "fresh", models.ProcessingStatusTranscribing, now.Add(-1*time.Minute))
	alreadyErrored := createEpisodeAt(t, db, "errored", models.ProcessingStatusError, now.Add(-2*time.Hour))

	counts, err := svc.SweepStuck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[units.KindEpisode])
	assert.Equal(t, int64(0), counts[units.KindUserEpisode])

	swept := episodeByID(t, db, stuck)
	assert.Equal(t, models.ProcessingStatusError, swept.ProcessingStatus)
	assert.Equal(t, StuckMessage, swept.ProcessingError)
	require.NotNil(t, swept.LastErrorAt)
	assert.WithinDuration(t, now, *swept.LastErrorAt, time.Second)

	// At exactly thirty minutes the unit stays alive
	assert.Equal(t, models.ProcessingStatusSummarizing, episodeByID(t, db, boundary).ProcessingStatus)
	assert.Equal(t, models.ProcessingStatusTranscribing, episodeByID(t, db, fresh).ProcessingStatus)
	assert.Empty(t, episodeByID(t, db, alreadyErrored).ProcessingError)
}

func TestSweepStuck_Idempotent(t *testing.T) {
	now := time.Now().UTC()
	svc, db := setupSweeper(t, now)

	id := createEpisodeAt(t, db, "stuck", models.ProcessingStatusTranscribing, now.Add(-time.Hour))

	_, err := svc.SweepStuck(context.Background())
	require.NoError(t, err)
	first := episodeByID(t, db, id)

	counts, err := svc.SweepStuck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts[units.KindEpisode])

	second := episodeByID(t, db, id)
	assert.Equal(t, first.ProcessingError, second.ProcessingError)
	assert.Equal(t, first.LastErrorAt.Unix(), second.LastErrorAt.Unix())
}

func TestSweep_PrunesOldJobs(t *testing.T) {
	now := time.Now().UTC()
	svc, db := setupSweeper(t, now)
	ctx := context.Background()

	old := &models.Job{Type: models.JobTypeEpisodeProcessing, Status: models.JobStatusCompleted}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Model(old).UpdateColumn("created_at", now.AddDate(0, 0, -10)).Error)

	pending := &models.Job{Type: models.JobTypeEpisodeProcessing, Status: models.JobStatusPending}
	require.NoError(t, db.Create(pending).Error)

	svc.sweep(ctx)

	var count int64
	require.NoError(t, db.Model(&models.Job{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "only the live pending job remains")
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(Config{})
	assert.Equal(t, StuckThreshold, svc.threshold)
	assert.Equal(t, DefaultSweepInterval, svc.interval)
	assert.Equal(t, DefaultJobRetentionDays, svc.jobRetentionDays)
}
