package units

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

func setupStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "units.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Podcast{}, &models.Episode{}, &models.UserEpisode{}))
	return NewStore(db), db
}

func seedEpisode(t *testing.T, db *gorm.DB, guid string) *models.Episode {
	t.Helper()
	episode := &models.Episode{
		GUID:     guid,
		Title:    "Episode " + guid,
		AudioURL: "https://example.com/" + guid + ".mp3",
	}
	require.NoError(t, db.Create(episode).Error)
	return episode
}

func seedUserEpisode(t *testing.T, db *gorm.DB, episodeID uint) *models.UserEpisode {
	t.Helper()
	user := &models.User{Email: "tester@example.com", PasswordHash: "x"}
	require.NoError(t, db.FirstOrCreate(user, models.User{Email: user.Email}).Error)

	ue := &models.UserEpisode{UserID: user.ID, EpisodeID: episodeID, Location: models.LocationLibrary}
	require.NoError(t, db.Create(ue).Error)
	return ue
}

func TestGet_BothKinds(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()

	episode := seedEpisode(t, db, "guid-1")
	ue := seedUserEpisode(t, db, episode.ID)

	unit, err := store.Get(ctx, Ref{Kind: KindEpisode, ID: episode.ID})
	require.NoError(t, err)
	assert.Equal(t, episode.ID, unit.EpisodeID)
	assert.Equal(t, episode.AudioURL, unit.AudioURL)
	assert.Equal(t, models.ProcessingStatusPending, unit.State.ProcessingStatus)

	// User episode units resolve their audio URL through the episode
	unit, err = store.Get(ctx, Ref{Kind: KindUserEpisode, ID: ue.ID})
	require.NoError(t, err)
	assert.Equal(t, episode.ID, unit.EpisodeID)
	assert.Equal(t, episode.AudioURL, unit.AudioURL)

	_, err = store.Get(ctx, Ref{Kind: KindEpisode, ID: 9999})
	assert.ErrorIs(t, err, ErrUnitNotFound)

	_, err = store.Get(ctx, Ref{Kind: "playlist", ID: 1})
	assert.Error(t, err)
}

func TestStateTransitions(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()

	episode := seedEpisode(t, db, "guid-2")
	ref := Ref{Kind: KindEpisode, ID: episode.ID}
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SetStatus(ctx, ref, models.ProcessingStatusTranscribing))
	unit, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatusTranscribing, unit.State.ProcessingStatus)

	retryAt := now.Add(time.Minute)
	require.NoError(t, store.ScheduleRetry(ctx, ref, 1, retryAt, "Rate limited. Retrying 1/5", now))
	unit, err = store.Get(ctx, ref)
	require.NoError(t, err)
	// Status is untouched while the unit waits for its retry
	assert.Equal(t, models.ProcessingStatusTranscribing, unit.State.ProcessingStatus)
	assert.Equal(t, 1, unit.State.RetryCount)
	require.NotNil(t, unit.State.NextRetryAt)
	assert.WithinDuration(t, retryAt, *unit.State.NextRetryAt, time.Second)
	assert.Contains(t, unit.State.ProcessingError, "Retrying 1/5")

	require.NoError(t, store.MarkReady(ctx, ref))
	unit, err = store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatusReady, unit.State.ProcessingStatus)
	assert.Empty(t, unit.State.ProcessingError)
	assert.Zero(t, unit.State.RetryCount)
	assert.Nil(t, unit.State.NextRetryAt)

	require.NoError(t, store.MarkError(ctx, ref, "transcription failed (exceeded 5 retries)", now))
	unit, err = store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatusError, unit.State.ProcessingStatus)
	assert.Equal(t, "transcription failed (exceeded 5 retries)", unit.State.ProcessingError)
	require.NotNil(t, unit.State.LastErrorAt)

	require.NoError(t, store.ResetProcessing(ctx, ref))
	unit, err = store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatusPending, unit.State.ProcessingStatus)
	assert.Empty(t, unit.State.ProcessingError)
	assert.Nil(t, unit.State.LastErrorAt)
}

func TestUpdate_MissingUnit(t *testing.T) {
	store, _ := setupStore(t)
	err := store.MarkReady(context.Background(), Ref{Kind: KindEpisode, ID: 404})
	assert.ErrorIs(t, err, ErrUnitNotFound)
}

func TestFailStuck(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	cutoff := now.Add(-(30*time.Minute + time.Second))

	// Stuck: transcribing since 45 minutes ago, in both tables
	stuckEpisode := seedEpisode(t, db, "stuck-episode")
	stuckUE := seedUserEpisode(t, db, stuckEpisode.ID)
	backdate(t, db, &models.Episode{}, stuckEpisode.ID, models.ProcessingStatusTranscribing, now.Add(-45*time.Minute))
	backdate(t, db, &models.UserEpisode{}, stuckUE.ID, models.ProcessingStatusSummarizing, now.Add(-45*time.Minute))

	// Exactly 30 minutes old: not yet past the threshold
	boundary := seedEpisode(t, db, "boundary")
	backdate(t, db, &models.Episode{}, boundary.ID, models.ProcessingStatusTranscribing, now.Add(-30*time.Minute))

	// Old but not in flight: untouched
	pendingOld := seedEpisode(t, db, "pending-old")
	backdate(t, db, &models.Episode{}, pendingOld.ID, models.ProcessingStatusPending, now.Add(-2*time.Hour))
	readyOld := seedEpisode(t, db, "ready-old")
	backdate(t, db, &models.Episode{}, readyOld.ID, models.ProcessingStatusReady, now.Add(-2*time.Hour))

	counts, err := store.FailStuck(ctx, cutoff, "Processing timed out after 30 minutes", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[KindEpisode])
	assert.Equal(t, int64(1), counts[KindUserEpisode])

	var episode models.Episode
	require.NoError(t, db.First(&episode, stuckEpisode.ID).Error)
	assert.Equal(t, models.ProcessingStatusError, episode.ProcessingStatus)
	assert.Equal(t, "Processing timed out after 30 minutes", episode.ProcessingError)

	var ue models.UserEpisode
	require.NoError(t, db.First(&ue, stuckUE.ID).Error)
	assert.Equal(t, models.ProcessingStatusError, ue.ProcessingStatus)

	for _, id := range []uint{boundary.ID, pendingOld.ID, readyOld.ID} {
		var e models.Episode
		require.NoError(t, db.First(&e, id).Error)
		assert.NotEqual(t, models.ProcessingStatusError, e.ProcessingStatus, "episode %d must be untouched", id)
	}

	// Idempotent: a second sweep finds nothing
	counts, err = store.FailStuck(ctx, cutoff, "Processing timed out after 30 minutes", now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts[KindEpisode])
	assert.Equal(t, int64(0), counts[KindUserEpisode])
}

// backdate writes status and updated_at directly, bypassing gorm's
// automatic timestamp touch
func backdate(t *testing.T, db *gorm.DB, model interface{}, id uint, status models.ProcessingStatus, updatedAt time.Time) {
	t.Helper()
	err := db.Model(model).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"processing_status": status,
		"updated_at":        updatedAt,
	}).Error
	require.NoError(t, err)
}
