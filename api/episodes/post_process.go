package episodes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/dpaola2/show-notes/api/types"
	"github.com/dpaola2/show-notes/internal/services/units"
)

// PostProcess enqueues the transcription and summarization pipeline for
// an episode. Idempotent: repeated calls while a job is queued or
// running return the live job instead of enqueueing another.
func PostProcess(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		episode, ok := loadEpisode(c, deps)
		if !ok {
			return
		}

		ref := units.Ref{Kind: units.KindEpisode, ID: episode.ID}
		job, err := deps.Pipeline.EnqueueProcessing(c.Request.Context(), ref)
		if err != nil {
			log.Printf("[ERROR] Failed to enqueue processing for episode %d: %v", episode.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue processing"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"episode_id": episode.ID,
			"job_id":     job.ID,
			"job_status": job.Status,
		})
	}
}
