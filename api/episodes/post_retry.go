package episodes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/dpaola2/show-notes/api/types"
	"github.com/dpaola2/show-notes/internal/services/units"
)

// PostRetry clears an episode's error state and enqueues a fresh
// pipeline run
func PostRetry(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		episode, ok := loadEpisode(c, deps)
		if !ok {
			return
		}

		ref := units.Ref{Kind: units.KindEpisode, ID: episode.ID}
		job, err := deps.Pipeline.RetryProcessing(c.Request.Context(), ref)
		if err != nil {
			log.Printf("[ERROR] Failed to retry processing for episode %d: %v", episode.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retry processing"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"episode_id": episode.ID,
			"job_id":     job.ID,
			"job_status": job.Status,
		})
	}
}
