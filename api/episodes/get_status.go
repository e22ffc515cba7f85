package episodes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/dpaola2/show-notes/api/types"
)

// GetStatus returns just the processing state of an episode
func GetStatus(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		episode, ok := loadEpisode(c, deps)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"episode_id":        episode.ID,
			"processing_status": episode.ProcessingStatus,
			"processing_error":  episode.ProcessingError,
			"retry_count":       episode.RetryCount,
			"next_retry_at":     episode.NextRetryAt,
		})
	}
}
