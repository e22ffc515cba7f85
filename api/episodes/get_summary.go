package episodes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/dpaola2/show-notes/api/types"
)

// GetSummary returns the stored summary for an episode
func GetSummary(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		episode, ok := loadEpisode(c, deps)
		if !ok {
			return
		}

		summary, err := deps.EpisodeService.GetSummary(c.Request.Context(), episode.ID)
		if err != nil {
			log.Printf("[ERROR] Failed to fetch summary for episode %d: %v", episode.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch summary"})
			return
		}
		if summary == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Summary not available"})
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}
