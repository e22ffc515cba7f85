package episodes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/dpaola2/show-notes/api/types"
)

// GetTranscript returns the stored transcript for an episode
func GetTranscript(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		episode, ok := loadEpisode(c, deps)
		if !ok {
			return
		}

		transcript, err := deps.EpisodeService.GetTranscript(c.Request.Context(), episode.ID)
		if err != nil {
			log.Printf("[ERROR] Failed to fetch transcript for episode %d: %v", episode.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transcript"})
			return
		}
		if transcript == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transcript not available"})
			return
		}

		c.JSON(http.StatusOK, transcript)
	}
}
