package episodes

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/dpaola2/show-notes/api/types"
	"github.com/dpaola2/show-notes/internal/models"
	episodesService "github.com/dpaola2/show-notes/internal/services/episodes"
)

// GetByID returns a single episode with its processing state
func GetByID(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		episode, ok := loadEpisode(c, deps)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"episode":              episode,
			"estimated_cost_cents": episode.EstimatedCostCents(),
		})
	}
}

// loadEpisode parses the :id param and fetches the episode, writing the
// error response itself when anything goes wrong
func loadEpisode(c *gin.Context, deps *types.Dependencies) (*models.Episode, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid episode ID"})
		return nil, false
	}

	episode, err := deps.EpisodeService.GetEpisodeByID(c.Request.Context(), uint(id))
	if err != nil {
		if episodesService.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Episode not found"})
		} else {
			log.Printf("[ERROR] Failed to fetch episode %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch episode"})
		}
		return nil, false
	}
	return episode, true
}
