package library

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/dpaola2/show-notes/api/types"
	"github.com/dpaola2/show-notes/internal/models"
	libraryService "github.com/dpaola2/show-notes/internal/services/library"
)

type moveKind int

const (
	moveLibrary moveKind = iota
	moveArchive
	moveTrash
)

// moveRequest identifies the episode being filed
type moveRequest struct {
	UserID    uint `json:"user_id" binding:"required"`
	EpisodeID uint `json:"episode_id" binding:"required"`
}

// PostMove files an episode under the location implied by the route.
// Moving to the library additionally enqueues the processing pipeline.
func PostMove(deps *types.Dependencies, kind moveKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req moveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and episode_id are required"})
			return
		}

		ctx := c.Request.Context()
		switch kind {
		case moveLibrary:
			ue, job, err := deps.LibraryService.MoveToLibrary(ctx, req.UserID, req.EpisodeID)
			if err != nil {
				log.Printf("[ERROR] Failed to move episode %d to library for user %d: %v", req.EpisodeID, req.UserID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move episode to library"})
				return
			}
			c.JSON(http.StatusAccepted, gin.H{
				"user_episode": ue,
				"job_id":       job.ID,
				"job_status":   job.Status,
			})
		case moveArchive:
			ue, err := deps.LibraryService.MoveToArchive(ctx, req.UserID, req.EpisodeID)
			if err != nil {
				log.Printf("[ERROR] Failed to archive episode %d for user %d: %v", req.EpisodeID, req.UserID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive episode"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"user_episode": ue})
		case moveTrash:
			ue, err := deps.LibraryService.MoveToTrash(ctx, req.UserID, req.EpisodeID)
			if err != nil {
				log.Printf("[ERROR] Failed to trash episode %d for user %d: %v", req.EpisodeID, req.UserID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trash episode"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"user_episode": ue})
		}
	}
}

// List returns a user's episodes filtered by location (default library)
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
			return
		}

		location := models.Location(c.DefaultQuery("location", string(models.LocationLibrary)))
		switch location {
		case models.LocationInbox, models.LocationLibrary, models.LocationArchive, models.LocationTrash:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location"})
			return
		}

		list, err := deps.LibraryService.ListByLocation(c.Request.Context(), uint(userID), location)
		if err != nil {
			log.Printf("[ERROR] Failed to list %s for user %d: %v", location, userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list episodes"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"location": location,
			"episodes": list,
			"count":    len(list),
		})
	}
}

// GetUserEpisode returns a single user episode with its processing state
func GetUserEpisode(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user episode ID"})
			return
		}

		ue, err := deps.LibraryService.GetUserEpisode(c.Request.Context(), uint(id))
		if err != nil {
			if errors.Is(err, libraryService.ErrUserEpisodeNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User episode not found"})
				return
			}
			log.Printf("[ERROR] Failed to fetch user episode %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user episode"})
			return
		}

		c.JSON(http.StatusOK, ue)
	}
}
