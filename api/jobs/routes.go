package jobs

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/dpaola2/show-notes/api/types"
	jobsService "github.com/dpaola2/show-notes/internal/services/jobs"
)

// RegisterRoutes registers job inspection routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// GET /api/v1/jobs/:id - Job record for progress polling
	router.GET("/:id", GetByID(deps))
}

// GetByID returns a job row; clients poll this for pipeline progress
func GetByID(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
			return
		}

		job, err := deps.JobService.GetJob(c.Request.Context(), uint(id))
		if err != nil {
			if errors.Is(err, jobsService.ErrJobNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
				return
			}
			log.Printf("[ERROR] Failed to fetch job %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch job"})
			return
		}

		c.JSON(http.StatusOK, job)
	}
}
