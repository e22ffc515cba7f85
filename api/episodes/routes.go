package episodes

import (
	"github.com/gin-gonic/gin"
	"github.com/dpaola2/show-notes/api/types"
)

// RegisterRoutes registers episode routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// GET /api/v1/episodes/:id - Episode details with processing state
	router.GET("/:id", GetByID(deps))

	// GET /api/v1/episodes/:id/status - Processing status only
	router.GET("/:id/status", GetStatus(deps))

	// GET /api/v1/episodes/:id/transcript - Stored transcript
	router.GET("/:id/transcript", GetTranscript(deps))

	// GET /api/v1/episodes/:id/summary - Stored summary
	router.GET("/:id/summary", GetSummary(deps))

	// POST /api/v1/episodes/:id/process - Enqueue the pipeline
	router.POST("/:id/process", PostProcess(deps))

	// POST /api/v1/episodes/:id/retry - Reset errors and re-enqueue
	router.POST("/:id/retry", PostRetry(deps))
}
