package library

import (
	"github.com/gin-gonic/gin"
	"github.com/dpaola2/show-notes/api/types"
)

// RegisterRoutes registers library routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// GET /api/v1/library - List a user's episodes by location
	router.GET("", List(deps))

	// POST /api/v1/library - Move an episode to the library (starts processing)
	router.POST("", PostMove(deps, moveLibrary))

	// POST /api/v1/library/archive - Move an episode to the archive
	router.POST("/archive", PostMove(deps, moveArchive))

	// POST /api/v1/library/trash - Move an episode to trash
	router.POST("/trash", PostMove(deps, moveTrash))

	// GET /api/v1/library/episodes/:id - One user episode with processing state
	router.GET("/episodes/:id", GetUserEpisode(deps))
}
