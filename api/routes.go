package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dpaola2/show-notes/api/episodes"
	"github.com/dpaola2/show-notes/api/health"
	"github.com/dpaola2/show-notes/api/jobs"
	"github.com/dpaola2/show-notes/api/library"
	"github.com/dpaola2/show-notes/api/types"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, limits *limiterRegistry, rps int) error {
	if deps == nil {
		deps = &types.Dependencies{}
	}
	if rps <= 0 {
		rps = defaultRateLimitRPS
	}

	// Public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)

	engine.NoRoute(NotFoundHandler())

	v1 := engine.Group("/api/v1")

	// Episode and library routes share the general limit
	episodeGroup := v1.Group("/episodes")
	episodeGroup.Use(limits.Middleware(rps, 2*rps))
	episodes.RegisterRoutes(episodeGroup, deps)

	libraryGroup := v1.Group("/library")
	libraryGroup.Use(limits.Middleware(rps, 2*rps))
	library.RegisterRoutes(libraryGroup, deps)

	// Job polling gets double the limit; clients poll while processing runs
	jobGroup := v1.Group("/jobs")
	jobGroup.Use(limits.Middleware(2*rps, 4*rps))
	jobs.RegisterRoutes(jobGroup, deps)

	return nil
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(404, gin.H{
			"status":  "error",
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
