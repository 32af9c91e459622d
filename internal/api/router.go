package api

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/openhousehq/openhouse/internal/api/v1"
	"github.com/openhousehq/openhouse/internal/config"
	"github.com/openhousehq/openhouse/internal/logger"
	"github.com/openhousehq/openhouse/internal/rest/middleware"
	"github.com/openhousehq/openhouse/internal/types"
)

// Handlers groups the route handlers wired by the DI container
type Handlers struct {
	Health  *v1.HealthHandler
	Listing *v1.ListingHandler
}

// NewRouter builds the HTTP router with the shared middleware chain
func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CORSMiddleware(),
		middleware.RequestContext(),
		middleware.RequestLogger(log),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	{
		listings := v1Group.Group("/listings")
		{
			listings.POST("", handlers.Listing.CreateListing)
			listings.GET("", handlers.Listing.ListListings)
			listings.POST("/batch-delete", handlers.Listing.BatchDeleteListings)
			listings.GET("/:id", handlers.Listing.GetListing)
			listings.PUT("/:id", handlers.Listing.UpdateListing)
			listings.PATCH("/:id/status", handlers.Listing.UpdateListingStatus)
			listings.POST("/:id/archive", handlers.Listing.ArchiveListing)
			listings.POST("/:id/restore", handlers.Listing.RestoreListing)
			listings.DELETE("/:id", handlers.Listing.DeleteListing)
		}
	}

	return router
}
