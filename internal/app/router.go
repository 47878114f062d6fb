package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"metro/internal/handler"
	"metro/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	VerificationHandler *handler.VerificationHandler
	TripHandler         *handler.TripHandler
	UserHandler         *handler.UserHandler
	AdminHandler        *handler.AdminHandler
	RedisClient         *redis.Client
	NewRelicApp         *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Device-facing routes: enrollment reports, command polling,
		// scan verification.
		api.POST("/enroll", deps.VerificationHandler.Enroll)
		api.GET("/commands", deps.VerificationHandler.PollCommands)
		api.POST("/verify", deps.VerificationHandler.Verify)

		// Trip routes.
		trip := api.Group("/trip")
		{
			trip.POST("/start", deps.TripHandler.StartTrip)
			trip.POST("/setDestination", deps.TripHandler.SetDestination)
			trip.GET("/active", deps.TripHandler.GetActive)
			trip.GET("/:id", deps.TripHandler.GetTrip)
		}
		api.GET("/trips", deps.TripHandler.List)

		// Rider routes.
		api.GET("/user/:fingerprintId", deps.UserHandler.GetUser)
		api.POST("/user/add-balance", deps.UserHandler.AddBalance)
		api.GET("/users/latest-temp", deps.UserHandler.LatestEnrolled)

		// Admin routes.
		admin := api.Group("/admin")
		{
			admin.POST("/user", deps.AdminHandler.UpsertUser)
			admin.POST("/enroll", deps.AdminHandler.EnrollCommand)
			admin.POST("/station", deps.AdminHandler.CreateStation)
			admin.POST("/fare", deps.AdminHandler.UpsertFare)
			admin.POST("/device", deps.AdminHandler.RegisterDevice)
		}
		api.GET("/stations", deps.AdminHandler.ListStations)
	}

	return router
}
