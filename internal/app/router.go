package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"tripguard/internal/handler"
	"tripguard/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler    *handler.TripHandler
	WebhookHandler *handler.WebhookHandler
	StrikeHandler  *handler.StrikeHandler
	AdminHandler   *handler.AdminHandler
	DriverHandler  *handler.DriverHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
	AdminToken     string
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

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Trip payment lifecycle.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.RequestTrip)
			trips.POST("/:id/accept", deps.TripHandler.AcceptTrip)
			trips.POST("/:id/start", deps.TripHandler.StartTrip)
			trips.POST("/:id/complete", deps.TripHandler.CompleteTrip)
			trips.POST("/:id/cancel", deps.TripHandler.CancelTrip)
			trips.GET("/:id/hold", deps.TripHandler.GetHold)
		}

		// Payment processor events.
		v1.POST("/webhooks/payment", deps.WebhookHandler.HandlePaymentEvent)

		// Detector strike candidates.
		v1.POST("/strikes/candidates", deps.StrikeHandler.EnqueueCandidate)

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/register", deps.DriverHandler.Register)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.POST("/:id/online", deps.DriverHandler.GoOnline)
			drivers.POST("/:id/offline", deps.DriverHandler.GoOffline)
			drivers.GET("/:id/strikes", deps.StrikeHandler.ListDriverStrikes)
		}

		// Disputes and appeals are opened by riders and drivers.
		v1.POST("/disputes", deps.AdminHandler.OpenDispute)
		v1.POST("/appeals", deps.AdminHandler.OpenAppeal)

		// Admin routes: resolution and manual strike issuance.
		admin := v1.Group("/admin", middleware.AdminAuth(deps.AdminToken))
		{
			admin.POST("/strikes", deps.StrikeHandler.IssueStrike)
			admin.POST("/disputes/:id/resolve", deps.AdminHandler.ResolveDispute)
			admin.POST("/appeals/:id/resolve", deps.AdminHandler.ResolveAppeal)
		}
	}

	return router
}
