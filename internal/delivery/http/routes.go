package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/macrolens/tracker/config"
	"go.uber.org/zap"
)

// RouterDeps are the collaborators of the router that are not handlers
type RouterDeps struct {
	Devices DeviceAuthenticator
	// Metrics serves /metrics; nil leaves the route unregistered
	Metrics http.Handler
	Logger  *zap.Logger
}

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, deps RouterDeps) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	auth := AuthMiddleware([]byte(cfg.Auth.JWTSecret), deps.Devices)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Device pairing: request and status are called by the unpaired device
		pairing := v1.Group("/pairing")
		{
			pairing.POST("/request", handler.PairingRequest)
			pairing.GET("/status", handler.PairingStatus)
			pairing.POST("/claim", auth, RequireSession(), handler.PairingClaim)
		}

		devices := v1.Group("/devices", auth, RequireSession())
		{
			devices.GET("", handler.ListDevices)
			devices.DELETE("/:id", handler.RevokeDevice)
		}

		foods := v1.Group("/foods", auth)
		{
			foods.GET("/barcode/:barcode", handler.GetFoodByBarcode)
			foods.GET("/search", handler.SearchFoods)
			foods.POST("", handler.CreateFood)
		}

		logs := v1.Group("/logs", auth)
		{
			logs.POST("/food", handler.LogFood)
			logs.POST("/meal", handler.LogMeal)
			logs.PATCH("/:id", handler.UpdateLog)
		}
	}

	return router
}
