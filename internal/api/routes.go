package api

import (
	"github.com/gin-gonic/gin"

	"github.com/irfndi/celebrum-odds/internal/api/handlers"
	"github.com/irfndi/celebrum-odds/internal/arbitrage"
	"github.com/irfndi/celebrum-odds/internal/middleware"
)

// Dependencies are the collaborators the routes are wired to. Collector and
// Breakers may be nil when odds collection is disabled.
type Dependencies struct {
	DB        handlers.HealthChecker
	Redis     handlers.HealthChecker
	Catalog   handlers.Catalog
	Finder    handlers.OpportunitySearcher
	Passes    PassService
	Collector handlers.Collector
	Breakers  handlers.BreakerReporter
	Cleaner   handlers.Cleaner
	System    handlers.SystemInfoProvider
	Allocator *arbitrage.StakeAllocator
	Auth      *middleware.AuthMiddleware
	Version   string
}

// PassService reads and runs detection passes.
type PassService interface {
	handlers.PassProvider
	handlers.PassRunner
}

// SetupRoutes registers the probes and the v1 API on router.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.Collector, deps.System, deps.Version)
	if deps.Breakers != nil {
		healthHandler.WithBreakers(deps.Breakers)
	}
	catalogHandler := handlers.NewCatalogHandler(deps.Catalog)
	arbitrageHandler := handlers.NewArbitrageHandler(deps.Finder, deps.Passes, deps.Allocator)
	adminHandler := handlers.NewAdminHandler(deps.Collector, deps.Cleaner, deps.Passes)

	probes := router.Group("/", middleware.HealthCheckTelemetryMiddleware())
	{
		probes.GET("/health", healthHandler.HealthCheck)
		probes.HEAD("/health", healthHandler.HealthCheck)
		probes.GET("/ready", healthHandler.ReadinessCheck)
		probes.GET("/live", healthHandler.LivenessCheck)
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/leagues", catalogHandler.GetLeagues)
		v1.GET("/markets", catalogHandler.GetMarkets)
		v1.GET("/books", catalogHandler.GetBooks)

		arb := v1.Group("/arbitrage")
		{
			arb.GET("", arbitrageHandler.GetOpportunities)
			arb.GET("/latest", arbitrageHandler.GetLatest)
			arb.POST("/detect", arbitrageHandler.Detect)
			arb.POST("/stakes", arbitrageHandler.AllocateStakes)
		}

		v1.GET("/odds/convert", handlers.ConvertOdds)

		admin := v1.Group("/admin", deps.Auth.RequireAdmin()...)
		{
			admin.POST("/collect", adminHandler.TriggerCollection)
			admin.POST("/cleanup", adminHandler.TriggerCleanup)
			admin.POST("/detect", adminHandler.TriggerDetection)
		}
	}
}

// NewRouter builds the gin engine with the standard middleware chain and
// registers all routes.
func NewRouter(serviceName string, allowedOrigins []string, deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.TelemetryMiddleware(serviceName),
		middleware.RequestID(),
		middleware.CORS(allowedOrigins),
	)
	SetupRoutes(router, deps)
	return router
}
