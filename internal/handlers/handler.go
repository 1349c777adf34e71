package handlers

import (
	"net/http"

	_ "cpu_boost/docs"
	"cpu_boost/internal/logger"
	"cpu_boost/internal/models"
	"cpu_boost/internal/service"

	"github.com/gin-gonic/gin"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  http.Handler
}

// NewHandler constructs a new HTTP handler with dependencies. A nil
// gatherer exposes the default prometheus registry on /metrics.
func NewHandler(services *service.Service, log *logger.Logger, gatherer stdprometheus.Gatherer) *Handler {
	if gatherer == nil {
		gatherer = stdprometheus.DefaultGatherer
	}
	return &Handler{
		services: services,
		log:      log,
		metrics:  promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(h.metrics))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Status stream over WebSocket, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.identityMiddleware)
	{
		h.registerBoostRoutes(api)
	}
}

func (h *Handler) registerBoostRoutes(api *gin.RouterGroup) {
	boost := api.Group("/boost")
	{
		boost.GET("/state", h.getState)
		boost.POST("/request", h.requestBoost)
		boost.GET("/params", h.getParams)
		// Body example: {"frequency_khz":1134000,"duration_ms":3000}
		boost.PUT("/params", h.requireRole(models.RoleOperator), h.setParams)
	}
}
