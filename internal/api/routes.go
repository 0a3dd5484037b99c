package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"quizcrafter/internal/api/handlers"
)

// NewRouter builds a gin engine with the middleware stack and routes.
func NewRouter(handler *handlers.Handler, frontendURL string, logger logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(logger))
	SetupRoutes(router, handler, frontendURL)
	return router
}

// SetupRoutes sets up the API routes
func SetupRoutes(router *gin.Engine, handler *handlers.Handler, frontendURL string) {
	// Apply CORS middleware
	router.Use(CORSMiddleware(frontendURL))

	api := router.Group("/api")
	{
		api.GET("/health", handler.HandleHealth)
		api.POST("/quiz_generation", handler.HandleGenerateQuiz) // Generate quiz from an uploaded PDF
	}
}
