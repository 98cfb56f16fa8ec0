package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/deroyal/feedback-portal/backend/internal/api"
	"github.com/deroyal/feedback-portal/backend/internal/middleware"
	"github.com/deroyal/feedback-portal/backend/internal/service"
)

// SetupRouter configures the application routes
func SetupRouter(
	authHandler *api.AuthHandler,
	feedbackHandler *api.FeedbackHandler,
	authService *service.AuthService,
	codeLimiter *middleware.RateLimiter,
	submitLimiter *middleware.RateLimiter,
) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	v1 := router.Group("/api/v1")
	v1.GET("/health", api.Health)

	// Auth routes
	auth := v1.Group("/auth")
	{
		auth.POST("/passphrase", authHandler.ValidatePassphrase)
		auth.POST("/code", codeLimiter.Middleware(), authHandler.SendCode)
		auth.POST("/verify", authHandler.VerifyCode)
	}

	// Intake route; the passphrase gate is enforced client-side, the server
	// relies on CAPTCHA, honeypot, and rate limiting.
	v1.POST("/feedback", submitLimiter.Middleware(), feedbackHandler.Submit)

	// Dashboard routes, admin session required
	protected := v1.Group("/feedback")
	protected.Use(middleware.AdminAuth(authService))
	{
		protected.GET("", feedbackHandler.List)
		protected.GET("/export", feedbackHandler.Export)
		protected.GET("/:id", feedbackHandler.Get)
		protected.PUT("/:id/notes", feedbackHandler.UpdateNotes)
		protected.POST("/:id/archive", feedbackHandler.Archive)
		protected.POST("/:id/unarchive", feedbackHandler.Unarchive)
	}

	return router
}
