package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"daybook/internal/handlers"
	"daybook/internal/middleware"
	"daybook/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	entryHandler *handlers.EntryHandler,
	authService services.AuthService,
) *gin.Engine {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ---- public
	auth := r.Group("/auth")
	{
		auth.POST("/request-otp", authHandler.RequestOTP)
		auth.POST("/verify-register", authHandler.VerifyRegister)
		auth.POST("/login", authHandler.Login)
		auth.GET("/google", authHandler.GoogleRedirect)
		auth.POST("/google-callback", authHandler.GoogleCallback)
		auth.POST("/google-signin", authHandler.GoogleSignIn)
	}

	// ---- protected (bearer token)
	entries := r.Group("/entries", middleware.AuthMiddleware(authService))
	{
		entries.GET("", entryHandler.List)
		entries.POST("", entryHandler.Create)
		entries.DELETE("/:id", entryHandler.Delete)
		entries.GET("/:id/pdf", entryHandler.ExportPDF)
	}

	return r
}
