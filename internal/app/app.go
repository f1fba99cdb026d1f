package app

import (
	"database/sql"
	"fmt"
	"log"

	"daybook/internal/config"
	"daybook/internal/handlers"
	"daybook/internal/pdf"
	"daybook/internal/repositories"
	"daybook/internal/routes"
	"daybook/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "daybook/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()
	if err := db.Ping(); err != nil {
		log.Fatal("failed to reach database: ", err)
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	otpRepo := repositories.NewOTPRepository(db)
	entryRepo := repositories.NewEntryRepository(db)

	// === Services ===
	authService := services.NewAuthService(cfg.Auth.JWTSecret)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	otpService := services.NewOTPService(otpRepo, userRepo, emailService)
	userService := services.NewUserService(userRepo, otpService, authService)
	googleService := services.NewGoogleService(cfg.Google)
	entryService := services.NewEntryService(entryRepo, cfg.Files.UploadDir, pdf.NewEntryGenerator())

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, otpService, googleService)
	entryHandler := handlers.NewEntryHandler(entryService)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Uploaded images are public by URL; the path segment is a random uuid.
	router.Static("/uploads", cfg.Files.UploadDir)

	routes.SetupRoutes(router, authHandler, entryHandler, authService)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server failed: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
