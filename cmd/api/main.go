package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deroyal/feedback-portal/backend/config"
	"github.com/deroyal/feedback-portal/backend/internal/api"
	"github.com/deroyal/feedback-portal/backend/internal/database"
	"github.com/deroyal/feedback-portal/backend/internal/middleware"
	"github.com/deroyal/feedback-portal/backend/internal/router"
	"github.com/deroyal/feedback-portal/backend/internal/server"
	"github.com/deroyal/feedback-portal/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	s3Config, err := config.NewS3Config(context.Background(), cfg.S3Bucket)
	if err != nil {
		log.Fatalf("Failed to initialize S3: %v", err)
	}

	// Services
	emailService := service.NewEmailService(cfg)
	captchaService := service.NewCaptchaService(cfg.RecaptchaSecret)
	attachmentService := service.NewAttachmentService(s3Config)
	feedbackService := service.NewFeedbackService(db, emailService)
	authService := service.NewAuthService(service.NewCodeStore(), cfg.JWTSecret, cfg.AdminEmailDomain, cfg.PassphraseHash)

	// Handlers and routes
	authHandler := api.NewAuthHandler(authService, emailService)
	feedbackHandler := api.NewFeedbackHandler(feedbackService, captchaService, attachmentService)
	r := router.SetupRouter(
		authHandler,
		feedbackHandler,
		authService,
		middleware.NewCodeRequestRateLimiter(redisClient),
		middleware.NewSubmissionRateLimiter(redisClient),
	)

	srv := server.New(r, cfg.ServerHost, cfg.ServerPort)

	errChan := make(chan error, 1)
	go func() {
		log.Println("Starting server...")
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
