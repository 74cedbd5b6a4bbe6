// Package server contains the HTTP surface of the Falco API: route
// wiring, authentication middleware and the request handlers.
package server

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Anomaly-E-E/Falco/config"
	"github.com/Anomaly-E-E/Falco/database"
	"github.com/Anomaly-E-E/Falco/internal/ai"
	"github.com/Anomaly-E-E/Falco/internal/auth"
	"github.com/Anomaly-E-E/Falco/internal/mailer"
	"github.com/Anomaly-E-E/Falco/middleware"
	"github.com/Anomaly-E-E/Falco/models"
	"github.com/Anomaly-E-E/Falco/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Analyzer produces vulnerability findings for a code snippet.
type Analyzer interface {
	AnalyzeCode(ctx context.Context, code, language string) ([]models.Vulnerability, error)
}

// EmailSender dispatches account emails. Results are advisory; sending
// is fire-and-forget from the handlers' point of view.
type EmailSender interface {
	SendVerificationEmail(email, token string) mailer.Result
	SendPasswordResetEmail(email, token string) mailer.Result
}

// Server holds all dependencies and provides handlers
type Server struct {
	config   *config.Config
	db       *gorm.DB
	userRepo repository.UserRepository
	scanRepo repository.ScanRepository
	analyzer Analyzer
	mailer   EmailSender
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:   cfg,
		db:       db,
		userRepo: repository.NewUserRepository(db),
		scanRepo: repository.NewScanRepository(db),
		analyzer: ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, middleware.Logger),
		mailer:   mailer.New(cfg.AppBaseURL, cfg.IsDevelopment(), middleware.Logger),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Request ID for tracing
	app.Use(requestid.New())

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware
	app.Use(middleware.StructuredLogger())

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health check
	app.Get("/health", s.HealthCheck)

	api := app.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", s.Register)
	authGroup.Post("/verify-email", s.VerifyEmail)
	authGroup.Post("/login", s.Login)

	// Scan routes, all behind authentication
	scans := api.Group("/scans", s.AuthRequired())
	scans.Post("/analyze", s.AnalyzeScan)
	scans.Get("/history", s.GetScanHistory)

	// 404 fallback for anything unmatched
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})
}

// HealthCheck handles GET /health
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// AuthRequired returns the authentication middleware. It extracts the
// bearer token, verifies it and attaches the caller's identity to the
// request context for downstream handlers.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("No token provided. Please login."))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[1] == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token format. Expected: Bearer <token>"))
		}

		claims, err := auth.ParseToken(s.config.JWTSecret, parts[1])
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals("userID", claims.UserID)
		c.Locals("email", claims.Email)

		return c.Next()
	}
}

// NewApp builds the Fiber application with middleware, routes and the
// process-wide error fallback.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Falco API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Last-resort handler for anything escaping the controllers
			middleware.Logger.Error("unhandled error", "error", err.Error(), "path", c.Path())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Something went wrong!",
			})
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	return app
}

// Close releases server resources
func (s *Server) Close() error {
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
