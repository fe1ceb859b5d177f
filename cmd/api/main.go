package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"jobscout/internal/config"
	"jobscout/internal/handlers"
	"jobscout/internal/logger"
	"jobscout/internal/models"
	"jobscout/internal/repositories"
	"jobscout/internal/services"
)

const maxResumeSize = 10 << 20 // 10 MiB upload cap

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}
	zlog.Info("database connected and migrated")

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)

	// The retry policy is shared configuration but parameterized per client;
	// each client gets its own value.
	retry := services.RetryPolicy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
	}

	// Initialize pipeline services
	pdfParser := services.NewPDFParserService()

	inferenceService := services.NewInferenceService(services.InferenceConfig{
		Endpoint:      cfg.Inference.Endpoint,
		APIKey:        cfg.Inference.APIKey,
		Timeout:       time.Duration(cfg.Inference.TimeoutSeconds) * time.Second,
		MaxInputChars: cfg.Inference.MaxInputChars,
		TaskModels: map[models.TaskKind]string{
			models.TaskSkillExtraction:    cfg.Inference.SkillModel,
			models.TaskRoleClassification: cfg.Inference.RoleModel,
		},
	}, retry, zlog)

	jobSearchService := services.NewJobSearchService(services.JobSearchConfig{
		Endpoint: cfg.JobSearch.Endpoint,
		AppID:    cfg.JobSearch.AppID,
		AppKey:   cfg.JobSearch.AppKey,
		Country:  cfg.JobSearch.Country,
		PageSize: cfg.JobSearch.PageSize,
	}, retry, zlog)

	resumeService := services.NewResumeService(pdfParser, inferenceService, cfg.Inference.MinSkillScore, zlog)

	suggestService := services.NewSuggestionService(jobSearchService, services.SuggestConfig{
		RoleQueryTerms:  cfg.Suggest.RoleQueryTerms,
		SkillQueryTerms: cfg.Suggest.SkillQueryTerms,
		MaxPerQuery:     cfg.Suggest.MaxPerQuery,
	}, zlog)

	zlog.Info("services initialized")

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userRepo)
	resumeHandler := handlers.NewResumeHandler(resumeService, suggestService, maxResumeSize, cfg.Suggest.DefaultLimit, zlog)
	searchHandler := handlers.NewSearchHandler(suggestService, cfg.Suggest.DefaultLimit, zlog)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "JobScout API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    maxResumeSize,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Users
	api.Post("/users", userHandler.HandleCreate)
	api.Get("/users", userHandler.HandleList)
	api.Get("/users/:id", userHandler.HandleGet)
	api.Put("/users/:id", userHandler.HandleUpdate)
	api.Delete("/users/:id", userHandler.HandleDelete)

	// Resume pipeline
	api.Post("/resume/profile", resumeHandler.HandleProfile)
	api.Post("/resume/suggestions", resumeHandler.HandleSuggestions)

	// Ad-hoc search
	api.Get("/jobs/search", searchHandler.HandleSearch)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("shutting down server")
		if err := app.Shutdown(); err != nil {
			zlog.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
