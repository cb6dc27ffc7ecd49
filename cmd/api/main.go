package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-healthcare-portal/config"
	_ "go-healthcare-portal/docs" // Important for Swagger
	"go-healthcare-portal/internal/delivery/http/middleware"
	"go-healthcare-portal/internal/delivery/http/pages"
	v1 "go-healthcare-portal/internal/delivery/http/v1"
	"go-healthcare-portal/internal/repository/postgres"
	"go-healthcare-portal/internal/usecase"
	"go-healthcare-portal/pkg/auth"
	"go-healthcare-portal/pkg/database"
	"go-healthcare-portal/pkg/email"
	"go-healthcare-portal/pkg/llm"
	"go-healthcare-portal/pkg/logger"
	"go-healthcare-portal/pkg/metrics"
	"go-healthcare-portal/pkg/redis"
	"go-healthcare-portal/pkg/security"
	"go-healthcare-portal/pkg/validation"

	"github.com/gin-gonic/gin"
)

// @title           Healthcare Portal API
// @version         1.0
// @description     Patient and doctor portal: onboarding, medical records and the navigation guard.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Loggers
	logger.Init(cfg.LogLevel)
	securityLogger := security.InitSecurityLogger("healthcare-portal", cfg.AppEnv)
	defer securityLogger.Sync()
	logger.Log.Info("Starting healthcare portal", "port", cfg.Port, "env", cfg.AppEnv)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl, database.DefaultPoolConfig())
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	securityLogger.SetPersistFunc(security.NewAccessEventRepository(dbPool).Persist)

	// 4. Redis (optional: rate limits fall back to memory)
	redisCfg := redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}
	switch err := redis.Initialize(ctx, redisCfg); {
	case errors.Is(err, redis.ErrNotConfigured):
		logger.Log.Warn("Redis not configured - rate limits are per instance")
	case err != nil:
		logger.Log.Warn("Redis unavailable - rate limits are per instance", "error", err)
	default:
		defer redis.Close()
	}

	// 5. Setup Repositories
	userRepo := postgres.NewUserRepository(dbPool)
	profileRepo := postgres.NewProfileRepository(dbPool)
	recordRepo := postgres.NewMedicalRecordRepository(dbPool)

	// 6. Setup Email Service
	emailService := email.NewEmailService(cfg)
	if !emailService.IsConfigured() {
		logger.Log.Warn("Email service not fully configured - record notices are disabled")
	}

	// 7. Note assistant
	llmClient, err := llm.NewClient(ctx, llm.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		logger.Log.Error("Failed to create note assistant client", "error", err)
		os.Exit(1)
	}
	if !llmClient.IsConfigured() {
		logger.Log.Warn("GEMINI_API_KEY not set - note assistant is disabled")
	}

	// 8. Setup UseCases
	recorder := metrics.NewRecorder()
	validate := validation.Validator()
	authUC := usecase.NewAuthUsecase(userRepo, profileRepo)
	onboardingUC := usecase.NewOnboardingUsecase(profileRepo, validate)
	recordUC := usecase.NewMedicalRecordUsecase(recordRepo, profileRepo, userRepo, emailService, validate)
	noteUC := usecase.NewNoteUsecase(llmClient, validate, recorder)
	healthUC := usecase.NewHealthUsecase(
		map[string]usecase.Pinger{"database": dbPool.Ping},
		map[string]usecase.Pinger{"redis": redis.HealthCheck},
	)

	// 9. Setup Auth (HS256 secret and JWKS for asymmetric keys)
	jwksURL := cfg.SupabaseUrl + "/auth/v1/.well-known/jwks.json"
	verifier := auth.NewVerifier(cfg.SupabaseJWTSecret, auth.NewProvider(jwksURL))
	identity := auth.NewGoTrueClient(cfg.SupabaseUrl, cfg.SupabaseKey)

	// 10. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		AuthUC:       authUC,
		OnboardingUC: onboardingUC,
		RecordUC:     recordUC,
		NoteUC:       noteUC,
		HealthUC:     healthUC,
		Verifier:     verifier,
		Identity:     identity,
		Metrics:      recorder,
		Security:     securityLogger,
		Config:       cfg,
	})
	pages.Register(router, pages.Deps{
		AuthUC:   authUC,
		RecordUC: recordUC,
		Verifier: verifier,
		Observer: &middleware.GuardObserver{Metrics: recorder, Security: securityLogger},
	})

	// 11. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
