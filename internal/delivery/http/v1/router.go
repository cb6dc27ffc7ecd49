package v1

import (
	"time"

	"go-healthcare-portal/config"
	"go-healthcare-portal/internal/delivery/http/middleware"
	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/internal/usecase"
	"go-healthcare-portal/pkg/metrics"
	"go-healthcare-portal/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	AuthUC       domain.AuthUsecase
	OnboardingUC domain.OnboardingUsecase
	RecordUC     domain.MedicalRecordUsecase
	NoteUC       domain.NoteUsecase
	HealthUC     usecase.HealthUsecase
	Verifier     middleware.TokenVerifier
	Identity     IdentityProvider
	Metrics      *metrics.Recorder
	// Security defaults to the process-wide security logger
	Security     *security.SecurityLogger
	Config       *config.Config
}

// CSRFExemptPaths need no token: there is no session yet, or the endpoint
// has no side effects.
var CSRFExemptPaths = []string{
	"/v1/auth/login",
	"/v1/auth/register",
	"/v1/health",
	"/v1/navigation/evaluate",
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	cfg := deps.Config
	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.FrontendURL, cfg.IsProduction())) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CSRFMiddleware(cfg.CookieSecure, CSRFExemptPaths...))

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimitConfig(cfg.RateLimitGlobalThreshold, window)))

	NewHealthHandler(v1, deps.HealthUC)

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	optional := v1.Group("")
	optional.Use(middleware.OptionalAuth(deps.Verifier, deps.AuthUC))
	securityLogger := deps.Security
	if securityLogger == nil {
		securityLogger = security.DefaultLogger()
	}
	NewNavigationHandler(optional, &middleware.GuardObserver{Metrics: deps.Metrics, Security: securityLogger})

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Verifier, deps.AuthUC))
	{
		loginLimit := middleware.RateLimitMiddleware(middleware.LoginRateLimitConfig(cfg.RateLimitLoginThreshold, window))
		NewAuthHandler(v1, protected, deps.AuthUC, deps.Identity, cfg, loginLimit)
		NewOnboardingHandler(protected, deps.OnboardingUC)
		NewRecordHandler(protected, deps.RecordUC)
		NewNoteHandler(protected, deps.NoteUC)
	}

	return r
}
