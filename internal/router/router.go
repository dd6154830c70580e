// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/cityofhelsinki/benefit-backend/internal/calculator"
	"github.com/cityofhelsinki/benefit-backend/internal/config"
	"github.com/cityofhelsinki/benefit-backend/internal/handlers"
	"github.com/cityofhelsinki/benefit-backend/internal/metrics"
	"github.com/cityofhelsinki/benefit-backend/internal/middleware"
	"github.com/cityofhelsinki/benefit-backend/internal/repositories"
	"github.com/cityofhelsinki/benefit-backend/internal/services"
	"github.com/cityofhelsinki/benefit-backend/internal/utils"
)

// Dependencies are the services the routes are served by.
type Dependencies struct {
	Applications *services.ApplicationService
	Exporter     services.Exporter
}

// NewDependencies builds the gorm backed services.
func NewDependencies(db *gorm.DB, cfg *config.Config) (Dependencies, error) {
	applicationRepo := repositories.NewApplicationRepository(db)
	companyRepo := repositories.NewCompanyRepository(db)

	applicationService := services.NewApplicationService(
		applicationRepo,
		companyRepo,
		calculator.New(),
		services.NewDBHistorySink(db),
		cfg.Benefit,
	)
	exportService, err := services.NewExportService(applicationRepo, cfg)
	if err != nil {
		return Dependencies{}, err
	}

	return Dependencies{
		Applications: applicationService,
		Exporter:     exportService,
	}, nil
}

func New(cfg *config.Config, deps Dependencies) *gin.Engine {
	mock := cfg.Benefit.MockFlag

	// Initialize handlers
	applicationHandler := handlers.NewApplicationHandler(deps.Applications)
	exportHandler := handlers.NewExportHandler(deps.Exporter)
	userHandler := handlers.NewUserHandler(mock)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(limiter.Middleware())
	r.Use(middleware.Authenticate())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"version":   "1.0.0",
			"mock_mode": mock,
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		v1.GET("/users/me", userHandler.GetCurrentUser)

		applications := v1.Group("/applications")
		applications.Use(middleware.AuthRequired(mock))
		{
			applications.GET("", applicationHandler.ListApplications)
			applications.POST("", applicationHandler.CreateApplication)
			applications.GET("/:id", applicationHandler.GetApplication)
			applications.PUT("/:id", applicationHandler.UpdateApplication)
			applications.PATCH("/:id", applicationHandler.UpdateApplication)
		}

		handler := v1.Group("/handler")
		handler.Use(middleware.AuthRequired(mock), middleware.HandlerRequired(mock))
		{
			handler.GET("/applications", applicationHandler.ListApplications)
			handler.POST("/exports", exportHandler.ExportDecided)
		}
	}

	return r
}

// Initialize wires the database backed services into a router.
func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, Dependencies, error) {
	deps, err := NewDependencies(db, cfg)
	if err != nil {
		return nil, Dependencies{}, err
	}
	return New(cfg, deps), deps, nil
}
