package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cevi/onlinemat-sub000/internal/infra/config"
	"github.com/cevi/onlinemat-sub000/internal/infra/security"
	"github.com/cevi/onlinemat-sub000/internal/transport/http/handlers"
	"github.com/cevi/onlinemat-sub000/internal/transport/http/middleware"
	"github.com/cevi/onlinemat-sub000/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Ability     *usecase.AbilityService
	Tenants     *usecase.TenantService
	Memberships *usecase.MembershipService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config     *config.AppConfig
	Logger     *zap.Logger
	Services   ServiceSet
	JWTManager *security.JWTManager
	Metrics    *middleware.HTTPMetrics
	Decisions  *handlers.DecisionMetrics
	Database   DatabaseChecker
	Cache      CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authRequired := middleware.RequireAuth(deps.JWTManager)

		authzGroup := api.Group("/authz", authRequired)
		authzHandler := handlers.NewAuthzHandler(deps.Services.Ability, deps.Decisions, deps.Logger)
		authzHandler.RegisterRoutes(authzGroup)

		tenantGroup := api.Group("/tenants", authRequired)
		tenantHandler := handlers.NewTenantHandler(deps.Services.Tenants)
		tenantHandler.RegisterRoutes(tenantGroup)

		membershipHandler := handlers.NewMembershipHandler(deps.Services.Memberships)
		membershipHandler.RegisterTenantRoutes(tenantGroup)

		membershipGroup := api.Group("/memberships", authRequired)
		membershipHandler.RegisterRoutes(membershipGroup)
	}

	return r
}
