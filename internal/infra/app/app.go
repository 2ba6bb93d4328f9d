package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cevi/onlinemat-sub000/internal/core/port"
	"github.com/cevi/onlinemat-sub000/internal/infra/config"
	"github.com/cevi/onlinemat-sub000/internal/infra/database"
	kafkainfra "github.com/cevi/onlinemat-sub000/internal/infra/kafka"
	"github.com/cevi/onlinemat-sub000/internal/infra/logger"
	redisinfra "github.com/cevi/onlinemat-sub000/internal/infra/redis"
	"github.com/cevi/onlinemat-sub000/internal/infra/security"
	postgresrepo "github.com/cevi/onlinemat-sub000/internal/repository/postgres"
	redisrepo "github.com/cevi/onlinemat-sub000/internal/repository/redis"
	"github.com/cevi/onlinemat-sub000/internal/transport/http/handlers"
	"github.com/cevi/onlinemat-sub000/internal/transport/http/middleware"
	"github.com/cevi/onlinemat-sub000/internal/transport/http/routes"
	"github.com/cevi/onlinemat-sub000/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	consumer *kafkainfra.ConsumerGroup
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	tokens, err := security.NewJWTManager(cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("init jwt manager: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	profileCache := redisrepo.NewProfileCache(redisClient.Client(), cfg.Redis.ProfilePrefix)
	profileTTL := cfg.Redis.ProfileTTL
	if profileTTL <= 0 {
		profileTTL = 5 * time.Minute
	}

	repos := postgresrepo.NewRepositories(pool)

	var eventPublisher port.EventPublisher
	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	profileService := usecase.NewProfileService(repos.Users, repos.Memberships, log).
		WithCache(profileCache, profileTTL)
	abilityService := usecase.NewAbilityService(profileService, log)
	tenantService := usecase.NewTenantService(repos.Tenants, repos.Memberships, abilityService, eventPublisher, log).
		WithInvalidator(abilityService)
	membershipService := usecase.NewMembershipService(repos.Memberships, repos.Tenants, abilityService, eventPublisher, log).
		WithInvalidator(abilityService)

	var consumer *kafkainfra.ConsumerGroup
	if producer != nil && cfg.Kafka.ConsumerGroup != "" {
		membershipConsumer := kafkainfra.NewMembershipConsumer(abilityService, log)
		topic := producer.TopicName(kafkainfra.EventMembershipChanged)
		consumer, err = kafkainfra.NewConsumerGroup(cfg.Kafka, []string{topic}, membershipConsumer, log)
		if err != nil {
			log.Warn("failed to init kafka consumer group, profile invalidation relies on cache TTL", zap.Error(err))
			consumer = nil
		}
	}

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	decisionMetrics, err := handlers.NewDecisionMetrics(nil)
	if err != nil {
		return nil, fmt.Errorf("init decision metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:     cfg,
		Logger:     log,
		JWTManager: tokens,
		Metrics:    httpMetrics,
		Decisions:  decisionMetrics,
		Database:   pool,
		Cache:      redisClient,
		Services: routes.ServiceSet{
			Ability:     abilityService,
			Tenants:     tenantService,
			Memberships: membershipService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		consumer: consumer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	consumerErrCh := make(chan error, 1)
	if a.consumer != nil {
		go func() {
			if err := a.consumer.Run(ctx); err != nil {
				consumerErrCh <- fmt.Errorf("run kafka consumer: %w", err)
			}
		}()
		defer func() {
			_ = a.consumer.Close()
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting authz API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	case err := <-consumerErrCh:
		return err
	}
}
