package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mihas-katc/admissions-api/internal/config"
	"github.com/mihas-katc/admissions-api/internal/database"
	"github.com/mihas-katc/admissions-api/internal/eligibility"
	"github.com/mihas-katc/admissions-api/internal/handler"
	"github.com/mihas-katc/admissions-api/internal/middleware"
	"github.com/mihas-katc/admissions-api/internal/repository"
	"github.com/mihas-katc/admissions-api/internal/router"
	"github.com/mihas-katc/admissions-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.IsProduction() {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, rule cache and redis events disabled")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, nats events disabled")
		natsConn = nil
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	engine := eligibility.NewEngine(eligibility.Weights{
		SubjectCount: cfg.WeightSubjectCount,
		GradeAverage: cfg.WeightGradeAverage,
		CoreSubjects: cfg.WeightCoreSubjects,
	})

	programRepo := repository.NewProgramRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	appealRepo := repository.NewAppealRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	events := service.NewEventPublisher(redisClient, cfg.EventChannel, natsConn, logger)
	catalog := service.NewProgramCatalog(programRepo, redisClient, cfg.RuleCacheTTL, logger)
	activityService := service.NewActivityService(activityRepo, logger)
	eligibilityService := service.NewEligibilityService(engine, catalog, assessmentRepo, activityService, events, validate, logger)
	appealService := service.NewAppealService(appealRepo, activityService, events, logger)
	programService := service.NewProgramService(programRepo, catalog, activityService, events, validate, logger)
	seedService := service.NewSeedService(programRepo, catalog, validate, cfg.SeedEnabled, cfg.SeedToken, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:         &logger,
		AllowedOrigins: cfg.CORSOrigins,
		AccessLog:      !cfg.IsProduction(),
	})
	router.Register(app, cfg, router.Dependencies{
		EligibilityHandler:     handler.NewEligibilityHandler(eligibilityService, logger),
		AppealHandler:          handler.NewAppealHandler(appealService, logger),
		AdminProgramHandler:    handler.NewAdminProgramHandler(programService, logger),
		AdminAssessmentHandler: handler.NewAdminAssessmentHandler(eligibilityService, logger),
		AdminActivityHandler:   handler.NewAdminActivityHandler(activityService, logger),
		SeedHandler:            handler.NewSeedHandler(seedService, logger),
		HealthProbes:           healthProbes(db, redisClient, natsConn),
		RateLimitStore:         middleware.NewRedisLimiterStorage(redisClient),
		JWTMiddleware:          middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, cfg.ShutdownGracePeriod, logger)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, grace time.Duration, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	if grace <= 0 {
		grace = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
