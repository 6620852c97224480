package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/roadwatch/backend/internal/cache"
	"github.com/roadwatch/backend/internal/clients/nominatim"
	"github.com/roadwatch/backend/internal/clients/ors"
	"github.com/roadwatch/backend/internal/clients/osrm"
	"github.com/roadwatch/backend/internal/config"
	"github.com/roadwatch/backend/internal/delivery/http"
	"github.com/roadwatch/backend/internal/domain"
	"github.com/roadwatch/backend/internal/repository/firestore"
	"github.com/roadwatch/backend/internal/repository/postgres"
	"github.com/roadwatch/backend/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Configuration
	cfg := config.Load()

	zlog, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Dependency Injection: Repositories
	repo, closeRepo := newReportRepository(ctx, cfg, zlog)
	defer closeRepo()

	segmentCache := newSegmentCache(ctx, cfg, zlog)

	// Dependency Injection: Services
	geocoder := nominatim.NewClient(cfg.NominatimBaseURL)
	segmentSvc := service.NewSegmentService(repo, segmentCache, geocoder, cfg.Detection, zlog)
	clusterSvc := service.NewClusterService(repo, repo, cfg.ClusterRadiusMeters, zlog)

	var opts service.PlannerOptions
	opts.ProviderTimeout = cfg.ProviderTimeout
	opts.IntersectionRadiusMeters = cfg.IntersectionRadiusMeters
	strategy := newRoutingStrategy(cfg, zlog)
	if cfg.FallbackToMock && strategy.Name() != service.StrategyStraightLine {
		opts.Fallback = service.NewStraightLineStrategy(cfg.MockAverageSpeedKmh)
	}
	planner := service.NewRoutePlanner(geocoder, segmentSvc, strategy, opts, zlog)

	// Periodic segment refresh
	refreshJob := service.NewRefreshJob(service.SegmentRefresher{Service: segmentSvc}, cfg.RefreshSchedule, zlog)
	if err := refreshJob.Start(); err != nil {
		zlog.Error("Failed to start segment refresh", zap.Error(err))
	} else {
		go refreshJob.RunOnce()
	}

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "RoadWatch API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2*cfg.ProviderTimeout + 10*time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.SetupRoutes(app, segmentSvc, clusterSvc, planner, repo)

	// Graceful shutdown
	go func() {
		zlog.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreBackend),
			zap.String("routing", strategy.Name()),
		)
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	refreshJob.Stop()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		zlog.Warn("Server forced to shutdown", zap.Error(err))
	}
	zlog.Info("Server exited gracefully")
}

// reportStore is implemented by every store backend
type reportStore interface {
	domain.ReportRepository
	domain.ClusterStatusRepository
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newReportRepository falls back to the seeded in-memory store when the
// configured backend cannot be reached.
func newReportRepository(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (reportStore, func()) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err == nil {
			err = pool.Ping(ctx)
		}
		if err != nil {
			zlog.Warn("Could not connect to database, running with mock data only", zap.Error(err))
			if pool != nil {
				pool.Close()
			}
			break
		}
		repo := postgres.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			zlog.Warn("Could not ensure schema", zap.Error(err))
		}
		zlog.Info("Connected to PostgreSQL")
		return repo, pool.Close

	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, firestore.Config{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsJSON: cfg.FirebaseCredentials,
			CredentialsFile: cfg.FirebaseCredentialsFile,
		})
		if err != nil {
			zlog.Warn("Could not initialize Firestore, running with mock data only", zap.Error(err))
			break
		}
		repo := firestore.NewFirestoreRepository(client)
		zlog.Info("Connected to Firestore")
		return repo, func() { _ = repo.Close() }
	}

	return postgres.NewSeededMockRepository(), func() {}
}

func newSegmentCache(ctx context.Context, cfg *config.Config, zlog *zap.Logger) domain.SegmentCache {
	if cfg.RedisURL == "" {
		return cache.NewMemoryCache(cfg.SegmentCacheTTL)
	}

	redisCache := cache.NewRedisCache(cache.NewRedisClient(cfg.RedisURL), cfg.SegmentCacheTTL)
	if err := redisCache.Ping(ctx); err != nil {
		zlog.Warn("Could not connect to Redis, using in-memory segment cache", zap.Error(err))
		return cache.NewMemoryCache(cfg.SegmentCacheTTL)
	}
	zlog.Info("Using Redis segment cache")
	return redisCache
}

func newRoutingStrategy(cfg *config.Config, zlog *zap.Logger) service.RoutingStrategy {
	switch cfg.RoutingStrategy {
	case config.RoutingORS:
		if cfg.ORSAPIKey != "" {
			return service.NewORSStrategy(ors.NewClient(cfg.ORSAPIKey, cfg.ORSBaseURL))
		}
		zlog.Warn("ORS_API_KEY is not set, using straight-line routing")
	case config.RoutingOSRM:
		return service.NewOSRMStrategy(osrm.NewClient(cfg.OSRMBaseURL), cfg.IntersectionRadiusMeters)
	case config.RoutingMock:
	default:
		zlog.Warn("Unknown routing strategy, using straight-line routing", zap.String("strategy", cfg.RoutingStrategy))
	}
	return service.NewStraightLineStrategy(cfg.MockAverageSpeedKmh)
}
