// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	labelapp "github.com/alchemorsel/nutrilabel/internal/application/label"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/config"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/lookup"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/lookup/fdc"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/monitoring"
	gormRepo "github.com/alchemorsel/nutrilabel/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/persistence/postgres"
	redisRepo "github.com/alchemorsel/nutrilabel/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/retry"
	"github.com/alchemorsel/nutrilabel/internal/ports/inbound"
	"github.com/alchemorsel/nutrilabel/internal/ports/outbound"
	"github.com/alchemorsel/nutrilabel/pkg/healthcheck"
	"github.com/alchemorsel/nutrilabel/pkg/logger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigPath is the configuration file to load. Empty searches the default
// locations.
type ConfigPath string

// New returns the application graph loading configuration from path
func New(path string) fx.Option {
	return fx.Options(
		fx.Supply(ConfigPath(path)),
		Module,
	)
}

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	CacheModule,

	// Repository modules
	RepositoryModule,

	// Lookup chain
	LookupModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			Service:     cfg.App.Name,
		})
	},
)

// MonitoringModule provides metrics, tracing and health checks
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,

	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tp, err := monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log, monitoring.NewLogSpanProcessor(log))
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp, nil
	},

	func(tp *monitoring.TracingProvider) trace.Tracer {
		return tp.Tracer()
	},

	func(cfg *config.Config, log *zap.Logger) *healthcheck.HealthCheck {
		return healthcheck.New(cfg.App.Version, log.Named("health"))
	},
)

// DatabaseModule provides the database connection for the configured driver
var DatabaseModule = fx.Provide(
	func(
		lc fx.Lifecycle,
		cfg *config.Config,
		log *zap.Logger,
		health *healthcheck.HealthCheck,
		metrics *monitoring.MetricsCollector,
	) (*gorm.DB, error) {
		var (
			db  *gorm.DB
			err error
		)

		switch cfg.Database.Driver {
		case "postgres":
			db, err = postgres.Connect(context.Background(), cfg, log)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
			}
		default:
			db, err = sqlite.SetupDatabase(cfg.Database.Path, gormRepo.NewLogger(log, cfg.Database.LogLevel))
			if err != nil {
				return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
			}
		}

		log.Info("Connected to database",
			zap.String("driver", cfg.Database.Driver),
			zap.String("path", cfg.Database.Path),
		)

		health.Register("database", healthcheck.NewDatabaseChecker(db))

		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		_ = metrics.RegisterDBStats(sqlDB, cfg.Database.Driver)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return sqlDB.Close()
			},
		})

		return db, nil
	},
)

// CacheModule provides the lookup cache: Redis when enabled, otherwise an
// in-process cache
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, health *healthcheck.HealthCheck) (outbound.CacheRepository, error) {
		if !cfg.Redis.Enabled {
			log.Info("Using in-memory lookup cache")
			cache := memory.NewCacheRepository(time.Minute)
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cache.Close()
					return nil
				},
			})
			return cache, nil
		}

		client, err := redisRepo.NewClient(context.Background(), &cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("Using Redis lookup cache", zap.String("address", cfg.RedisAddr()))

		health.Register("redis", healthcheck.NewRedisChecker(client))

		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})

		return redisRepo.NewCacheRepository(client, cfg.App.Name, log), nil
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		gormRepo.NewLabelRepository,
		fx.As(new(outbound.LabelRepository)),
	),
)

// LookupModule provides the nutrient lookup: FoodData Central behind
// retries, metrics and the cache
var LookupModule = fx.Provide(
	func(
		cfg *config.Config,
		log *zap.Logger,
		cache outbound.CacheRepository,
		metrics *monitoring.MetricsCollector,
	) outbound.NutrientLookup {
		client := fdc.NewClient(cfg.Lookup, log)

		var l outbound.NutrientLookup = client
		l = lookup.WithRetry(l, retry.NewPolicy(cfg.Retry, lookup.IsTransient), log, metrics)
		l = lookup.WithMetrics(l, metrics)
		return lookup.WithCache(l, cache, cfg.Lookup.CacheTTL, log, metrics)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(
		labels outbound.LabelRepository,
		nutrients outbound.NutrientLookup,
		metrics *monitoring.MetricsCollector,
		tracer trace.Tracer,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.LabelService {
		return labelapp.NewService(labels, nutrients, metrics, tracer, labelapp.Config{
			Concurrency:             cfg.Lookup.Concurrency,
			DefaultServingSizeGrams: cfg.Label.DefaultServingSizeGrams,
		}, log)
	},
)

// HTTPModule provides the HTTP server
var HTTPModule = fx.Provide(
	apiserver.NewAPIServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	server *apiserver.APIServer,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting nutrilabel",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			// Start HTTP server
			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("HTTP server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down nutrilabel")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			// Flush logs
			_ = log.Sync()

			return nil
		},
	})
}
