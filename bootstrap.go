package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/amirphl/crud-project/app/handlers"
	"github.com/amirphl/crud-project/app/router"
	businessflow "github.com/amirphl/crud-project/business_flow"
	"github.com/amirphl/crud-project/config"
	"github.com/amirphl/crud-project/migrations"
	"github.com/amirphl/crud-project/repository"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	stopFuncs []func()
}

// Close releases connections opened during initialization
func (a *Application) Close() {
	for i := len(a.stopFuncs) - 1; i >= 0; i-- {
		a.stopFuncs[i]()
	}
}

// initializeLogging routes the standard logger to stdout, a rotating file, or both
func initializeLogging(cfg config.LoggingConfig) (io.Writer, func()) {
	var rotator *lumberjack.Logger
	if cfg.Output == "file" || cfg.Output == "both" {
		rotator = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	}

	var out io.Writer = os.Stdout
	switch cfg.Output {
	case "file":
		out = rotator
	case "both":
		out = io.MultiWriter(os.Stdout, rotator)
	}

	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.LUTC)

	return out, func() {
		if rotator != nil {
			_ = rotator.Close()
		}
	}
}

// gormLogLevel maps LOG_LEVEL onto GORM's logger levels
func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(dbCfg config.DatabaseConfig, logCfg config.LoggingConfig, out io.Writer) (*gorm.DB, error) {
	if dbCfg.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dbCfg.URL), &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log.New(out, "\r\n", log.LstdFlags|log.LUTC), logger.Config{
			SlowThreshold:             dbCfg.SlowQueryTime,
			LogLevel:                  gormLogLevel(logCfg.Level),
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dbCfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		dbCfg.MaxOpenConns, dbCfg.MaxIdleConns)

	return db, nil
}

// initializeRedis initializes the Redis client and verifies connectivity
func initializeRedis(cfg config.SequenceConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	if cfg.RedisDB != 0 {
		opt.DB = cfg.RedisDB
	}

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", opt.DB)
	return rc, nil
}

// initializeSequence builds the id allocator for the configured backend.
// An unreachable backend is logged; allocation then fails per request with a storage error.
func initializeSequence(cfg config.SequenceConfig, db *gorm.DB) (repository.SequenceCounterRepository, func()) {
	if cfg.Backend != config.SequenceBackendRedis {
		return repository.NewSequenceCounterRepository(db), func() {}
	}

	rc, err := initializeRedis(cfg)
	if err != nil {
		log.Printf("Sequence backend unavailable: %v", err)
		return repository.NewRedisSequenceCounterRepository(nil, cfg.RedisPrefix), func() {}
	}
	return repository.NewRedisSequenceCounterRepository(rc, cfg.RedisPrefix), func() { _ = rc.Close() }
}

// initializeApplication initializes the main application components.
// A missing or unreachable database does not prevent startup; data operations then answer 500.
func initializeApplication(cfg *config.ProductionConfig, logOutput io.Writer) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, cfg.Logging, logOutput)
	if err != nil {
		log.Printf("Database unavailable, serving without storage: %v", err)
	} else {
		stopFuncs = append(stopFuncs, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		if cfg.Database.AutoMigrate {
			if err := migrations.ApplyURL(cfg.Database.URL); err != nil {
				return nil, fmt.Errorf("failed to apply migrations: %w", err)
			}
		}
	}

	sequenceRepo, closeSequence := initializeSequence(cfg.Sequence, db)
	stopFuncs = append(stopFuncs, closeSequence)
	log.Printf("Sequence allocator backend=%s name=%s", cfg.Sequence.Backend, cfg.Sequence.Name)

	demoRepo := repository.NewDemoRepository(db)
	demoFlow := businessflow.NewDemoFlow(demoRepo, sequenceRepo, cfg.Sequence.Name)

	demoHandler := handlers.NewDemoHandler(demoFlow)
	healthHandler := handlers.NewHealthHandler(cfg.Deployment.Version, func(ctx context.Context) error {
		return repository.Ping(ctx, db)
	})

	appRouter := router.NewFiberRouter(cfg, logOutput, demoHandler, healthHandler)

	return &Application{
		router:    appRouter,
		config:    cfg,
		stopFuncs: stopFuncs,
	}, nil
}
