package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatkhan05/ai-try-on/internal/auth"
	"github.com/fatkhan05/ai-try-on/internal/config"
	"github.com/fatkhan05/ai-try-on/internal/grpcclient"
	"github.com/fatkhan05/ai-try-on/internal/handlers"
	"github.com/fatkhan05/ai-try-on/internal/inflight"
	"github.com/fatkhan05/ai-try-on/internal/logging"
	"github.com/fatkhan05/ai-try-on/internal/repository"
	"github.com/fatkhan05/ai-try-on/internal/tryon"
	"github.com/fatkhan05/ai-try-on/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	repo := initRepository(ctx, cfg, logger)
	cache, guard := initCoordination(ctx, cfg, logger)

	generator, conn := initGenerator(ctx, cfg, logger)
	if conn != nil {
		defer conn.Close()
	}

	uc := usecase.NewTryOnUseCase(repo, cache, guard, generator, logger, usecase.Options{
		MaxImageBytes: cfg.MaxImageBytes,
		ResultTTL:     cfg.ResultTTL,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(cfg, uc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("try-on API listening",
		zap.String("addr", cfg.Addr()),
		zap.String("model_version", cfg.ModelVersion),
		zap.Bool("redis", cfg.RedisAddr != ""),
		zap.Bool("database", cfg.DatabaseDSN != ""),
		zap.Bool("remote_inference", cfg.InferenceAddr != ""),
	)
	if err := serveHTTPServer(server, cfg.ShutdownTimeout, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, uc *usecase.TryOnUseCase, logger *zap.Logger) *gin.Engine {
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(handlers.Recovery(logger), handlers.RequestLogger(logger), handlers.CORS(cfg.AllowAllOrigins(), cfg.CORSOrigins))

	handlers.RegisterRoutes(r, uc, auth.SessionMiddleware(cfg.JWTSecret, cfg.JWTAudience), logger)
	if cfg.AssetsDir != "" {
		r.Static("/images", cfg.AssetsDir)
	}
	return r
}

// initRepository uses Postgres when DATABASE_DSN is set and an in-process
// store otherwise.
func initRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) repository.Store {
	if cfg.DatabaseDSN == "" {
		logger.Info("DATABASE_DSN not set, keeping try-on logs in memory")
		return repository.NewMemoryTryOnRepository()
	}

	db := initDatabase(ctx, cfg.DatabaseDSN, logger)
	repo := repository.NewTryOnRepository(db, logger)
	if err := repo.AutoMigrate(ctx); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}
	return repo
}

// initCoordination picks the result cache and in-flight guard. Redis makes
// both shared across instances.
func initCoordination(ctx context.Context, cfg *config.Config, logger *zap.Logger) (usecase.Cache, inflight.Guard) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using single-instance cache and in-flight guard")
		return usecase.NewMemoryCache(), inflight.NewLocalGuard()
	}

	redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
	defer redisCancel()
	client := initRedis(redisCtx, cfg.RedisAddr, logger)
	return usecase.NewRedisCache(client), inflight.NewRedisGuard(client, cfg.InflightTTL, logger)
}

func initGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (tryon.ResultGenerator, *grpc.ClientConn) {
	if cfg.InferenceAddr == "" {
		return tryon.NewMockGenerator(tryon.MockConfig{
			PreprocessDelay: cfg.PreprocessDelay,
			ProcessingDelay: cfg.ProcessingDelay,
			Jitter:          cfg.ProcessingJitter,
			ModelVersion:    cfg.ModelVersion,
		}), nil
	}

	generator, conn, err := grpcclient.DialInference(ctx, cfg.InferenceAddr, logger)
	if err != nil {
		logger.Fatal("failed to connect to inference service", zap.Error(err))
	}
	return generator, conn
}

func initDatabase(ctx context.Context, dsn string, zapLogger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("failed to access db handle", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		zapLogger.Fatal("database ping failed", zap.Error(err))
	}

	return db
}

func initRedis(ctx context.Context, addr string, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	return client
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
